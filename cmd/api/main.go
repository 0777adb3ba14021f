package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lead-capture-api/internal/application/portfolio"
	"github.com/lead-capture-api/internal/application/report"
	"github.com/lead-capture-api/internal/config"
	"github.com/lead-capture-api/internal/infrastructure/dynamo"
	"github.com/lead-capture-api/internal/infrastructure/logmail"
	"github.com/lead-capture-api/internal/infrastructure/pending"
	s3infra "github.com/lead-capture-api/internal/infrastructure/s3"
	"github.com/lead-capture-api/internal/infrastructure/ses"
	"github.com/lead-capture-api/internal/infrastructure/smtp"
	"github.com/lead-capture-api/internal/infrastructure/sns"
	"github.com/lead-capture-api/internal/infrastructure/twilio"
	"github.com/lead-capture-api/internal/pkg/token"
	transporthttp "github.com/lead-capture-api/internal/transport/http"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	carrier, storeBackend, err := buildCarrier(ctx, cfg)
	if err != nil {
		slog.Error("state carrier not available", "err", err)
		os.Exit(1)
	}

	mailer, delivering := buildMailer(ctx, cfg)

	reportSvc := report.NewService(report.ServiceDeps{
		Carrier:     carrier,
		Gateway:     buildGateway(ctx, cfg),
		Mailer:      mailer,
		AdminEmails: cfg.ReportAdminEmails,
		CountryCode: cfg.PhoneCountryCode,
		BrandName:   cfg.MailBrandName,
		CompanyName: cfg.MailCompanyName,
	})

	portfolioDeps := portfolio.ServiceDeps{
		AdminEmails: cfg.PortfolioAdminEmails,
		BrandName:   cfg.MailBrandName,
		CompanyName: cfg.MailCompanyName,
	}
	// Without a real mail provider the portfolio flow logs the submission itself.
	if delivering {
		portfolioDeps.Mailer = mailer
	}
	if cfg.S3ArchiveBucket != "" {
		if client, err := s3infra.NewClient(ctx, cfg); err == nil {
			portfolioDeps.Archive = s3infra.NewArchive(client, cfg.S3ArchiveBucket)
		} else {
			slog.Warn("S3 archive not available", "err", err)
		}
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Report:       reportSvc,
		Portfolio:    portfolio.NewService(portfolioDeps),
		StoreBackend: storeBackend,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "carrier", carrier.Kind())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// buildCarrier returns the configured state carrier. For the store carrier it
// also returns a func reporting which pending backend is serving.
func buildCarrier(ctx context.Context, cfg *config.Config) (report.Carrier, func() string, error) {
	if cfg.StateCarrier == config.CarrierToken {
		codec, err := token.NewCodec(cfg.TokenSecret, cfg.TokenTTL, cfg.IsProduction())
		if err != nil {
			return nil, nil, err
		}
		if len(cfg.TokenSecret) < token.MinSecretLen {
			slog.Warn("REPORT_TOKEN_SECRET not set, using development secret")
		}
		return report.NewTokenCarrier(codec), nil, nil
	}

	var backends []pending.Backend
	if cfg.DynamoPendingTable != "" {
		if client, err := dynamo.NewClient(ctx, cfg); err != nil {
			slog.Warn("DynamoDB client not available, skipping remote pending store", "err", err)
		} else if dynamo.Bootstrap(ctx, client, cfg.DynamoPendingTable) {
			backends = append(backends, dynamo.NewPendingRepo(client, cfg.DynamoPendingTable))
		}
	}
	if cfg.PendingStoreFile != "" {
		backends = append(backends, pending.NewFile(cfg.PendingStoreFile))
	}
	store := pending.New(backends...)
	slog.Info("pending store ready", "backend", store.Backend())
	return report.NewStoreCarrier(store, cfg.PendingTTL), store.Backend, nil
}

// buildGateway returns nil when the selected SMS provider is not configured;
// the report flow then answers with GatewayUnavailable.
func buildGateway(ctx context.Context, cfg *config.Config) report.Gateway {
	switch cfg.SMSProvider {
	case config.SMSProviderSNS:
		sender, err := sns.NewSender(ctx, cfg)
		if err != nil {
			slog.Warn("SNS sender not available", "err", err)
			return nil
		}
		return sns.NewOTPGateway(sender, cfg.SMSOTPTTL, cfg.SMSOTPMaxAttempts)
	default:
		gw, err := twilio.NewGateway(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioVerifyServiceSID)
		if err != nil {
			slog.Warn("Twilio Verify not configured", "err", err)
			return nil
		}
		return gw
	}
}

// buildMailer reports false when messages are only logged.
func buildMailer(ctx context.Context, cfg *config.Config) (report.Mailer, bool) {
	switch cfg.ResolvedMailProvider() {
	case config.MailProviderSES:
		m, err := ses.NewMailer(ctx, cfg)
		if err != nil {
			slog.Warn("SES mailer not available, logging mail instead", "err", err)
			return logmail.NewMailer(slog.Default()), false
		}
		return m, true
	case config.MailProviderSMTP:
		return smtp.NewMailer(cfg), true
	default:
		return logmail.NewMailer(slog.Default()), false
	}
}
