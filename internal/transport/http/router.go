package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/lead-capture-api/internal/application/portfolio"
	"github.com/lead-capture-api/internal/application/report"
	"github.com/lead-capture-api/internal/config"
	"github.com/lead-capture-api/internal/transport/http/handler"
	appmiddleware "github.com/lead-capture-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds the application services wired by main.
type Deps struct {
	Report       report.Service
	Portfolio    portfolio.Service
	StoreBackend func() string // nil when the token carrier is active
	RateLimiter  *appmiddleware.RateLimiter
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on every public write endpoint.
	rl := deps.RateLimiter
	if rl == nil {
		rl = appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	}
	if proxies, err := cfg.TrustedProxyPrefixes(); err == nil {
		rl.TrustProxies(proxies...)
	}

	healthH := handler.NewHealthHandler(deps.StoreBackend)
	reportH := handler.NewReportHandler(deps.Report)
	portfolioH := handler.NewPortfolioHandler(deps.Portfolio)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(rl.Limit)

			r.Post("/report/register", reportH.Register)
			r.Post("/report/send-sms", reportH.SendSMS)
			r.Post("/report/verify-sms", reportH.VerifySMS)
			r.Post("/portfolio", portfolioH.Submit)
		})
	})

	return r
}
