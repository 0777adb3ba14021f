package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lead-capture-api/internal/pkg/token"
)

// State carrier modes for the report signup flow.
const (
	CarrierStore = "store"
	CarrierToken = "token"
)

// SMS OTP providers.
const (
	SMSProviderTwilio = "twilio"
	SMSProviderSNS    = "sns"
)

// Mail providers. An empty MailProvider is resolved by ResolvedMailProvider.
const (
	MailProviderSES  = "ses"
	MailProviderSMTP = "smtp"
	MailProviderLog  = "log"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	// Pending-record store. An empty DynamoPendingTable disables the remote backend.
	DynamoPendingTable string
	PendingStoreFile   string
	PendingTTL         time.Duration

	StateCarrier     string
	TokenSecret      string
	TokenTTL         time.Duration
	PhoneCountryCode string

	SMSProvider            string
	TwilioAccountSID       string
	TwilioAuthToken        string
	TwilioVerifyServiceSID string
	SNSRegion              string
	SMSOTPTTL              time.Duration
	SMSOTPMaxAttempts      int

	MailProvider    string
	MailFromAddress string
	MailFromName    string
	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	MailBrandName   string
	MailCompanyName string

	ReportAdminEmails    []string
	PortfolioAdminEmails []string
	S3ArchiveBucket      string

	AllowedOrigins []string // CORS allowed origins
	TrustedProxies []string // CIDRs or IPs whose X-Forwarded-For is honored
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "ap-northeast-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoPendingTable: getEnv("DYNAMO_TABLE_REPORT_PENDING", ""),
		PendingStoreFile:   getEnv("PENDING_STORE_FILE", ".data/report-pending.json"),
		PendingTTL:         getEnvDuration("PENDING_TTL", 2*time.Hour),

		StateCarrier:     strings.ToLower(getEnv("REPORT_STATE_CARRIER", CarrierStore)),
		TokenSecret:      getEnv("REPORT_TOKEN_SECRET", ""),
		TokenTTL:         getEnvDuration("REPORT_TOKEN_TTL", 2*time.Hour),
		PhoneCountryCode: getEnv("PHONE_DEFAULT_COUNTRY_CODE", "81"),

		SMSProvider:            strings.ToLower(getEnv("SMS_OTP_PROVIDER", SMSProviderTwilio)),
		TwilioAccountSID:       getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:        getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioVerifyServiceSID: getEnv("TWILIO_VERIFY_SERVICE_SID", ""),
		SNSRegion:              getEnv("SNS_REGION", "ap-northeast-1"),
		SMSOTPTTL:              getEnvDuration("SMS_OTP_TTL", 10*time.Minute),
		SMSOTPMaxAttempts:      getEnvInt("SMS_OTP_MAX_ATTEMPTS", 5),

		MailProvider:    strings.ToLower(getEnv("MAIL_PROVIDER", "")),
		MailFromAddress: getEnv("MAIL_FROM_ADDRESS", "noreply@example.com"),
		MailFromName:    getEnv("MAIL_FROM_NAME", ""),
		SMTPHost:        getEnv("SMTP_HOST", "localhost"),
		SMTPPort:        getEnv("SMTP_PORT", "1025"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		MailBrandName:   getEnv("MAIL_BRAND_NAME", "投資のKAWARA版"),
		MailCompanyName: getEnv("MAIL_COMPANY_NAME", ""),

		ReportAdminEmails:    getEnvList("REPORT_ADMIN_EMAILS"),
		PortfolioAdminEmails: getEnvList("PORTFOLIO_ADMIN_EMAILS"),
		S3ArchiveBucket:      getEnv("S3_ARCHIVE_BUCKET", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
	}
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// HasAWSCredentials reports whether static AWS credentials or a local endpoint are configured.
func (c *Config) HasAWSCredentials() bool {
	return (c.AWSAccessKeyID != "" && c.AWSSecretKey != "") || c.AWSEndpointURL != ""
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is a single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, v := range c.TrustedProxies {
		if p, err := netip.ParsePrefix(v); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid entry %q", v)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// ResolvedMailProvider returns MailProvider, or picks SES when AWS credentials
// exist and falls back to the log sink otherwise.
func (c *Config) ResolvedMailProvider() string {
	if c.MailProvider != "" {
		return c.MailProvider
	}
	if c.HasAWSCredentials() {
		return MailProviderSES
	}
	return MailProviderLog
}

// Validate reports settings that must not reach a running server.
func (c *Config) Validate() error {
	var errs []error
	switch c.StateCarrier {
	case CarrierStore, CarrierToken:
	default:
		errs = append(errs, errors.New("REPORT_STATE_CARRIER must be \"store\" or \"token\""))
	}
	if c.StateCarrier == CarrierToken && c.IsProduction() && len(c.TokenSecret) < token.MinSecretLen {
		errs = append(errs, errors.New("REPORT_TOKEN_SECRET must be set (>= 16 bytes) in production"))
	}
	switch c.SMSProvider {
	case SMSProviderTwilio, SMSProviderSNS:
	default:
		errs = append(errs, errors.New("SMS_OTP_PROVIDER must be \"twilio\" or \"sns\""))
	}
	switch c.ResolvedMailProvider() {
	case MailProviderSES, MailProviderSMTP, MailProviderLog:
	default:
		errs = append(errs, errors.New("MAIL_PROVIDER must be \"ses\", \"smtp\" or \"log\""))
	}
	if c.PendingTTL <= 0 || c.TokenTTL <= 0 {
		errs = append(errs, errors.New("PENDING_TTL and REPORT_TOKEN_TTL must be positive"))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
