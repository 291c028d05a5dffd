// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, the intake ledger path, gateway credentials for the helpdesk and
// ERP systems, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ZammadConfig holds settings for the helpdesk gateway. An empty Token means
// the gateway is unconfigured and ticket creation fails fast.
type ZammadConfig struct {
	BaseURL           string        // ZAMMAD_BASE_URL
	Token             string        // ZAMMAD_TOKEN
	Group             string        // ZAMMAD_GROUP
	DefaultCustomerID int           // ZAMMAD_CUSTOMER_ID (fallback identity)
	PriorityID        int           // ZAMMAD_PRIORITY_ID
	State             string        // ZAMMAD_STATE (initial ticket state)
	ChannelField      string        // ZAMMAD_INTAKE_CHANNEL_FIELD ("" disables)
	ChannelValue      string        // ZAMMAD_CHANNEL_TELEGRAM_VALUE
	ERPIssueField     string        // ZAMMAD_ERP_ISSUE_FIELD (cross-link custom field)
	SynthEmailDomain  string        // ZAMMAD_SYNTH_EMAIL_DOMAIN (customer identity key)
	Timeout           time.Duration // ZAMMAD_TIMEOUT
}

// ERPNextConfig holds settings for the ERP gateway. The gateway is active
// only when Enabled is true and both credentials are present.
type ERPNextConfig struct {
	Enabled      bool          // ENABLE_ERP_ISSUE
	BaseURL      string        // ERPNEXT_BASE_URL
	APIKey       string        // ERPNEXT_API_KEY
	APISecret    string        // ERPNEXT_API_SECRET
	IssueDoctype string        // ERPNEXT_ISSUE_DOCTYPE
	Timeout      time.Duration // ERPNEXT_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 30s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Auth
	IntegrationToken string // static bearer token shared with callers

	// App
	DBPath string // SQLite path for the intake ledger

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyKeyMaxLen int // max accepted Idempotency-Key length

	// Gateways
	Zammad  ZammadConfig
	ERPNext ERPNextConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Auth
		IntegrationToken: getenv("INTEGRATION_TOKEN", ""),

		// App
		DBPath: getenv("SQLITE_PATH", "data/integration.db"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 10.0),
		RateBurst: getint("RATE_BURST", 20),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyKeyMaxLen: getint("IDEMPOTENCY_KEY_MAX_LEN", 200),

		// Gateways
		Zammad: ZammadConfig{
			BaseURL:           strings.TrimRight(getenv("ZAMMAD_BASE_URL", "http://127.0.0.1:8080"), "/"),
			Token:             getenv("ZAMMAD_TOKEN", ""),
			Group:             getenv("ZAMMAD_GROUP", "Users"),
			DefaultCustomerID: getint("ZAMMAD_CUSTOMER_ID", 1),
			PriorityID:        getint("ZAMMAD_PRIORITY_ID", 2),
			State:             getenv("ZAMMAD_STATE", "new"),
			ChannelField:      getenv("ZAMMAD_INTAKE_CHANNEL_FIELD", ""),
			ChannelValue:      getenv("ZAMMAD_CHANNEL_TELEGRAM_VALUE", "telegram"),
			ERPIssueField:     getenv("ZAMMAD_ERP_ISSUE_FIELD", "erp_issue_ref"),
			SynthEmailDomain:  getenv("ZAMMAD_SYNTH_EMAIL_DOMAIN", "intake.invalid"),
			Timeout:           getdur("ZAMMAD_TIMEOUT", 20*time.Second),
		},
		ERPNext: ERPNextConfig{
			Enabled:      getbool("ENABLE_ERP_ISSUE", false),
			BaseURL:      strings.TrimRight(getenv("ERPNEXT_BASE_URL", "http://127.0.0.1:8081"), "/"),
			APIKey:       getenv("ERPNEXT_API_KEY", ""),
			APISecret:    getenv("ERPNEXT_API_SECRET", ""),
			IssueDoctype: getenv("ERPNEXT_ISSUE_DOCTYPE", "Issue"),
			Timeout:      getdur("ERPNEXT_TIMEOUT", 20*time.Second),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "integration-service"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("SQLITE_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyKeyMaxLen < 1 {
		return cfg, errors.New("IDEMPOTENCY_KEY_MAX_LEN must be >= 1")
	}
	if cfg.Zammad.Timeout <= 0 || cfg.ERPNext.Timeout <= 0 {
		return cfg, errors.New("gateway timeouts must be positive durations")
	}
	if cfg.ERPNext.Enabled && strings.TrimSpace(cfg.ERPNext.BaseURL) == "" {
		return cfg, errors.New("ERPNEXT_BASE_URL must not be empty when ENABLE_ERP_ISSUE is set")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
