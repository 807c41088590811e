// Package config provides application configuration loaded from environment
// variables with defaults and validation. It covers the backend client, the
// list controllers, the credential store and the local bridge server.
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ClientConfig configures the outbound transport client.
type ClientConfig struct {
	BaseURL   string        // API_BASE_URL, absolute
	Timeout   time.Duration // HTTP_TIMEOUT
	RateRPS   float64       // CLIENT_RATE_RPS, 0 disables pacing
	RateBurst int           // CLIENT_RATE_BURST
}

// ListConfig configures list query controllers.
type ListConfig struct {
	SearchDelay  time.Duration // SEARCH_DELAY, keyword debounce
	FilterDelay  time.Duration // FILTER_DELAY
	FetchTimeout time.Duration // LIST_FETCH_TIMEOUT, 0 = none
}

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

// Config holds all configuration values for the application.
type Config struct {
	// Backend
	Client        ClientConfig
	SuppliersPath string // SUPPLIERS_PATH, empty = supplier lookups not implemented

	// Lists
	Lists ListConfig

	// Credentials
	CredentialsDB     string // CREDENTIALS_DB, SQLite path; empty disables persistence
	CredentialProfile string // CREDENTIALS_PROFILE

	// Bridge server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test
	APIBasePath       string
	UploadMaxBytes    int64

	// Bridge rate limiting
	RateRPS   float64
	RateBurst int

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

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
		Client: ClientConfig{
			BaseURL:   strings.TrimSpace(getenv("API_BASE_URL", "http://localhost:8000/api")),
			Timeout:   getdur("HTTP_TIMEOUT", 30*time.Second),
			RateRPS:   getfloat("CLIENT_RATE_RPS", 0),
			RateBurst: getint("CLIENT_RATE_BURST", 1),
		},
		SuppliersPath: strings.TrimSpace(getenv("SUPPLIERS_PATH", "")),

		Lists: ListConfig{
			SearchDelay:  getdur("SEARCH_DELAY", 300*time.Millisecond),
			FilterDelay:  getdur("FILTER_DELAY", 0),
			FetchTimeout: getdur("LIST_FETCH_TIMEOUT", 0),
		},

		CredentialsDB:     strings.TrimSpace(getenv("CREDENTIALS_DB", "credentials.db")),
		CredentialProfile: strings.TrimSpace(getenv("CREDENTIALS_PROFILE", "default")),

		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		APIBasePath:       normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
		UploadMaxBytes:    int64(getint("UPLOAD_MAX_BYTES", 10<<20)),

		RateRPS:   getfloat("RATE_RPS", 20),
		RateBurst: getint("RATE_BURST", 40),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-bizdata"),
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
	if cfg.CredentialProfile == "" {
		cfg.CredentialProfile = "default"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if u, err := url.Parse(cfg.Client.BaseURL); err != nil || !u.IsAbs() || u.Host == "" {
		return cfg, errors.New("API_BASE_URL must be an absolute URL")
	}
	if cfg.Client.Timeout <= 0 {
		return cfg, errors.New("HTTP_TIMEOUT must be > 0")
	}
	if cfg.Client.RateRPS < 0 {
		return cfg, errors.New("CLIENT_RATE_RPS must be >= 0")
	}
	if cfg.Client.RateBurst < 1 {
		return cfg, errors.New("CLIENT_RATE_BURST must be >= 1")
	}
	if cfg.Lists.SearchDelay < 0 || cfg.Lists.FilterDelay < 0 || cfg.Lists.FetchTimeout < 0 {
		return cfg, errors.New("SEARCH_DELAY, FILTER_DELAY and LIST_FETCH_TIMEOUT must be >= 0")
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
	if cfg.UploadMaxBytes <= 0 {
		return cfg, errors.New("UPLOAD_MAX_BYTES must be > 0")
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
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
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

// getdur accepts Go durations ("300ms") and bare integers as milliseconds.
func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		v = strings.TrimSpace(v)
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
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
