package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string `env:"ENV" envDefault:"development"` // "development", "production", etc.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server
	ServerAddr string `env:"SERVER_ADDR" envDefault:":3000"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	ViewsDir   string `env:"VIEWS_DIR" envDefault:"./views"`

	// TLS
	TLSEnabled  bool   `env:"TLS_ENABLED" envDefault:"false"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`
	TLSCAFile   string `env:"TLS_CA_FILE"` // Enables mTLS when set

	// Model artifacts: local paths or s3://bucket/key
	EnsembleModelPath   string `env:"ENSEMBLE_MODEL_PATH" envDefault:"random_forest_model.json"`
	TimeSeriesModelPath string `env:"TIMESERIES_MODEL_PATH" envDefault:"timeseries_model.json"`
	ModelsFile          string `env:"MODELS_FILE" envDefault:"models.yaml"`

	// Background artifact availability check, disabled when zero
	ArtifactCheckInterval time.Duration `env:"ARTIFACT_CHECK_INTERVAL" envDefault:"5m"`

	// S3 artifact storage
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`

	// SMTP alerts when an artifact becomes unreadable
	SMTPEnabled  bool     `env:"SMTP_ENABLED" envDefault:"false"`
	SMTPHost     string   `env:"SMTP_HOST"`
	SMTPPort     int      `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string   `env:"SMTP_USERNAME"`
	SMTPPassword string   `env:"SMTP_PASSWORD"`
	SMTPFrom     string   `env:"SMTP_FROM"`
	SMTPFromName string   `env:"SMTP_FROM_NAME" envDefault:"Sales Forecast"`
	SMTPTLS      string   `env:"SMTP_TLS" envDefault:"starttls"` // "none", "tls", or "starttls"
	AlertEmails  []string `env:"ALERT_EMAILS" envSeparator:","`

	// Prediction history, disabled when empty
	DatabaseURL string `env:"DATABASE_URL"`

	// Rate limiter and session storage, in-memory when empty
	RedisURL     string `env:"REDIS_URL"`
	RateLimitMax int    `env:"RATE_LIMIT_MAX" envDefault:"60"`

	// OIDC, login gate disabled when OIDCIssuer is empty
	OIDCIssuer       string `env:"OIDC_ISSUER"`
	OIDCClientID     string `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `env:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `env:"OIDC_REDIRECT_URL" envDefault:"http://localhost:3000/auth/callback"`

	// Session
	SessionSecret string `env:"SESSION_SECRET" envDefault:"change-me-in-production-min-32-chars"` // Used for signing cookies (min 32 chars)

	// CORS
	CORSOrigins string `env:"CORS_ORIGINS"` // Comma-separated allowed origins

	// Site Branding
	SiteTitle   string `env:"SITE_TITLE" envDefault:"Weekly Sales Forecast"`
	SiteTagline string `env:"SITE_TAGLINE" envDefault:"Point predictions with confidence intervals"`
	SiteFooter  string `env:"SITE_FOOTER" envDefault:"Models must be pre-trained. Input values should reflect your data's typical range. Confidence intervals are estimates."`
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}
	return Parse()
}

// Parse reads configuration from the current environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if cfg.TLSEnabled && (cfg.TLSCertFile == "" || cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("TLS_ENABLED requires TLS_CERT_FILE and TLS_KEY_FILE")
	}
	if cfg.ArtifactCheckInterval < 0 {
		return nil, fmt.Errorf("ARTIFACT_CHECK_INTERVAL must not be negative, got %s", cfg.ArtifactCheckInterval)
	}
	switch cfg.SMTPTLS {
	case "none", "tls", "starttls":
	default:
		return nil, fmt.Errorf("SMTP_TLS must be none, tls or starttls, got %q", cfg.SMTPTLS)
	}
	if cfg.RateLimitMax <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", cfg.RateLimitMax)
	}
	return &cfg, nil
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// HistoryEnabled reports whether predictions are recorded to Postgres.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

// ArtifactPaths returns the artifact URI per model kind. Registry entries
// with a path override the environment.
func (c *Config) ArtifactPaths(reg *ModelsConfig) map[string]string {
	paths := map[string]string{
		"ensemble":    c.EnsembleModelPath,
		"time-series": c.TimeSeriesModelPath,
	}
	if reg != nil {
		for _, m := range reg.Models {
			if m.Path != "" {
				paths[m.Kind] = m.Path
			}
		}
	}
	return paths
}

// IsEmailEnabled returns true if SMTP is configured well enough to send.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPEnabled && c.SMTPHost != "" && c.SMTPFrom != ""
}

// AuthEnabled reports whether the OIDC login gate is active.
func (c *Config) AuthEnabled() bool {
	return c.OIDCIssuer != ""
}
