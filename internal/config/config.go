package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server ports
	APIPort  int
	SMTPPort int

	// SMTPIngestDomain is the recipient domain the forward-to-address
	// listener accepts mail for.
	SMTPIngestDomain string

	// Google OAuth client used to mint per-account token sources
	GoogleClientID     string
	GoogleClientSecret string

	// Pub/Sub topic the Gmail watch publishes to
	PubSubTopic string

	// Extraction service
	OpenAIKey   string
	OpenAIModel string

	// AssumedOffsetHours is the fixed local offset the extraction service
	// is instructed to emit timestamps in. Persisted times are shifted by
	// this amount to UTC. This is a documented simplification, not
	// timezone inference.
	AssumedOffsetHours int

	// DedupEnabled controls lookup-before-insert on
	// (account, source message, index) during persistence.
	DedupEnabled bool

	// Logging
	LogLevel string

	// Security
	APIKey         string
	AllowedOrigins string
	AppEnv         string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	apiPort, err := envInt("API_PORT", 8080)
	if err != nil {
		return nil, err
	}
	// SMTP_PORT=0 disables the ingest listener.
	smtpPort, err := envInt("SMTP_PORT", 2525)
	if err != nil {
		return nil, err
	}
	// Matches the fixed offset the extraction prompt instructs.
	offsetHours, err := envInt("ASSUMED_OFFSET_HOURS", 2)
	if err != nil {
		return nil, err
	}
	dedupEnabled, err := envBool("DEDUP_ENABLED", true)
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURL:        databaseURL,
		APIPort:            apiPort,
		SMTPPort:           smtpPort,
		SMTPIngestDomain:   envString("SMTP_INGEST_DOMAIN", "localhost"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		PubSubTopic:        os.Getenv("PUBSUB_TOPIC"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        envString("OPENAI_MODEL", "gpt-4o"),
		AssumedOffsetHours: offsetHours,
		DedupEnabled:       dedupEnabled,
		LogLevel:           envString("LOG_LEVEL", "info"),
		APIKey:             os.Getenv("API_KEY"),
		AllowedOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AppEnv:             envString("APP_ENV", "development"),
	}, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a valid boolean: %w", key, err)
	}
	return b, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.SMTPPort < 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTPPort must be between 0 and 65535")
	}
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	if c.PubSubTopic == "" {
		return fmt.Errorf("PUBSUB_TOPIC is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.Int("smtp_port", c.SMTPPort),
		slog.String("pubsub_topic", c.PubSubTopic),
		slog.String("openai_model", c.OpenAIModel),
		slog.Int("assumed_offset_hours", c.AssumedOffsetHours),
		slog.Bool("dedup_enabled", c.DedupEnabled),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("openai_key_set", c.OpenAIKey != ""),
		slog.Bool("google_client_set", c.GoogleClientID != ""),
	)
}
