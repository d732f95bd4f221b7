package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. SURVEYBOT_TELEGRAM_TOKEN.
const EnvPrefix = "SURVEYBOT"

// LoadConfig reads configuration from the YAML file at path, applies
// SURVEYBOT_* environment overrides and validates the result. A missing file
// is not an error; defaults are used instead.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	setDefaults(v, cfg)

	// Deployment platforms hand these over without a prefix.
	if err := v.BindEnv("database.dsn", EnvPrefix+"_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind database dsn env: %w", err)
	}
	if err := v.BindEnv("telegram.token", EnvPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind telegram token env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg against its struct rules.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setDefaults registers scalar keys with viper so that environment overrides
// are picked up even when the key is absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("logger.level", cfg.Logger.Level)
	v.SetDefault("logger.json", cfg.Logger.JSON)

	v.SetDefault("telegram.token", cfg.Telegram.Token)
	v.SetDefault("telegram.super_admin_id", cfg.Telegram.SuperAdminID)
	v.SetDefault("telegram.super_admin_username", cfg.Telegram.SuperAdminUsername)

	v.SetDefault("database.driver", cfg.Database.Driver)
	v.SetDefault("database.dsn", cfg.Database.DSN)

	v.SetDefault("session.ttl", cfg.Session.TTL)
	v.SetDefault("broadcast.interval", cfg.Broadcast.Interval)
	v.SetDefault("relay.recent_customers_limit", cfg.Relay.RecentCustomersLimit)
	v.SetDefault("relay.envelope_retention", cfg.Relay.EnvelopeRetention)
	v.SetDefault("report.detailed_limit", cfg.Report.DetailedLimit)
	v.SetDefault("report.chunk_size", cfg.Report.ChunkSize)

	v.SetDefault("gemini.api_key", cfg.Gemini.APIKey)
	v.SetDefault("gemini.model_name", cfg.Gemini.ModelName)
	v.SetDefault("gemini.temperature", cfg.Gemini.Temperature)
	v.SetDefault("gemini.max_retries", cfg.Gemini.MaxRetries)
	v.SetDefault("gemini.retry_delay_seconds", cfg.Gemini.RetryDelaySeconds)
	v.SetDefault("gemini.timeout", cfg.Gemini.Timeout)
	v.SetDefault("gemini.sample_size", cfg.Gemini.SampleSize)

	v.SetDefault("metrics.address", cfg.Metrics.Address)
}
