package config

import (
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/table_order/pkg/config"
	"github.com/Skotchmaster/table_order/pkg/db"
)

type ServiceConfig struct {
	config.Config
}

// Load reads .env when present, then the environment, and stops the process
// when a required value is missing.
func Load() ServiceConfig {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info("env_file_not_loaded", "reason", err.Error())
	}

	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustOneOf(cfg.DatabaseDriver, "DATABASE_DRIVER", db.DriverPostgres, db.DriverSQLite)
	config.MustNonEmptyBytes(cfg.SessionSecret, "SESSION_SECRET")

	return ServiceConfig{Config: cfg}
}

// PaymentEnabled reports whether both processor secrets are set. Payment
// routes and the webhook are only served when it is true.
func (c ServiceConfig) PaymentEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != ""
}

func (c ServiceConfig) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func (c ServiceConfig) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c ServiceConfig) SearchEnabled() bool {
	return c.ESURL != ""
}
