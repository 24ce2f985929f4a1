package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseURL    string
	DatabaseDriver string

	RedisAddr string

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	SessionSecret []byte
	SessionTTL    time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeAPIURL        string
	PaymentTimeout      time.Duration

	PublicBaseURL string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "table-order"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseDriver: EnvDefault("DATABASE_DRIVER", "postgres"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "order_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		SessionSecret: []byte(os.Getenv("SESSION_SECRET")),
		SessionTTL:    EnvDurationDefault("SESSION_TTL", 2*time.Hour),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeAPIURL:        os.Getenv("STRIPE_API_URL"),
		PaymentTimeout:      EnvDurationDefault("PAYMENT_TIMEOUT", 10*time.Second),

		PublicBaseURL: EnvDefault("PUBLIC_BASE_URL", "http://localhost:3000"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
