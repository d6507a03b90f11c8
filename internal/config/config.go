package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DatabaseDriver string
	DatabaseURL    string

	CalWebhookSecret    string
	ResendWebhookSecret string
	WebhookMaxBodyBytes int64

	RabbitMQURL string

	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailFrom string

	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseDriver:      getEnv("DATABASE_DRIVER", "pgx"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		CalWebhookSecret:    os.Getenv("CAL_WEBHOOK_SECRET"),
		ResendWebhookSecret: os.Getenv("RESEND_WEBHOOK_SECRET"),
		WebhookMaxBodyBytes: getEnvInt64("WEBHOOK_MAX_BODY_BYTES", 1<<20),
		RabbitMQURL:         os.Getenv("RABBITMQ_URL"),
		MailHost:            os.Getenv("MAIL_HOST"),
		MailPort:            int(getEnvInt64("MAIL_PORT", 587)),
		MailUser:            os.Getenv("MAIL_USER"),
		MailPass:            os.Getenv("MAIL_PASS"),
		MailFrom:            getEnv("MAIL_FROM", "nao-responda@ligue.dev"),
		AllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "pgx", "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required unless DATABASE_DRIVER=memory")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.WebhookMaxBodyBytes <= 0 {
		return errors.New("WEBHOOK_MAX_BODY_BYTES must be positive")
	}
	return nil
}

func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseDriver == "memory"
}

func (c *Config) MailConfigured() bool {
	return c.MailHost != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		slog.Warn("invalid integer env value, using fallback",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Int64("fallback", fallback),
		)
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
