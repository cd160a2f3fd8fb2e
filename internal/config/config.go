package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL   string
	ServerAddr    string
	MigrationsDir string

	DrainInterval  time.Duration
	DrainBatchSize int

	PushEndpoint string
	PushTimeout  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	EmailEnabled bool

	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from the environment, with a best-effort
// .env load first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "rental_hub")
		pass := getenv("POSTGRES_PASSWORD", "rental_hub_pass")
		db := getenv("POSTGRES_DB", "rental_hub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	return &Config{
		DatabaseURL:    dsn,
		ServerAddr:     getenv("SERVER_ADDR", "0.0.0.0:8080"),
		MigrationsDir:  getenv("MIGRATIONS_DIR", "internal/migrations"),
		DrainInterval:  parseDuration(getenv("RETRY_DRAIN_INTERVAL", "30s"), 30*time.Second),
		DrainBatchSize: parseInt(getenv("RETRY_DRAIN_BATCH", "50"), 50),
		PushEndpoint:   os.Getenv("PUSH_ENDPOINT"),
		PushTimeout:    parseDuration(getenv("PUSH_TIMEOUT", "10s"), 10*time.Second),
		SMTPHost:       getenv("SMTP_HOST", "localhost"),
		SMTPPort:       parseInt(getenv("SMTP_PORT", "587"), 587),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:       getenv("SMTP_FROM", "no-reply@rental-hub.local"),
		EmailEnabled:   parseBool(getenv("EMAIL_ENABLED", "false"), false),
		KafkaBrokers:   splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:     getenv("KAFKA_TOPIC", "quote_events"),
		KafkaEnabled:   parseBool(getenv("KAFKA_ENABLED", "false"), false),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func parseBool(val string, def bool) bool {
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func splitCSV(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
