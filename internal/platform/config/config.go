package config

import (
	"os"
	"strings"
	"time"
)

// Config captures server level configuration built from the environment so
// main stays lean. Optional backends (Redis, Postgres, Kafka) are disabled
// when their setting is empty; the service falls back to in-memory stores.
type Config struct {
	Addr          string
	JWTSigningKey string

	RedisURL    string
	PostgresDSN string

	KafkaBrokers []string
	AuditTopic   string

	// RecentAuthWindow is how fresh a session's authentication must be for
	// destructive identity operations to proceed without a re-login.
	RecentAuthWindow time.Duration

	// CachePartitions are the ephemeral key prefixes cleared when an account
	// is erased (dashboards, chart series, FX rates).
	CachePartitions []string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:             envOr("MINTY_ADDR", ":8080"),
		JWTSigningKey:    envOr("MINTY_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		RedisURL:         os.Getenv("MINTY_REDIS_URL"),
		PostgresDSN:      os.Getenv("MINTY_POSTGRES_DSN"),
		AuditTopic:       envOr("MINTY_AUDIT_TOPIC", "minty.audit"),
		RecentAuthWindow: 5 * time.Minute,
		CachePartitions:  []string{"dashboard:", "charts:", "fx:"},
	}

	if brokers := os.Getenv("MINTY_KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	if window := os.Getenv("MINTY_RECENT_AUTH_WINDOW"); window != "" {
		if parsed, err := time.ParseDuration(window); err == nil && parsed > 0 {
			cfg.RecentAuthWindow = parsed
		}
	}
	if partitions := os.Getenv("MINTY_CACHE_PARTITIONS"); partitions != "" {
		cfg.CachePartitions = nil
		for _, p := range strings.Split(partitions, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.CachePartitions = append(cfg.CachePartitions, p)
			}
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
