package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service. Values come
// from environment variables so deployment stays twelve-factor.
type Config struct {
	Addr string

	// PostgresURL selects durable storage; empty means in-memory stores.
	PostgresURL string

	// Redis backs the role-lookup cache; empty disables caching.
	Redis        RedisConfig
	RoleCacheTTL time.Duration

	// KafkaBrokers enables the audit fan-out; empty disables it.
	KafkaBrokers []string
	AuditTopic   string

	// BootstrapAdmin is seeded with the Admin role at startup when it holds
	// no role yet.
	BootstrapAdmin string

	// TokenSigningKey signs identity tokens. RequireToken makes the
	// transport reject callers whose bearer token subject does not match the
	// sender identity they claim.
	TokenSigningKey string
	RequireToken    bool

	// CommitTimeout bounds how long a mutating request may wait on the
	// ledger before surfacing a ledger error.
	CommitTimeout time.Duration

	AuditInboxSize int
}

// RedisConfig mirrors the connection knobs the client wrapper applies.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:            getenv("FIRLEDGER_ADDR", ":8080"),
		PostgresURL:     os.Getenv("FIRLEDGER_POSTGRES_URL"),
		RoleCacheTTL:    getenvDuration("FIRLEDGER_ROLE_CACHE_TTL", 5*time.Minute),
		AuditTopic:      getenv("FIRLEDGER_AUDIT_TOPIC", "firledger.audit"),
		BootstrapAdmin:  os.Getenv("FIRLEDGER_BOOTSTRAP_ADMIN"),
		TokenSigningKey: getenv("FIRLEDGER_TOKEN_KEY", "dev-secret-key-change-in-production"),
		RequireToken:    os.Getenv("FIRLEDGER_REQUIRE_TOKEN") == "true",
		CommitTimeout:   getenvDuration("FIRLEDGER_COMMIT_TIMEOUT", 10*time.Second),
		AuditInboxSize:  getenvInt("FIRLEDGER_AUDIT_INBOX", 1024),
	}
	cfg.Redis = RedisConfig{
		URL:          os.Getenv("FIRLEDGER_REDIS_URL"),
		PoolSize:     getenvInt("FIRLEDGER_REDIS_POOL", 10),
		MinIdleConns: getenvInt("FIRLEDGER_REDIS_MIN_IDLE", 2),
		DialTimeout:  getenvDuration("FIRLEDGER_REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getenvDuration("FIRLEDGER_REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getenvDuration("FIRLEDGER_REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
	if brokers := os.Getenv("FIRLEDGER_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
