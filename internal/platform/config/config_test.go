package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.PostgresURL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "firledger.audit", cfg.AuditTopic)
	assert.Equal(t, 5*time.Minute, cfg.RoleCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.CommitTimeout)
	assert.Equal(t, 1024, cfg.AuditInboxSize)
	assert.False(t, cfg.RequireToken)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FIRLEDGER_ADDR", ":9999")
	t.Setenv("FIRLEDGER_POSTGRES_URL", "postgres://localhost/fir")
	t.Setenv("FIRLEDGER_REDIS_URL", "redis://localhost:6379")
	t.Setenv("FIRLEDGER_ROLE_CACHE_TTL", "90s")
	t.Setenv("FIRLEDGER_KAFKA_BROKERS", "broker1:9092, broker2:9092,")
	t.Setenv("FIRLEDGER_BOOTSTRAP_ADMIN", "0xadmin")
	t.Setenv("FIRLEDGER_REQUIRE_TOKEN", "true")
	t.Setenv("FIRLEDGER_COMMIT_TIMEOUT", "3s")

	cfg := FromEnv()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "postgres://localhost/fir", cfg.PostgresURL)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.Equal(t, 90*time.Second, cfg.RoleCacheTTL)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "0xadmin", cfg.BootstrapAdmin)
	assert.True(t, cfg.RequireToken)
	assert.Equal(t, 3*time.Second, cfg.CommitTimeout)
}

func TestFromEnv_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("FIRLEDGER_COMMIT_TIMEOUT", "soon")
	cfg := FromEnv()
	assert.Equal(t, 10*time.Second, cfg.CommitTimeout)
}
