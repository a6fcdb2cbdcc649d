package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setBase(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("BCRYPT_COST", "4")
}

func TestLoadMemoryDriverSkipsDatabase(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUDIT_TIMEOUT", "750ms")

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Empty(t, cfg.DBHost)
	assert.Equal(t, 750*time.Millisecond, cfg.AuditTimeout)
	assert.Equal(t, 15, cfg.AccessTTLMin)
}

func TestLoadMySQLDriver(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "suites")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg := Load()
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.True(t, cfg.DBAutoMigrate)
	assert.Equal(t, 2*time.Second, cfg.AuditTimeout)
}

func TestLoadRateLimitConfigClampsValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 10*time.Second, rl.TTL)
}

func TestLoadRedisConfigPrefersHostPort(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")

	rc := LoadRedisConfig()
	assert.Equal(t, "redis:6380", rc.Addr)
	assert.Equal(t, 2, rc.DB)
	assert.False(t, rc.TLS)
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_ENABLED", "false")

	cc := LoadCacheConfig()
	assert.False(t, cc.Enabled)
	assert.True(t, cc.Methods["GET"])
	assert.True(t, cc.Methods["HEAD"])
	assert.Equal(t, 30*time.Second, cc.TTL)
}

func TestRateLimitPerSecond(t *testing.T) {
	rl := RateLimitConfig{RefillTokens: 3, RefillInterval: 2 * time.Second}
	assert.InDelta(t, 1.5, rl.PerSecond(), 1e-9)
}
