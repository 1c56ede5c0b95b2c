package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("JWT_TTL_HOURS", "")
	t.Setenv("CACHE_TTL_SECONDS", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.TrustedProxies)
}

func TestLoadConfigMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{DBDriver: DriverSQLite, JWTSecret: "secret", JWTTTL: time.Hour, RateLimitRPS: 1, RateLimitBurst: 1}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"short secret in production", func(c *Config) { c.IsProd = true }},
		{"zero ttl", func(c *Config) { c.JWTTTL = 0 }},
		{"zero rate", func(c *Config) { c.RateLimitRPS = 0 }},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }},
	}

	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := Config{DBDriver: DriverMySQL, DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBName: "loyalty"}
	assert.Equal(t, "u:p@tcp(db:3306)/loyalty?parseTime=true", cfg.DSN())

	cfg.DBDriver = DriverPostgres
	cfg.DBPort = "5432"
	cfg.DBSSLMode = "disable"
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=loyalty sslmode=disable", cfg.DSN())

	cfg.DBDriver = DriverSQLite
	cfg.DBPath = "/tmp/points.db"
	assert.Equal(t, "file:/tmp/points.db?_foreign_keys=1", cfg.DSN())
}
