package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Leave.CarryLookbackYears)
	assert.Equal(t, 5*time.Minute, cfg.Leave.AllotmentCacheTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 0, cfg.Payroll.AutoRunDay)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "payroll")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LEAVE_CARRY_LOOKBACK_YEARS", "5")
	t.Setenv("LEAVE_ALLOTMENT_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Leave.CarryLookbackYears)
	assert.Equal(t, 30*time.Second, cfg.Leave.AllotmentCacheTTL)
	assert.Equal(t, "postgres://postgres:pw@localhost:5432/payroll?sslmode=disable", cfg.DatabaseURL())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWT:   JWTConfig{Secret: "s", AccessExpiration: "1h"},
			Leave: LeaveConfig{CarryLookbackYears: 3},
			Store: StoreConfig{Driver: StoreDriverMemory},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid memory store", func(c *Config) {}, ""},
		{"postgres needs password", func(c *Config) { c.Store.Driver = StoreDriverPostgres }, "DB_PASSWORD"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "STORE_DRIVER"},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET_KEY"},
		{"bad expiration", func(c *Config) { c.JWT.AccessExpiration = "soon" }, "JWT_ACCESS_EXPIRATION_TIME"},
		{"zero lookback", func(c *Config) { c.Leave.CarryLookbackYears = 0 }, "LEAVE_CARRY_LOOKBACK_YEARS"},
		{"autorun day too late", func(c *Config) { c.Payroll.AutoRunDay = 31 }, "PAYROLL_AUTORUN_DAY"},
		{"seed file on memory store", func(c *Config) { c.Store.SeedFile = "seed.json" }, ""},
		{"seed file needs memory store", func(c *Config) {
			c.Store.Driver = StoreDriverPostgres
			c.Database.Password = "pw"
			c.Store.SeedFile = "seed.json"
		}, "MEMORY_SEED_FILE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
