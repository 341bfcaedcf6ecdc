package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "attendance_db", cfg.DBName)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, time.Minute, cfg.ReaperInterval)
	assert.Equal(t, 3*time.Minute, cfg.UnverifiedAccountTTL)
	assert.Equal(t, 100, cfg.ReaperBatchSize)
	assert.True(t, cfg.GeofenceOnCheckout)
	assert.Equal(t, 5, cfg.NotificationMaxAttempts)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REAPER_INTERVAL", "30s")
	t.Setenv("UNVERIFIED_ACCOUNT_TTL", "24h")
	t.Setenv("GEOFENCE_ON_CHECKOUT", "false")
	t.Setenv("NOTIFICATION_WORKER_COUNT", "2")
	t.Setenv("JWT_SECRET", "abc")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, 30*time.Second, cfg.ReaperInterval)
	assert.Equal(t, 24*time.Hour, cfg.UnverifiedAccountTTL)
	assert.False(t, cfg.GeofenceOnCheckout)
	assert.Equal(t, 2, cfg.NotificationWorkerCount)
	assert.Equal(t, "abc", cfg.JWTSecret)
}

func TestValidateReaper(t *testing.T) {
	valid := Config{ReaperInterval: time.Minute, UnverifiedAccountTTL: 3 * time.Minute, ReaperBatchSize: 100}
	require.NoError(t, valid.ValidateReaper())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "zero interval", mutate: func(c *Config) { c.ReaperInterval = 0 }, want: "REAPER_INTERVAL"},
		{name: "negative interval", mutate: func(c *Config) { c.ReaperInterval = -time.Second }, want: "REAPER_INTERVAL"},
		{name: "zero ttl", mutate: func(c *Config) { c.UnverifiedAccountTTL = 0 }, want: "UNVERIFIED_ACCOUNT_TTL"},
		{name: "zero batch", mutate: func(c *Config) { c.ReaperBatchSize = 0 }, want: "REAPER_BATCH_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.ValidateReaper()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigRejectsZeroReaperInterval(t *testing.T) {
	t.Setenv("REAPER_INTERVAL", "0s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateReaper())
}
