package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semflow/domain/core"
)

func TestLoadRequiresAnalyticsURL(t *testing.T) {
	t.Setenv("ANALYTICS_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, core.IsMalformedInput(err))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANALYTICS_URL", "http://localhost:8000")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 5*time.Second, cfg.Analytics.HealthTimeout)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, int64(32<<20), cfg.Upload.MaxBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ANALYTICS_URL", "http://stats:9000")
	t.Setenv("PORT", "9090")
	t.Setenv("ANALYTICS_HEALTH_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://stats:9000", cfg.Analytics.URL)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Analytics.HealthTimeout)
}
