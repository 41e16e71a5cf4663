package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "./artifacts", cfg.ArtifactsDir)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 120, cfg.RequestsPerMinute)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("YETRIA_HTTP_ADDR", ":9999")
	t.Setenv("YETRIA_ARTIFACTS_DIR", "/srv/models")
	t.Setenv("YETRIA_REQUESTS_PER_MINUTE", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "/srv/models", cfg.ArtifactsDir)
	assert.Equal(t, 30, cfg.RequestsPerMinute)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty http addr", mutate: func(c *Config) { c.HTTPAddr = "" }},
		{name: "empty artifacts dir", mutate: func(c *Config) { c.ArtifactsDir = "" }},
		{name: "non-positive rate limit", mutate: func(c *Config) { c.RequestsPerMinute = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				HTTPAddr:          ":8080",
				ArtifactsDir:      "./artifacts",
				RequestsPerMinute: 60,
			}
			tt.mutate(&cfg)
			assert.Error(t, cfg.validate())
		})
	}
}
