package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/bookmed-api/internal/middleware"
)

func TestLoadConfigMapsMultiWordKeys(t *testing.T) {
	yml := `
server:
  port: 9000
  read_timeout: 15s
  max_header_bytes: 4096
rate_limit:
  enabled: true
  requests_per_second: 50
  burst: 75
security:
  allowed_origins:
    - https://example.com
outbox:
  batch_size: 25
  poll_interval: 2s
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 4096, cfg.Server.MaxHeaderBytes)
	assert.Equal(t, 50.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 75, cfg.RateLimit.Burst)
	assert.Equal(t, []string{"https://example.com"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 25, cfg.Outbox.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
}

func TestRateLimitToLimiterConfig(t *testing.T) {
	disabled := RateLimitConfig{Enabled: false, RequestsPerSecond: 10, Burst: 20}
	assert.Nil(t, disabled.ToLimiterConfig())

	enabled := RateLimitConfig{Enabled: true, RequestsPerSecond: 10, Burst: 20}
	assert.Equal(t, &middleware.RateLimiterConfig{RequestsPerSecond: 10, Burst: 20}, enabled.ToLimiterConfig())
}
