package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "aicrew:tasks", cfg.Redis.QueueKey)
	assert.Equal(t, 4, cfg.Dispatch.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.ShutdownTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
redis:
  addr: redis.internal:6380
llm:
  model: gpt-4o
  requests_per_second: 0.5
dispatch:
  max_concurrent: 8
  shutdown_timeout: 10s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 0.5, cfg.LLM.RequestsPerSecond)
	assert.Equal(t, 8, cfg.Dispatch.MaxConcurrent)
	assert.Equal(t, 10*time.Second, cfg.Dispatch.ShutdownTimeout)
	// Untouched values keep their defaults.
	assert.Equal(t, "aicrew:tasks", cfg.Redis.QueueKey)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("redis:\n  addr: from-file:6379\n"), 0o600))

	t.Setenv("AICREW_REDIS_ADDR", "from-env:6379")
	t.Setenv("AICREW_DISPATCH_MAX_CONCURRENT", "16")
	t.Setenv("AICREW_DISPATCH_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("AICREW_LLM_REQUESTS_PER_SECOND", "3.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env:6379", cfg.Redis.Addr)
	assert.Equal(t, 16, cfg.Dispatch.MaxConcurrent)
	assert.Equal(t, 5*time.Second, cfg.Dispatch.ShutdownTimeout)
	assert.Equal(t, 3.5, cfg.LLM.RequestsPerSecond)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("redis: [broken"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_ValidationFailures(t *testing.T) {
	t.Setenv("AICREW_DISPATCH_MAX_CONCURRENT", "0")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent")
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("AICREW_REDIS_DB", "not-a-number")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AICREW_REDIS_DB")
}
