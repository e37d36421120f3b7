package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHAT_MODEL_TYPE", "")
	t.Setenv("AGENT_MAX_ITERATIONS", "")
	t.Setenv("AGENT_TIMEOUT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.ChatModelType)
	assert.Equal(t, 200, cfg.AgentConf.MaxIterations)
	assert.Equal(t, 600*time.Second, cfg.AgentConf.Timeout)
	assert.Equal(t, int64(50)<<20, cfg.ServerConf.MaxUploadBytes)
	assert.Equal(t, "plots", cfg.StorageConf.PlotsDir)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHAT_MODEL_TYPE", "qwen")
	t.Setenv("AGENT_MAX_ITERATIONS", "12")
	t.Setenv("AGENT_TIMEOUT", "45")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("MAX_UPLOAD_MB", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "qwen", cfg.ChatModelType)
	assert.Equal(t, 12, cfg.AgentConf.MaxIterations)
	assert.Equal(t, 45*time.Second, cfg.AgentConf.Timeout)
	assert.True(t, cfg.LogConf.Dev)
	assert.Equal(t, int64(5)<<20, cfg.ServerConf.MaxUploadBytes)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "1m30s")
	assert.Equal(t, 90*time.Second, getEnvDuration("SOME_TIMEOUT", time.Second))

	t.Setenv("SOME_TIMEOUT", "garbage")
	assert.Equal(t, time.Second, getEnvDuration("SOME_TIMEOUT", time.Second))
}
