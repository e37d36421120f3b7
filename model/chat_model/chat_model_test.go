package chat_model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"data-agent/config"
)

func TestSupported(t *testing.T) {
	assert.Equal(t, []string{"ark", "deepseek", "gemini", "openai", "qwen"}, Supported())
}

func TestGetChatModel(t *testing.T) {
	old := config.Cfg
	t.Cleanup(func() { config.Cfg = old })

	config.Cfg = &config.Config{
		ChatModelType: "openai",
		OpenAIConf:    config.OpenAIConfig{OpenAIKey: "test-key", OpenAIChatModel: "gpt-4o-mini"},
		AgentConf:     config.AgentConfig{Temperature: 0.2},
	}

	cm, err := GetChatModel(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, cm)

	_, err = GetChatModel(context.Background(), "llama")
	assert.ErrorContains(t, err, "unsupported chat model type")
}

func TestGetChatModelWithoutConfig(t *testing.T) {
	old := config.Cfg
	t.Cleanup(func() { config.Cfg = old })
	config.Cfg = nil

	_, err := GetChatModel(context.Background(), "openai")
	assert.Error(t, err)
}
