package chat_model

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"data-agent/config"
)

func initOpenAI() {
	registerChatModel("openai", func(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     cfg.OpenAIConf.BaseUrl,
			APIKey:      cfg.OpenAIConf.OpenAIKey,
			Model:       cfg.OpenAIConf.OpenAIChatModel,
			Temperature: temperature(cfg),
			Timeout:     cfg.AgentConf.Timeout,
		})
	})
}
