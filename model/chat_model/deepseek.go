package chat_model

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino/components/model"

	"data-agent/config"
)

func initDeepSeek() {
	registerChatModel("deepseek", func(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:  cfg.DeepSeekConf.DeepSeekKey,
			Model:   cfg.DeepSeekConf.DeepSeekChatModel,
			BaseURL: cfg.DeepSeekConf.BaseUrl,
			Timeout: cfg.AgentConf.Timeout,
		})
	})
}
