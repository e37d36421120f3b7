package chat_model

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/model"

	"data-agent/config"
)

func initQwen() {
	registerChatModel("qwen", func(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
		return qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			BaseURL:     cfg.QwenConf.BaseUrl,
			APIKey:      cfg.QwenConf.QwenKey,
			Model:       cfg.QwenConf.QwenChatModel,
			Temperature: temperature(cfg),
		})
	})
}
