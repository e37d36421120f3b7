package chat_model

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"data-agent/config"
)

func initArk() {
	registerChatModel("ark", func(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:      cfg.ArkConf.ArkKey,
			Model:       cfg.ArkConf.ArkChatModel,
			Temperature: temperature(cfg),
		})
	})
}
