package chat_model

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"data-agent/config"
)

func initGemini() {
	registerChatModel("gemini", func(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
		cli, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiConf.GeminiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, err
		}

		return gemini.NewChatModel(ctx, &gemini.Config{
			Client:      cli,
			Model:       cfg.GeminiConf.GeminiChatModel,
			Temperature: temperature(cfg),
		})
	})
}
