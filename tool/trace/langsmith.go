package trace

import (
	"github.com/cloudwego/eino-ext/callbacks/langsmith"
	"github.com/cloudwego/eino/callbacks"
	"go.uber.org/zap"

	"data-agent/config"
)

// NewLangSmith 未配置 API Key 时跳过
func NewLangSmith(cfg config.LangSmithConfig) error {
	if cfg.APIKey == "" {
		zap.L().Info("LangSmith 未配置，跳过初始化")
		return nil
	}
	traceHandler, err := langsmith.NewLangsmithHandler(&langsmith.Config{
		APIKey: cfg.APIKey,
		APIURL: cfg.APIUrl,
	})
	if err != nil {
		return err
	}
	callbacks.AppendGlobalHandlers(traceHandler)
	zap.L().Info("LangSmith 全局回调已启用")

	return nil
}
