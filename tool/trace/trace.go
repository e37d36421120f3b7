package trace

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"go.uber.org/zap"

	"data-agent/config"
)

// Init 按配置注册全局回调，返回的函数在退出时调用
func Init(ctx context.Context, cfg *config.Config) (func(), error) {
	if err := NewLangSmith(cfg.LangSmithConf); err != nil {
		return nil, err
	}

	closeCoze, err := NewCozeLoop(ctx)
	if err != nil {
		return nil, err
	}

	if dir := cfg.TraceConf.TranscriptDir; dir != "" {
		rec, err := NewRecorder(dir)
		if err != nil {
			closeCoze()
			return nil, err
		}
		callbacks.AppendGlobalHandlers(rec.Handler())
		zap.L().Info("模型调用记录已启用", zap.String("dir", dir))
	}

	return closeCoze, nil
}
