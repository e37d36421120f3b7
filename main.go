package main

import (
	"context"
	"log"
	"os"

	"github.com/cloudwego/eino-ext/devops"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"data-agent/api"
	"data-agent/chart"
	"data-agent/config"
	"data-agent/model/chat_model"
	"data-agent/report"
	"data-agent/tool/memory"
	"data-agent/tool/storage"
	"data-agent/tool/trace"
	"data-agent/workspace"
)

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.Level); err == nil {
		zc.Level = level
	}
	return zc.Build()
}

func main() {
	ctx := context.Background()

	// 初始化config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	config.Cfg = cfg

	logger, err := newLogger(cfg.LogConf)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	gin.SetMode(cfg.ServerConf.GinMode)

	if cfg.TraceConf.Devops {
		if err := devops.Init(ctx); err != nil {
			zap.L().Warn("eino devops init failed", zap.Error(err))
		}
	}

	closeTrace, err := trace.Init(ctx, cfg)
	if err != nil {
		zap.L().Fatal("trace init failed", zap.Error(err))
	}
	defer closeTrace()

	// 初始化Redis，失败时各存储使用内存模式
	if err := storage.InitRedis(ctx); err != nil {
		zap.L().Warn("redis init failed, using memory mode", zap.Error(err))
	}
	defer storage.CloseRedis()
	client := storage.Client()

	cm, err := chat_model.GetChatModel(ctx, cfg.ChatModelType)
	if err != nil {
		zap.L().Fatal("chat model init failed", zap.String("type", cfg.ChatModelType), zap.Error(err))
	}

	charts, err := chart.NewStore(cfg.StorageConf.PlotsDir)
	if err != nil {
		zap.L().Fatal("plots dir", zap.Error(err))
	}
	reports, err := report.NewGenerator(cfg.StorageConf.ReportsDir)
	if err != nil {
		zap.L().Fatal("reports dir", zap.Error(err))
	}
	if dir := cfg.StorageConf.UploadDir; dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			zap.L().Fatal("upload dir", zap.Error(err))
		}
	}

	srv, err := api.NewServer(ctx, api.Deps{
		Model:          cm,
		Workspaces:     workspace.NewRegistry(),
		History:        storage.NewHistoryStore(client),
		Cache:          storage.NewAnswerCache(client),
		Memory:         storage.NewSessionStore(client),
		Summarizer:     &memory.Summarizer{Model: cm, MaxHistoryLen: cfg.AgentConf.MaxHistoryLen},
		Charts:         charts,
		Reports:        reports,
		MaxIterations:  cfg.AgentConf.MaxIterations,
		Timeout:        cfg.AgentConf.Timeout,
		MaxUploadBytes: cfg.ServerConf.MaxUploadBytes,
		UploadDir:      cfg.StorageConf.UploadDir,
	})
	if err != nil {
		zap.L().Fatal("server init failed", zap.Error(err))
	}

	if err := api.Run(srv, cfg.ServerConf.Addr); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}
