package chat_model

import (
	"context"
	"fmt"
	"sort"

	"github.com/cloudwego/eino/components/model"

	"data-agent/config"
)

// ChatModelFactory 创建支持工具调用的聊天模型
type ChatModelFactory func(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error)

var chatModelRegistry = make(map[string]ChatModelFactory)

func init() {
	initArk()
	initOpenAI()
	initQwen()
	initDeepSeek()
	initGemini()
}

// registerChatModel 注册聊天模型进入工厂
func registerChatModel(name string, factory ChatModelFactory) {
	chatModelRegistry[name] = factory
}

// Supported 已注册的模型类型
func Supported() []string {
	names := make([]string, 0, len(chatModelRegistry))
	for name := range chatModelRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetChatModel 按名称创建模型，name 为空时使用 CHAT_MODEL_TYPE
func GetChatModel(ctx context.Context, name string) (model.ToolCallingChatModel, error) {
	if config.Cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	if name == "" {
		name = config.Cfg.ChatModelType
	}
	create, ok := chatModelRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unsupported chat model type: %s", name)
	}

	return create(ctx, config.Cfg)
}

func temperature(cfg *config.Config) *float32 {
	t := cfg.AgentConf.Temperature
	return &t
}
