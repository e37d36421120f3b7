package trace

import (
	"context"
	"os"

	ccb "github.com/cloudwego/eino-ext/callbacks/cozeloop"
	"github.com/cloudwego/eino/callbacks"
	"github.com/coze-dev/cozeloop-go"
	"go.uber.org/zap"
)

func NewCozeLoop(ctx context.Context) (func(), error) {
	// 客户端从环境变量读取 OAuth 配置
	if os.Getenv("COZELOOP_JWT_OAUTH_CLIENT_ID") == "" {
		zap.L().Info("CozeLoop OAuth 配置缺失，跳过初始化")
		return func() {}, nil
	}

	client, err := cozeloop.NewClient()
	if err != nil {
		return nil, err
	}

	callbacks.AppendGlobalHandlers(ccb.NewLoopHandler(client))
	zap.L().Info("CozeLoop 全局回调已启用")

	return func() {
		client.Close(ctx)
	}, nil
}
