package flow

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"data-agent/tool/memory"
)

const chatSystemPrompt = "You are a helpful data analysis assistant. Answer concisely."

type ChatInput struct {
	SessionID string
	Query     string
	// DatasetSummary 当前会话已上传数据集的结构描述，可为空
	DatasetSummary string
}

// ChatState 存储图运行时的状态
type ChatState struct {
	Input   ChatInput
	Session *memory.Session
}

// BuildChatFlow 带记忆的普通对话：读取会话 → 拼装消息 → 模型回答
// 图只负责生成，回答完成后由调用方通过 Remember 写回记忆，以便流式输出
func BuildChatFlow(ctx context.Context, store memory.Store, cm model.BaseChatModel) (compose.Runnable[ChatInput, *schema.Message], error) {
	const (
		PreProcess        = "preProcess"
		ConstructMessages = "constructMessages"
		Chat              = "chat"
	)

	g := compose.NewGraph[ChatInput, *schema.Message](
		compose.WithGenLocalState(func(ctx context.Context) *ChatState {
			return &ChatState{}
		}),
	)

	_ = g.AddLambdaNode(PreProcess, compose.InvokableLambda(func(ctx context.Context, in ChatInput) (ChatInput, error) {
		if in.Query == "" {
			return in, fmt.Errorf("query is empty")
		}
		sess, err := store.Get(ctx, in.SessionID)
		if err != nil {
			return in, err
		}
		err = compose.ProcessState[*ChatState](ctx, func(ctx context.Context, state *ChatState) error {
			state.Input = in
			state.Session = sess
			return nil
		})
		return in, err
	}))

	_ = g.AddLambdaNode(ConstructMessages, compose.InvokableLambda(func(ctx context.Context, in ChatInput) ([]*schema.Message, error) {
		var messages []*schema.Message
		err := compose.ProcessState[*ChatState](ctx, func(ctx context.Context, state *ChatState) error {
			system := chatSystemPrompt
			if state.Input.DatasetSummary != "" {
				system += "\n\nThe user has loaded a dataset:\n" + state.Input.DatasetSummary
			}
			messages = append(messages, schema.SystemMessage(system))
			if state.Session.Summary != "" {
				messages = append(messages, schema.SystemMessage("Conversation summary: "+state.Session.Summary))
			}
			messages = append(messages, state.Session.History...)
			messages = append(messages, schema.UserMessage(in.Query))
			return nil
		})
		return messages, err
	}))

	_ = g.AddChatModelNode(Chat, cm)

	_ = g.AddEdge(compose.START, PreProcess)
	_ = g.AddEdge(PreProcess, ConstructMessages)
	_ = g.AddEdge(ConstructMessages, Chat)
	_ = g.AddEdge(Chat, compose.END)

	return g.Compile(ctx, compose.WithGraphName("ChatFlow"))
}

// Remember 把一轮对话写回记忆，并按需在后台压缩
func Remember(ctx context.Context, store memory.Store, sm *memory.Summarizer, sessionID, query, answer string) error {
	err := store.Update(ctx, sessionID, func(sess *memory.Session) {
		sess.History = append(sess.History, schema.UserMessage(query), schema.AssistantMessage(answer, nil))
	})
	if err != nil {
		return err
	}
	if sm != nil {
		go func() {
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compressTimeout)
			defer cancel()
			if err := sm.Compress(cctx, store, sessionID); err != nil {
				zap.L().Warn("compress conversation memory", zap.String("session", sessionID), zap.Error(err))
			}
		}()
	}
	return nil
}
