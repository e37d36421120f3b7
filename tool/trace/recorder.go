package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transcript 一次模型调用的完整上下文与回答
type Transcript struct {
	ID         string            `json:"id"`
	NodeName   string            `json:"node_name"`
	ModelType  string            `json:"model_type"`
	Messages   []*schema.Message `json:"messages"`
	DurationMs int64             `json:"duration_ms"`
	Timestamp  int64             `json:"timestamp"`
}

type callStartKey struct{}

type callStart struct {
	messages []*schema.Message
	at       time.Time
}

// Recorder 把模型调用落盘为 JSON，便于离线回放与调试提示词
type Recorder struct {
	Dir string
	mu  sync.Mutex
	now func() time.Time
}

func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Recorder{Dir: dir, now: time.Now}, nil
}

// Handler 只记录 ChatModel 组件的非流式调用
func (r *Recorder) Handler() callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
			if info == nil || info.Component != components.ComponentOfChatModel {
				return ctx
			}
			in := model.ConvCallbackInput(input)
			if in == nil {
				return ctx
			}
			return context.WithValue(ctx, callStartKey{}, &callStart{messages: in.Messages, at: r.now()})
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			if info == nil || info.Component != components.ComponentOfChatModel {
				return ctx
			}
			start, ok := ctx.Value(callStartKey{}).(*callStart)
			out := model.ConvCallbackOutput(output)
			if !ok || out == nil || out.Message == nil {
				return ctx
			}

			messages := make([]*schema.Message, 0, len(start.messages)+1)
			messages = append(messages, start.messages...)
			messages = append(messages, out.Message)
			t := &Transcript{
				ID:         uuid.New().String(),
				NodeName:   info.Name,
				ModelType:  info.Type,
				Messages:   messages,
				DurationMs: r.now().Sub(start.at).Milliseconds(),
				Timestamp:  r.now().Unix(),
			}
			if err := r.Save(t); err != nil {
				zap.L().Warn("save transcript", zap.Error(err))
			}
			return ctx
		}).
		Build()
}

// Save 按日期分目录，文件名为记录 ID
func (r *Recorder) Save(t *Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Join(r.Dir, time.Unix(t.Timestamp, 0).Format("20060102"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%s.json", t.ID)))
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(t)
}
