package memory

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// Session 一个会话的对话记忆：近期消息 + 更早消息的摘要
type Session struct {
	ID        string            `json:"id"`
	History   []*schema.Message `json:"history"`
	Summary   string            `json:"summary"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Clone 浅拷贝消息列表
func (s *Session) Clone() *Session {
	cp := *s
	cp.History = append([]*schema.Message(nil), s.History...)
	return &cp
}

// Empty 还没有任何对话
func (s *Session) Empty() bool {
	return len(s.History) == 0 && s.Summary == ""
}
