package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// KeepRecent 压缩后保留的最近消息数
const KeepRecent = 3

type Summarizer struct {
	Model         model.BaseChatModel
	MaxHistoryLen int

	inflight sync.Map
}

const SummaryPrompt = `You manage the memory of a data analysis conversation.
Merge <previous_summary> and <older_messages> into one new, concise summary.
Requirements:
1. Keep the core facts, the user's preferences, the dataset columns discussed and any open questions.
2. Drop greetings and redundant intermediate steps.
3. Keep the summary coherent.

<previous_summary>: %s
<older_messages>: %s
New summary:`

// FormatHistory 将消息格式化为 "[role]: content" 行
func FormatHistory(history []*schema.Message) string {
	var sb strings.Builder
	for _, m := range history {
		fmt.Fprintf(&sb, "[%s]: %s\n", m.Role, m.Content)
	}
	return sb.String()
}

// Summarize 合并旧摘要与待压缩消息
func (s *Summarizer) Summarize(ctx context.Context, previous string, older []*schema.Message) (string, error) {
	prompt := fmt.Sprintf(SummaryPrompt, previous, FormatHistory(older))
	resp, err := s.Model.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// Compress 历史超过 MaxHistoryLen 时，把除最近 KeepRecent 条以外的消息并入摘要
// 同一会话同时只有一个压缩在进行；压缩期间新追加的消息不受影响
func (s *Summarizer) Compress(ctx context.Context, store Store, sessionID string) error {
	if _, busy := s.inflight.LoadOrStore(sessionID, struct{}{}); busy {
		return nil
	}
	defer s.inflight.Delete(sessionID)

	sess, err := store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(sess.History) <= s.MaxHistoryLen || len(sess.History) <= KeepRecent {
		return nil
	}

	n := len(sess.History) - KeepRecent
	summary, err := s.Summarize(ctx, sess.Summary, sess.History[:n])
	if err != nil {
		return err
	}

	zap.L().Debug("conversation compressed", zap.String("session", sessionID), zap.Int("messages", n))
	return store.Update(ctx, sessionID, func(cur *Session) {
		if len(cur.History) >= n {
			cur.History = cur.History[n:]
		}
		cur.Summary = summary
	})
}
