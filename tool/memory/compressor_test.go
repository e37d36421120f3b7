package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summaryModel struct {
	calls   int
	prompts []string
	during  func()
}

func (m *summaryModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls++
	m.prompts = append(m.prompts, input[0].Content)
	if m.during != nil {
		m.during()
	}
	return schema.AssistantMessage(" summary ", nil), nil
}

func (m *summaryModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("not implemented")
}

func seed(t *testing.T, store Store, id string, n int) {
	t.Helper()
	sess := &Session{ID: id, Summary: "earlier"}
	for i := 0; i < n; i++ {
		sess.History = append(sess.History, schema.UserMessage(fmt.Sprintf("m%d", i)))
	}
	require.NoError(t, store.Save(context.Background(), id, sess))
}

func TestCompress(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seed(t, store, "s1", 6)

	cm := &summaryModel{}
	s := &Summarizer{Model: cm, MaxHistoryLen: 4}
	require.NoError(t, s.Compress(ctx, store, "s1"))

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "summary", sess.Summary)
	require.Len(t, sess.History, KeepRecent)
	assert.Equal(t, "m3", sess.History[0].Content)

	require.Len(t, cm.prompts, 1)
	assert.Contains(t, cm.prompts[0], "<previous_summary>: earlier")
	assert.Contains(t, cm.prompts[0], "[user]: m2")
	assert.NotContains(t, cm.prompts[0], "m3")
}

func TestCompressBelowLimit(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, "s1", 4)

	cm := &summaryModel{}
	s := &Summarizer{Model: cm, MaxHistoryLen: 4}
	require.NoError(t, s.Compress(context.Background(), store, "s1"))
	assert.Zero(t, cm.calls)
}

func TestCompressKeepsConcurrentMessages(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seed(t, store, "s1", 6)

	cm := &summaryModel{during: func() {
		_ = store.Update(ctx, "s1", func(s *Session) {
			s.History = append(s.History, schema.UserMessage("late"))
		})
	}}
	s := &Summarizer{Model: cm, MaxHistoryLen: 4}
	require.NoError(t, s.Compress(ctx, store, "s1"))

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sess.History, 4)
	assert.Equal(t, "late", sess.History[3].Content)
}

func TestSessionClone(t *testing.T) {
	s := &Session{History: []*schema.Message{schema.UserMessage("a")}}
	cp := s.Clone()
	cp.History = append(cp.History, schema.UserMessage("b"))
	assert.Len(t, s.History, 1)
	assert.False(t, s.Empty())
	assert.True(t, (&Session{}).Empty())
}

func TestInMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seed(t, store, "s1", 3)
	seed(t, store, "s2", 1)

	require.NoError(t, store.Delete(ctx, "s1"))
	require.NoError(t, store.Delete(ctx, "missing"))

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.History)
	assert.Empty(t, sess.Summary)

	sess, err = store.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, sess.History, 1)
}
