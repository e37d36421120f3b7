package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"data-agent/config"
	"data-agent/tool/memory"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	old := config.Cfg
	t.Cleanup(func() { config.Cfg = old })
	config.Cfg = &config.Config{RedisConf: config.RedisConfig{Addr: mr.Addr(), DB: "0"}}

	require.NoError(t, InitRedis(context.Background()))
	client, err := GetRedisClient()
	require.NoError(t, err)
	assert.NotNil(t, Client())
	require.NoError(t, client.Ping(context.Background()).Err())
}

func TestHistoryStoreRedis(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	s := NewHistoryStore(client)
	assert.Equal(t, "redis", s.Mode())

	require.NoError(t, s.Append(ctx, "sid", Entry{Query: "q1", Response: "r1"}))
	require.NoError(t, s.Append(ctx, "sid", Entry{Query: "q2", Response: "r2", ChartPath: "plots/a.png", ChartURL: "/plots/a.png"}))

	entries, err := s.List(ctx, "sid")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "q1", entries[0].Query)
	assert.Equal(t, "/plots/a.png", entries[1].ChartURL)
	assert.False(t, entries[0].CreatedAt.IsZero())
	assert.Equal(t, historyTTL, mr.TTL("history:sid"))

	other, err := s.List(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.Clear(ctx, "sid"))
	entries, err = s.List(ctx, "sid")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryStoreMemory(t *testing.T) {
	ctx := context.Background()
	s := NewHistoryStore(nil)
	assert.Equal(t, "memory", s.Mode())

	require.NoError(t, s.Append(ctx, "sid", Entry{Query: "q1"}))
	entries, err := s.List(ctx, "sid")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// 返回副本
	entries[0].Query = "changed"
	again, _ := s.List(ctx, "sid")
	assert.Equal(t, "q1", again[0].Query)

	require.NoError(t, s.Clear(ctx, "sid"))
	again, _ = s.List(ctx, "sid")
	assert.Empty(t, again)
}

func TestHistoryStoreDegrades(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	s := NewHistoryStore(client)
	mr.Close()

	require.NoError(t, s.Append(ctx, "sid", Entry{Query: "q"}))
	assert.Equal(t, "memory", s.Mode())
	entries, err := s.List(ctx, "sid")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoresKeepRedisWhenRequestCancelled(t *testing.T) {
	_, client := newRedis(t)
	history := NewHistoryStore(client)
	cache := NewAnswerCache(client)
	sessions := NewSessionStore(client)
	require.NoError(t, history.Append(context.Background(), "sid", Entry{Query: "q1"}))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, history.Append(cancelled, "sid", Entry{Query: "q2"}), context.Canceled)
	_, err := history.List(cancelled, "sid")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "redis", history.Mode())

	_, ok := cache.Get(cancelled, "fp", "q")
	assert.False(t, ok)
	assert.Error(t, cache.Set(cancelled, "fp", "q", "a"))
	assert.Equal(t, "redis", cache.Mode())

	assert.Error(t, sessions.Save(cancelled, "sid", &memory.Session{}))
	_, err = sessions.Get(cancelled, "sid")
	assert.Error(t, err)
	assert.Equal(t, "redis", sessions.Mode())

	// 之前写入 Redis 的记录仍然可见
	entries, err := history.List(context.Background(), "sid")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "q1", entries[0].Query)
}

func TestAnswerCacheRedis(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	c := NewAnswerCache(client)

	_, ok := c.Get(ctx, "fp", "What is the mean latency?")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "fp", "What is the mean latency?", "32 ms"))
	got, ok := c.Get(ctx, "fp", "  what is the MEAN latency? ")
	require.True(t, ok)
	assert.Equal(t, "32 ms", got)

	_, ok = c.Get(ctx, "other-dataset", "What is the mean latency?")
	assert.False(t, ok)

	assert.Equal(t, answerCacheTTL, mr.TTL(c.hashKey("fp", "What is the mean latency?")))
}

func TestAnswerCacheMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewAnswerCache(nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "fp", "q", "a"))
	got, ok := c.Get(ctx, "fp", "q")
	require.True(t, ok)
	assert.Equal(t, "a", got)

	now = now.Add(answerCacheTTL + time.Second)
	_, ok = c.Get(ctx, "fp", "q")
	assert.False(t, ok)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)

	for name, s := range map[string]*SessionStore{
		"redis":  NewSessionStore(client),
		"memory": NewSessionStore(nil),
	} {
		t.Run(name, func(t *testing.T) {
			sess, err := s.Get(ctx, "sid")
			require.NoError(t, err)
			assert.True(t, sess.Empty())

			require.NoError(t, s.Update(ctx, "sid", func(sess *memory.Session) {
				sess.History = append(sess.History,
					schema.UserMessage("average latency?"),
					schema.AssistantMessage("32 ms", nil))
			}))
			require.NoError(t, s.Update(ctx, "sid", func(sess *memory.Session) {
				sess.Summary = "talked about latency"
			}))

			sess, err = s.Get(ctx, "sid")
			require.NoError(t, err)
			assert.Equal(t, "sid", sess.ID)
			assert.Equal(t, "talked about latency", sess.Summary)
			require.Len(t, sess.History, 2)
			assert.Equal(t, schema.Assistant, sess.History[1].Role)
			assert.Equal(t, "32 ms", sess.History[1].Content)

			require.NoError(t, s.Delete(ctx, "sid"))
			sess, err = s.Get(ctx, "sid")
			require.NoError(t, err)
			assert.True(t, sess.Empty())
		})
	}
}
