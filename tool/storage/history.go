package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	historyPrefix = "history"
	historyTTL    = 24 * time.Hour // 历史记录24小时过期
)

// Entry 一次查询的记录，用于历史展示和报告导出
type Entry struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	ChartPath string    `json:"chart_path,omitempty"`
	ChartURL  string    `json:"chart_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryStore 按会话保存查询历史，保持追加顺序
type HistoryStore struct {
	fallback
	memMu       sync.RWMutex
	fallbackMap map[string][]Entry // 降级到内存模式
}

// NewHistoryStore client 为 nil 时直接使用内存模式
func NewHistoryStore(client *redis.Client) *HistoryStore {
	s := &HistoryStore{fallbackMap: make(map[string][]Entry)}
	s.init(client)
	return s
}

// Append 追加一条记录
func (s *HistoryStore) Append(ctx context.Context, sessionID string, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	// 降级模式
	if s.useFallback() {
		s.memMu.Lock()
		defer s.memMu.Unlock()
		s.fallbackMap[sessionID] = append(s.fallbackMap[sessionID], e)
		return nil
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	key := s.makeKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		if !s.degrade(ctx, "history.append", err) {
			return err
		}
		return s.Append(ctx, sessionID, e)
	}
	return nil
}

// List 按追加顺序返回全部记录
func (s *HistoryStore) List(ctx context.Context, sessionID string) ([]Entry, error) {
	// 降级模式
	if s.useFallback() {
		s.memMu.RLock()
		defer s.memMu.RUnlock()
		return append([]Entry(nil), s.fallbackMap[sessionID]...), nil
	}

	items, err := s.client.LRange(ctx, s.makeKey(sessionID), 0, -1).Result()
	if err != nil {
		if !s.degrade(ctx, "history.list", err) {
			return nil, err
		}
		return s.List(ctx, sessionID)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear 清空会话历史
func (s *HistoryStore) Clear(ctx context.Context, sessionID string) error {
	// 降级模式
	if s.useFallback() {
		s.memMu.Lock()
		defer s.memMu.Unlock()
		delete(s.fallbackMap, sessionID)
		return nil
	}

	if err := s.client.Del(ctx, s.makeKey(sessionID)).Err(); err != nil {
		if !s.degrade(ctx, "history.clear", err) {
			return err
		}
		return s.Clear(ctx, sessionID)
	}
	return nil
}

// makeKey 生成Redis key: history:{sessionID}
func (s *HistoryStore) makeKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", historyPrefix, sessionID)
}
