package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"data-agent/tool/memory"
)

const (
	sessionPrefix = "session"
	sessionTTL    = 24 * time.Hour // 会话24小时过期
)

// SessionStore 多轮对话记忆的存储，实现 memory.Store
type SessionStore struct {
	fallback
	// updateMu 串行化读改写，避免后台压缩与新一轮对话互相覆盖
	updateMu    sync.Mutex
	memMu       sync.RWMutex
	fallbackMap map[string]*memory.Session // 降级到内存模式
}

var _ memory.Store = (*SessionStore)(nil)

// NewSessionStore client 为 nil 时直接使用内存模式
func NewSessionStore(client *redis.Client) *SessionStore {
	s := &SessionStore{fallbackMap: make(map[string]*memory.Session)}
	s.init(client)
	return s
}

// Get 获取会话，不存在时返回空会话；返回值是副本
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*memory.Session, error) {
	// 降级模式
	if s.useFallback() {
		s.memMu.RLock()
		defer s.memMu.RUnlock()
		if sess, ok := s.fallbackMap[sessionID]; ok {
			return sess.Clone(), nil
		}
		return &memory.Session{ID: sessionID}, nil
	}

	data, err := s.client.Get(ctx, s.makeKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &memory.Session{ID: sessionID}, nil
		}
		if !s.degrade(ctx, "session.get", err) {
			return nil, err
		}
		return s.Get(ctx, sessionID)
	}

	var sess memory.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save 保存会话
func (s *SessionStore) Save(ctx context.Context, sessionID string, sess *memory.Session) error {
	sess.ID = sessionID
	sess.UpdatedAt = time.Now()

	// 降级模式
	if s.useFallback() {
		s.memMu.Lock()
		defer s.memMu.Unlock()
		s.fallbackMap[sessionID] = sess.Clone()
		return nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.makeKey(sessionID), data, sessionTTL).Err(); err != nil {
		if !s.degrade(ctx, "session.save", err) {
			return err
		}
		return s.Save(ctx, sessionID, sess)
	}
	return nil
}

// Update 读取、修改并保存会话
func (s *SessionStore) Update(ctx context.Context, sessionID string, updateFn func(*memory.Session)) error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	updateFn(sess)
	return s.Save(ctx, sessionID, sess)
}

// Delete 删除会话
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	// 降级模式
	if s.useFallback() {
		s.memMu.Lock()
		defer s.memMu.Unlock()
		delete(s.fallbackMap, sessionID)
		return nil
	}

	if err := s.client.Del(ctx, s.makeKey(sessionID)).Err(); err != nil {
		if !s.degrade(ctx, "session.delete", err) {
			return err
		}
		return s.Delete(ctx, sessionID)
	}
	return nil
}

// makeKey 生成Redis key: session:{sessionID}
func (s *SessionStore) makeKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", sessionPrefix, sessionID)
}
