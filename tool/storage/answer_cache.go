package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	answerCachePrefix = "answer"
	answerCacheTTL    = 1 * time.Hour
)

type cachedAnswer struct {
	answer    string
	expiresAt time.Time
}

// AnswerCache 缓存智能体对同一数据集同一问题的回答
type AnswerCache struct {
	fallback
	memMu       sync.RWMutex
	fallbackMap map[string]cachedAnswer // 降级模式
	now         func() time.Time
}

// NewAnswerCache client 为 nil 时直接使用内存模式
func NewAnswerCache(client *redis.Client) *AnswerCache {
	c := &AnswerCache{fallbackMap: make(map[string]cachedAnswer), now: time.Now}
	c.init(client)
	return c
}

// hashKey 数据集指纹与规范化后的问题共同决定缓存键
func (c *AnswerCache) hashKey(fingerprint, query string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	hash := sha256.Sum256([]byte(fingerprint + "\x00" + norm))
	return fmt.Sprintf("%s:%s", answerCachePrefix, hex.EncodeToString(hash[:]))
}

// Get 获取缓存的回答
func (c *AnswerCache) Get(ctx context.Context, fingerprint, query string) (string, bool) {
	key := c.hashKey(fingerprint, query)

	// 降级模式
	if c.useFallback() {
		c.memMu.RLock()
		defer c.memMu.RUnlock()
		item, ok := c.fallbackMap[key]
		if !ok || c.now().After(item.expiresAt) {
			return "", false
		}
		return item.answer, true
	}

	answer, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false
		}
		if !c.degrade(ctx, "answer.get", err) {
			return "", false
		}
		return c.Get(ctx, fingerprint, query)
	}
	return answer, true
}

// Set 缓存回答
func (c *AnswerCache) Set(ctx context.Context, fingerprint, query, answer string) error {
	key := c.hashKey(fingerprint, query)

	// 降级模式
	if c.useFallback() {
		c.memMu.Lock()
		defer c.memMu.Unlock()
		c.fallbackMap[key] = cachedAnswer{answer: answer, expiresAt: c.now().Add(answerCacheTTL)}
		return nil
	}

	if err := c.client.Set(ctx, key, answer, answerCacheTTL).Err(); err != nil {
		if !c.degrade(ctx, "answer.set", err) {
			return err
		}
		return c.Set(ctx, fingerprint, query, answer)
	}
	return nil
}
