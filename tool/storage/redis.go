package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"data-agent/config"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
	redisErr    error
)

// InitRedis 初始化Redis连接
func InitRedis(ctx context.Context) error {
	redisOnce.Do(func() {
		if config.Cfg == nil {
			redisErr = fmt.Errorf("config not initialized")
			return
		}

		db, _ := strconv.Atoi(config.Cfg.RedisConf.DB)
		client := redis.NewClient(&redis.Options{
			Addr:         config.Cfg.RedisConf.Addr,
			Password:     config.Cfg.RedisConf.Password,
			DB:           db,
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})

		// 测试连接
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			redisErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}

		redisClient = client
		zap.L().Info("redis connected", zap.String("addr", config.Cfg.RedisConf.Addr))
	})

	return redisErr
}

// GetRedisClient 获取Redis客户端
func GetRedisClient() (*redis.Client, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized, call InitRedis first")
	}
	return redisClient, nil
}

// Client 未初始化时返回 nil，各存储据此进入内存模式
func Client() *redis.Client {
	client, _ := GetRedisClient()
	return client
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if redisClient != nil {
		return redisClient.Close()
	}
	return nil
}

// fallback 记录是否已降级到内存模式
type fallback struct {
	client *redis.Client
	mu     sync.RWMutex
	on     bool
}

func (f *fallback) init(client *redis.Client) {
	f.client = client
	f.on = client == nil
}

func (f *fallback) useFallback() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.on
}

// degrade Redis出错时降级到内存模式；请求被取消或超时不算 Redis 故障，返回 false 由调用方直接返回错误
func (f *fallback) degrade(ctx context.Context, op string, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.on {
		zap.L().Warn("redis unavailable, falling back to memory", zap.String("op", op), zap.Error(err))
	}
	f.on = true
	return true
}

// Mode 当前存储模式
func (f *fallback) Mode() string {
	if f.useFallback() {
		return "memory"
	}
	return "redis"
}
