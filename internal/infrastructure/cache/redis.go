package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"plantcare-backend/pkg/logger"
)

// RedisStore 基于 Redis 的持久缓存实现。
// 值以 JSON 文本形式存储，读取时反序列化；
// 无法解析的脏数据按未命中处理并顺带删除，不向调用方报错。
type RedisStore struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisStore 创建 Redis 缓存
func NewRedisStore(client *redis.Client, log logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: log,
	}
}

// Get 读取缓存值并反序列化到 dest
func (s *RedisStore) Get(ctx context.Context, key string, dest any) bool {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.ErrorContext(ctx, "Redis 读取失败", "key", key, "error", err.Error())
		} else {
			s.logger.DebugContext(ctx, "缓存未命中 (Redis)", "key", key)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// 脏数据：删除后按未命中处理
		s.logger.ErrorContext(ctx, "Redis 缓存值无法解析，已删除", "key", key, "error", err.Error())
		_ = s.client.Del(ctx, key).Err()
		return false
	}

	s.logger.DebugContext(ctx, "缓存命中 (Redis)", "key", key)
	return true
}

// Set 序列化并写入缓存值
func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.ErrorContext(ctx, "缓存值序列化失败", "key", key, "error", err.Error())
		return false
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.ErrorContext(ctx, "Redis 写入失败", "key", key, "error", err.Error())
		return false
	}

	s.logger.DebugContext(ctx, "缓存写入 (Redis)", "key", key, "ttl", ttl.String())
	return true
}

// Delete 删除指定键
func (s *RedisStore) Delete(ctx context.Context, key string) bool {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.ErrorContext(ctx, "Redis 删除失败", "key", key, "error", err.Error())
		return false
	}

	s.logger.DebugContext(ctx, "缓存删除 (Redis)", "key", key)
	return true
}

// InvalidatePattern 通过 SCAN 遍历删除所有匹配模式的键
func (s *RedisStore) InvalidatePattern(ctx context.Context, pattern string) int {
	deleted := 0
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.ErrorContext(ctx, "Redis 删除失败", "key", iter.Val(), "error", err.Error())
			continue
		}
		deleted++
	}

	if err := iter.Err(); err != nil {
		s.logger.ErrorContext(ctx, "Redis 模式扫描失败", "pattern", pattern, "error", err.Error())
	}

	s.logger.InfoContext(ctx, "缓存批量失效 (Redis)", "pattern", pattern, "deleted", deleted)
	return deleted
}

// Close 关闭 Redis 连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
