package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"plantcare-backend/configs"
	"plantcare-backend/pkg/logger"
)

// Store 缓存存储接口。
// 两种实现（进程内/Redis）在启动时选定其一，之后不再切换。
// 所有后端错误在实现内部降级处理：Get 失败视为未命中，Set 失败返回 false，
// 均不会向调用方抛出错误，因此缓存故障不影响整体请求。
type Store interface {
	// Get 读取缓存值并写入 dest（必须为指针）。
	// 未命中、已过期或后端出错时返回 false，dest 保持不变。
	Get(ctx context.Context, key string, dest any) bool

	// Set 写入缓存值并设置过期时间。
	// 返回是否写入成功。
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool

	// Delete 删除指定键，返回是否执行成功。
	Delete(ctx context.Context, key string) bool

	// InvalidatePattern 删除所有匹配模式的键（支持 * 通配符），返回删除数量。
	InvalidatePattern(ctx context.Context, pattern string) int

	// Close 释放后端连接，进程内实现为空操作。
	Close() error
}

// New 根据配置选择缓存后端，进程生命周期内只选择一次。
// 未配置 RedisURL 时使用进程内缓存；配置了 Redis 但启动时不可达，
// 记录警告并降级为进程内缓存（单向降级，之后不再尝试重连）。
func New(cfg *configs.CacheConfig, log logger.Logger) Store {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL 未配置，使用进程内缓存")
		return NewMemoryStore(log)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("Redis 连接字符串无效，降级为进程内缓存", "error", err.Error())
		return NewMemoryStore(log)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis 连接失败，降级为进程内缓存", "error", err.Error())
		_ = client.Close()
		return NewMemoryStore(log)
	}

	log.Info("Redis 缓存初始化成功")
	return NewRedisStore(client, log)
}
