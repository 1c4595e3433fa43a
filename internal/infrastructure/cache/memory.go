package cache

import (
	"context"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"plantcare-backend/pkg/logger"
)

// memoryEntry 进程内缓存的单个条目
type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// MemoryStore 进程内缓存实现。
// 值以活动对象形式保存，读取时不经过序列化。
// 只按 TTL 过期，过期条目在读取时惰性清除；没有容量上限。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	logger  logger.Logger
}

// NewMemoryStore 创建进程内缓存
func NewMemoryStore(log logger.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		logger:  log,
	}
}

// Get 读取缓存值。过期条目被删除并视为未命中。
func (s *MemoryStore) Get(ctx context.Context, key string, dest any) bool {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		s.logger.DebugContext(ctx, "缓存未命中 (memory)", "key", key)
		return false
	}

	if !assign(dest, entry.value) {
		s.logger.ErrorContext(ctx, "缓存值类型不匹配 (memory)", "key", key)
		return false
	}

	s.logger.DebugContext(ctx, "缓存命中 (memory)", "key", key)
	return true
}

// Set 写入缓存值
func (s *MemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "缓存写入 (memory)", "key", key, "ttl", ttl.String())
	return true
}

// Delete 删除指定键
func (s *MemoryStore) Delete(ctx context.Context, key string) bool {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "缓存删除 (memory)", "key", key)
	return true
}

// InvalidatePattern 删除所有匹配模式的键（仅支持 * 通配符）
func (s *MemoryStore) InvalidatePattern(ctx context.Context, pattern string) int {
	re, err := compilePattern(pattern)
	if err != nil {
		s.logger.ErrorContext(ctx, "缓存失效模式无效 (memory)", "pattern", pattern, "error", err.Error())
		return 0
	}

	s.mu.Lock()
	deleted := 0
	for key := range s.entries {
		if re.MatchString(key) {
			delete(s.entries, key)
			deleted++
		}
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "缓存批量失效 (memory)", "pattern", pattern, "deleted", deleted)
	return deleted
}

// Close 进程内缓存无需释放资源
func (s *MemoryStore) Close() error {
	return nil
}

// compilePattern 将 * 通配符模式编译为正则表达式
func compilePattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}

// assign 将缓存中的活动对象复制到 dest 指向的位置。
// dest 必须是与存储值同类型的指针。
func assign(dest, value any) bool {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return false
	}

	vv := reflect.ValueOf(value)
	if !vv.IsValid() || !vv.Type().AssignableTo(dv.Elem().Type()) {
		return false
	}

	dv.Elem().Set(vv)
	return true
}
