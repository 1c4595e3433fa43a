package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"plantcare-backend/internal/domain/models"
	"plantcare-backend/internal/infrastructure/cache"
	"plantcare-backend/pkg/logger"
)

// schemaVersion 缓存键的结构版本号，规整输出结构变更时递增以整体失效旧条目
const schemaVersion = "v1"

// UpstreamClient 上游识别服务客户端
type UpstreamClient interface {
	Identify(ctx context.Context, payload map[string]any) (json.RawMessage, error)
}

// ResultNormalizer 上游响应规整器
type ResultNormalizer interface {
	Normalize(raw json.RawMessage) *models.NormalizedResult
}

// IdentifyService 植物识别服务。
// 按请求指纹缓存规整后的结果，命中时完全跳过上游调用。
type IdentifyService struct {
	client     UpstreamClient
	normalizer ResultNormalizer
	cache      cache.Store
	ttl        time.Duration
	metrics    *Metrics
	logger     logger.Logger
}

// NewIdentifyService 创建识别服务
func NewIdentifyService(client UpstreamClient, normalizer ResultNormalizer, store cache.Store, ttl time.Duration, log logger.Logger) *IdentifyService {
	return &IdentifyService{
		client:     client,
		normalizer: normalizer,
		cache:      store,
		ttl:        ttl,
		metrics:    &Metrics{},
		logger:     log,
	}
}

// Identify 执行一次识别：校验请求、查缓存、未命中时调用上游并回填缓存
func (s *IdentifyService) Identify(ctx context.Context, req *models.IdentifyRequest) (*models.NormalizedResult, error) {
	s.metrics.RecordRequest()

	if err := req.Validate(); err != nil {
		s.metrics.RecordFailure()
		return nil, err
	}

	key := s.Fingerprint(req)

	var cached models.NormalizedResult
	if s.cache.Get(ctx, key, &cached) {
		s.logger.Debug("识别缓存命中", "key", key)
		s.metrics.RecordSuccess()
		return &cached, nil
	}

	raw, err := s.client.Identify(ctx, s.buildPayload(req))
	if err != nil {
		s.metrics.RecordFailure()
		return nil, err
	}

	result := s.normalizer.Normalize(raw)

	// 存入解引用后的结构体，两种缓存后端的取回路径是一致的
	if !s.cache.Set(ctx, key, *result, s.ttl) {
		s.logger.Warn("识别结果写入缓存失败", "key", key)
	}

	s.metrics.RecordSuccess()
	return result, nil
}

// Fingerprint 计算请求指纹。
// 同一图片（字节或 URL）加同一健康检查开关映射到同一个缓存键。
func (s *IdentifyService) Fingerprint(req *models.IdentifyRequest) string {
	h := sha256.New()
	if len(req.ImageData) > 0 {
		h.Write(req.ImageData)
	} else {
		h.Write([]byte(req.ImageURL))
	}
	digest := hex.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("identify:%s:%s:health=%t", schemaVersion, digest, req.CheckHealth)
}

// Metrics 返回计数器
func (s *IdentifyService) Metrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// buildPayload 组装上游请求体
func (s *IdentifyService) buildPayload(req *models.IdentifyRequest) map[string]any {
	payload := map[string]any{
		"similar_images": true,
	}

	// 图片字节走 images 数组（base64），URL 走独立的 image_url 字段
	if len(req.ImageData) > 0 {
		payload["images"] = []string{base64.StdEncoding.EncodeToString(req.ImageData)}
	} else {
		payload["image_url"] = req.ImageURL
	}

	if req.CheckHealth {
		payload["health"] = "all"
	}
	if req.Latitude != nil {
		payload["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		payload["longitude"] = *req.Longitude
	}

	return payload
}
