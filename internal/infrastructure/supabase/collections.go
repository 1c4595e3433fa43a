package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"plantcare-backend/internal/domain/models"
	"plantcare-backend/internal/domain/services"
	"plantcare-backend/pkg/logger"
)

const collectionsTable = "/plant_collections"

// CollectionStore 植物收藏的存储实现
type CollectionStore struct {
	client *Client
	logger logger.Logger
}

// NewCollectionStore 创建收藏存储
func NewCollectionStore(client *Client, log logger.Logger) *CollectionStore {
	return &CollectionStore{client: client, logger: log}
}

// Create 插入一条收藏记录。
// next_care_date 未提供时按识别时间加养护间隔推算。
func (s *CollectionStore) Create(ctx context.Context, userID uuid.UUID, create *models.CollectionCreate) (*models.PlantCollection, error) {
	row := map[string]any{
		"user_id":             userID,
		"plant_id":            create.PlantID,
		"common_name":         create.CommonName,
		"scientific_name":     create.ScientificName,
		"image_url":           create.ImageURL,
		"identified_at":       create.IdentifiedAt,
		"last_care_date":      create.LastCareDate,
		"care_frequency_days": create.CareFrequencyDays,
		"health_status":       create.HealthStatus,
		"notes":               create.Notes,
		"is_synced":           true,
	}

	if create.NextCareDate != nil {
		row["next_care_date"] = create.NextCareDate
	} else {
		row["next_care_date"] = create.IdentifiedAt.AddDate(0, 0, create.CareFrequencyDays)
	}

	resp, err := s.client.do(ctx, request{
		method: http.MethodPost,
		path:   collectionsTable,
		body:   row,
		prefer: "return=representation",
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeCollections(resp.body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &StoreError{StatusCode: resp.statusCode, Body: "insert returned no rows"}
	}

	s.logger.Info("收藏条目已创建", "collection_id", rows[0].ID.String(), "user_id", userID.String())
	return rows[0], nil
}

// GetByID 按主键查询收藏，同时用 user_id 过滤实现归属校验
func (s *CollectionStore) GetByID(ctx context.Context, userID, collectionID uuid.UUID) (*models.PlantCollection, error) {
	query := url.Values{}
	query.Set("id", "eq."+collectionID.String())
	query.Set("user_id", "eq."+userID.String())

	resp, err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   collectionsTable,
		query:  query,
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeCollections(resp.body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, services.ErrNotFound
	}

	return rows[0], nil
}

// ListByUser 分页查询用户的收藏列表。
// 排序规则：下次养护时间升序（空值最后），再按创建时间降序。
func (s *CollectionStore) ListByUser(ctx context.Context, userID uuid.UUID, opts services.CollectionListOptions) (*models.CollectionPage, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+userID.String())
	query.Set("order", "next_care_date.asc.nullslast,created_at.desc")
	query.Set("limit", strconv.Itoa(opts.Limit))
	query.Set("offset", strconv.Itoa(opts.Offset))

	if opts.HealthStatus != "" {
		query.Set("health_status", "eq."+opts.HealthStatus)
	}

	resp, err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   collectionsTable,
		query:  query,
		prefer: "count=exact",
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeCollections(resp.body)
	if err != nil {
		return nil, err
	}

	total := totalFromContentRange(resp.contentRange)
	if total < 0 {
		total = opts.Offset + len(rows)
	}

	return &models.CollectionPage{
		Data:    rows,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+len(rows) < total,
	}, nil
}

// Update 部分更新收藏条目，仅修改调用方显式提供的字段
func (s *CollectionStore) Update(ctx context.Context, userID, collectionID uuid.UUID, update *models.CollectionUpdate) (*models.PlantCollection, error) {
	patch := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if update.CommonName != nil {
		patch["common_name"] = *update.CommonName
	}
	if update.ScientificName != nil {
		patch["scientific_name"] = *update.ScientificName
	}
	if update.ImageURL != nil {
		patch["image_url"] = *update.ImageURL
	}
	if update.LastCareDate != nil {
		patch["last_care_date"] = *update.LastCareDate
	}
	if update.NextCareDate != nil {
		patch["next_care_date"] = *update.NextCareDate
	}
	if update.CareFrequencyDays != nil {
		patch["care_frequency_days"] = *update.CareFrequencyDays
	}
	if update.HealthStatus != nil {
		patch["health_status"] = *update.HealthStatus
	}
	if update.Notes != nil {
		patch["notes"] = *update.Notes
	}

	query := url.Values{}
	query.Set("id", "eq."+collectionID.String())
	query.Set("user_id", "eq."+userID.String())

	resp, err := s.client.do(ctx, request{
		method: http.MethodPatch,
		path:   collectionsTable,
		query:  query,
		body:   patch,
		prefer: "return=representation",
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeCollections(resp.body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, services.ErrNotFound
	}

	return rows[0], nil
}

// Delete 删除收藏条目。
// 请求返回被删除的行以区分"已删除"和"本就不存在"。
func (s *CollectionStore) Delete(ctx context.Context, userID, collectionID uuid.UUID) error {
	query := url.Values{}
	query.Set("id", "eq."+collectionID.String())
	query.Set("user_id", "eq."+userID.String())

	resp, err := s.client.do(ctx, request{
		method: http.MethodDelete,
		path:   collectionsTable,
		query:  query,
		prefer: "return=representation",
	})
	if err != nil {
		return err
	}

	rows, err := decodeCollections(resp.body)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return services.ErrNotFound
	}

	s.logger.Info("收藏条目已删除", "collection_id", collectionID.String(), "user_id", userID.String())
	return nil
}

// Sync 批量同步客户端上传的收藏。
// 冲突策略为 server-wins：带 ID 且服务器已存在的条目保留服务器版本，
// 其余条目作为新记录插入。单条失败不会中断整批。
func (s *CollectionStore) Sync(ctx context.Context, userID uuid.UUID, items []models.CollectionSyncItem) (*models.CollectionSyncResponse, error) {
	result := &models.CollectionSyncResponse{
		Collections: make([]*models.PlantCollection, 0, len(items)),
	}

	for i := range items {
		item := &items[i]

		if item.ID != nil {
			existing, err := s.GetByID(ctx, userID, *item.ID)
			if err == nil {
				result.SyncedCount++
				result.Collections = append(result.Collections, existing)
				continue
			}
			if !errors.Is(err, services.ErrNotFound) {
				result.FailedCount++
				s.logger.Warn("同步条目查询失败", "collection_id", item.ID.String(), "error", err.Error())
				continue
			}
		}

		if err := item.CollectionCreate.Validate(); err != nil {
			result.FailedCount++
			continue
		}

		created, err := s.Create(ctx, userID, &item.CollectionCreate)
		if err != nil {
			result.FailedCount++
			s.logger.Warn("同步条目创建失败", "plant_id", item.PlantID, "error", err.Error())
			continue
		}

		result.SyncedCount++
		result.Collections = append(result.Collections, created)
	}

	return result, nil
}

// ChangesSince 查询指定时刻之后有变更的收藏条目
func (s *CollectionStore) ChangesSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.PlantCollection, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+userID.String())
	query.Set("updated_at", "gt."+since.UTC().Format(time.RFC3339))
	query.Set("order", "updated_at.asc")

	resp, err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   collectionsTable,
		query:  query,
	})
	if err != nil {
		return nil, err
	}

	var rows []models.PlantCollection
	if err := decodeRows(resp.body, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]models.PlantCollection, 0)
	}

	return rows, nil
}

// RecordCare 经由存储过程记录一次养护动作。
// 过程在单个事务内插入历史记录并刷新收藏条目的养护时间字段。
func (s *CollectionStore) RecordCare(ctx context.Context, userID, collectionID uuid.UUID, action *models.CareActionRequest) (*models.CareActionResponse, error) {
	careDate := time.Now().UTC()
	if action.CareDate != nil {
		careDate = action.CareDate.UTC()
	}

	body := map[string]any{
		"p_collection_id": collectionID,
		"p_user_id":       userID,
		"p_care_type":     action.CareType,
		"p_notes":         action.Notes,
		"p_care_date":     careDate,
	}

	resp, err := s.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/rpc/record_care_action",
		body:   body,
	})
	if err != nil {
		var storeErr *StoreError
		// 过程用异常报告归属校验失败，这里还原成"不存在"
		if errors.As(err, &storeErr) && strings.Contains(storeErr.Body, "not found or access denied") {
			return nil, services.ErrNotFound
		}
		return nil, err
	}

	var out models.CareActionResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("decode care action response: %w", err)
	}

	s.logger.Info("养护动作已记录",
		"collection_id", collectionID.String(),
		"care_type", action.CareType,
	)
	return &out, nil
}

// decodeCollections 解码收藏行数组
func decodeCollections(body []byte) ([]*models.PlantCollection, error) {
	var rows []*models.PlantCollection
	if err := decodeRows(body, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]*models.PlantCollection, 0)
	}
	return rows, nil
}
