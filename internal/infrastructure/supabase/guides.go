package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"plantcare-backend/internal/domain/models"
	"plantcare-backend/internal/domain/services"
	"plantcare-backend/pkg/logger"
)

const guidesTable = "/treatment_guides"

// GuideStore 治疗指南的存储实现
type GuideStore struct {
	client *Client
	logger logger.Logger
}

// NewGuideStore 创建指南存储
func NewGuideStore(client *Client, log logger.Logger) *GuideStore {
	return &GuideStore{client: client, logger: log}
}

// guideRow 指南表的行结构。
// steps 和 materials 在数据库里是 JSONB 列，部分历史数据把数组
// 二次编码成了 JSON 字符串，flexibleJSON 同时兼容两种形态。
type guideRow struct {
	ID                       uuid.UUID                  `json:"id"`
	PlantID                  string                     `json:"plant_id"`
	DiseaseName              *string                    `json:"disease_name"`
	Severity                 string                     `json:"severity"`
	GuideType                string                     `json:"guide_type"`
	Steps                    flexibleJSON[[]models.GuideStep] `json:"steps"`
	Materials                flexibleJSON[[]string]     `json:"materials"`
	EstimatedDurationMinutes *int                       `json:"estimated_duration_minutes"`
	EstimatedDurationText    *string                    `json:"estimated_duration_text"`
	CreatedAt                time.Time                  `json:"created_at"`
	UpdatedAt                time.Time                  `json:"updated_at"`
}

// flexibleJSON 解码可能被二次编码为字符串的 JSONB 值
type flexibleJSON[T any] struct {
	Value T
}

// UnmarshalJSON 实现双形态解码：先尝试目标类型，
// 失败时按 JSON 字符串剥一层再解码。
func (f *flexibleJSON[T]) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &f.Value); err == nil {
		return nil
	}

	var inner string
	if err := json.Unmarshal(data, &inner); err != nil {
		return err
	}
	return json.Unmarshal([]byte(inner), &f.Value)
}

// toModel 转换为领域结构
func (r *guideRow) toModel() *models.TreatmentGuide {
	guide := &models.TreatmentGuide{
		ID:                       r.ID,
		PlantID:                  r.PlantID,
		DiseaseName:              r.DiseaseName,
		Severity:                 r.Severity,
		GuideType:                r.GuideType,
		Steps:                    r.Steps.Value,
		Materials:                r.Materials.Value,
		EstimatedDurationMinutes: r.EstimatedDurationMinutes,
		EstimatedDurationText:    r.EstimatedDurationText,
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
	}
	if guide.Steps == nil {
		guide.Steps = make([]models.GuideStep, 0)
	}
	if guide.Materials == nil {
		guide.Materials = make([]string, 0)
	}
	return guide
}

// GetByID 按主键查询指南
func (s *GuideStore) GetByID(ctx context.Context, guideID uuid.UUID) (*models.TreatmentGuide, error) {
	query := url.Values{}
	query.Set("id", "eq."+guideID.String())

	resp, err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   guidesTable,
		query:  query,
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeGuides(resp.body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, services.ErrNotFound
	}

	return rows[0], nil
}

// ListByPlant 按植物分页查询指南，病害名称为模糊匹配
func (s *GuideStore) ListByPlant(ctx context.Context, plantID string, opts services.GuideListOptions) (*models.GuideListResponse, error) {
	query := url.Values{}
	query.Set("plant_id", "eq."+plantID)
	query.Set("order", "created_at.desc")
	query.Set("limit", strconv.Itoa(opts.Limit))
	query.Set("offset", strconv.Itoa(opts.Offset))

	var diseaseFilter *string
	if opts.DiseaseName != "" {
		query.Set("disease_name", "ilike.%"+opts.DiseaseName+"%")
		diseaseFilter = &opts.DiseaseName
	}

	resp, err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   guidesTable,
		query:  query,
		prefer: "count=exact",
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeGuides(resp.body)
	if err != nil {
		return nil, err
	}

	total := totalFromContentRange(resp.contentRange)
	if total < 0 {
		total = opts.Offset + len(rows)
	}

	return &models.GuideListResponse{
		PlantID:       plantID,
		DiseaseFilter: diseaseFilter,
		TotalResults:  total,
		Limit:         opts.Limit,
		Offset:        opts.Offset,
		Guides:        rows,
	}, nil
}

// Create 插入一条指南
func (s *GuideStore) Create(ctx context.Context, userID uuid.UUID, create *models.GuideCreate) (*models.TreatmentGuide, error) {
	row := map[string]any{
		"plant_id":                   create.PlantID,
		"disease_name":               create.DiseaseName,
		"severity":                   create.Severity,
		"guide_type":                 create.GuideType,
		"steps":                      create.Steps,
		"materials":                  create.Materials,
		"estimated_duration_minutes": create.EstimatedDurationMinutes,
		"estimated_duration_text":    create.EstimatedDurationText,
		"created_by":                 userID,
	}

	resp, err := s.client.do(ctx, request{
		method: http.MethodPost,
		path:   guidesTable,
		body:   row,
		prefer: "return=representation",
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeGuides(resp.body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &StoreError{StatusCode: resp.statusCode, Body: "insert returned no rows"}
	}

	s.logger.Info("治疗指南已创建", "guide_id", rows[0].ID.String(), "plant_id", create.PlantID)
	return rows[0], nil
}

// Update 部分更新指南
func (s *GuideStore) Update(ctx context.Context, userID, guideID uuid.UUID, update *models.GuideUpdate) (*models.TreatmentGuide, error) {
	patch := map[string]any{
		"updated_at": time.Now().UTC(),
		"updated_by": userID,
	}
	if update.PlantID != nil {
		patch["plant_id"] = *update.PlantID
	}
	if update.DiseaseName != nil {
		patch["disease_name"] = *update.DiseaseName
	}
	if update.Severity != nil {
		patch["severity"] = *update.Severity
	}
	if update.GuideType != nil {
		patch["guide_type"] = *update.GuideType
	}
	if update.Steps != nil {
		patch["steps"] = update.Steps
	}
	if update.Materials != nil {
		patch["materials"] = update.Materials
	}
	if update.EstimatedDurationMinutes != nil {
		patch["estimated_duration_minutes"] = *update.EstimatedDurationMinutes
	}
	if update.EstimatedDurationText != nil {
		patch["estimated_duration_text"] = *update.EstimatedDurationText
	}

	query := url.Values{}
	query.Set("id", "eq."+guideID.String())

	resp, err := s.client.do(ctx, request{
		method: http.MethodPatch,
		path:   guidesTable,
		query:  query,
		body:   patch,
		prefer: "return=representation",
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeGuides(resp.body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, services.ErrNotFound
	}

	return rows[0], nil
}

// decodeGuides 解码指南行数组并转换为领域结构
func decodeGuides(body []byte) ([]*models.TreatmentGuide, error) {
	var rows []guideRow
	if err := decodeRows(body, &rows); err != nil {
		return nil, err
	}

	guides := make([]*models.TreatmentGuide, 0, len(rows))
	for i := range rows {
		guides = append(guides, rows[i].toModel())
	}
	return guides, nil
}
