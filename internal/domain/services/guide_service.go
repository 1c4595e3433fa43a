package services

import (
	"context"

	"github.com/google/uuid"

	"plantcare-backend/internal/domain/models"
)

// GuideListOptions 按植物查询治疗指南的条件
type GuideListOptions struct {
	DiseaseName string
	Limit       int
	Offset      int
}

// GuideStore 治疗指南的持久化接口，记录不存在时返回 ErrNotFound
type GuideStore interface {
	GetByID(ctx context.Context, guideID uuid.UUID) (*models.TreatmentGuide, error)
	ListByPlant(ctx context.Context, plantID string, opts GuideListOptions) (*models.GuideListResponse, error)
	Create(ctx context.Context, userID uuid.UUID, create *models.GuideCreate) (*models.TreatmentGuide, error)
	Update(ctx context.Context, userID, guideID uuid.UUID, update *models.GuideUpdate) (*models.TreatmentGuide, error)
}
