package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"plantcare-backend/internal/domain/models"
)

// CollectionListOptions 列表查询条件
type CollectionListOptions struct {
	HealthStatus string
	Limit        int
	Offset       int
}

// CollectionStore 用户植物收藏的持久化接口，记录不存在时返回 ErrNotFound
type CollectionStore interface {
	Create(ctx context.Context, userID uuid.UUID, create *models.CollectionCreate) (*models.PlantCollection, error)
	GetByID(ctx context.Context, userID, collectionID uuid.UUID) (*models.PlantCollection, error)
	ListByUser(ctx context.Context, userID uuid.UUID, opts CollectionListOptions) (*models.CollectionPage, error)
	Update(ctx context.Context, userID, collectionID uuid.UUID, update *models.CollectionUpdate) (*models.PlantCollection, error)
	Delete(ctx context.Context, userID, collectionID uuid.UUID) error
	Sync(ctx context.Context, userID uuid.UUID, items []models.CollectionSyncItem) (*models.CollectionSyncResponse, error)
	ChangesSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.PlantCollection, error)
	RecordCare(ctx context.Context, userID, collectionID uuid.UUID, action *models.CareActionRequest) (*models.CareActionResponse, error)
}
