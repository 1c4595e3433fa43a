package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"plantcare-backend/internal/app/middleware"
	"plantcare-backend/internal/domain/models"
	"plantcare-backend/internal/domain/services"
	"plantcare-backend/internal/infrastructure/cache"
	"plantcare-backend/pkg/logger"
)

// fakeGuideStore 记录调用次数的指南存储替身
type fakeGuideStore struct {
	getCalls  int
	listCalls int
	guide     *models.TreatmentGuide
}

func (f *fakeGuideStore) GetByID(ctx context.Context, guideID uuid.UUID) (*models.TreatmentGuide, error) {
	f.getCalls++
	if f.guide == nil || f.guide.ID != guideID {
		return nil, services.ErrNotFound
	}
	return f.guide, nil
}

func (f *fakeGuideStore) ListByPlant(ctx context.Context, plantID string, opts services.GuideListOptions) (*models.GuideListResponse, error) {
	f.listCalls++
	return &models.GuideListResponse{
		PlantID: plantID,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		Guides:  []*models.TreatmentGuide{},
	}, nil
}

func (f *fakeGuideStore) Create(ctx context.Context, userID uuid.UUID, create *models.GuideCreate) (*models.TreatmentGuide, error) {
	return f.guide, nil
}

func (f *fakeGuideStore) Update(ctx context.Context, userID, guideID uuid.UUID, update *models.GuideUpdate) (*models.TreatmentGuide, error) {
	if f.guide == nil || f.guide.ID != guideID {
		return nil, services.ErrNotFound
	}
	return f.guide, nil
}

func sampleGuide() *models.TreatmentGuide {
	return &models.TreatmentGuide{
		ID:        uuid.New(),
		PlantID:   "general",
		Severity:  models.SeverityLow,
		GuideType: models.GuideTypeIdentification,
		Steps: []models.GuideStep{
			{StepNumber: 1, Title: "Inspect leaves", Description: "Look for spots."},
		},
		Materials: []string{"magnifier"},
	}
}

func newGuideRouter(store *fakeGuideStore) (*gin.Engine, cache.Store) {
	gin.SetMode(gin.TestMode)
	log := logger.Default()
	cacheStore := cache.NewMemoryStore(log)
	handler := NewGuideHandler(store, cacheStore, time.Hour, log)

	engine := gin.New()
	engine.GET("/api/guides/by-plant/:plant_id", handler.ListByPlant)
	engine.GET("/api/guides/:guide_id", handler.Get)
	engine.PUT("/api/guides/:guide_id", middleware.Auth(), handler.Update)
	return engine, cacheStore
}

func TestGuideGetUsesCache(t *testing.T) {
	store := &fakeGuideStore{guide: sampleGuide()}
	engine, _ := newGuideRouter(store)
	path := "/api/guides/" + store.guide.ID.String()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	}

	if store.getCalls != 1 {
		t.Errorf("store calls = %d, want 1 (second read served from cache)", store.getCalls)
	}
}

func TestGuideGetNotFound(t *testing.T) {
	engine, _ := newGuideRouter(&fakeGuideStore{})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/guides/"+uuid.NewString(), nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGuideGetRejectsBadID(t *testing.T) {
	engine, _ := newGuideRouter(&fakeGuideStore{})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/guides/not-a-uuid", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGuideListCacheKeyIncludesPagination(t *testing.T) {
	store := &fakeGuideStore{}
	engine, _ := newGuideRouter(store)

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/guides/by-plant/general?limit=10", nil))
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/guides/by-plant/general?limit=10", nil))
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/guides/by-plant/general?limit=10&offset=10", nil))

	if store.listCalls != 2 {
		t.Errorf("store calls = %d, want 2 (distinct pages cached separately)", store.listCalls)
	}
}

func TestGuideListDefaultLimit(t *testing.T) {
	store := &fakeGuideStore{}
	engine, _ := newGuideRouter(store)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/guides/by-plant/general", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var list models.GuideListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Limit != 10 {
		t.Errorf("Limit = %d, want default 10", list.Limit)
	}
}

func TestGuideUpdateInvalidatesCache(t *testing.T) {
	store := &fakeGuideStore{guide: sampleGuide()}
	engine, _ := newGuideRouter(store)
	path := "/api/guides/" + store.guide.ID.String()

	// 预热缓存
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

	update := httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"severity": "high"}`))
	update.Header.Set("Content-Type", "application/json")
	update.Header.Set("Authorization", "Bearer "+uuid.NewString())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

	if store.getCalls != 2 {
		t.Errorf("store calls = %d, want 2 (cache invalidated by update)", store.getCalls)
	}
}
