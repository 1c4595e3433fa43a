package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"plantcare-backend/internal/domain/models"
	"plantcare-backend/internal/domain/services"
	"plantcare-backend/internal/infrastructure/cache"
	"plantcare-backend/pkg/logger"
	"plantcare-backend/pkg/status"
)

// defaultGuideLimit 按植物查询指南的默认分页大小
const defaultGuideLimit = 10

// GuideHandler 治疗指南接口处理器。
// 指南内容更新频率很低，读取路径全部走缓存，
// 任何写操作使 guide:* 前缀下的条目整体失效。
type GuideHandler struct {
	store  services.GuideStore
	cache  cache.Store
	ttl    time.Duration
	logger logger.Logger
}

// NewGuideHandler 创建指南处理器
func NewGuideHandler(store services.GuideStore, cacheStore cache.Store, ttl time.Duration, log logger.Logger) *GuideHandler {
	return &GuideHandler{store: store, cache: cacheStore, ttl: ttl, logger: log}
}

// Get GET /api/guides/:guide_id
func (h *GuideHandler) Get(c *gin.Context) {
	guideID, ok := parseIDParam(c, "guide_id")
	if !ok {
		return
	}

	key := "guide:id:" + guideID.String()

	var cached models.TreatmentGuide
	if h.cache.Get(c.Request.Context(), key, &cached) {
		c.JSON(http.StatusOK, &cached)
		return
	}

	guide, err := h.store.GetByID(c.Request.Context(), guideID)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, *guide, h.ttl)
	c.JSON(http.StatusOK, guide)
}

// ListByPlant GET /api/guides/by-plant/:plant_id
func (h *GuideHandler) ListByPlant(c *gin.Context) {
	plantID := c.Param("plant_id")

	opts := services.GuideListOptions{
		DiseaseName: c.Query("disease_name"),
		Limit:       parseIntQuery(c, "limit", defaultGuideLimit),
		Offset:      parseIntQuery(c, "offset", 0),
	}
	if opts.Limit < 1 || opts.Limit > maxPageLimit {
		opts.Limit = defaultGuideLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	disease := opts.DiseaseName
	if disease == "" {
		disease = "all"
	}
	key := fmt.Sprintf("guide:plant:%s:disease:%s:limit:%d:offset:%d", plantID, disease, opts.Limit, opts.Offset)

	var cached models.GuideListResponse
	if h.cache.Get(c.Request.Context(), key, &cached) {
		c.JSON(http.StatusOK, &cached)
		return
	}

	list, err := h.store.ListByPlant(c.Request.Context(), plantID, opts)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	h.cache.Set(c.Request.Context(), key, *list, h.ttl)
	c.JSON(http.StatusOK, list)
}

// Create POST /api/guides
func (h *GuideHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var create models.GuideCreate
	if err := c.ShouldBindJSON(&create); err != nil {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, "invalid request body: "+err.Error())
		return
	}
	if err := create.Validate(); err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	guide, err := h.store.Create(c.Request.Context(), userID, &create)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	h.invalidate(c)
	c.JSON(http.StatusCreated, guide)
}

// Update PUT /api/guides/:guide_id
func (h *GuideHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	guideID, ok := parseIDParam(c, "guide_id")
	if !ok {
		return
	}

	var update models.GuideUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, "invalid request body: "+err.Error())
		return
	}
	if err := update.Validate(); err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	guide, err := h.store.Update(c.Request.Context(), userID, guideID, &update)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	h.invalidate(c)
	c.JSON(http.StatusOK, guide)
}

// invalidate 写操作后清空指南缓存
func (h *GuideHandler) invalidate(c *gin.Context) {
	removed := h.cache.InvalidatePattern(c.Request.Context(), "guide:*")
	h.logger.Debug("指南缓存已失效", "removed", removed)
}
