package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"plantcare-backend/internal/app/middleware"
	"plantcare-backend/internal/domain/models"
	"plantcare-backend/internal/domain/services"
	"plantcare-backend/pkg/logger"
	"plantcare-backend/pkg/status"
)

// 列表分页的默认与上限
const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// CollectionHandler 植物收藏接口处理器
type CollectionHandler struct {
	store  services.CollectionStore
	logger logger.Logger
}

// NewCollectionHandler 创建收藏处理器
func NewCollectionHandler(store services.CollectionStore, log logger.Logger) *CollectionHandler {
	return &CollectionHandler{store: store, logger: log}
}

// Create POST /api/collections
func (h *CollectionHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var create models.CollectionCreate
	if err := c.ShouldBindJSON(&create); err != nil {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, "invalid request body: "+err.Error())
		return
	}
	if err := create.Validate(); err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	collection, err := h.store.Create(c.Request.Context(), userID, &create)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, collection)
}

// List GET /api/collections
func (h *CollectionHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	opts := services.CollectionListOptions{
		HealthStatus: c.Query("health_status"),
		Limit:        parseIntQuery(c, "limit", defaultPageLimit),
		Offset:       parseIntQuery(c, "offset", 0),
	}

	if opts.HealthStatus != "" && !models.ValidHealthStatus(opts.HealthStatus) {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, "invalid health_status filter")
		return
	}
	if opts.Limit < 1 || opts.Limit > maxPageLimit {
		opts.Limit = defaultPageLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	page, err := h.store.ListByUser(c.Request.Context(), userID, opts)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get GET /api/collections/:collection_id
func (h *CollectionHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	collectionID, ok := parseIDParam(c, "collection_id")
	if !ok {
		return
	}

	collection, err := h.store.GetByID(c.Request.Context(), userID, collectionID)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, collection)
}

// Update PUT /api/collections/:collection_id
func (h *CollectionHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	collectionID, ok := parseIDParam(c, "collection_id")
	if !ok {
		return
	}

	var update models.CollectionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, "invalid request body: "+err.Error())
		return
	}
	if err := update.Validate(); err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	collection, err := h.store.Update(c.Request.Context(), userID, collectionID, &update)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, collection)
}

// Delete DELETE /api/collections/:collection_id
func (h *CollectionHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	collectionID, ok := parseIDParam(c, "collection_id")
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), userID, collectionID); err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Sync POST /api/collections/sync
func (h *CollectionHandler) Sync(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.CollectionSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, "invalid request body: "+err.Error())
		return
	}

	result, err := h.store.Sync(c.Request.Context(), userID, req.Collections)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Changes GET /api/collections/changes?since=<RFC3339>
func (h *CollectionHandler) Changes(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	sinceParam := c.Query("since")
	if sinceParam == "" {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, "since query parameter is required")
		return
	}
	since, err := time.Parse(time.RFC3339, sinceParam)
	if err != nil {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, "since must be an RFC3339 timestamp")
		return
	}

	changes, err := h.store.ChangesSince(c.Request.Context(), userID, since)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"since":       since,
		"collections": changes,
	})
}

// RecordCare POST /api/collections/:collection_id/care
func (h *CollectionHandler) RecordCare(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	collectionID, ok := parseIDParam(c, "collection_id")
	if !ok {
		return
	}

	var action models.CareActionRequest
	if err := c.ShouldBindJSON(&action); err != nil {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, "invalid request body: "+err.Error())
		return
	}
	if err := action.Validate(); err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	result, err := h.store.RecordCare(c.Request.Context(), userID, collectionID, &action)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// requireUser 取出认证中间件写入的用户 ID
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, status.ErrCodeUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// parseIDParam 解析路径中的 UUID 参数
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// parseIntQuery 解析整型查询参数，缺失或非法时返回默认值
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
