package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"plantcare-backend/internal/domain/models"
	"plantcare-backend/internal/domain/services"
	"plantcare-backend/pkg/logger"
)

// maxImageSize 上传图片的大小上限
const maxImageSize = 10 << 20

// IdentifyHandler 植物识别接口处理器
type IdentifyHandler struct {
	service *services.IdentifyService
	logger  logger.Logger
}

// NewIdentifyHandler 创建识别处理器
func NewIdentifyHandler(service *services.IdentifyService, log logger.Logger) *IdentifyHandler {
	return &IdentifyHandler{service: service, logger: log}
}

// Identify 处理识别请求。
// 支持两种载荷：multipart 表单（字段 image，可选 latitude/longitude）
// 和 JSON 对象 {"image_url": "..."}；check_health 走查询参数。
func (h *IdentifyHandler) Identify(c *gin.Context) {
	req, err := h.parseRequest(c)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	if raw := c.Query("check_health"); raw != "" {
		checkHealth, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(c, h.logger, &models.ValidationError{Field: "check_health", Message: "must be a boolean"})
			return
		}
		req.CheckHealth = checkHealth
	}

	result, err := h.service.Identify(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Statistics 返回识别服务的计数快照
func (h *IdentifyHandler) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Metrics())
}

// parseRequest 按 Content-Type 分派两种请求载荷
func (h *IdentifyHandler) parseRequest(c *gin.Context) (*models.IdentifyRequest, error) {
	contentType := c.ContentType()

	if strings.HasPrefix(contentType, "multipart/form-data") {
		return h.parseMultipart(c)
	}

	var body struct {
		ImageURL string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, &models.ValidationError{Field: "body", Message: "request body must be multipart form or JSON object"}
	}

	return &models.IdentifyRequest{ImageURL: strings.TrimSpace(body.ImageURL)}, nil
}

// parseMultipart 读取表单里的图片和可选坐标
func (h *IdentifyHandler) parseMultipart(c *gin.Context) (*models.IdentifyRequest, error) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		return nil, &models.ValidationError{Field: "image", Message: "image file is required"}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return nil, &models.ValidationError{Field: "image", Message: "failed to read image file"}
	}
	if len(data) > maxImageSize {
		return nil, &models.ValidationError{Field: "image", Message: "image exceeds maximum size of 10MB"}
	}

	req := &models.IdentifyRequest{ImageData: data}

	if lat := c.PostForm("latitude"); lat != "" {
		value, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return nil, &models.ValidationError{Field: "latitude", Message: "must be a number"}
		}
		req.Latitude = &value
	}
	if lng := c.PostForm("longitude"); lng != "" {
		value, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return nil, &models.ValidationError{Field: "longitude", Message: "must be a number"}
		}
		req.Longitude = &value
	}

	return req, nil
}

// Health 健康检查
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
