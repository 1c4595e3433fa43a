package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"plantcare-backend/internal/domain/models"
	"plantcare-backend/internal/domain/services"
	"plantcare-backend/internal/infrastructure/plantid"
	"plantcare-backend/internal/infrastructure/supabase"
	"plantcare-backend/pkg/logger"
	"plantcare-backend/pkg/status"
)

// errorBody 统一的错误响应结构
type errorBody struct {
	Code    status.StatusCode `json:"code"`
	Message string            `json:"message"`
}

// respondError 写出错误响应
func respondError(c *gin.Context, httpStatus int, code status.StatusCode, message string) {
	c.JSON(httpStatus, errorBody{Code: code, Message: message})
}

// respondWithError 按错误类型映射 HTTP 状态码。
// 校验错误 400，上游不可用 502，记录不存在 404，存储不可用 503，其余 500。
func respondWithError(c *gin.Context, log logger.Logger, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		respondError(c, http.StatusBadRequest, status.ErrCodeInvalidParam, validationErr.Error())
		return
	}

	var upstreamErr *plantid.UpstreamError
	if errors.As(err, &upstreamErr) {
		log.Error("上游识别服务调用失败", "error", upstreamErr.Error())
		respondError(c, http.StatusBadGateway, status.ErrCodeUpstream, "plant identification service unavailable")
		return
	}

	if errors.Is(err, services.ErrNotFound) {
		respondError(c, http.StatusNotFound, status.ErrCodeNotFound, "record not found")
		return
	}

	var storeErr *supabase.StoreError
	if errors.As(err, &storeErr) {
		log.Error("数据存储服务调用失败", "status", storeErr.StatusCode)
		respondError(c, http.StatusServiceUnavailable, status.ErrCodeStoreUnavailable, "storage service unavailable")
		return
	}

	log.Error("请求处理失败", "error", err.Error())
	respondError(c, http.StatusInternalServerError, status.ErrCodeInternal, "internal server error")
}
