package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"plantcare-backend/pkg/logger"
	"plantcare-backend/pkg/status"
)

// RequestIDKey 请求 ID 在 gin 上下文中的键名
const RequestIDKey = "request_id"

// Logging 请求日志中间件。
// 为每个请求生成请求 ID 并记录方法、路径、状态码和耗时；
// 健康检查探针的请求不记录。
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		log.Info("请求处理完成",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}

// Recovery 请求处理的兜底恢复中间件
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("请求处理发生 panic",
			"path", c.Request.URL.Path,
			"panic", recovered,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    status.ErrCodeInternal,
			"message": "internal server error",
		})
	})
}
