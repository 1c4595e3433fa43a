package server

import (
	"github.com/gin-gonic/gin"

	"plantcare-backend/internal/app/handlers"
	"plantcare-backend/internal/app/middleware"
	"plantcare-backend/pkg/logger"
)

// Handlers 路由注册所需的全部处理器
type Handlers struct {
	Identify   *handlers.IdentifyHandler
	Collection *handlers.CollectionHandler
	Guide      *handlers.GuideHandler
}

// NewRouter 创建 gin 引擎并注册全部路由。
// 识别和指南读取接口开放访问，收藏和指南写入接口需要认证。
func NewRouter(h Handlers, log logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.Logging(log))

	engine.GET("/health", handlers.Health)

	engine.POST("/identify", h.Identify.Identify)
	engine.GET("/identify/statistics", h.Identify.Statistics)

	api := engine.Group("/api")
	{
		collections := api.Group("/collections", middleware.Auth())
		{
			collections.POST("", h.Collection.Create)
			collections.GET("", h.Collection.List)
			collections.POST("/sync", h.Collection.Sync)
			collections.GET("/changes", h.Collection.Changes)
			collections.GET("/:collection_id", h.Collection.Get)
			collections.PUT("/:collection_id", h.Collection.Update)
			collections.DELETE("/:collection_id", h.Collection.Delete)
			collections.POST("/:collection_id/care", h.Collection.RecordCare)
		}

		guides := api.Group("/guides")
		{
			guides.GET("/by-plant/:plant_id", h.Guide.ListByPlant)
			guides.GET("/:guide_id", h.Guide.Get)
			guides.POST("", middleware.Auth(), h.Guide.Create)
			guides.PUT("/:guide_id", middleware.Auth(), h.Guide.Update)
		}
	}

	return engine
}
