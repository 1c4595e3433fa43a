package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"plantcare-backend/configs"
	"plantcare-backend/internal/app/handlers"
	"plantcare-backend/internal/app/server"
	"plantcare-backend/internal/domain/services"
	"plantcare-backend/internal/infrastructure/cache"
	"plantcare-backend/internal/infrastructure/plantid"
	"plantcare-backend/internal/infrastructure/supabase"
	"plantcare-backend/pkg/logger"
)

func main() {
	ctx := context.Background()

	// 加载配置
	config, err := configs.Load(ctx)
	if err != nil {
		logger.GetDefault().Error("配置加载失败", "error", err.Error())
		os.Exit(1)
	}

	// 初始化日志器
	log := logger.New(logger.Config{
		Level:    parseLogLevel(config.Logging.Level),
		Output:   config.Logging.Output,
		Format:   config.Logging.Format,
		FilePath: config.Logging.FilePath,
	})

	log.Info("植物识别服务启动中",
		"port", config.Server.Port,
		"cache_backend", cacheBackend(config.Cache.RedisURL),
	)

	gin.SetMode(gin.ReleaseMode)

	// 初始化缓存
	cacheStore := cache.New(&config.Cache, log)
	defer cacheStore.Close()

	// 初始化上游识别客户端与响应规整器
	upstream := plantid.NewClient(&config.PlantID, log)
	normalizer := plantid.NewNormalizer(log)

	// 初始化数据存储
	storeClient := supabase.NewClient(&config.Supabase, log)
	collectionStore := supabase.NewCollectionStore(storeClient, log)
	guideStore := supabase.NewGuideStore(storeClient, log)

	// 初始化服务与处理器
	identifyService := services.NewIdentifyService(upstream, normalizer, cacheStore, config.Cache.TTL, log)

	router := server.NewRouter(server.Handlers{
		Identify:   handlers.NewIdentifyHandler(identifyService, log),
		Collection: handlers.NewCollectionHandler(collectionStore, log),
		Guide:      handlers.NewGuideHandler(guideStore, cacheStore, config.Cache.TTL, log),
	}, log)

	// 启动 HTTP 服务
	httpServer := server.New(&config.Server, router, log)
	errChan := make(chan error, 1)
	httpServer.Start(ctx, errChan)

	// 等待退出信号或启动失败
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Error("HTTP 服务异常退出", "error", err.Error())
	case sig := <-quit:
		log.Info("收到退出信号", "signal", sig.String())
	}

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(ctx, config.Server.GracefulShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP 服务关闭失败", "error", err.Error())
		os.Exit(1)
	}

	log.Info("服务已退出")
}

// parseLogLevel 把配置中的级别字符串转换为 slog 级别
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// cacheBackend 日志用的缓存后端描述
func cacheBackend(redisURL string) string {
	if redisURL == "" {
		return "memory"
	}
	return "redis"
}
