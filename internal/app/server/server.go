package server

import (
	"context"
	"errors"
	"net/http"

	"plantcare-backend/configs"
	"plantcare-backend/pkg/logger"
)

// Server HTTP 服务封装
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

// New 创建 HTTP 服务
func New(cfg *configs.ServerConfig, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.GetAddr(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: log,
	}
}

// Start 在后台启动监听，启动失败通过 errChan 上报
func (s *Server) Start(ctx context.Context, errChan chan<- error) {
	go func() {
		s.logger.Info("HTTP 服务已启动", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
}

// Shutdown 优雅关闭，等待在途请求完成
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP 服务开始关闭")
	return s.httpServer.Shutdown(ctx)
}
