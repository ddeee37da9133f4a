package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"czagent/internal/app"
	"czagent/internal/job"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// HTTPServer 封装 HTTP 服务运行所需的依赖。Export 为 nil 表示未启用图导出。
type HTTPServer struct {
	Engine *gin.Engine
	Logger *zap.Logger
	Config app.Config
	Export *app.Service
	Jobs   *job.Jobs
}

// NewHTTPServer 构建 HTTPServer。
func NewHTTPServer(engine *gin.Engine, logger *zap.Logger, cfg app.Config, export *app.Service, jobs *job.Jobs) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPServer{
		Engine: engine,
		Logger: logger,
		Config: cfg,
		Export: export,
		Jobs:   jobs,
	}
}

// Run 启动 HTTP 服务及相关后台任务，ctx 结束时优雅退出。
func (s *HTTPServer) Run(ctx context.Context) error {
	listen := strings.TrimSpace(s.Config.HTTP.Listen)
	if listen == "" {
		listen = ":8080"
	}

	stopJobs := s.Jobs.Start(ctx)
	defer stopJobs()

	if s.Config.Export.InitialExport && s.Export != nil {
		if err := s.Export.Init(ctx); err != nil {
			s.Logger.Error("initial inventory export failed", zap.Error(err))
		} else {
			s.Logger.Info("initial inventory export completed", zap.String("run_id", s.Export.LastRunID()))
		}
	} else {
		s.Logger.Info("initial inventory export skipped by configuration")
	}

	srv := &http.Server{Addr: listen, Handler: s.Engine}
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("http server starting", zap.String("listen", listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.Logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Shutdown 刷新日志缓冲，导出服务的连接由注入器的 cleanup 关闭。
func (s *HTTPServer) Shutdown(context.Context) {
	_ = s.Logger.Sync()
}
