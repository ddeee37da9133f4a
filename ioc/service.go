package ioc

import (
	"context"

	"czagent/internal/app"
	"czagent/internal/inventory"
	"go.uber.org/zap"
)

// InitExportService 构建 Neo4j 导出服务，未启用导出时返回 nil。
func InitExportService(ctx context.Context, cfg app.Config, store *inventory.Store, logger *zap.Logger) (*app.Service, func(), error) {
	if !cfg.Export.Enabled {
		logger.Info("inventory export disabled")
		return nil, func() {}, nil
	}
	svc, err := app.NewService(ctx, cfg, store, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := svc.Close(context.Background()); err != nil {
			logger.Warn("close export service failed", zap.Error(err))
		}
	}
	return svc, cleanup, nil
}
