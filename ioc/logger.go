package ioc

import (
	"czagent/internal/app"
	"czagent/pkg/logging"
	"go.uber.org/zap"
)

// InitLogger 构建全局 logger。
func InitLogger(cfg app.Config) (*zap.Logger, error) {
	return logging.NewZapLogger(cfg.Log.Level)
}
