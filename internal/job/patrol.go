package job

import (
	"context"
	"fmt"

	"czagent/internal/metrics"
	"czagent/internal/tools"
	"go.uber.org/zap"
)

// RackPatrol 巡检所有物理机柜的带外连通性，并把告警数写入指标。
type RackPatrol struct {
	svc    *tools.Service
	logger *zap.Logger
}

func NewRackPatrol(svc *tools.Service, logger *zap.Logger) *RackPatrol {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RackPatrol{svc: svc, logger: logger}
}

// Run 执行一次巡检，返回告警机柜。
func (p *RackPatrol) Run(ctx context.Context) ([]*tools.RackTopology, error) {
	if p == nil || p.svc == nil {
		return nil, fmt.Errorf("rack patrol 未初始化")
	}
	alerts, err := p.svc.RackAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("机柜巡检失败: %w", err)
	}
	metrics.RackAlerts.Set(float64(len(alerts)))
	for _, rack := range alerts {
		p.logger.Warn("rack out-of-band alert",
			zap.String("rack", rack.RackID),
			zap.String("room", rack.Scope.Room),
			zap.Int("servers", rack.TotalServers),
			zap.Int("oob_connected", rack.OutOfBandConnected),
			zap.String("action", rack.RecommendedAction))
	}
	p.logger.Info("rack patrol finished", zap.Int("alerts", len(alerts)))
	return alerts, nil
}

// Task 适配为调度任务。
func (p *RackPatrol) Task() Task {
	return func(ctx context.Context) error {
		_, err := p.Run(ctx)
		return err
	}
}
