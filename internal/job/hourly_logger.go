package job

import (
	"context"
	"sync"

	"czagent/internal/inventory"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// HourlyLogger 每小时输出一次机群概况，作为存活心跳。
type HourlyLogger struct {
	store  *inventory.Store
	logger *zap.Logger
	cron   *cron.Cron
}

func NewHourlyLogger(store *inventory.Store, logger *zap.Logger) *HourlyLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HourlyLogger{store: store, logger: logger}
}

// Beat 输出一次心跳日志。
func (h *HourlyLogger) Beat() {
	if h.store == nil {
		h.logger.Info("hourly heartbeat")
		return
	}
	sum := h.store.Summarize()
	fields := []zap.Field{
		zap.Time("as_of", h.store.AsOf()),
		zap.Int("servers", sum.Servers),
		zap.Int("switches", sum.Switches),
		zap.Int("oob_down", sum.OOBDown),
	}
	for _, status := range inventory.Statuses {
		fields = append(fields, zap.Int(string(status), sum.ByStatus[status]))
	}
	h.logger.Info("hourly fleet heartbeat", fields...)
}

// Start 启动按小时执行的心跳任务，返回停止函数。
func (h *HourlyLogger) Start(parent context.Context) context.CancelFunc {
	if h == nil {
		return func() {}
	}
	c := cron.New()
	if _, err := c.AddFunc("@hourly", h.Beat); err != nil {
		h.logger.Error("failed to register hourly job", zap.Error(err))
		return func() {}
	}
	h.cron = c
	c.Start()
	h.logger.Info("hourly job started")

	var once sync.Once
	stop := func() {
		once.Do(func() {
			ctx := h.cron.Stop()
			<-ctx.Done()
			h.logger.Info("hourly job stopped")
		})
	}

	go func() {
		<-parent.Done()
		stop()
	}()

	return stop
}
