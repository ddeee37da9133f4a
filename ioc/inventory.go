package ioc

import (
	"czagent/internal/app"
	"czagent/internal/inventory"
	"go.uber.org/zap"
)

// InitInventory 生成模拟机群并校验数据约束。
func InitInventory(cfg app.Config, logger *zap.Logger) (*inventory.Store, error) {
	var opts []inventory.Option
	ref, err := cfg.Inventory.Reference()
	if err != nil {
		return nil, err
	}
	if !ref.IsZero() {
		opts = append(opts, inventory.WithReferenceTime(ref))
	}
	store := inventory.New(opts...)
	if err := store.Validate(); err != nil {
		return nil, err
	}
	sum := store.Summarize()
	logger.Info("inventory loaded", zap.Time("as_of", store.AsOf()), zap.Int("servers", sum.Servers), zap.Int("switches", sum.Switches))
	return store, nil
}
