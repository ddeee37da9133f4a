package app

import (
	"context"
	"fmt"

	"czagent/internal/inventory"
	"czagent/internal/loader"
	"go.uber.org/zap"
)

// SyncFlow 负责增量同步：upsert 节点和关系，补边后删除本轮未出现的数据。
type SyncFlow struct {
	Store   *inventory.Store
	Nodes   *loader.NodeUpserter
	Rels    *loader.RelUpserter
	Fixer   *loader.EdgeFixer
	Cleaner *loader.Cleaner
	Logger  *zap.Logger
}

func (f *SyncFlow) Run(ctx context.Context, runID string) error {
	if f == nil {
		return fmt.Errorf("sync flow 未初始化")
	}
	if f.Store == nil || f.Nodes == nil || f.Rels == nil || f.Cleaner == nil {
		return fmt.Errorf("sync flow 依赖未注入完整")
	}
	if f.Logger == nil {
		f.Logger = zap.NewNop()
	}

	nodes, rels := BuildGraphRows(f.Store, runID)
	f.Logger.Info("加载机群快照", zap.String("run_id", runID), zap.Int("nodes", len(nodes)), zap.Int("rels", len(rels)))

	if err := f.Nodes.UpsertNodes(ctx, nodes); err != nil {
		return fmt.Errorf("增量写入节点失败: %w", err)
	}
	if err := f.Rels.UpsertRels(ctx, rels); err != nil {
		return fmt.Errorf("增量写入关系失败: %w", err)
	}
	if f.Fixer != nil {
		if err := f.Fixer.Run(ctx, runID); err != nil {
			return fmt.Errorf("补边失败: %w", err)
		}
	}

	if err := f.Cleaner.HardDeleteRelationships(ctx, runID); err != nil {
		return fmt.Errorf("删除过期关系失败: %w", err)
	}
	if err := f.Cleaner.HardDeleteNodes(ctx, runID); err != nil {
		return fmt.Errorf("删除过期节点失败: %w", err)
	}

	f.Logger.Info("增量同步完成", zap.String("run_id", runID))
	return nil
}
