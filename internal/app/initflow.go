package app

import (
	"context"
	"fmt"

	"czagent/internal/inventory"
	"czagent/internal/loader"
	"go.uber.org/zap"
)

// InitFlow 负责首跑初始化：建 schema -> 写节点 -> 写关系 -> 补边。
type InitFlow struct {
	Store  *inventory.Store
	Schema *loader.SchemaManager
	Nodes  *loader.NodeUpserter
	Rels   *loader.RelUpserter
	Fixer  *loader.EdgeFixer
	Logger *zap.Logger
}

// Run 以 runID 为批次执行初始化。
func (f *InitFlow) Run(ctx context.Context, runID string) error {
	if f.Store == nil || f.Nodes == nil || f.Rels == nil {
		return fmt.Errorf("初始化依赖未注入完整")
	}
	if f.Logger == nil {
		f.Logger = zap.NewNop()
	}

	nodes, rels := BuildGraphRows(f.Store, runID)
	f.Logger.Info("加载机群快照", zap.String("run_id", runID), zap.Int("nodes", len(nodes)), zap.Int("rels", len(rels)))

	if f.Schema != nil {
		if err := f.Schema.Ensure(ctx); err != nil {
			return err
		}
	}
	if err := f.Nodes.InitNodes(ctx, nodes); err != nil {
		return err
	}
	if err := f.Rels.InitRels(ctx, rels); err != nil {
		return err
	}
	if f.Fixer != nil {
		if err := f.Fixer.Run(ctx, runID); err != nil {
			return err
		}
	}
	f.Logger.Info("初始化导出完成", zap.String("run_id", runID))
	return nil
}
