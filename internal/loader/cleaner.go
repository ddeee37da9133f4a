package loader

import "context"

// Cleaner 负责删除本轮导出中未出现的节点和关系。
type Cleaner struct {
	exec Executor
}

func NewCleaner(exec Executor) *Cleaner {
	return &Cleaner{exec: exec}
}

// HardDeleteNodes 删除 last_seen_run_id 不等于 runID 的资产节点。
func (c *Cleaner) HardDeleteNodes(ctx context.Context, runID string) error {
	query := `MATCH (n) WHERE n.asset_key IS NOT NULL AND n.last_seen_run_id <> $run_id DETACH DELETE n`
	return c.exec.RunWrite(ctx, query, map[string]any{"run_id": runID})
}

// HardDeleteRelationships 删除 last_seen_run_id 不等于 runID 的关系，补边生成的 UPLINK 同样带 run id。
func (c *Cleaner) HardDeleteRelationships(ctx context.Context, runID string) error {
	query := `MATCH ()-[r]->() WHERE r.last_seen_run_id <> $run_id DELETE r`
	return c.exec.RunWrite(ctx, query, map[string]any{"run_id": runID})
}
