package loader

import (
	"context"
	"fmt"

	"czagent/internal/cypher"
)

// EdgeFixer 根据交换机的 uplink_key 属性补齐 UPLINK 边，并刷新汇聚交换机的带外断连计数。
type EdgeFixer struct {
	exec Executor
}

func NewEdgeFixer(exec Executor) *EdgeFixer {
	return &EdgeFixer{exec: exec}
}

func (f *EdgeFixer) Run(ctx context.Context, runID string) error {
	params := map[string]any{"run_id": runID}
	for _, query := range cypher.MustStatements("fix_edges.cql") {
		if err := f.exec.RunWrite(ctx, query, params); err != nil {
			return fmt.Errorf("补边失败: %w", err)
		}
	}
	return nil
}
