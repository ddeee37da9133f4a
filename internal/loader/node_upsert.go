package loader

import (
	"context"
	"fmt"
	"sort"

	"czagent/internal/cypher"
	"czagent/internal/domain"
	"czagent/pkg/util"
)

// NodeUpserter 负责批量写入节点。
type NodeUpserter struct {
	exec      Executor
	batchSize int
	retry     Retry
}

// NewNodeUpserter 创建节点 upsert 器。
func NewNodeUpserter(exec Executor, batchSize int, retry Retry) *NodeUpserter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &NodeUpserter{exec: exec, batchSize: batchSize, retry: retry}
}

// InitNodes 负责初始化节点（首跑使用）。
func (u *NodeUpserter) InitNodes(ctx context.Context, rows []domain.NodeRow) error {
	return u.write(ctx, rows, true)
}

// UpsertNodes 负责增量 upsert，内容 hash 未变化的节点只刷新 run id。
func (u *NodeUpserter) UpsertNodes(ctx context.Context, rows []domain.NodeRow) error {
	return u.write(ctx, rows, false)
}

func (u *NodeUpserter) write(ctx context.Context, rows []domain.NodeRow, init bool) error {
	if len(rows) == 0 {
		return nil
	}
	grouped := make(map[string][]domain.NodeRow)
	labelCache := make(map[string]string)
	for _, row := range rows {
		key := domain.JoinLabels(row.Labels)
		grouped[key] = append(grouped[key], row)
		if _, ok := labelCache[key]; !ok {
			labelCache[key] = domain.LabelPattern(row.Labels)
		}
	}

	tplName := "upsert_nodes.cql"
	if init {
		tplName = "init_nodes.cql"
	}

	// 固定写入顺序，便于排查
	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		query := cypher.MustTemplate(tplName, map[string]string{"LabelPattern": labelCache[key]})
		total := util.BatchCount(len(grouped[key]), u.batchSize)
		for i, chunk := range util.Batch(grouped[key], u.batchSize) {
			params := map[string]any{"rows": toNodeParameters(chunk)}
			err := u.retry.do(ctx, func() error {
				return u.exec.RunWrite(ctx, query, params)
			})
			if err != nil {
				return fmt.Errorf("写入节点失败 labels=%s batch=%d/%d: %w", key, i+1, total, err)
			}
		}
	}
	return nil
}

func toNodeParameters(rows []domain.NodeRow) []map[string]any {
	res := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		res = append(res, map[string]any{
			"asset_key":  row.AssetKey,
			"properties": row.Properties,
			"run_id":     row.RunID,
			"updated_at": row.UpdatedAt,
		})
	}
	return res
}
