package loader

import (
	"context"
	"fmt"
	"sort"

	"czagent/internal/cypher"
	"czagent/internal/domain"
	"czagent/pkg/util"
)

// RelUpserter 负责关系批量写入。
type RelUpserter struct {
	exec      Executor
	batchSize int
	retry     Retry
}

func NewRelUpserter(exec Executor, batchSize int, retry Retry) *RelUpserter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &RelUpserter{exec: exec, batchSize: batchSize, retry: retry}
}

func (u *RelUpserter) InitRels(ctx context.Context, rows []domain.RelRow) error {
	return u.write(ctx, rows, true)
}

func (u *RelUpserter) UpsertRels(ctx context.Context, rows []domain.RelRow) error {
	return u.write(ctx, rows, false)
}

func (u *RelUpserter) write(ctx context.Context, rows []domain.RelRow, init bool) error {
	if len(rows) == 0 {
		return nil
	}
	grouped := make(map[string][]domain.RelRow)
	for _, row := range rows {
		grouped[row.Type] = append(grouped[row.Type], row)
	}

	tplName := "upsert_rels.cql"
	if init {
		tplName = "init_edges.cql"
	}

	types := make([]string, 0, len(grouped))
	for relType := range grouped {
		types = append(types, relType)
	}
	sort.Strings(types)

	for _, relType := range types {
		query := cypher.MustTemplate(tplName, map[string]string{"RelType": ":" + relType})
		total := util.BatchCount(len(grouped[relType]), u.batchSize)
		for i, chunk := range util.Batch(grouped[relType], u.batchSize) {
			params := map[string]any{"rows": toRelParameters(chunk)}
			err := u.retry.do(ctx, func() error {
				return u.exec.RunWrite(ctx, query, params)
			})
			if err != nil {
				return fmt.Errorf("写入关系失败 type=%s batch=%d/%d: %w", relType, i+1, total, err)
			}
		}
	}
	return nil
}

func toRelParameters(rows []domain.RelRow) []map[string]any {
	res := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		res = append(res, map[string]any{
			"start_key":  row.StartKey,
			"end_key":    row.EndKey,
			"properties": row.Properties,
			"run_id":     row.RunID,
		})
	}
	return res
}
