package loader

import (
	"context"
	"fmt"

	"czagent/internal/cypher"
)

// SchemaManager 负责初始化约束和索引。
type SchemaManager struct {
	exec Executor
}

func NewSchemaManager(exec Executor) *SchemaManager {
	return &SchemaManager{exec: exec}
}

// Ensure 幂等地创建唯一约束与索引。
func (m *SchemaManager) Ensure(ctx context.Context) error {
	for _, query := range cypher.MustStatements("init_schema.cql") {
		if err := m.exec.RunRaw(ctx, query, nil); err != nil {
			return fmt.Errorf("执行 schema 语句失败: %w", err)
		}
	}
	return nil
}
