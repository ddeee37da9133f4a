package app

import (
	"context"
	"fmt"
	"strings"

	"czagent/internal/domain"
	"czagent/internal/graph"
	"czagent/internal/inventory"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var validatedLabels = []string{domain.LabelRoom, domain.LabelRack, domain.LabelSwitch, domain.LabelServer}

// ValidateFlow 对比图中各标签节点数与机群快照，发现缺失或多余的节点。
type ValidateFlow struct {
	Store  *inventory.Store
	Reader graph.Reader
	Logger *zap.Logger
}

// Mismatch 单个标签的计数差异。
type Mismatch struct {
	Label    string
	Expected int
	Actual   int64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s expected=%d actual=%d", m.Label, m.Expected, m.Actual)
}

// Run 校验 runID 对应批次，runID 为空时统计全部节点。各标签并发计数。
func (f *ValidateFlow) Run(ctx context.Context, runID string) error {
	if f.Store == nil || f.Reader == nil {
		return fmt.Errorf("validate flow 依赖未注入完整")
	}
	if f.Logger == nil {
		f.Logger = zap.NewNop()
	}
	nodes, _ := BuildGraphRows(f.Store, runID)

	actual := make([]int64, len(validatedLabels))
	g, gctx := errgroup.WithContext(ctx)
	for i, label := range validatedLabels {
		g.Go(func() error {
			n, err := graph.CountNodes(gctx, f.Reader, label, runID)
			if err != nil {
				return err
			}
			actual[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var mismatches []string
	for i, label := range validatedLabels {
		expected := domain.CountByLabel(nodes, label)
		f.Logger.Info("节点计数", zap.String("label", label), zap.Int("expected", expected), zap.Int64("actual", actual[i]))
		if int64(expected) != actual[i] {
			mismatches = append(mismatches, Mismatch{Label: label, Expected: expected, Actual: actual[i]}.String())
		}
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("图数据与机群快照不一致: %s", strings.Join(mismatches, "; "))
	}
	f.Logger.Info("校验通过", zap.String("run_id", runID))
	return nil
}
