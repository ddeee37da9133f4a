package util

import "slices"

// Batch 把导出行切成多批写入 Neo4j。每批都是独立副本，重试时参数不受调用方后续修改影响。
// batchSize<=0 或大于总数时整体作为一批，空输入返回 nil。
func Batch[T any](items []T, batchSize int) [][]T {
	if len(items) == 0 {
		return nil
	}
	n := BatchCount(len(items), batchSize)
	if batchSize <= 0 || batchSize > len(items) {
		batchSize = len(items)
	}
	out := make([][]T, 0, n)
	for chunk := range slices.Chunk(items, batchSize) {
		out = append(out, slices.Clone(chunk))
	}
	return out
}

// BatchCount 返回 total 行按 batchSize 拆分后的批次数。
func BatchCount(total, batchSize int) int {
	if total <= 0 {
		return 0
	}
	if batchSize <= 0 || batchSize >= total {
		return 1
	}
	return (total + batchSize - 1) / batchSize
}
