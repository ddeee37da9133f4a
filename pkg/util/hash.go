package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// HashMap 返回 map 的稳定 hash，用于内容对比。skip 中的键不参与计算。
func HashMap(m map[string]any, skip ...string) string {
	ignored := make(map[string]struct{}, len(skip))
	for _, k := range skip {
		ignored[k] = struct{}{}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if _, ok := ignored[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v\x00", k, m[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
