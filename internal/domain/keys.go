package domain

import (
	"fmt"
	"sort"
	"strings"
)

const (
	LabelRoom   = "Room"
	LabelRack   = "Rack"
	LabelSwitch = "Switch"
	LabelServer = "Server"
	LabelDevice = "Device"

	RelHasRack   = "HAS_RACK"
	RelHasSwitch = "HAS_SWITCH"
	RelConnected = "CONNECTED_TO"
	RelUplink    = "UPLINK"
)

const (
	PrefixRoom   = "ROOM"
	PrefixRack   = "RACK"
	PrefixSwitch = "SW"
	PrefixServer = "SRV"
)

// 交换机角色，写入 Switch 节点的 role 属性。
const (
	RoleToR         = "tor"
	RoleAggregation = "aggregation"
)

// MakeKey 统一生成 asset_key，带上前缀以避免不同实体冲突。
func MakeKey(prefix string, rawID any) string {
	return fmt.Sprintf("%s_%v", prefix, rawID)
}

// LabelPattern 根据标签集合拼成 Cypher 模板所需的字符串，如 ":A:B"。
func LabelPattern(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	return ":" + strings.Join(sorted, ":")
}

// JoinLabels 简单拼接标签用于 map key（内部使用）。
func JoinLabels(labels []string) string {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	return strings.Join(sorted, ":")
}
