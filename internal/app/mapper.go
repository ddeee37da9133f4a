package app

import (
	"time"

	"czagent/internal/domain"
	"czagent/internal/inventory"
	"czagent/pkg/util"
)

const contentHashKey = "content_hash"

// NewRunID 以 UTC 时间生成导出批次号，字典序与时间序一致。
func NewRunID(now time.Time) string {
	return now.UTC().Format("20060102T150405Z")
}

// BuildGraphRows 把机群快照映射为建图所需的节点和关系。
// 机房下挂汇聚交换机和机柜，机柜下挂接入交换机，接入交换机按端口连接服务器；
// 接入到汇聚的 UPLINK 边由补边脚本根据 uplink_key 生成。
func BuildGraphRows(store *inventory.Store, runID string) ([]domain.NodeRow, []domain.RelRow) {
	if runID == "" {
		runID = NewRunID(time.Now())
	}
	b := &rowBuilder{runID: runID, updatedAt: store.AsOf(), seen: make(map[string]struct{})}

	for _, sw := range store.Switches() {
		loc := sw.Location
		roomKey := b.room(loc)
		rackKey := b.rack(loc, roomKey)

		aggKey := ""
		if sw.UplinkSwitch != "" {
			aggKey = domain.MakeKey(domain.PrefixSwitch, sw.UplinkSwitch)
			if b.once(aggKey) {
				b.node(aggKey, []string{domain.LabelSwitch, domain.LabelDevice}, map[string]any{
					"switch_id": sw.UplinkSwitch,
					"role":      domain.RoleAggregation,
					"region":    loc.Region,
					"az":        loc.AvailabilityZone,
					"room":      loc.Room,
				})
				b.rel(roomKey, aggKey, domain.RelHasSwitch, nil)
			}
		}

		up := 0
		for _, p := range sw.Ports {
			if p.Status == "up" {
				up++
			}
		}
		swKey := domain.MakeKey(domain.PrefixSwitch, sw.ID)
		props := map[string]any{
			"switch_id":   sw.ID,
			"name":        sw.Name,
			"model":       sw.Model,
			"status":      sw.Status,
			"role":        domain.RoleToR,
			"ports_total": len(sw.Ports),
			"ports_up":    up,
			"rack":        loc.RackID,
			"room":        loc.Room,
		}
		if aggKey != "" {
			props["uplink_key"] = aggKey
		}
		b.node(swKey, []string{domain.LabelSwitch, domain.LabelDevice}, props)
		b.rel(rackKey, swKey, domain.RelHasSwitch, nil)

		for _, p := range sw.Ports {
			if p.ConnectedDevice == "" {
				continue
			}
			b.rel(swKey, domain.MakeKey(domain.PrefixServer, p.ConnectedDevice), domain.RelConnected, map[string]any{
				"port_number": p.Number,
				"port_status": p.Status,
				"speed_gbps":  p.SpeedGbps,
				"vlan_id":     p.VLAN,
			})
		}
	}

	for _, srv := range store.Servers() {
		loc := srv.Location
		roomKey := b.room(loc)
		b.rack(loc, roomKey)
		props := map[string]any{
			"server_id":     srv.ID,
			"hostname":      srv.Hostname,
			"status":        string(srv.Status),
			"ip_address":    srv.IPAddress,
			"cpu_model":     srv.Hardware.CPUModel,
			"cpu_cores":     srv.Hardware.CPUCores,
			"memory_gb":     srv.Hardware.MemoryGB,
			"disk_gb":       srv.Hardware.DiskGB,
			"rack":          loc.RackID,
			"rack_position": loc.RackPosition,
			"room":          loc.Room,
		}
		if topo, ok := store.Topology(srv.ID); ok {
			props["in_band_connected"] = topo.InBandConnectivity.Connected
			props["oob_connected"] = topo.OutOfBandConnectivity.Connected
			if reason := topo.OutOfBandConnectivity.FailureReason; reason != "" {
				props["oob_failure_reason"] = reason
			}
		}
		b.node(domain.MakeKey(domain.PrefixServer, srv.ID), []string{domain.LabelServer, domain.LabelDevice}, props)
	}
	return b.nodes, b.rels
}

type rowBuilder struct {
	runID     string
	updatedAt time.Time
	seen      map[string]struct{}
	nodes     []domain.NodeRow
	rels      []domain.RelRow
}

func (b *rowBuilder) once(key string) bool {
	if _, ok := b.seen[key]; ok {
		return false
	}
	b.seen[key] = struct{}{}
	return true
}

func (b *rowBuilder) room(loc inventory.Location) string {
	key := domain.MakeKey(domain.PrefixRoom, loc.Region+"/"+loc.AvailabilityZone+"/"+loc.Room)
	if b.once(key) {
		b.node(key, []string{domain.LabelRoom}, map[string]any{
			"region": loc.Region,
			"az":     loc.AvailabilityZone,
			"room":   loc.Room,
		})
	}
	return key
}

func (b *rowBuilder) rack(loc inventory.Location, roomKey string) string {
	key := domain.MakeKey(domain.PrefixRack, loc.RackKey())
	if b.once(key) {
		b.node(key, []string{domain.LabelRack}, map[string]any{
			"rack_id": loc.RackID,
			"region":  loc.Region,
			"az":      loc.AvailabilityZone,
			"room":    loc.Room,
		})
		b.rel(roomKey, key, domain.RelHasRack, nil)
	}
	return key
}

func (b *rowBuilder) node(key string, labels []string, props map[string]any) {
	props[contentHashKey] = util.HashMap(props, contentHashKey)
	b.nodes = append(b.nodes, domain.NodeRow{
		AssetKey:   key,
		Labels:     labels,
		Properties: props,
		RunID:      b.runID,
		UpdatedAt:  b.updatedAt,
	})
}

func (b *rowBuilder) rel(start, end, relType string, props map[string]any) {
	if props == nil {
		props = map[string]any{}
	}
	props["source"] = "inventory"
	b.rels = append(b.rels, domain.RelRow{
		StartKey:   start,
		EndKey:     end,
		Type:       relType,
		Properties: props,
		RunID:      b.runID,
	})
}
