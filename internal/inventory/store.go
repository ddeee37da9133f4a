package inventory

import (
	"fmt"
	"sort"
	"time"
)

// Store 保存模拟机群的只读快照。构建完成后不再修改，可被多个查询并发读取。
type Store struct {
	asOf time.Time

	servers     map[string]*Server
	serverOrder []string
	topologies  map[string]*Topology
	switches    map[string]*Switch
	switchOrder []string
	installLogs map[string][]InstallAttempt
}

// Option 调整 Store 的构建参数。
type Option func(*options)

type options struct {
	referenceTime time.Time
	attempts      []InstallAttempt
}

// WithInstallAttempts 追加装机记录（例如重装），按 StartTime 与生成的记录合并排序。
func WithInstallAttempts(attempts ...InstallAttempt) Option {
	return func(o *options) {
		o.attempts = append(o.attempts, attempts...)
	}
}

// WithReferenceTime 固定模拟数据的参考时间，所有时间戳都由它推导。
func WithReferenceTime(t time.Time) Option {
	return func(o *options) {
		o.referenceTime = t
	}
}

// New 按固定的区域 × 可用区 × 机房 × 机柜组合生成模拟机群。
func New(opts ...Option) *Store {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.referenceTime.IsZero() {
		o.referenceTime = time.Now().UTC().Truncate(time.Second)
	}
	s := &Store{
		asOf:        o.referenceTime,
		servers:     make(map[string]*Server),
		topologies:  make(map[string]*Topology),
		switches:    make(map[string]*Switch),
		installLogs: make(map[string][]InstallAttempt),
	}
	newGenerator(s).run()
	for _, a := range o.attempts {
		s.installLogs[a.ServerID] = append(s.installLogs[a.ServerID], a.clone())
	}
	for _, attempts := range s.installLogs {
		sort.SliceStable(attempts, func(i, j int) bool {
			return attempts[i].StartTime.Before(attempts[j].StartTime)
		})
	}
	return s
}

// AsOf 返回快照参考时间。
func (s *Store) AsOf() time.Time {
	return s.asOf
}

// Server 按 ID 查找服务器。
func (s *Store) Server(id string) (Server, bool) {
	srv, ok := s.servers[id]
	if !ok {
		return Server{}, false
	}
	return srv.clone(), true
}

// Servers 按生成顺序返回全部服务器。
func (s *Store) Servers() []Server {
	out := make([]Server, 0, len(s.serverOrder))
	for _, id := range s.serverOrder {
		out = append(out, s.servers[id].clone())
	}
	return out
}

// ServerIDs 返回前 limit 个服务器 ID，limit<=0 表示全部。
func (s *Store) ServerIDs(limit int) []string {
	return head(s.serverOrder, limit)
}

// Topology 按服务器 ID 查找拓扑。
func (s *Store) Topology(serverID string) (Topology, bool) {
	topo, ok := s.topologies[serverID]
	if !ok {
		return Topology{}, false
	}
	return topo.clone(), true
}

// Topologies 按服务器生成顺序返回全部拓扑。
func (s *Store) Topologies() []Topology {
	out := make([]Topology, 0, len(s.serverOrder))
	for _, id := range s.serverOrder {
		if topo, ok := s.topologies[id]; ok {
			out = append(out, topo.clone())
		}
	}
	return out
}

// Switch 按 ID 查找交换机。
func (s *Store) Switch(id string) (Switch, bool) {
	sw, ok := s.switches[id]
	if !ok {
		return Switch{}, false
	}
	return sw.clone(), true
}

// Switches 按生成顺序返回全部交换机。
func (s *Store) Switches() []Switch {
	out := make([]Switch, 0, len(s.switchOrder))
	for _, id := range s.switchOrder {
		out = append(out, s.switches[id].clone())
	}
	return out
}

// SwitchIDs 返回前 limit 个交换机 ID。
func (s *Store) SwitchIDs(limit int) []string {
	return head(s.switchOrder, limit)
}

// InstallAttempts 返回服务器的历史装机记录，最新的在最后。
func (s *Store) InstallAttempts(serverID string) []InstallAttempt {
	attempts := s.installLogs[serverID]
	if attempts == nil {
		return nil
	}
	out := make([]InstallAttempt, len(attempts))
	for i, a := range attempts {
		out[i] = a.clone()
	}
	return out
}

// RackLabels 返回去重排序后的机柜标签。
func (s *Store) RackLabels() []string {
	seen := make(map[string]struct{})
	for _, topo := range s.topologies {
		seen[topo.Location.RackID] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// PhysicalRacks 返回所有物理机柜的位置（RackPosition 为 0），按生成顺序排列。
func (s *Store) PhysicalRacks() []Location {
	seen := make(map[string]struct{})
	var racks []Location
	for _, id := range s.serverOrder {
		loc := s.servers[id].Location
		if _, ok := seen[loc.RackKey()]; ok {
			continue
		}
		seen[loc.RackKey()] = struct{}{}
		loc.RackPosition = 0
		racks = append(racks, loc)
	}
	return racks
}

// Summary 统计各状态服务器数量。
type Summary struct {
	Servers  int                  `json:"servers"`
	Switches int                  `json:"switches"`
	ByStatus map[ServerStatus]int `json:"by_status"`
	OOBDown  int                  `json:"oob_disconnected"`
}

// Summarize 汇总机群概况。
func (s *Store) Summarize() Summary {
	sum := Summary{
		Servers:  len(s.servers),
		Switches: len(s.switches),
		ByStatus: make(map[ServerStatus]int),
	}
	for _, srv := range s.servers {
		sum.ByStatus[srv.Status]++
	}
	for _, topo := range s.topologies {
		if !topo.OutOfBandConnectivity.Connected {
			sum.OOBDown++
		}
	}
	return sum
}

// Validate 校验数据模型约束：拓扑一一对应、机柜位置唯一、端口编号唯一、端口连接设备必须存在。
func (s *Store) Validate() error {
	positions := make(map[string]string)
	for _, id := range s.serverOrder {
		srv := s.servers[id]
		if !srv.Status.Valid() {
			return fmt.Errorf("server %s has unknown status %q", id, srv.Status)
		}
		if _, ok := s.topologies[id]; !ok {
			return fmt.Errorf("server %s has no topology", id)
		}
		slot := fmt.Sprintf("%s#%d", srv.Location.RackKey(), srv.Location.RackPosition)
		if other, dup := positions[slot]; dup {
			return fmt.Errorf("servers %s and %s share rack slot %s", other, id, slot)
		}
		positions[slot] = id
	}
	for id, attempts := range s.installLogs {
		if _, ok := s.servers[id]; !ok {
			return fmt.Errorf("installation logs reference unknown server %s", id)
		}
		for i, a := range attempts {
			if a.ServerID != id {
				return fmt.Errorf("installation attempt of %s filed under %s", a.ServerID, id)
			}
			if i > 0 && a.StartTime.Before(attempts[i-1].StartTime) {
				return fmt.Errorf("installation attempts of %s are out of order", id)
			}
		}
	}
	if len(s.topologies) != len(s.servers) {
		return fmt.Errorf("topology count %d does not match server count %d", len(s.topologies), len(s.servers))
	}
	for _, id := range s.switchOrder {
		sw := s.switches[id]
		numbers := make(map[int]struct{}, len(sw.Ports))
		for _, p := range sw.Ports {
			if _, dup := numbers[p.Number]; dup {
				return fmt.Errorf("switch %s has duplicated port %d", id, p.Number)
			}
			numbers[p.Number] = struct{}{}
			if p.ConnectedDevice != "" {
				if _, ok := s.servers[p.ConnectedDevice]; !ok {
					return fmt.Errorf("switch %s port %d references unknown device %s", id, p.Number, p.ConnectedDevice)
				}
			}
		}
	}
	return nil
}

func head(ids []string, limit int) []string {
	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}
	return append([]string(nil), ids[:limit]...)
}
