package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"czagent/internal/inventory"
	"czagent/internal/metrics"
	"go.uber.org/zap"
)

const (
	// RackAlertThreshold 机柜带外断连比例超过该值时产生告警。
	RackAlertThreshold = 0.8
	RackAlertMessage   = "Widespread out-of-band network failure in rack, likely an uplink switch problem"
	RackAlertAction    = "Check the rack's out-of-band uplink switch"

	maxSuggestions = 5
)

// ServerFilter 服务器列表筛选条件，各字段精确匹配并取交集，空值表示不限。
type ServerFilter struct {
	Status string `json:"status,omitempty" form:"status"`
	Region string `json:"region,omitempty" form:"region"`
	Room   string `json:"room,omitempty" form:"room"`
	Rack   string `json:"rack,omitempty" form:"rack"`
}

// LogWindow 按时间过滤安装日志条目，零值表示不限。
type LogWindow struct {
	Start time.Time
	End   time.Time
}

func (w LogWindow) contains(ts time.Time) bool {
	if !w.Start.IsZero() && ts.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && ts.After(w.End) {
		return false
	}
	return true
}

// ParseLogWindow 解析 RFC3339 时间范围，空串表示不限。
func ParseLogWindow(start, end string) (LogWindow, error) {
	var w LogWindow
	if start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return w, fmt.Errorf("invalid start_time %q: %w", start, err)
		}
		w.Start = t
	}
	if end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return w, fmt.Errorf("invalid end_time %q: %w", end, err)
		}
		w.End = t
	}
	return w, nil
}

// Service 在只读 Store 上提供查询操作。找不到引用对象时返回 *NotFound，error 只用于意外失败。
type Service struct {
	store  *inventory.Store
	logger *zap.Logger
}

func NewService(store *inventory.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("inventory store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}, nil
}

// Store 返回底层数据快照。
func (s *Service) Store() *inventory.Store {
	return s.store
}

func (s *Service) observe(op string, res Result, err error) (Result, error) {
	outcome := "error"
	if err == nil && res != nil {
		outcome = string(res.Kind())
	}
	metrics.ToolCalls.WithLabelValues(op, outcome).Inc()
	if err != nil {
		s.logger.Warn("tool call failed", zap.String("operation", op), zap.Error(err))
	} else {
		s.logger.Debug("tool call", zap.String("operation", op), zap.String("result", outcome))
	}
	return res, err
}

// ListServers 按条件筛选服务器。
func (s *Service) ListServers(ctx context.Context, filter ServerFilter) (Result, error) {
	if err := ctx.Err(); err != nil {
		return s.observe("list_servers", nil, err)
	}
	out := &ServerList{Servers: []ServerSummary{}}
	for _, srv := range s.store.Servers() {
		if filter.Status != "" && string(srv.Status) != filter.Status {
			continue
		}
		if filter.Region != "" && srv.Location.Region != filter.Region {
			continue
		}
		if filter.Room != "" && srv.Location.Room != filter.Room {
			continue
		}
		if filter.Rack != "" && srv.Location.RackID != filter.Rack {
			continue
		}
		out.Servers = append(out.Servers, ServerSummary{
			ID:        srv.ID,
			Hostname:  srv.Hostname,
			Status:    srv.Status,
			IPAddress: srv.IPAddress,
			Location:  srv.Location,
		})
	}
	out.Total = len(out.Servers)
	return s.observe("list_servers", out, nil)
}

// GetServerDetails 返回服务器完整记录。
func (s *Service) GetServerDetails(ctx context.Context, serverID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return s.observe("get_server_details", nil, err)
	}
	srv, ok := s.store.Server(serverID)
	if !ok {
		return s.observe("get_server_details", s.serverNotFound(fmt.Sprintf("server %s not found", serverID)), nil)
	}
	return s.observe("get_server_details", &ServerDetails{Server: srv}, nil)
}

// GetServerTopology 返回服务器的带内、带外网络路径。
func (s *Service) GetServerTopology(ctx context.Context, serverID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return s.observe("get_server_topology", nil, err)
	}
	topo, ok := s.store.Topology(serverID)
	if !ok {
		return s.observe("get_server_topology", s.serverNotFound(fmt.Sprintf("topology for server %s not found", serverID)), nil)
	}
	return s.observe("get_server_topology", &ServerTopology{Topology: topo}, nil)
}

// GetRackTopology 汇总同一机柜标签（在 scope 范围内）所有服务器的连通性。
func (s *Service) GetRackTopology(ctx context.Context, rackID string, scope RackScope) (Result, error) {
	if err := ctx.Err(); err != nil {
		return s.observe("get_rack_topology", nil, err)
	}
	rack := s.aggregateRack(rackID, scope)
	if rack == nil {
		labels := s.store.RackLabels()
		if len(labels) > maxSuggestions {
			labels = labels[:maxSuggestions]
		}
		return s.observe("get_rack_topology", &NotFound{
			Error:          fmt.Sprintf("rack %s not found or has no servers", rackID),
			AvailableRacks: labels,
		}, nil)
	}
	return s.observe("get_rack_topology", rack, nil)
}

// aggregateRack 按 scope 聚合同名机柜。范围未精确到机房时会跨越多个物理机柜，
// 此时逐个物理机柜再按阈值判定，任一超阈值即告警并列出所在位置。
func (s *Service) aggregateRack(rackID string, scope RackScope) *RackTopology {
	rack := &RackTopology{RackID: rackID, Scope: scope, Servers: []RackServer{}}
	var physical []*RackHotspot
	byKey := make(map[string]*RackHotspot)
	for _, topo := range s.store.Topologies() {
		if topo.Location.RackID != rackID || !scope.match(topo.Location) {
			continue
		}
		rs := RackServer{
			ID:                 topo.ServerID,
			Location:           topo.Location,
			InBandConnected:    topo.InBandConnectivity.Connected,
			OutOfBandConnected: topo.OutOfBandConnectivity.Connected,
			FailureReason:      topo.OutOfBandConnectivity.FailureReason,
		}
		rack.Servers = append(rack.Servers, rs)
		if rs.InBandConnected {
			rack.InBandConnected++
		}
		if rs.OutOfBandConnected {
			rack.OutOfBandConnected++
		}

		hs, ok := byKey[topo.Location.RackKey()]
		if !ok {
			hs = &RackHotspot{Scope: ScopeOf(topo.Location)}
			byKey[topo.Location.RackKey()] = hs
			physical = append(physical, hs)
		}
		hs.TotalServers++
		if !rs.OutOfBandConnected {
			hs.OutOfBandDown++
		}
	}
	if len(rack.Servers) == 0 {
		return nil
	}
	rack.TotalServers = len(rack.Servers)
	sort.SliceStable(rack.Servers, func(i, j int) bool {
		return rack.Servers[i].Location.RackPosition < rack.Servers[j].Location.RackPosition
	})
	if !scope.full() && len(physical) > 1 {
		for _, hs := range physical {
			if float64(hs.OutOfBandDown)/float64(hs.TotalServers) > RackAlertThreshold {
				rack.Hotspots = append(rack.Hotspots, *hs)
			}
		}
	}

	switch {
	case rack.OOBFailureRate() > RackAlertThreshold:
		rack.Alert = RackAlertMessage
	case len(rack.Hotspots) > 0:
		locations := make([]string, 0, len(rack.Hotspots))
		for _, hs := range rack.Hotspots {
			locations = append(locations, hs.Scope.String())
		}
		rack.Alert = fmt.Sprintf("%s (%s)", RackAlertMessage, strings.Join(locations, ", "))
	}
	if rack.Alert != "" {
		rack.RecommendedAction = RackAlertAction
	}
	return rack
}

// GetSwitchInfo 返回交换机摘要及端口统计。
func (s *Service) GetSwitchInfo(ctx context.Context, switchID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return s.observe("get_switch_info", nil, err)
	}
	sw, ok := s.store.Switch(switchID)
	if !ok {
		return s.observe("get_switch_info", &NotFound{
			Error:        fmt.Sprintf("switch %s not found", switchID),
			AvailableIDs: s.store.SwitchIDs(maxSuggestions),
		}, nil)
	}
	summary := PortSummary{Total: len(sw.Ports)}
	for _, p := range sw.Ports {
		switch p.Status {
		case "up":
			summary.Up++
		case "down":
			summary.Down++
		}
	}
	return s.observe("get_switch_info", &SwitchInfo{
		ID:               sw.ID,
		Name:             sw.Name,
		Model:            sw.Model,
		Status:           sw.Status,
		Location:         sw.Location,
		PortSummary:      summary,
		ConnectedServers: sw.ConnectedServers,
		UplinkSwitch:     sw.UplinkSwitch,
	}, nil)
}

// GetInstallationLogs 返回最近一次装机记录，window 非零时只保留时间范围内的条目。
func (s *Service) GetInstallationLogs(ctx context.Context, serverID string, window LogWindow) (Result, error) {
	if err := ctx.Err(); err != nil {
		return s.observe("get_installation_logs", nil, err)
	}
	srv, ok := s.store.Server(serverID)
	if !ok {
		return s.observe("get_installation_logs", &NotFound{Error: fmt.Sprintf("server %s not found", serverID)}, nil)
	}
	attempts := s.store.InstallAttempts(serverID)
	if len(attempts) == 0 {
		return s.observe("get_installation_logs", &NoInstallationLogs{
			ServerID:     serverID,
			Message:      "no installation logs for this server",
			ServerStatus: srv.Status,
		}, nil)
	}
	latest := attempts[len(attempts)-1]
	entries := make([]inventory.LogEntry, 0, len(latest.Entries))
	for _, e := range latest.Entries {
		if window.contains(e.Timestamp) {
			entries = append(entries, e)
		}
	}
	latest.Entries = entries
	return s.observe("get_installation_logs", &InstallationLogs{ServerID: serverID, Installation: latest}, nil)
}

// AnalyzeInstallationFailure 综合日志、拓扑、上联交换机和机柜汇总诊断装机失败。
func (s *Service) AnalyzeInstallationFailure(ctx context.Context, serverID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return s.observe("analyze_installation_failure", nil, err)
	}
	srv, ok := s.store.Server(serverID)
	if !ok {
		return s.observe("analyze_installation_failure", &NotFound{Error: fmt.Sprintf("server %s not found", serverID)}, nil)
	}
	if srv.Status != inventory.StatusInstallFailed {
		return s.observe("analyze_installation_failure", &NotApplicable{
			ServerID: serverID,
			Message:  fmt.Sprintf("server status is %s, not install_failed", srv.Status),
		}, nil)
	}
	return s.observe("analyze_installation_failure", s.analyze(srv), nil)
}

// RackAlerts 逐个物理机柜巡检，返回触发告警的机柜。
func (s *Service) RackAlerts(ctx context.Context) ([]*RackTopology, error) {
	var alerts []*RackTopology
	for _, loc := range s.store.PhysicalRacks() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rack := s.aggregateRack(loc.RackID, ScopeOf(loc))
		if rack != nil && rack.Alert != "" {
			alerts = append(alerts, rack)
		}
	}
	return alerts, nil
}

func (s *Service) serverNotFound(msg string) *NotFound {
	return &NotFound{Error: msg, AvailableIDs: s.store.ServerIDs(maxSuggestions)}
}
