package tools

import (
	"time"

	"czagent/internal/inventory"
)

// Kind 标识工具结果的具体变体。
type Kind string

const (
	KindServerList         Kind = "server_list"
	KindServerDetails      Kind = "server_details"
	KindServerTopology     Kind = "server_topology"
	KindRackTopology       Kind = "rack_topology"
	KindSwitchInfo         Kind = "switch_info"
	KindInstallationLogs   Kind = "installation_logs"
	KindNoInstallationLogs Kind = "no_installation_logs"
	KindFailureAnalysis    Kind = "failure_analysis"
	KindNotApplicable      Kind = "not_applicable"
	KindNotFound           Kind = "not_found"
)

// Result 是所有工具返回值的公共接口，调用方按具体类型分支。
type Result interface {
	Kind() Kind
}

// ServerSummary 列表中的服务器摘要。
type ServerSummary struct {
	ID        string                 `json:"server_id"`
	Hostname  string                 `json:"hostname"`
	Status    inventory.ServerStatus `json:"status"`
	IPAddress string                 `json:"ip_address"`
	Location  inventory.Location     `json:"location"`
}

type ServerList struct {
	Total   int             `json:"total"`
	Servers []ServerSummary `json:"servers"`
}

type ServerDetails struct {
	inventory.Server
}

type ServerTopology struct {
	inventory.Topology
}

// RackScope 限定机柜聚合范围。机柜标签在不同机房重复，字段为空表示不限。
type RackScope struct {
	Region           string `json:"region,omitempty"`
	AvailabilityZone string `json:"availability_zone,omitempty"`
	Room             string `json:"room,omitempty"`
}

func (s RackScope) match(loc inventory.Location) bool {
	if s.Region != "" && s.Region != loc.Region {
		return false
	}
	if s.AvailabilityZone != "" && s.AvailabilityZone != loc.AvailabilityZone {
		return false
	}
	if s.Room != "" && s.Room != loc.Room {
		return false
	}
	return true
}

// ScopeOf 返回覆盖单个物理机柜的完整范围。
func ScopeOf(loc inventory.Location) RackScope {
	return RackScope{Region: loc.Region, AvailabilityZone: loc.AvailabilityZone, Room: loc.Room}
}

// RackServer 机柜内单台服务器的连通状态。
type RackServer struct {
	ID                 string             `json:"server_id"`
	Location           inventory.Location `json:"location"`
	InBandConnected    bool               `json:"in_band_connected"`
	OutOfBandConnected bool               `json:"out_of_band_connected"`
	FailureReason      string             `json:"failure_reason,omitempty"`
}

// full 表示范围已精确到单个机房。
func (s RackScope) full() bool {
	return s.Region != "" && s.AvailabilityZone != "" && s.Room != ""
}

func (s RackScope) String() string {
	return s.Region + "/" + s.AvailabilityZone + "/" + s.Room
}

// RackHotspot 聚合范围内带外断连比例超过阈值的单个物理机柜。
type RackHotspot struct {
	Scope         RackScope `json:"scope"`
	TotalServers  int       `json:"total_servers"`
	OutOfBandDown int       `json:"out_of_band_down"`
}

type RackTopology struct {
	RackID             string        `json:"rack_id"`
	Scope              RackScope     `json:"scope"`
	TotalServers       int           `json:"total_servers"`
	InBandConnected    int           `json:"in_band_connected"`
	OutOfBandConnected int           `json:"out_of_band_connected"`
	Servers            []RackServer  `json:"servers"`
	Hotspots           []RackHotspot `json:"alerted_racks,omitempty"`
	Alert              string        `json:"alert,omitempty"`
	RecommendedAction  string        `json:"recommended_action,omitempty"`
}

// OOBFailureRate 返回带外断连比例。
func (r *RackTopology) OOBFailureRate() float64 {
	if r.TotalServers == 0 {
		return 0
	}
	return 1 - float64(r.OutOfBandConnected)/float64(r.TotalServers)
}

type PortSummary struct {
	Total int `json:"total"`
	Up    int `json:"up"`
	Down  int `json:"down"`
}

type SwitchInfo struct {
	ID               string             `json:"switch_id"`
	Name             string             `json:"name"`
	Model            string             `json:"model"`
	Status           string             `json:"status"`
	Location         inventory.Location `json:"location"`
	PortSummary      PortSummary        `json:"port_summary"`
	ConnectedServers []string           `json:"connected_servers"`
	UplinkSwitch     string             `json:"uplink_switch,omitempty"`
}

type InstallationLogs struct {
	ServerID     string                   `json:"server_id"`
	Installation inventory.InstallAttempt `json:"installation"`
}

type NoInstallationLogs struct {
	ServerID     string                 `json:"server_id"`
	Message      string                 `json:"message"`
	ServerStatus inventory.ServerStatus `json:"server_status"`
}

// NetworkStatus 带内、带外连通状态。
type NetworkStatus struct {
	InBand    inventory.ConnectivityStatus `json:"in_band"`
	OutOfBand inventory.ConnectivityStatus `json:"out_of_band"`
}

type UplinkStatus struct {
	SwitchID string `json:"switch_id"`
	Status   string `json:"status"`
}

// Diagnosis 根因诊断结论。
type Diagnosis struct {
	RootCause       string   `json:"root_cause"`
	Confidence      string   `json:"confidence"`
	Recommendations []string `json:"recommendations"`
	NextSteps       []string `json:"next_steps"`
	RelatedIssues   []string `json:"related_issues,omitempty"`
}

type FailureAnalysis struct {
	ServerID         string                 `json:"server_id"`
	AnalysisTime     time.Time              `json:"analysis_time"`
	ServerStatus     inventory.ServerStatus `json:"server_status"`
	ErrorSummary     string                 `json:"error_summary,omitempty"`
	ErrorCount       int                    `json:"error_count"`
	FirstError       string                 `json:"first_error,omitempty"`
	NetworkStatus    *NetworkStatus         `json:"network_status,omitempty"`
	OOBFailureReason string                 `json:"oob_failure_reason,omitempty"`
	UplinkSwitch     *UplinkStatus          `json:"uplink_switch,omitempty"`
	Rack             *RackTopology          `json:"rack,omitempty"`
	Diagnosis        Diagnosis              `json:"diagnosis"`
}

type NotApplicable struct {
	ServerID string `json:"server_id"`
	Message  string `json:"message"`
}

// NotFound 引用的 ID 不存在，附带最多 5 个可用 ID 便于纠正。
type NotFound struct {
	Error          string   `json:"error"`
	AvailableIDs   []string `json:"available_ids,omitempty"`
	AvailableRacks []string `json:"available_racks,omitempty"`
}

func (*ServerList) Kind() Kind         { return KindServerList }
func (*ServerDetails) Kind() Kind      { return KindServerDetails }
func (*ServerTopology) Kind() Kind     { return KindServerTopology }
func (*RackTopology) Kind() Kind       { return KindRackTopology }
func (*SwitchInfo) Kind() Kind         { return KindSwitchInfo }
func (*InstallationLogs) Kind() Kind   { return KindInstallationLogs }
func (*NoInstallationLogs) Kind() Kind { return KindNoInstallationLogs }
func (*FailureAnalysis) Kind() Kind    { return KindFailureAnalysis }
func (*NotApplicable) Kind() Kind      { return KindNotApplicable }
func (*NotFound) Kind() Kind           { return KindNotFound }
