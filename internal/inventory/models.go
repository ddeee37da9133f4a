package inventory

import (
	"maps"
	"slices"
	"time"
)

// ServerStatus 表示服务器生命周期状态。
type ServerStatus string

const (
	StatusOnline        ServerStatus = "online"
	StatusOffline       ServerStatus = "offline"
	StatusMaintenance   ServerStatus = "maintenance"
	StatusInstalling    ServerStatus = "installing"
	StatusInstallFailed ServerStatus = "install_failed"
)

// Statuses 全部状态，按生命周期顺序排列。
var Statuses = []ServerStatus{StatusOnline, StatusOffline, StatusMaintenance, StatusInstalling, StatusInstallFailed}

// Valid 判断状态是否为已知枚举值。
func (s ServerStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusMaintenance, StatusInstalling, StatusInstallFailed:
		return true
	}
	return false
}

// ConnectivityStatus 表示一条网络路径的连通状态。
type ConnectivityStatus string

const (
	Connected    ConnectivityStatus = "connected"
	Disconnected ConnectivityStatus = "disconnected"
	Partial      ConnectivityStatus = "partial"
)

// Hardware 服务器硬件描述。
type Hardware struct {
	CPUModel     string   `json:"cpu_model"`
	CPUCores     int      `json:"cpu_cores"`
	MemoryGB     int      `json:"memory_gb"`
	DiskGB       int      `json:"disk_gb"`
	NetworkCards []string `json:"network_cards"`
}

// Location 描述设备所在的物理位置。
type Location struct {
	Region           string `json:"region"`
	AvailabilityZone string `json:"availability_zone"`
	Room             string `json:"room"`
	RackID           string `json:"rack_id"`
	RackPosition     int    `json:"rack_position"`
}

// RackKey 返回物理机柜的唯一标识。机柜标签在不同机房之间会重复。
func (l Location) RackKey() string {
	return l.Region + "/" + l.AvailabilityZone + "/" + l.Room + "/" + l.RackID
}

// Server 服务器主记录，构建后只读。
type Server struct {
	ID        string            `json:"server_id"`
	Hostname  string            `json:"hostname"`
	Status    ServerStatus      `json:"status"`
	IPAddress string            `json:"ip_address"`
	Hardware  Hardware          `json:"hardware"`
	Location  Location          `json:"location"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Tags      map[string]string `json:"tags"`
}

// NetworkPath 为一条带内或带外的逐跳路径。
type NetworkPath struct {
	Path             []string           `json:"path"`
	Status           ConnectivityStatus `json:"status"`
	LastHopReachable string             `json:"last_hop_reachable,omitempty"`
}

// Connectivity 记录最近一次连通性探测结果。
type Connectivity struct {
	Connected     bool      `json:"is_connected"`
	LastCheck     time.Time `json:"last_check"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// Topology 以服务器为键的网络拓扑。
type Topology struct {
	ServerID              string       `json:"server_id"`
	Location              Location     `json:"location"`
	InBand                NetworkPath  `json:"in_band_network"`
	OutOfBand             NetworkPath  `json:"out_of_band_network"`
	UplinkSwitches        []string     `json:"uplink_switches"`
	InBandConnectivity    Connectivity `json:"in_band_connectivity"`
	OutOfBandConnectivity Connectivity `json:"out_of_band_connectivity"`
}

// Port 交换机端口。
type Port struct {
	ID              string `json:"port_id"`
	Number          int    `json:"port_number"`
	Status          string `json:"status"`
	ConnectedDevice string `json:"connected_device,omitempty"`
	SpeedGbps       int    `json:"speed_gbps"`
	VLAN            int    `json:"vlan_id,omitempty"`
}

// Switch 交换机记录。
type Switch struct {
	ID               string   `json:"switch_id"`
	Name             string   `json:"name"`
	Model            string   `json:"model"`
	Status           string   `json:"status"`
	Location         Location `json:"location"`
	Ports            []Port   `json:"ports"`
	ConnectedServers []string `json:"connected_servers"`
	UplinkSwitch     string   `json:"uplink_switch,omitempty"`
}

// LogEntry 安装日志中的单条记录。
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Component string         `json:"component"`
	Details   map[string]any `json:"details,omitempty"`
}

// InstallAttempt 一次装机尝试及其日志。
type InstallAttempt struct {
	ServerID     string     `json:"server_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	Status       string     `json:"status"`
	Entries      []LogEntry `json:"logs"`
	ErrorSummary string     `json:"error_summary,omitempty"`
}

// Errors 返回级别为 ERROR 的日志。
func (a InstallAttempt) Errors() []LogEntry {
	var out []LogEntry
	for _, e := range a.Entries {
		if e.Level == LevelError {
			out = append(out, e)
		}
	}
	return out
}

const (
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

// 以下 clone 方法用于访问器返回深拷贝，调用方修改返回值不影响 Store。

func (s Server) clone() Server {
	s.Hardware.NetworkCards = slices.Clone(s.Hardware.NetworkCards)
	s.Tags = maps.Clone(s.Tags)
	return s
}

func (p NetworkPath) clone() NetworkPath {
	p.Path = slices.Clone(p.Path)
	return p
}

func (t Topology) clone() Topology {
	t.InBand = t.InBand.clone()
	t.OutOfBand = t.OutOfBand.clone()
	t.UplinkSwitches = slices.Clone(t.UplinkSwitches)
	return t
}

func (sw Switch) clone() Switch {
	sw.Ports = slices.Clone(sw.Ports)
	sw.ConnectedServers = slices.Clone(sw.ConnectedServers)
	return sw
}

func (a InstallAttempt) clone() InstallAttempt {
	if a.Entries != nil {
		entries := make([]LogEntry, len(a.Entries))
		for i, e := range a.Entries {
			e.Details = maps.Clone(e.Details)
			entries[i] = e
		}
		a.Entries = entries
	}
	return a
}
