package intent

import (
	"regexp"
	"strings"
)

// Intent 查询意图。
type Intent string

const (
	ServerInfo      Intent = "server_info"
	ServerTopology  Intent = "server_topology"
	SwitchInfo      Intent = "switch_info"
	InstallationLog Intent = "installation_log"
	FaultDiagnosis  Intent = "fault_diagnosis"
	RackAnalysis    Intent = "rack_analysis"
	Unknown         Intent = "unknown"
)

// 实体与筛选条件的键。
const (
	EntityServerID = "server_id"
	EntityRackID   = "rack_id"
	EntitySwitchID = "switch_id"
	EntityRoom     = "room"
	FilterStatus   = "status"
)

// Analysis 查询分析结果。
type Analysis struct {
	Intent     Intent            `json:"intent"`
	Entities   map[string]string `json:"entities"`
	Filters    map[string]string `json:"filters"`
	Confidence float64           `json:"confidence"`
}

// Entity 返回实体值，不存在时为空串。
func (a *Analysis) Entity(key string) string {
	if a == nil {
		return ""
	}
	return a.Entities[key]
}

var (
	serverPattern    = regexp.MustCompile(`(?i)(srv-\d+|server-\d+)`)
	rackPattern      = regexp.MustCompile(`(?i)(rack-[a-z0-9]+)`)
	rackLocalPattern = regexp.MustCompile(`机柜([a-zA-Z0-9]+)`)
	switchPattern    = regexp.MustCompile(`(?i)(sw-\w+-\d+|switch-\w+)`)
	roomPattern      = regexp.MustCompile(`(?i)(room-\d+)`)
	faultKeywords    = []string{"安装失败", "装机失败", "失败原因", "故障诊断", "分析失败", "install failed", "installation failed", "install failure", "installation failure", "failure reason", "diagnose", "diagnosis", "root cause"}
	logKeywords      = []string{"装机日志", "安装日志", "日志", "installation log", "install log", "logs"}
	topologyKeywords = []string{"拓扑", "网络连接", "连通性", "带内", "带外", "topology", "connectivity", "network connection", "in-band", "out-of-band"}
	rackKeywords     = []string{"机柜", "rack"}
	switchKeywords   = []string{"交换机", "switch"}
	listingKeywords  = []string{"服务器列表", "所有服务器", "查询服务器", "查看服务器", "显示服务器", "查看", "list", "all servers", "show"}
	serverKeywords   = []string{"服务器", "server"}
	onlineKeywords   = []string{"在线", "online"}
	offlineKeywords  = []string{"离线", "offline"}
	failedKeywords   = []string{"故障", "failed"}
)

// Analyze 将自由文本分类为意图，并抽取实体与筛选条件。按固定顺序匹配，先命中者优先。
func Analyze(query string) Analysis {
	lower := strings.ToLower(query)
	res := Analysis{
		Intent:   Unknown,
		Entities: extractEntities(query),
		Filters:  map[string]string{},
	}

	switch {
	case containsAny(lower, faultKeywords):
		res.Intent, res.Confidence = FaultDiagnosis, 0.95
	case containsAny(lower, logKeywords):
		res.Intent, res.Confidence = InstallationLog, 0.9
	case containsAny(lower, topologyKeywords):
		res.Intent, res.Confidence = ServerTopology, 0.9
		if containsAny(lower, rackKeywords) {
			res.Intent = RackAnalysis
		}
	case containsAny(lower, switchKeywords):
		res.Intent, res.Confidence = SwitchInfo, 0.9
	case containsAny(lower, listingKeywords) && containsAny(lower, serverKeywords):
		res.Intent, res.Confidence = ServerInfo, 0.85
		switch {
		case containsAny(lower, onlineKeywords):
			res.Filters[FilterStatus] = "online"
		case containsAny(lower, offlineKeywords):
			res.Filters[FilterStatus] = "offline"
		case containsAny(lower, failedKeywords):
			res.Filters[FilterStatus] = "install_failed"
		}
	case res.Entities[EntityServerID] != "":
		res.Intent, res.Confidence = ServerInfo, 0.8
	}
	return res
}

func extractEntities(query string) map[string]string {
	entities := map[string]string{}
	if m := serverPattern.FindStringSubmatch(query); m != nil {
		entities[EntityServerID] = m[1]
	}
	if m := rackPattern.FindStringSubmatch(query); m != nil {
		entities[EntityRackID] = m[1]
	} else if m := rackLocalPattern.FindStringSubmatch(query); m != nil {
		entities[EntityRackID] = "rack-" + m[1]
	}
	if m := switchPattern.FindStringSubmatch(query); m != nil {
		entities[EntitySwitchID] = m[1]
	}
	if m := roomPattern.FindStringSubmatch(query); m != nil {
		entities[EntityRoom] = strings.ToLower(m[1])
	}
	return entities
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
