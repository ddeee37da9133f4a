package workflow

import (
	"time"

	"czagent/internal/intent"
	"czagent/internal/tools"
)

// 工作流阶段名。
const (
	StepAnalyzeQuery     = "analyze_query"
	StepFetchData        = "fetch_data"
	StepAnalyzeFault     = "analyze_fault"
	StepGenerateResponse = "generate_response"
)

// HistoryEntry 执行历史中的一条记录。
type HistoryEntry struct {
	Step      string    `json:"step"`
	Timestamp time.Time `json:"timestamp"`
	Result    string    `json:"result"`
}

// State 单次查询的编排状态，只在一次调用内被各阶段顺序修改，不跨调用共享。
type State struct {
	RunID    string           `json:"run_id"`
	Query    string           `json:"user_query"`
	Analysis *intent.Analysis `json:"query_analysis,omitempty"`

	ServerInfo       tools.Result `json:"server_info,omitempty"`
	TopologyInfo     tools.Result `json:"topology_info,omitempty"`
	SwitchInfo       tools.Result `json:"switch_info,omitempty"`
	InstallationLogs tools.Result `json:"installation_logs,omitempty"`

	FailureAnalysis *tools.FailureAnalysis `json:"failure_analysis,omitempty"`
	RackServers     []tools.RackServer     `json:"rack_servers,omitempty"`
	AffectedServers []tools.RackServer     `json:"affected_servers,omitempty"`
	Diagnosis       *tools.Diagnosis       `json:"diagnosis,omitempty"`

	Response      string         `json:"response"`
	History       []HistoryEntry `json:"execution_history"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"timestamp"`
	ExecutionTime time.Duration  `json:"execution_time"`
}

// NewState 构建初始状态。
func NewState(runID, query string, createdAt time.Time) *State {
	return &State{
		RunID:     runID,
		Query:     query,
		History:   []HistoryEntry{},
		CreatedAt: createdAt,
	}
}

// Intent 返回已分析出的意图，尚未分析时为 unknown。
func (s *State) Intent() intent.Intent {
	if s.Analysis == nil {
		return intent.Unknown
	}
	return s.Analysis.Intent
}

func (s *State) record(step, result string, at time.Time) {
	s.History = append(s.History, HistoryEntry{Step: step, Timestamp: at, Result: result})
}

// Steps 返回已执行的阶段名，按执行顺序排列。
func (s *State) Steps() []string {
	steps := make([]string, 0, len(s.History))
	for _, h := range s.History {
		steps = append(steps, h.Step)
	}
	return steps
}
