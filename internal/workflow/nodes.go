package workflow

import (
	"context"
	"fmt"

	"czagent/internal/intent"
	"czagent/internal/metrics"
	"czagent/internal/tools"
	"go.uber.org/zap"
)

// Toolset 工作流依赖的数据查询能力，由 tools.Service 实现。
type Toolset interface {
	ListServers(ctx context.Context, filter tools.ServerFilter) (tools.Result, error)
	GetServerDetails(ctx context.Context, serverID string) (tools.Result, error)
	GetServerTopology(ctx context.Context, serverID string) (tools.Result, error)
	GetRackTopology(ctx context.Context, rackID string, scope tools.RackScope) (tools.Result, error)
	GetSwitchInfo(ctx context.Context, switchID string) (tools.Result, error)
	GetInstallationLogs(ctx context.Context, serverID string, window tools.LogWindow) (tools.Result, error)
	AnalyzeInstallationFailure(ctx context.Context, serverID string) (tools.Result, error)
}

const (
	fallbackRootCause = "needs further analysis"
	fallbackCheckOOB  = "Check the out-of-band network connection"
	fallbackSupport   = "Please contact technical support"
)

var fallbackNextSteps = []string{"Collect more logs", "Check hardware status"}

func (w *Workflow) analyzeQuery(_ context.Context, s *State) (*State, error) {
	defer w.timeStage(StepAnalyzeQuery)()
	a := intent.Analyze(s.Query)
	s.Analysis = &a
	metrics.QueryIntents.WithLabelValues(string(a.Intent)).Inc()
	w.logger.Info("查询分析完成",
		zap.String("run_id", s.RunID),
		zap.String("intent", string(a.Intent)),
		zap.Float64("confidence", a.Confidence))
	s.record(StepAnalyzeQuery, fmt.Sprintf("Intent: %s, Confidence: %.2f", a.Intent, a.Confidence), w.now())
	return s, nil
}

func (w *Workflow) fetchData(ctx context.Context, s *State) (*State, error) {
	defer w.timeStage(StepFetchData)()
	if s.Analysis == nil {
		s.Error = "query analysis failed"
		s.record(StepFetchData, "error: "+s.Error, w.now())
		return s, nil
	}
	if err := w.dispatch(ctx, s); err != nil {
		s.Error = fmt.Sprintf("failed to fetch data: %v", err)
		w.logger.Error("获取数据失败", zap.String("run_id", s.RunID), zap.Error(err))
		s.record(StepFetchData, "error: "+s.Error, w.now())
		return s, nil
	}
	s.record(StepFetchData, "intent: "+string(s.Analysis.Intent), w.now())
	return s, nil
}

// dispatch 按意图调用工具并填充状态槽位，遇到错误立即返回，后续槽位保持为空。
func (w *Workflow) dispatch(ctx context.Context, s *State) error {
	a := s.Analysis
	serverID := a.Entity(intent.EntityServerID)

	switch a.Intent {
	case intent.ServerInfo:
		var (
			res tools.Result
			err error
		)
		if serverID != "" {
			res, err = w.tools.GetServerDetails(ctx, serverID)
		} else {
			res, err = w.tools.ListServers(ctx, tools.ServerFilter{Status: a.Filters[intent.FilterStatus]})
		}
		if err != nil {
			return err
		}
		s.ServerInfo = res

	case intent.ServerTopology:
		if serverID == "" {
			return nil
		}
		res, err := w.tools.GetServerTopology(ctx, serverID)
		if err != nil {
			return err
		}
		s.TopologyInfo = res

	case intent.RackAnalysis:
		rackID := a.Entity(intent.EntityRackID)
		if rackID == "" {
			return nil
		}
		res, err := w.tools.GetRackTopology(ctx, rackID, tools.RackScope{Room: a.Entity(intent.EntityRoom)})
		if err != nil {
			return err
		}
		s.TopologyInfo = res
		if rack, ok := res.(*tools.RackTopology); ok {
			s.setRack(rack)
		}

	case intent.SwitchInfo:
		switchID := a.Entity(intent.EntitySwitchID)
		if switchID == "" {
			return nil
		}
		res, err := w.tools.GetSwitchInfo(ctx, switchID)
		if err != nil {
			return err
		}
		s.SwitchInfo = res

	case intent.InstallationLog:
		if serverID == "" {
			return nil
		}
		res, err := w.tools.GetInstallationLogs(ctx, serverID, tools.LogWindow{})
		if err != nil {
			return err
		}
		s.InstallationLogs = res

	case intent.FaultDiagnosis:
		if serverID == "" {
			return nil
		}
		res, err := w.tools.AnalyzeInstallationFailure(ctx, serverID)
		if err != nil {
			return err
		}
		if fa, ok := res.(*tools.FailureAnalysis); ok {
			s.FailureAnalysis = fa
			diag := fa.Diagnosis
			s.Diagnosis = &diag
			if fa.Rack != nil {
				s.setRack(fa.Rack)
			}
		}
		if s.ServerInfo, err = w.tools.GetServerDetails(ctx, serverID); err != nil {
			return err
		}
		if s.TopologyInfo, err = w.tools.GetServerTopology(ctx, serverID); err != nil {
			return err
		}
		if s.InstallationLogs, err = w.tools.GetInstallationLogs(ctx, serverID, tools.LogWindow{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) setRack(rack *tools.RackTopology) {
	s.RackServers = rack.Servers
	s.AffectedServers = nil
	for _, srv := range rack.Servers {
		if !srv.OutOfBandConnected {
			s.AffectedServers = append(s.AffectedServers, srv)
		}
	}
}

// analyzeFault 在综合诊断没有结果时，基于已获取的拓扑和日志给出兜底结论。带外故障原因优先于日志摘要。
func (w *Workflow) analyzeFault(_ context.Context, s *State) (*State, error) {
	defer w.timeStage(StepAnalyzeFault)()
	if s.Intent() != intent.FaultDiagnosis || s.Diagnosis != nil {
		s.record(StepAnalyzeFault, "skipped", w.now())
		return s, nil
	}

	rootCause := fallbackRootCause
	var recs []string
	if logs, ok := s.InstallationLogs.(*tools.InstallationLogs); ok && logs.Installation.ErrorSummary != "" {
		rootCause = logs.Installation.ErrorSummary
	}
	if topo, ok := s.TopologyInfo.(*tools.ServerTopology); ok && !topo.OutOfBandConnectivity.Connected {
		recs = append(recs, fallbackCheckOOB)
		if reason := topo.OutOfBandConnectivity.FailureReason; reason != "" {
			rootCause = reason
		}
	}
	if len(recs) == 0 {
		recs = []string{fallbackSupport}
	}
	s.Diagnosis = &tools.Diagnosis{
		RootCause:       rootCause,
		Confidence:      tools.ConfidenceMedium,
		Recommendations: recs,
		NextSteps:       append([]string(nil), fallbackNextSteps...),
	}
	s.record(StepAnalyzeFault, "root cause: "+rootCause, w.now())
	return s, nil
}

func (w *Workflow) generateResponse(_ context.Context, s *State) (*State, error) {
	defer w.timeStage(StepGenerateResponse)()
	s.Response = Render(s)
	result := "response generated"
	if s.Error != "" {
		result = "error response"
	}
	s.record(StepGenerateResponse, result, w.now())
	return s, nil
}

// shouldAnalyzeFault 仅在故障诊断意图且尚无诊断结论时进入兜底分析。
func shouldAnalyzeFault(_ context.Context, s *State) string {
	if s.Intent() == intent.FaultDiagnosis && s.Diagnosis == nil {
		return StepAnalyzeFault
	}
	return StepGenerateResponse
}
