package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"czagent/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refTime = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(inventory.New(inventory.WithReferenceTime(refTime)), nil)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresStore(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}

func TestListServersFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.ListServers(ctx, ServerFilter{})
	require.NoError(t, err)
	all := res.(*ServerList)
	assert.Equal(t, 480, all.Total)

	res, err = svc.ListServers(ctx, ServerFilter{Status: "offline", Region: "cn-north", Room: "room-01", Rack: "rack-A01"})
	require.NoError(t, err)
	list := res.(*ServerList)
	require.Equal(t, list.Total, len(list.Servers))
	for _, s := range list.Servers {
		assert.Equal(t, inventory.StatusOffline, s.Status)
		assert.Equal(t, "rack-A01", s.Location.RackID)
		assert.Equal(t, "room-01", s.Location.Room)
	}

	res, err = svc.ListServers(ctx, ServerFilter{Status: "no-such-status"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.(*ServerList).Total)
	assert.NotNil(t, res.(*ServerList).Servers)
}

func TestGetServerDetailsNotFound(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.GetServerDetails(context.Background(), "nonexistent-id")
	require.NoError(t, err)
	nf, ok := res.(*NotFound)
	require.True(t, ok, "expect NotFound, got %T", res)
	assert.Contains(t, nf.Error, "nonexistent-id")
	assert.NotEmpty(t, nf.AvailableIDs)
	assert.LessOrEqual(t, len(nf.AvailableIDs), 5)
}

func TestGetServerTopology(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.GetServerTopology(context.Background(), "srv-0001")
	require.NoError(t, err)
	topo := res.(*ServerTopology)
	assert.Equal(t, []string{"srv-0001", "sw-tor-001", "sw-agg-cn-north-az1", "sw-core-cn-north"}, topo.InBand.Path)
	assert.True(t, topo.OutOfBandConnectivity.Connected)
}

func TestRackTopologyAlert(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.GetRackTopology(ctx, inventory.FaultRack, RackScope{Room: inventory.FaultRoom})
	require.NoError(t, err)
	faulty := res.(*RackTopology)
	assert.Equal(t, 40, faulty.TotalServers)
	assert.Equal(t, 0, faulty.OutOfBandConnected)
	assert.Equal(t, RackAlertMessage, faulty.Alert)
	assert.Equal(t, RackAlertAction, faulty.RecommendedAction)

	res, err = svc.GetRackTopology(ctx, "rack-A01", RackScope{Region: "cn-north", AvailabilityZone: "az1", Room: "room-01"})
	require.NoError(t, err)
	healthy := res.(*RackTopology)
	assert.Equal(t, 10, healthy.TotalServers)
	assert.Empty(t, healthy.Alert)
	assert.Empty(t, healthy.RecommendedAction)

	// 不限定范围时同名机柜跨机房聚合，整体比例被稀释，但故障的物理机柜仍会告警。
	res, err = svc.GetRackTopology(ctx, inventory.FaultRack, RackScope{})
	require.NoError(t, err)
	all := res.(*RackTopology)
	assert.Equal(t, 120, all.TotalServers)
	assert.LessOrEqual(t, all.OOBFailureRate(), RackAlertThreshold)
	require.Len(t, all.Hotspots, 4)
	for _, hs := range all.Hotspots {
		assert.Equal(t, inventory.FaultRoom, hs.Scope.Room)
		assert.Equal(t, 10, hs.TotalServers)
		assert.Equal(t, 10, hs.OutOfBandDown)
	}
	assert.True(t, strings.HasPrefix(all.Alert, RackAlertMessage))
	assert.Contains(t, all.Alert, "cn-north/az1/room-01")
	assert.Equal(t, RackAlertAction, all.RecommendedAction)

	// 只限定区域时同样逐个物理机柜判定。
	res, err = svc.GetRackTopology(ctx, inventory.FaultRack, RackScope{Region: "cn-north"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.(*RackTopology).Hotspots)
	assert.NotEmpty(t, res.(*RackTopology).Alert)

	// 健康机柜不产生告警。
	res, err = svc.GetRackTopology(ctx, "rack-A01", RackScope{})
	require.NoError(t, err)
	assert.Empty(t, res.(*RackTopology).Hotspots)
	assert.Empty(t, res.(*RackTopology).Alert)
}

func TestRackTopologyNotFound(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.GetRackTopology(context.Background(), "rack-Z99", RackScope{})
	require.NoError(t, err)
	nf := res.(*NotFound)
	assert.Equal(t, []string{"rack-A01", "rack-A02", "rack-B01", "rack-B02"}, nf.AvailableRacks)
}

func TestGetSwitchInfo(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.GetSwitchInfo(context.Background(), "sw-tor-001")
	require.NoError(t, err)
	info := res.(*SwitchInfo)
	assert.Equal(t, PortSummary{Total: 48, Up: 20, Down: 28}, info.PortSummary)
	assert.Len(t, info.ConnectedServers, 10)

	res, err = svc.GetSwitchInfo(context.Background(), "sw-tor-999")
	require.NoError(t, err)
	assert.Len(t, res.(*NotFound).AvailableIDs, 5)
}

func TestGetInstallationLogs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.GetInstallationLogs(ctx, "srv-0020", LogWindow{})
	require.NoError(t, err)
	logs := res.(*InstallationLogs)
	assert.Len(t, logs.Installation.Entries, 2)
	assert.True(t, strings.HasPrefix(logs.Installation.ErrorSummary, inventory.MarkerSoftware))

	start := refTime.Add(-2 * time.Hour)
	res, err = svc.GetInstallationLogs(ctx, "srv-0040", LogWindow{Start: start.Add(time.Minute)})
	require.NoError(t, err)
	assert.Len(t, res.(*InstallationLogs).Installation.Entries, 2)

	res, err = svc.GetInstallationLogs(ctx, "srv-0001", LogWindow{})
	require.NoError(t, err)
	none := res.(*NoInstallationLogs)
	assert.Equal(t, inventory.StatusOnline, none.ServerStatus)

	res, err = svc.GetInstallationLogs(ctx, "srv-9999", LogWindow{})
	require.NoError(t, err)
	assert.IsType(t, &NotFound{}, res)
}

func TestGetInstallationLogsReturnsLatestAttempt(t *testing.T) {
	retry := inventory.InstallAttempt{
		ServerID:     "srv-0020",
		StartTime:    refTime.Add(time.Hour),
		Status:       "failed",
		ErrorSummary: "retry: pxe timeout",
		Entries:      []inventory.LogEntry{{Timestamp: refTime.Add(time.Hour), Level: inventory.LevelError, Message: "pxe timeout"}},
	}
	older := inventory.InstallAttempt{ServerID: "srv-0020", StartTime: refTime.Add(-48 * time.Hour), Status: "failed", ErrorSummary: "older"}
	store := inventory.New(inventory.WithReferenceTime(refTime), inventory.WithInstallAttempts(retry, older))
	svc, err := NewService(store, nil)
	require.NoError(t, err)

	res, err := svc.GetInstallationLogs(context.Background(), "srv-0020", LogWindow{})
	require.NoError(t, err)
	logs := res.(*InstallationLogs)
	assert.Equal(t, "retry: pxe timeout", logs.Installation.ErrorSummary)
	require.Len(t, logs.Installation.Entries, 1)
	assert.Equal(t, "pxe timeout", logs.Installation.Entries[0].Message)
}

func TestResultsDoNotAliasStore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.GetServerDetails(ctx, "srv-0001")
	require.NoError(t, err)
	details := res.(*ServerDetails)
	details.Tags["env"] = "mutated"
	details.Hardware.NetworkCards[0] = "hacked"

	res, err = svc.GetSwitchInfo(ctx, "sw-tor-001")
	require.NoError(t, err)
	res.(*SwitchInfo).ConnectedServers[0] = "ghost"

	res, err = svc.GetInstallationLogs(ctx, "srv-0020", LogWindow{})
	require.NoError(t, err)
	res.(*InstallationLogs).Installation.Entries[0].Message = "ghost"

	res, err = svc.GetServerDetails(ctx, "srv-0001")
	require.NoError(t, err)
	assert.Equal(t, "prod", res.(*ServerDetails).Tags["env"])
	assert.NotEqual(t, "hacked", res.(*ServerDetails).Hardware.NetworkCards[0])

	res, err = svc.GetSwitchInfo(ctx, "sw-tor-001")
	require.NoError(t, err)
	assert.NotContains(t, res.(*SwitchInfo).ConnectedServers, "ghost")

	res, err = svc.GetInstallationLogs(ctx, "srv-0020", LogWindow{})
	require.NoError(t, err)
	assert.NotEqual(t, "ghost", res.(*InstallationLogs).Installation.Entries[0].Message)
}

func TestAnalyzeNotApplicable(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.AnalyzeInstallationFailure(context.Background(), "srv-0001")
	require.NoError(t, err)
	na, ok := res.(*NotApplicable)
	require.True(t, ok)
	assert.Contains(t, na.Message, "online")

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "diagnosis")
}

func TestAnalyzeInfrastructureOverride(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.AnalyzeInstallationFailure(context.Background(), "srv-0020")
	require.NoError(t, err)
	fa := res.(*FailureAnalysis)

	assert.Equal(t, RootCauseInfrastructure, fa.Diagnosis.RootCause)
	assert.Equal(t, ConfidenceHigh, fa.Diagnosis.Confidence)
	require.GreaterOrEqual(t, len(fa.Diagnosis.Recommendations), 2)
	assert.Equal(t, "Attention: "+RackAlertMessage, fa.Diagnosis.Recommendations[0])
	assert.Equal(t, RackAlertAction, fa.Diagnosis.Recommendations[1])
	assert.Len(t, fa.Diagnosis.Recommendations, 6)
	assert.Len(t, fa.Diagnosis.RelatedIssues, 9)
	assert.Equal(t, DefaultNextSteps, fa.Diagnosis.NextSteps)

	assert.True(t, strings.HasPrefix(fa.ErrorSummary, inventory.MarkerSoftware))
	assert.Equal(t, 1, fa.ErrorCount)
	assert.Equal(t, inventory.FaultReason, fa.OOBFailureReason)
	assert.Equal(t, inventory.Disconnected, fa.NetworkStatus.OutOfBand)
	assert.Equal(t, "sw-tor-002", fa.UplinkSwitch.SwitchID)
	assert.Equal(t, refTime, fa.AnalysisTime)
}

func TestAnalyzeHardwareFault(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.AnalyzeInstallationFailure(context.Background(), "srv-0040")
	require.NoError(t, err)
	fa := res.(*FailureAnalysis)
	assert.Equal(t, RootCauseHardware, fa.Diagnosis.RootCause)
	assert.Len(t, fa.Diagnosis.Recommendations, 3)
	assert.Equal(t, 2, fa.ErrorCount)
	assert.Equal(t, "disk detection failed: /dev/sda not found", fa.FirstError)
	assert.Empty(t, fa.Diagnosis.RelatedIssues)
}

func TestReadsAreIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	calls := []func() (Result, error){
		func() (Result, error) { return svc.ListServers(ctx, ServerFilter{Status: "install_failed"}) },
		func() (Result, error) { return svc.GetServerDetails(ctx, "srv-0020") },
		func() (Result, error) { return svc.GetServerTopology(ctx, "srv-0020") },
		func() (Result, error) { return svc.GetRackTopology(ctx, "rack-A02", RackScope{Room: "room-01"}) },
		func() (Result, error) { return svc.GetSwitchInfo(ctx, "sw-tor-002") },
		func() (Result, error) { return svc.GetInstallationLogs(ctx, "srv-0020", LogWindow{}) },
		func() (Result, error) { return svc.AnalyzeInstallationFailure(ctx, "srv-0020") },
	}
	for i, call := range calls {
		first, err := call()
		require.NoError(t, err)
		second, err := call()
		require.NoError(t, err)
		a, _ := json.Marshal(first)
		b, _ := json.Marshal(second)
		assert.Equal(t, string(a), string(b), "call %d not idempotent", i)
	}
}

func TestRackAlerts(t *testing.T) {
	svc := newTestService(t)
	alerts, err := svc.RackAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 4)
	for _, rack := range alerts {
		assert.Equal(t, inventory.FaultRack, rack.RackID)
		assert.Equal(t, inventory.FaultRoom, rack.Scope.Room)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.RackAlerts(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLogWindow(t *testing.T) {
	w, err := ParseLogWindow("2024-06-01T06:00:00Z", "")
	require.NoError(t, err)
	assert.False(t, w.Start.IsZero())
	assert.True(t, w.End.IsZero())

	_, err = ParseLogWindow("", "bad")
	assert.Error(t, err)
}
