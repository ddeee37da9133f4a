package workflow

import (
	"fmt"
	"strings"
	"time"

	"czagent/internal/intent"
	"czagent/internal/tools"
)

const (
	maxListed      = 10
	maxLogEntries  = 5
	pathSeparator  = " → "
	msgCannotParse = "Sorry, I cannot understand your query."
	msgNoData      = "No matching data was found for this query."
)

// Render 仅根据状态渲染最终回复，不访问工具层。
func Render(s *State) string {
	if s.Error != "" {
		return fmt.Sprintf("Sorry, an error occurred while processing your request: %s", s.Error)
	}
	if s.Analysis == nil {
		return msgCannotParse
	}

	var b lines
	switch s.Analysis.Intent {
	case intent.ServerInfo:
		renderServerInfo(&b, s.ServerInfo)
	case intent.ServerTopology:
		renderTopology(&b, s.TopologyInfo)
	case intent.RackAnalysis:
		renderRack(&b, s.TopologyInfo, s.AffectedServers)
	case intent.FaultDiagnosis:
		renderDiagnosis(&b, s)
	case intent.InstallationLog:
		renderLogs(&b, s.InstallationLogs)
	case intent.SwitchInfo:
		renderSwitch(&b, s.SwitchInfo)
	default:
		return msgCannotParse
	}
	if len(b) == 0 {
		return missingEntityHint(s.Analysis.Intent)
	}
	return b.String()
}

type lines []string

func (l *lines) add(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

func (l *lines) blank() {
	*l = append(*l, "")
}

func (l lines) String() string {
	return strings.Join(l, "\n")
}

func missingEntityHint(in intent.Intent) string {
	switch in {
	case intent.ServerTopology, intent.InstallationLog, intent.FaultDiagnosis:
		return "Please specify a server ID, for example srv-0020."
	case intent.RackAnalysis:
		return "Please specify a rack ID, for example rack-A02."
	case intent.SwitchInfo:
		return "Please specify a switch ID, for example sw-tor-001."
	}
	return msgNoData
}

func renderNotFound(b *lines, nf *tools.NotFound) {
	b.add("%s", nf.Error)
	if len(nf.AvailableIDs) > 0 {
		b.add("Available IDs: %s", strings.Join(nf.AvailableIDs, ", "))
	}
	if len(nf.AvailableRacks) > 0 {
		b.add("Available racks: %s", strings.Join(nf.AvailableRacks, ", "))
	}
}

func renderServerInfo(b *lines, res tools.Result) {
	switch v := res.(type) {
	case *tools.ServerList:
		b.add("Found %d servers:", v.Total)
		for i, srv := range v.Servers {
			if i >= maxListed {
				break
			}
			b.add("- %s (%s): status=%s, location=%s/%s", srv.ID, srv.Hostname, srv.Status, srv.Location.Room, srv.Location.RackID)
		}
		if v.Total > maxListed {
			b.add("... +%d more", v.Total-maxListed)
		}
	case *tools.ServerDetails:
		b.add("Server %s details:", v.ID)
		b.add("- Hostname: %s", v.Hostname)
		b.add("- Status: %s", v.Status)
		b.add("- IP address: %s", v.IPAddress)
		b.add("- Hardware: %d-core CPU, %dGB memory", v.Hardware.CPUCores, v.Hardware.MemoryGB)
		b.add("- Location: %s/%s/U%d", v.Location.Room, v.Location.RackID, v.Location.RackPosition)
	case *tools.NotFound:
		renderNotFound(b, v)
	}
}

func renderTopology(b *lines, res tools.Result) {
	switch v := res.(type) {
	case *tools.ServerTopology:
		b.add("Network topology of server %s:", v.ServerID)
		b.blank()
		b.add("In-band network:")
		b.add("- Path: %s", strings.Join(v.InBand.Path, pathSeparator))
		b.add("- Status: %s", v.InBand.Status)
		b.blank()
		b.add("Out-of-band network:")
		b.add("- Path: %s", strings.Join(v.OutOfBand.Path, pathSeparator))
		b.add("- Status: %s", v.OutOfBand.Status)
		if v.OutOfBand.LastHopReachable != "" {
			b.add("- Last reachable hop: %s", v.OutOfBand.LastHopReachable)
		}
		if reason := v.OutOfBandConnectivity.FailureReason; reason != "" {
			b.add("- Failure reason: %s", reason)
		}
	case *tools.NotFound:
		renderNotFound(b, v)
	}
}

func renderRack(b *lines, res tools.Result, affected []tools.RackServer) {
	switch v := res.(type) {
	case *tools.RackTopology:
		if v.Scope.Room != "" {
			b.add("Rack %s (%s) analysis:", v.RackID, v.Scope.Room)
		} else {
			b.add("Rack %s analysis:", v.RackID)
		}
		b.add("- Total servers: %d", v.TotalServers)
		b.add("- In-band connected: %d", v.InBandConnected)
		b.add("- Out-of-band connected: %d", v.OutOfBandConnected)
		if len(affected) > 0 {
			b.add("- Out-of-band disconnected: %d", len(affected))
		}
		if v.Alert != "" {
			b.blank()
			b.add("⚠️ Alert: %s", v.Alert)
			for _, hs := range v.Hotspots {
				b.add("- %s: %d/%d servers out-of-band disconnected", hs.Scope, hs.OutOfBandDown, hs.TotalServers)
			}
			b.add("Recommended action: %s", v.RecommendedAction)
		}
	case *tools.NotFound:
		renderNotFound(b, v)
	}
}

func renderDiagnosis(b *lines, s *State) {
	if nf, ok := s.ServerInfo.(*tools.NotFound); ok && s.FailureAnalysis == nil {
		renderNotFound(b, nf)
		b.blank()
	}
	diag := s.Diagnosis
	if diag == nil {
		return
	}
	b.add("Fault diagnosis result:")
	b.blank()
	b.add("Root cause: %s", diag.RootCause)
	b.add("Confidence: %s", diag.Confidence)

	if fa := s.FailureAnalysis; fa != nil {
		if fa.Rack != nil && fa.Rack.Alert != "" {
			b.blank()
			b.add("⚠️ Rack alert: %s", fa.Rack.Alert)
			b.add("Affected servers in rack: %d/%d", fa.Rack.TotalServers-fa.Rack.OutOfBandConnected, fa.Rack.TotalServers)
		}
		if fa.ErrorSummary != "" {
			b.blank()
			b.add("Installation error: %s", fa.ErrorSummary)
			if fa.FirstError != "" {
				b.add("First error: %s", fa.FirstError)
			}
		}
		if fa.OOBFailureReason != "" {
			b.add("Out-of-band failure: %s", fa.OOBFailureReason)
		}
	}

	b.blank()
	b.add("Recommendations:")
	for i, rec := range diag.Recommendations {
		b.add("%d. %s", i+1, rec)
	}
	b.blank()
	b.add("Next steps:")
	for i, step := range diag.NextSteps {
		b.add("%d. %s", i+1, step)
	}
	if len(diag.RelatedIssues) > 0 {
		b.blank()
		b.add("Related issues:")
		for _, issue := range diag.RelatedIssues {
			b.add("- %s", issue)
		}
	}
}

func renderLogs(b *lines, res tools.Result) {
	switch v := res.(type) {
	case *tools.InstallationLogs:
		inst := v.Installation
		b.add("Installation logs of server %s:", v.ServerID)
		b.add("- Status: %s", inst.Status)
		b.add("- Start time: %s", inst.StartTime.Format(time.RFC3339))
		if inst.ErrorSummary != "" {
			b.add("- Error summary: %s", inst.ErrorSummary)
		}
		b.blank()
		b.add("Log details:")
		entries := inst.Entries
		if len(entries) > maxLogEntries {
			entries = entries[len(entries)-maxLogEntries:]
		}
		for _, e := range entries {
			b.add("[%s] %s: %s", e.Timestamp.Format(time.RFC3339), e.Level, e.Message)
		}
	case *tools.NoInstallationLogs:
		b.add("%s (server %s status: %s)", v.Message, v.ServerID, v.ServerStatus)
	case *tools.NotFound:
		renderNotFound(b, v)
	}
}

func renderSwitch(b *lines, res tools.Result) {
	switch v := res.(type) {
	case *tools.SwitchInfo:
		b.add("Switch %s info:", v.ID)
		b.add("- Name: %s", v.Name)
		b.add("- Model: %s", v.Model)
		b.add("- Status: %s", v.Status)
		b.add("- Ports: %d/%d up", v.PortSummary.Up, v.PortSummary.Total)
		b.add("- Connected servers: %d", len(v.ConnectedServers))
		if v.UplinkSwitch != "" {
			b.add("- Uplink switch: %s", v.UplinkSwitch)
		}
	case *tools.NotFound:
		renderNotFound(b, v)
	}
}
