package inventory

import (
	"strings"
	"testing"
	"time"
)

var refTime = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(WithReferenceTime(refTime))
}

func TestFleetShape(t *testing.T) {
	s := newTestStore(t)
	if got := len(s.Servers()); got != 480 {
		t.Fatalf("expect 480 servers, got %d", got)
	}
	if got := len(s.Switches()); got != 48 {
		t.Fatalf("expect 48 switches, got %d", got)
	}
	if got := len(s.Topologies()); got != 480 {
		t.Fatalf("expect 480 topologies, got %d", got)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestStatusAssignment(t *testing.T) {
	s := newTestStore(t)
	cases := map[string]ServerStatus{
		"srv-0001": StatusOnline,
		"srv-0015": StatusOffline,
		"srv-0020": StatusInstallFailed,
		"srv-0025": StatusMaintenance,
		"srv-0060": StatusOffline,
		"srv-0100": StatusInstallFailed,
	}
	for id, want := range cases {
		srv, ok := s.Server(id)
		if !ok {
			t.Fatalf("server %s missing", id)
		}
		if srv.Status != want {
			t.Fatalf("%s: expect %s, got %s", id, want, srv.Status)
		}
	}
}

func TestServerRecord(t *testing.T) {
	s := newTestStore(t)
	srv, _ := s.Server("srv-0020")
	if srv.Hostname != "server-cn-north-az1-room-01-0020" {
		t.Fatalf("unexpected hostname %s", srv.Hostname)
	}
	if srv.IPAddress != "10.104.0.20" {
		t.Fatalf("unexpected ip %s", srv.IPAddress)
	}
	if srv.Location.RackID != "rack-A02" || srv.Location.RackPosition != 10 {
		t.Fatalf("unexpected location %+v", srv.Location)
	}
	if !srv.CreatedAt.Before(refTime) || !srv.UpdatedAt.Before(refTime) {
		t.Fatalf("timestamps must precede reference time")
	}
}

func TestForcedRackFault(t *testing.T) {
	s := newTestStore(t)
	for _, topo := range s.Topologies() {
		loc := topo.Location
		if loc.Room != FaultRoom || loc.RackID != FaultRack {
			continue
		}
		if topo.OutOfBandConnectivity.Connected {
			t.Fatalf("%s should be out-of-band disconnected", topo.ServerID)
		}
		if topo.OutOfBandConnectivity.FailureReason != FaultReason {
			t.Fatalf("%s unexpected reason %q", topo.ServerID, topo.OutOfBandConnectivity.FailureReason)
		}
		if topo.OutOfBand.LastHopReachable != topo.UplinkSwitches[0]+"-oob" {
			t.Fatalf("%s unexpected last hop %s", topo.ServerID, topo.OutOfBand.LastHopReachable)
		}
	}

	topo, _ := s.Topology("srv-0030")
	if topo.OutOfBandConnectivity.Connected || topo.OutOfBandConnectivity.FailureReason != BMCFault {
		t.Fatalf("srv-0030 should have BMC fault, got %+v", topo.OutOfBandConnectivity)
	}
}

func TestInstallLogsOnlyForFailedServers(t *testing.T) {
	s := newTestStore(t)
	for _, srv := range s.Servers() {
		attempts := s.InstallAttempts(srv.ID)
		if srv.Status == StatusInstallFailed {
			if len(attempts) != 1 {
				t.Fatalf("%s expect one attempt, got %d", srv.ID, len(attempts))
			}
			continue
		}
		if len(attempts) != 0 {
			t.Fatalf("%s should have no install logs", srv.ID)
		}
	}

	hw := s.InstallAttempts("srv-0040")[0]
	if !strings.HasPrefix(hw.ErrorSummary, MarkerHardware) || len(hw.Errors()) != 2 {
		t.Fatalf("unexpected hardware attempt %+v", hw)
	}
	sw := s.InstallAttempts("srv-0020")[0]
	if !strings.HasPrefix(sw.ErrorSummary, MarkerSoftware) || len(sw.Errors()) != 1 {
		t.Fatalf("unexpected software attempt %+v", sw)
	}
	if !sw.EndTime.Equal(refTime.Add(-90 * time.Minute)) {
		t.Fatalf("unexpected end time %s", sw.EndTime)
	}
}

func TestSwitchPorts(t *testing.T) {
	s := newTestStore(t)
	sw, ok := s.Switch("sw-tor-002")
	if !ok {
		t.Fatalf("switch missing")
	}
	if len(sw.Ports) != 48 || len(sw.ConnectedServers) != 10 {
		t.Fatalf("unexpected switch %d ports %d servers", len(sw.Ports), len(sw.ConnectedServers))
	}
	if sw.Ports[9].ConnectedDevice != "srv-0020" {
		t.Fatalf("port 10 should connect srv-0020, got %q", sw.Ports[9].ConnectedDevice)
	}
	if sw.UplinkSwitch != "sw-agg-cn-north-az1-room-01" {
		t.Fatalf("unexpected uplink %s", sw.UplinkSwitch)
	}
}

func TestDeterministic(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	sa, _ := a.Server("srv-0123")
	sb, _ := b.Server("srv-0123")
	if !sa.CreatedAt.Equal(sb.CreatedAt) || !sa.UpdatedAt.Equal(sb.UpdatedAt) {
		t.Fatalf("stores built from the same reference time must match")
	}
}

func TestRackLabelsAndPhysicalRacks(t *testing.T) {
	s := newTestStore(t)
	labels := s.RackLabels()
	if strings.Join(labels, ",") != "rack-A01,rack-A02,rack-B01,rack-B02" {
		t.Fatalf("unexpected labels %v", labels)
	}
	if got := len(s.PhysicalRacks()); got != 48 {
		t.Fatalf("expect 48 physical racks, got %d", got)
	}
}

func TestSummarize(t *testing.T) {
	sum := newTestStore(t).Summarize()
	total := 0
	for _, n := range sum.ByStatus {
		total += n
	}
	if total != sum.Servers {
		t.Fatalf("status counts %d do not add up to %d", total, sum.Servers)
	}
	if sum.ByStatus[StatusOffline] != 32 {
		t.Fatalf("expect 32 offline, got %d", sum.ByStatus[StatusOffline])
	}
	if sum.OOBDown < 40 {
		t.Fatalf("expect forced fault racks to be counted, got %d", sum.OOBDown)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := newTestStore(t)

	srv, _ := s.Server("srv-0001")
	srv.Tags["env"] = "mutated"
	srv.Hardware.NetworkCards[0] = "hacked"
	for _, listed := range s.Servers()[:1] {
		listed.Tags["env"] = "mutated-again"
	}
	again, _ := s.Server("srv-0001")
	if again.Tags["env"] == "mutated" || again.Tags["env"] == "mutated-again" || again.Hardware.NetworkCards[0] == "hacked" {
		t.Fatalf("store mutated through server copy: tags=%v nics=%v", again.Tags, again.Hardware.NetworkCards)
	}

	sw, _ := s.Switch("sw-tor-001")
	sw.ConnectedServers[0] = "ghost"
	sw.Ports[0].Status = "ghost"
	sw2, _ := s.Switch("sw-tor-001")
	if sw2.ConnectedServers[0] == "ghost" || sw2.Ports[0].Status == "ghost" {
		t.Fatalf("store mutated through switch copy")
	}

	topo, _ := s.Topology("srv-0001")
	topo.InBand.Path[0] = "ghost"
	topo.UplinkSwitches[0] = "ghost"
	topo2, _ := s.Topology("srv-0001")
	if topo2.InBand.Path[0] == "ghost" || topo2.UplinkSwitches[0] == "ghost" {
		t.Fatalf("store mutated through topology copy")
	}

	attempts := s.InstallAttempts("srv-0020")
	if len(attempts) == 0 {
		t.Fatalf("srv-0020 should have installation logs")
	}
	attempts[0].Entries[0].Message = "ghost"
	attempts[0] = InstallAttempt{}
	if got := s.InstallAttempts("srv-0020"); got[0].ServerID != "srv-0020" || got[0].Entries[0].Message == "ghost" {
		t.Fatalf("store mutated through installation attempts copy")
	}
}

func TestWithInstallAttempts(t *testing.T) {
	details := map[string]any{"disk": "sda"}
	retry := InstallAttempt{
		ServerID:  "srv-0020",
		StartTime: refTime.Add(time.Hour),
		Status:    "failed",
		Entries:   []LogEntry{{Timestamp: refTime.Add(time.Hour), Level: LevelError, Message: "retry failed", Details: details}},
	}
	earlier := InstallAttempt{ServerID: "srv-0020", StartTime: refTime.Add(-72 * time.Hour), Status: "failed"}
	s := New(WithReferenceTime(refTime), WithInstallAttempts(retry, earlier))
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	attempts := s.InstallAttempts("srv-0020")
	if len(attempts) != 3 {
		t.Fatalf("expect 3 attempts, got %d", len(attempts))
	}
	if !attempts[0].StartTime.Equal(earlier.StartTime) || attempts[2].Entries[0].Message != "retry failed" {
		t.Fatalf("attempts not ordered by start time: %v, %v", attempts[0].StartTime, attempts[2].StartTime)
	}

	details["disk"] = "changed"
	attempts[2].Entries[0].Details["disk"] = "changed-too"
	if got := s.InstallAttempts("srv-0020")[2].Entries[0].Details["disk"]; got != "sda" {
		t.Fatalf("details aliased store memory: %v", got)
	}

	bad := New(WithReferenceTime(refTime), WithInstallAttempts(InstallAttempt{ServerID: "srv-9999"}))
	if err := bad.Validate(); err == nil {
		t.Fatalf("expect error for attempt of unknown server")
	}
}
