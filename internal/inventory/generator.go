package inventory

import (
	"fmt"
	"time"
)

var (
	regions = []string{"cn-north", "cn-south"}
	zones   = []string{"az1", "az2"}
	rooms   = []string{"room-01", "room-02", "room-03"}
	racks   = []string{"rack-A01", "rack-A02", "rack-B01", "rack-B02"}
)

const (
	serversPerRack  = 10
	portsPerSwitch  = 48
	portsUp         = 20
	portSpeedGbps   = 10
	switchModel     = "Cisco Nexus 9300"
	switchActive    = "active"
	installStatusKO = "failed"
)

// 固定故障场景：所有区域、可用区下 room-01 的 rack-A02 整柜带外断连，模拟上联交换机端口故障。
const (
	FaultRoom   = "room-01"
	FaultRack   = "rack-A02"
	FaultReason = "rack uplink switch port failure"
	BMCFault    = "BMC NIC failure"
)

// 装机失败摘要中的分类标记，供根因匹配使用。
const (
	MarkerHardware = "hardware fault"
	MarkerNetwork  = "network configuration error"
	MarkerSoftware = "software configuration error"
)

type generator struct {
	s   *Store
	now time.Time
}

func newGenerator(s *Store) *generator {
	return &generator{s: s, now: s.asOf}
}

func (g *generator) run() {
	g.buildSwitches()
	g.buildServers()
}

func (g *generator) buildSwitches() {
	seq := 1
	for _, region := range regions {
		for _, az := range zones {
			for _, room := range rooms {
				for _, rack := range racks {
					id := torID(seq)
					ports := make([]Port, 0, portsPerSwitch)
					for n := 1; n <= portsPerSwitch; n++ {
						status := "down"
						if n <= portsUp {
							status = "up"
						}
						ports = append(ports, Port{
							ID:        fmt.Sprintf("%s-port-%d", id, n),
							Number:    n,
							Status:    status,
							SpeedGbps: portSpeedGbps,
						})
					}
					g.s.switches[id] = &Switch{
						ID:     id,
						Name:   fmt.Sprintf("ToR-%s-%s-%s-%s", region, az, room, rack),
						Model:  switchModel,
						Status: switchActive,
						Location: Location{
							Region:           region,
							AvailabilityZone: az,
							Room:             room,
							RackID:           rack,
						},
						Ports:            ports,
						ConnectedServers: []string{},
						UplinkSwitch:     AggSwitchID(region, az, room),
					}
					g.s.switchOrder = append(g.s.switchOrder, id)
					seq++
				}
			}
		}
	}
}

func (g *generator) buildServers() {
	seq := 1
	for _, region := range regions {
		for _, az := range zones {
			for _, room := range rooms {
				for _, rack := range racks {
					for pos := 1; pos <= serversPerRack; pos++ {
						loc := Location{
							Region:           region,
							AvailabilityZone: az,
							Room:             room,
							RackID:           rack,
							RackPosition:     pos,
						}
						g.addServer(seq, loc)
						seq++
					}
				}
			}
		}
	}
}

func (g *generator) addServer(seq int, loc Location) {
	id := fmt.Sprintf("srv-%04d", seq)
	status := statusFor(seq)

	g.s.servers[id] = &Server{
		ID:        id,
		Hostname:  fmt.Sprintf("server-%s-%s-%s-%04d", loc.Region, loc.AvailabilityZone, loc.Room, seq),
		Status:    status,
		IPAddress: fmt.Sprintf("10.%d.%d.%d", int(loc.Region[len(loc.Region)-1])%256, seq/256, seq%256),
		Hardware: Hardware{
			CPUModel:     "Intel Xeon Gold 6248R",
			CPUCores:     48,
			MemoryGB:     256,
			DiskGB:       2000,
			NetworkCards: []string{"eth0", "eth1", "eth2", "eth3"},
		},
		Location:  loc,
		CreatedAt: g.now.Add(-time.Duration(1+(seq*37)%365) * 24 * time.Hour),
		UpdatedAt: g.now.Add(-time.Duration(1+(seq*13)%72) * time.Hour),
		Tags:      map[string]string{"env": "prod", "tier": "compute"},
	}
	g.s.serverOrder = append(g.s.serverOrder, id)

	tor := torID((seq-1)/serversPerRack + 1)
	g.s.topologies[id] = g.topology(id, seq, tor, loc)

	if status == StatusInstallFailed {
		g.s.installLogs[id] = []InstallAttempt{g.installAttempt(id, seq)}
	}

	if sw, ok := g.s.switches[tor]; ok {
		sw.ConnectedServers = append(sw.ConnectedServers, id)
		if idx := (loc.RackPosition - 1) % portsPerSwitch; idx < len(sw.Ports) {
			sw.Ports[idx].ConnectedDevice = id
		}
	}
}

func (g *generator) topology(id string, seq int, tor string, loc Location) *Topology {
	oob := Connectivity{Connected: true, LastCheck: g.now}
	switch {
	case loc.Room == FaultRoom && loc.RackID == FaultRack:
		oob.Connected = false
		oob.FailureReason = FaultReason
	case seq%30 == 0:
		oob.Connected = false
		oob.FailureReason = BMCFault
	}

	oobPath := NetworkPath{
		Path:   []string{id + "-bmc", tor + "-oob", "sw-oob-" + loc.Room, "sw-oob-core"},
		Status: Connected,
	}
	if !oob.Connected {
		oobPath.Status = Disconnected
		oobPath.LastHopReachable = tor + "-oob"
	}

	return &Topology{
		ServerID: id,
		Location: loc,
		InBand: NetworkPath{
			Path:   []string{id, tor, fmt.Sprintf("sw-agg-%s-%s", loc.Region, loc.AvailabilityZone), "sw-core-" + loc.Region},
			Status: Connected,
		},
		OutOfBand:             oobPath,
		UplinkSwitches:        []string{tor},
		InBandConnectivity:    Connectivity{Connected: true, LastCheck: g.now},
		OutOfBandConnectivity: oob,
	}
}

func (g *generator) installAttempt(id string, seq int) InstallAttempt {
	start := g.now.Add(-2 * time.Hour)
	at := func(min int) time.Time {
		return start.Add(time.Duration(min) * time.Minute)
	}
	entries := []LogEntry{{
		Timestamp: start,
		Level:     LevelInfo,
		Message:   "server installation started",
		Component: "installer",
	}}

	var summary string
	switch {
	case seq%40 == 0:
		entries = append(entries,
			LogEntry{
				Timestamp: at(5),
				Level:     LevelError,
				Message:   "disk detection failed: /dev/sda not found",
				Component: "disk-check",
				Details:   map[string]any{"expected_disks": 4, "found_disks": 3},
			},
			LogEntry{
				Timestamp: at(6),
				Level:     LevelError,
				Message:   "hardware check failed, installation aborted",
				Component: "installer",
			},
		)
		summary = MarkerHardware + ": disk missing"
	case seq%60 == 0:
		// 60 的倍数同时是 15 的倍数，默认数据里这个分支不会命中。
		entries = append(entries,
			LogEntry{
				Timestamp: at(10),
				Level:     LevelError,
				Message:   "network setup failed: DHCP request timeout",
				Component: "network-setup",
				Details:   map[string]any{"interface": "eth0", "timeout": 30},
			},
			LogEntry{
				Timestamp: at(11),
				Level:     LevelError,
				Message:   "unable to obtain IP address, installation failed",
				Component: "installer",
			},
		)
		summary = MarkerNetwork + ": DHCP failure"
	default:
		entries = append(entries, LogEntry{
			Timestamp: at(20),
			Level:     LevelError,
			Message:   "package installation failed: dependency conflict",
			Component: "package-installer",
			Details:   map[string]any{"package": "kernel-5.10", "conflict": "kernel-headers"},
		})
		summary = MarkerSoftware + ": package dependency conflict"
	}

	return InstallAttempt{
		ServerID:     id,
		StartTime:    start,
		EndTime:      at(30),
		Status:       installStatusKO,
		Entries:      entries,
		ErrorSummary: summary,
	}
}

func statusFor(seq int) ServerStatus {
	switch {
	case seq%15 == 0:
		return StatusOffline
	case seq%20 == 0:
		return StatusInstallFailed
	case seq%25 == 0:
		return StatusMaintenance
	default:
		return StatusOnline
	}
}

func torID(seq int) string {
	return fmt.Sprintf("sw-tor-%03d", seq)
}

// AggSwitchID 返回机房汇聚交换机 ID，ToR 交换机的上联。
func AggSwitchID(region, az, room string) string {
	return fmt.Sprintf("sw-agg-%s-%s-%s", region, az, room)
}
