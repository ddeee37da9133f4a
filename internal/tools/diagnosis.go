package tools

import (
	"fmt"
	"strings"

	"czagent/internal/inventory"
)

const (
	RootCauseUnknown        = "unknown"
	RootCauseHardware       = "hardware fault"
	RootCauseNetwork        = "network configuration issue"
	RootCauseSoftware       = "software dependency issue"
	RootCauseInfrastructure = "likely infrastructure issue"

	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

type category struct {
	marker          string
	rootCause       string
	recommendations []string
}

// 按顺序匹配，第一个命中的标记决定根因。
var categories = []category{
	{
		marker:    inventory.MarkerHardware,
		rootCause: RootCauseHardware,
		recommendations: []string{
			"Contact the hardware vendor to replace the faulty part",
			"Run hardware diagnostics to identify the failing component",
			"Check the server against the hardware compatibility list",
		},
	},
	{
		marker:    inventory.MarkerNetwork,
		rootCause: RootCauseNetwork,
		recommendations: []string{
			"Check DHCP server configuration and availability",
			"Verify the VLAN configuration",
			"Check the switch port configuration",
			"Confirm the network cable is connected",
		},
	},
	{
		marker:    inventory.MarkerSoftware,
		rootCause: RootCauseSoftware,
		recommendations: []string{
			"Update the package repository sources",
			"Check package version compatibility",
			"Clean the package cache and retry",
			"Switch to a backup package mirror",
		},
	},
}

// DefaultNextSteps 综合诊断给出的后续步骤。
var DefaultNextSteps = []string{
	"Apply the recommended fixes",
	"Retry the installation",
	"Contact technical support if the problem persists",
}

func (s *Service) analyze(srv inventory.Server) *FailureAnalysis {
	out := &FailureAnalysis{
		ServerID:     srv.ID,
		AnalysisTime: s.store.AsOf(),
		ServerStatus: srv.Status,
	}

	if attempts := s.store.InstallAttempts(srv.ID); len(attempts) > 0 {
		latest := attempts[len(attempts)-1]
		out.ErrorSummary = latest.ErrorSummary
		errs := latest.Errors()
		out.ErrorCount = len(errs)
		if len(errs) > 0 {
			out.FirstError = errs[0].Message
		}
	}

	topo, hasTopo := s.store.Topology(srv.ID)
	if hasTopo {
		out.NetworkStatus = &NetworkStatus{
			InBand:    connectivity(topo.InBandConnectivity.Connected),
			OutOfBand: connectivity(topo.OutOfBandConnectivity.Connected),
		}
		out.OOBFailureReason = topo.OutOfBandConnectivity.FailureReason
		if len(topo.UplinkSwitches) > 0 {
			if sw, ok := s.store.Switch(topo.UplinkSwitches[0]); ok {
				out.UplinkSwitch = &UplinkStatus{SwitchID: sw.ID, Status: sw.Status}
			}
		}
	}

	rootCause := RootCauseUnknown
	var recs []string
	for _, c := range categories {
		if out.ErrorSummary != "" && strings.Contains(out.ErrorSummary, c.marker) {
			rootCause = c.rootCause
			recs = append(recs, c.recommendations...)
			break
		}
	}

	var related []string
	if hasTopo {
		out.Rack = s.aggregateRack(topo.Location.RackID, ScopeOf(topo.Location))
		if out.Rack != nil && out.Rack.Alert != "" {
			recs = append([]string{"Attention: " + out.Rack.Alert, out.Rack.RecommendedAction}, recs...)
			rootCause = RootCauseInfrastructure
			for _, peer := range out.Rack.Servers {
				if peer.ID == srv.ID || peer.OutOfBandConnected {
					continue
				}
				related = append(related, fmt.Sprintf("%s: out-of-band disconnected (%s)", peer.ID, peer.FailureReason))
			}
		}
	}

	confidence := ConfidenceLow
	if len(recs) > 0 {
		confidence = ConfidenceHigh
	}
	out.Diagnosis = Diagnosis{
		RootCause:       rootCause,
		Confidence:      confidence,
		Recommendations: nonNil(recs),
		NextSteps:       append([]string(nil), DefaultNextSteps...),
		RelatedIssues:   related,
	}
	return out
}

func connectivity(ok bool) inventory.ConnectivityStatus {
	if ok {
		return inventory.Connected
	}
	return inventory.Disconnected
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
