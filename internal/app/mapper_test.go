package app

import (
	"testing"
	"time"

	"czagent/internal/domain"
	"czagent/internal/inventory"
)

func TestBuildGraphRowsShape(t *testing.T) {
	store := inventory.New(inventory.WithReferenceTime(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)))
	nodes, rels := BuildGraphRows(store, "r1")

	counts := map[string]int{
		domain.LabelRoom:   12,
		domain.LabelRack:   48,
		domain.LabelSwitch: 60,
		domain.LabelServer: 480,
		domain.LabelDevice: 540,
	}
	for label, want := range counts {
		if got := domain.CountByLabel(nodes, label); got != want {
			t.Fatalf("%s: expect %d nodes, got %d", label, want, got)
		}
	}

	byType := map[string]int{}
	for _, r := range rels {
		byType[r.Type]++
		if r.RunID != "r1" {
			t.Fatalf("rel missing run id: %+v", r)
		}
	}
	if byType[domain.RelHasRack] != 48 || byType[domain.RelHasSwitch] != 60 || byType[domain.RelConnected] != 480 {
		t.Fatalf("unexpected rel counts %v", byType)
	}

	keys := map[string]struct{}{}
	for _, n := range nodes {
		if _, dup := keys[n.AssetKey]; dup {
			t.Fatalf("duplicate asset key %s", n.AssetKey)
		}
		keys[n.AssetKey] = struct{}{}
		if n.Properties[contentHashKey] == "" {
			t.Fatalf("node %s missing content hash", n.AssetKey)
		}
		if !n.UpdatedAt.Equal(store.AsOf()) {
			t.Fatalf("node %s updated_at not pinned to snapshot time", n.AssetKey)
		}
	}
	for _, r := range rels {
		if _, ok := keys[r.StartKey]; !ok {
			t.Fatalf("dangling start %s", r.StartKey)
		}
		if _, ok := keys[r.EndKey]; !ok {
			t.Fatalf("dangling end %s", r.EndKey)
		}
	}
}

func TestBuildGraphRowsFaultServer(t *testing.T) {
	nodes, rels := BuildGraphRows(inventory.New(), "r1")
	key := domain.MakeKey(domain.PrefixServer, "srv-0020")
	var found bool
	for _, n := range nodes {
		if n.AssetKey != key {
			continue
		}
		found = true
		if n.Properties["oob_connected"] != false || n.Properties["status"] != string(inventory.StatusInstallFailed) {
			t.Fatalf("unexpected props %v", n.Properties)
		}
	}
	if !found {
		t.Fatalf("srv-0020 not exported")
	}
	for _, r := range rels {
		if r.Type == domain.RelConnected && r.EndKey == key && r.Properties["port_number"] != 10 {
			t.Fatalf("srv-0020 should be on port 10, got %v", r.Properties["port_number"])
		}
	}
}

func TestBuildGraphRowsStableHash(t *testing.T) {
	ref := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	a, _ := BuildGraphRows(inventory.New(inventory.WithReferenceTime(ref)), "r1")
	b, _ := BuildGraphRows(inventory.New(inventory.WithReferenceTime(ref)), "r2")
	for i := range a {
		if a[i].Properties[contentHashKey] != b[i].Properties[contentHashKey] {
			t.Fatalf("hash of %s changed between runs", a[i].AssetKey)
		}
	}
}

func TestNewRunID(t *testing.T) {
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.FixedZone("CST", 8*3600))
	if got := NewRunID(ts); got != "20240601T000000Z" {
		t.Fatalf("unexpected run id %s", got)
	}
}
