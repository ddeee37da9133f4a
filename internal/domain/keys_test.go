package domain

import "testing"

func TestMakeKey(t *testing.T) {
	if got := MakeKey(PrefixServer, "srv-0001"); got != "SRV_srv-0001" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestLabelPattern(t *testing.T) {
	if got := LabelPattern([]string{LabelServer, LabelDevice}); got != ":Device:Server" {
		t.Fatalf("unexpected pattern %s", got)
	}
	if got := LabelPattern(nil); got != "" {
		t.Fatalf("expect empty pattern, got %s", got)
	}
	if JoinLabels([]string{"B", "A"}) != "A:B" {
		t.Fatalf("labels not sorted")
	}
}

func TestCountByLabel(t *testing.T) {
	rows := []NodeRow{
		{Labels: []string{LabelServer, LabelDevice}},
		{Labels: []string{LabelSwitch, LabelDevice}},
		{Labels: []string{LabelRack}},
	}
	if CountByLabel(rows, LabelDevice) != 2 || CountByLabel(rows, LabelRack) != 1 {
		t.Fatalf("unexpected counts")
	}
}
