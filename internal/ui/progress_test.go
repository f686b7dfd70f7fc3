package ui

import (
	"strings"
	"testing"

	"idiomlint/internal/driver"
)

func TestApplyEventTracksFiles(t *testing.T) {
	m := NewProgressModel("idiomlint", []string{"a.json", "b.json"}, nil).(*progressModel)

	m.applyEvent(driver.Event{File: "a.json", Stage: driver.StageIndex, Status: driver.StatusWorking})
	if m.items[0].status != "indexing" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	if got := m.percent(); got != 0.2 {
		t.Fatalf("percent = %v, want 0.2", got)
	}

	m.applyEvent(driver.Event{File: "a.json", Stage: driver.StageCheck, Status: driver.StatusDone, Findings: 3})
	m.applyEvent(driver.Event{File: "b.json", Stage: driver.StageLoad, Status: driver.StatusCached, Findings: 1})
	// a repeated terminal event does not count twice
	m.applyEvent(driver.Event{File: "b.json", Stage: driver.StageLoad, Status: driver.StatusCached, Findings: 1})
	if m.findings != 4 {
		t.Fatalf("findings = %d, want 4", m.findings)
	}
	if got := m.percent(); got != 1.0 {
		t.Fatalf("percent = %v, want 1", got)
	}

	view := m.View()
	if !strings.Contains(view, "a.json (3)") || !strings.Contains(view, "cached") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestApplyEventIgnoresUnknownFile(t *testing.T) {
	m := NewProgressModel("idiomlint", []string{"a.json"}, nil).(*progressModel)
	if cmd := m.applyEvent(driver.Event{File: "zzz", Status: driver.StatusDone}); cmd != nil {
		t.Fatal("unexpected command for an unknown file")
	}
	m.applyEvent(driver.Event{Stage: driver.StageCheck, Status: driver.StatusWorking})
	if m.stageLabel != "checking" {
		t.Fatalf("stage label = %q", m.stageLabel)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}
