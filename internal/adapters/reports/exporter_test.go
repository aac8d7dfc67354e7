package reports

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"ixforge/internal/blob"
	"ixforge/internal/core"
)

func waitForTerminal(t *testing.T, e *Exporter, id string) Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		record, ok := e.Get(id)
		if !ok {
			t.Fatalf("record %s vanished", id)
		}
		if record.Status == StatusSucceeded || record.Status == StatusFailed {
			return record
		}
		if time.Now().After(deadline) {
			t.Fatalf("record %s stuck in %s", id, record.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func sampleResult() core.Result {
	return core.Result{
		Removed: core.Ledger{
			"technology": {
				{Keys: map[string]string{"technology": "coal_ppl", "node_loc": "R11_NAM"}, Value: 1.0, Unit: "GWa"},
			},
		},
		Added:      map[string]int{"technology": 1},
		UnitsAdded: []string{"GWa"},
		Merged:     2,
	}
}

func TestExporterProducesArtifacts(t *testing.T) {
	store := blob.NewMemory()
	audit := &MemoryAuditLog{}
	exporter := NewExporter(store, audit)
	exporter.Start()
	defer func() { _ = exporter.Stop(context.Background()) }()

	record, err := exporter.Enqueue(context.Background(), Input{Scenario: "baseline", Result: sampleResult()})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	final := waitForTerminal(t, exporter, record.ID)
	if final.Status != StatusSucceeded {
		t.Fatalf("status = %s (%s)", final.Status, final.Error)
	}
	if len(final.Artifacts) != 2 {
		t.Fatalf("artifacts = %+v", final.Artifacts)
	}

	// The JSON artifact round-trips to the report.
	var jsonKey string
	for _, a := range final.Artifacts {
		if a.Format == FormatJSON {
			jsonKey = a.Key
		}
	}
	if jsonKey == "" {
		t.Fatalf("no json artifact in %+v", final.Artifacts)
	}
	_, rc, err := store.Get(context.Background(), jsonKey)
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	body, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var report Report
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Scenario != "baseline" || report.MergedRows != 2 || len(report.Removed["technology"]) != 1 {
		t.Fatalf("report = %+v", report)
	}

	// Audit trail covers the full lifecycle.
	statuses := map[Status]bool{}
	for _, entry := range audit.Entries() {
		statuses[entry.Status] = true
	}
	for _, want := range []Status{StatusQueued, StatusRunning, StatusSucceeded} {
		if !statuses[want] {
			t.Fatalf("audit missing %s: %+v", want, audit.Entries())
		}
	}
}

func TestExporterRejectsBadInput(t *testing.T) {
	exporter := NewExporter(blob.NewMemory(), nil)
	if _, err := exporter.Enqueue(context.Background(), Input{Scenario: "  "}); err == nil {
		t.Fatalf("expected empty scenario error")
	}
	if _, err := exporter.Enqueue(context.Background(), Input{Scenario: "x", Formats: []Format{"xml"}}); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestRenderCSVIsDeterministic(t *testing.T) {
	report := buildReport(Input{Scenario: "s", Result: core.Result{
		Removed: core.Ledger{
			"output": {
				{Keys: map[string]string{"node_loc": "R11_NAM", "technology": "coal_ppl"}, Value: 1.5, Unit: "GWa"},
			},
		},
	}})
	first, err := renderCSV(report)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := renderCSV(report)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("non-deterministic csv:\n%s\n%s", first, second)
	}
	lines := strings.Split(strings.TrimSpace(string(first)), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv = %q", first)
	}
	if lines[0] != "parameter,keys,value,unit" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "output,node_loc=R11_NAM;technology=coal_ppl,1.5,GWa" {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestExporterGetUnknownID(t *testing.T) {
	exporter := NewExporter(blob.NewMemory(), nil)
	if _, ok := exporter.Get("missing"); ok {
		t.Fatalf("expected miss")
	}
}
