package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPromMetricsRecorderObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPromMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Observe(context.Background(), "apply", true, 20*time.Millisecond)
	rec.Observe(context.Background(), "apply", false, 5*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond) // ignored

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := map[string]bool{}
	for _, mf := range families {
		byName[mf.GetName()] = true
		if mf.GetName() == "ixforge_migration_runs_total" {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			if total != 2 {
				t.Fatalf("runs_total = %v", total)
			}
		}
	}
	if !byName["ixforge_migration_duration_seconds"] || !byName["ixforge_migration_runs_total"] {
		t.Fatalf("missing collectors, gathered %v", byName)
	}
}

func TestPromMetricsRecorderDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromMetricsRecorder(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := NewPromMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
