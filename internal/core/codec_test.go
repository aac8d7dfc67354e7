package core

import (
	"testing"

	"ixforge/internal/infra/persistence/memory"
	"ixforge/pkg/domain"
)

func codecStore() *memory.Store {
	s := memory.NewStore()
	s.InitSet("technology", "coal_ppl")
	s.InitSet("node", "R11_NAM")
	s.InitPar("output",
		map[string]string{"technology": "technology", "node_loc": "node"},
		domain.ParRow{Keys: map[string]string{"technology": "coal_ppl", "node_loc": "R11_NAM"}, Value: 1.0, Unit: "GWa"},
	)
	return s
}

func TestStripParDataDryRunLeavesStore(t *testing.T) {
	s := codecStore()
	removed, err := StripParData(s, "technology", "coal_ppl", true)
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if removed.Total() != 1 {
		t.Fatalf("expected 1 reported row, got %d", removed.Total())
	}
	rows, err := s.ParData("output", nil)
	if err != nil {
		t.Fatalf("par data: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("dry strip mutated the store")
	}
}

func TestStripParDataRemoves(t *testing.T) {
	s := codecStore()
	if err := s.CheckOut(); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	removed, err := StripParData(s, "technology", "coal_ppl", false)
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if removed.Total() != 1 {
		t.Fatalf("expected 1 removed row, got %d", removed.Total())
	}
	rows, err := s.ParData("output", nil)
	if err != nil {
		t.Fatalf("par data: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows survived the strip: %+v", rows)
	}
}

func TestStripParDataWithoutCheckout(t *testing.T) {
	s := codecStore()
	if _, err := StripParData(s, "technology", "coal_ppl", false); err == nil {
		t.Fatalf("expected checkout error")
	}
}

func TestAddParDataDryRunCountsOnly(t *testing.T) {
	s := codecStore()
	data := domain.ParData{
		"demand": {
			{Keys: map[string]string{"node": "R11_NAM"}, Value: 5, Unit: "GWa"},
			{Keys: map[string]string{"node": "R11_LAM"}, Value: 7, Unit: "GWa"},
		},
	}
	n, err := AddParData(s, data, true)
	if err != nil {
		t.Fatalf("add dry: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d", n)
	}
	if _, err := s.ParData("demand", nil); err == nil {
		t.Fatalf("dry merge created the table")
	}
}

func TestFilterParams(t *testing.T) {
	data := domain.ParData{
		"output":          {{Value: 1}},
		"input":           {{Value: 2}},
		"capacity_factor": {{Value: 3}},
	}
	filtered, err := FilterParams(data, "*put")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("filtered = %+v", filtered)
	}
	if _, ok := filtered["capacity_factor"]; ok {
		t.Fatalf("capacity_factor should not match *put")
	}

	all, err := FilterParams(data, "")
	if err != nil {
		t.Fatalf("empty pattern: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("empty pattern should select everything")
	}

	if _, err := FilterParams(data, "[bad"); err == nil {
		t.Fatalf("expected pattern error")
	}
}

func TestLedgerTotal(t *testing.T) {
	l := Ledger{
		"technology": {{Value: 1}, {Value: 2}},
		"node":       {{Value: 3}},
	}
	if l.TotalRemoved() != 3 {
		t.Fatalf("total = %d", l.TotalRemoved())
	}
}
