package domain

import "testing"

func TestNewCodeDerivesLabel(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"coal_ppl", "Coal Ppl"},
		{"gas-ct", "Gas Ct"},
		{"electr", "Electr"},
	}
	for _, tc := range cases {
		if got := NewCode(tc.id).Name; got != tc.want {
			t.Fatalf("NewCode(%q).Name = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestCodeLabelFallsBackToID(t *testing.T) {
	c := Code{ID: "coal_ppl"}
	if c.Label() != "coal_ppl" {
		t.Fatalf("Label = %q", c.Label())
	}
	c.Name = "Coal power plant"
	if c.Label() != "Coal power plant" {
		t.Fatalf("Label = %q", c.Label())
	}
}

func TestCodeString(t *testing.T) {
	if got := (Code{ID: "coal_ppl"}).String(); got != "coal_ppl" {
		t.Fatalf("String = %q", got)
	}
	if got := (Code{ID: "coal_ppl", Name: "Coal power plant"}).String(); got != "coal_ppl (Coal power plant)" {
		t.Fatalf("String = %q", got)
	}
}

func TestSpecTotalFor(t *testing.T) {
	spec := Spec{
		Require: SetDelta{"technology": {{ID: "coal_ppl"}}},
		Remove:  SetDelta{"technology": {{ID: "coal_ppl"}}},
		Add:     SetDelta{"technology": {{ID: "gas_ppl"}, {ID: "wind_ppl"}}},
	}
	if got := spec.TotalFor("technology"); got != 4 {
		t.Fatalf("TotalFor = %d", got)
	}
	if got := spec.TotalFor("node"); got != 0 {
		t.Fatalf("unmentioned set TotalFor = %d", got)
	}
}

func TestSpecMergeAppendsInOrder(t *testing.T) {
	a := Spec{Add: SetDelta{"technology": {{ID: "gas_ppl"}}}}
	b := Spec{
		Add:     SetDelta{"technology": {{ID: "wind_ppl"}}, "unit": {{ID: "GWa"}}},
		Require: SetDelta{"node": {{ID: "R11_NAM"}}},
	}
	a.Merge(b)
	tech := a.Add["technology"]
	if len(tech) != 2 || tech[0].ID != "gas_ppl" || tech[1].ID != "wind_ppl" {
		t.Fatalf("merged technology = %+v", tech)
	}
	if len(a.Add["unit"]) != 1 || len(a.Require["node"]) != 1 {
		t.Fatalf("merged spec = %+v", a)
	}
}

func TestSpecCloneIsIndependent(t *testing.T) {
	orig := Spec{Add: SetDelta{"technology": {{ID: "gas_ppl"}}}}
	cp := orig.Clone()
	cp.Add["technology"][0].ID = "mutated"
	cp.Add["node"] = []Code{{ID: "R11_NAM"}}
	if orig.Add["technology"][0].ID != "gas_ppl" {
		t.Fatalf("clone aliased element slice")
	}
	if _, ok := orig.Add["node"]; ok {
		t.Fatalf("clone aliased delta map")
	}
}

func TestCloneParTableIsIndependent(t *testing.T) {
	orig := ParTable{
		Dims: map[string]string{"node_loc": "node"},
		Rows: []ParRow{{Keys: map[string]string{"node_loc": "R11_NAM"}, Value: 1}},
	}
	cp := CloneParTable(orig)
	cp.Dims["node_loc"] = "mutated"
	cp.Rows[0].Keys["node_loc"] = "mutated"
	if orig.Dims["node_loc"] != "node" || orig.Rows[0].Keys["node_loc"] != "R11_NAM" {
		t.Fatalf("clone aliased table: %+v", orig)
	}
}

func TestMissingRequiredElementErrorMessage(t *testing.T) {
	err := MissingRequiredElementError{Set: "technology", Element: "coal_ppl"}
	want := `required element "coal_ppl" not found in set "technology"`
	if err.Error() != want {
		t.Fatalf("Error = %q", err.Error())
	}
}
