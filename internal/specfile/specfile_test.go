package specfile

import (
	"os"
	"path/filepath"
	"testing"
)

const baseSpec = `
[require]
technology = ["coal_ppl"]

[remove]
technology = ["coal_ppl"]

[add]
technology = [{ id = "gas_ppl", name = "Gas power plant" }, "wind_ppl"]
unit = ["GWa"]
`

func TestParse(t *testing.T) {
	spec, err := Parse([]byte(baseSpec))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := spec.Require["technology"]; len(got) != 1 || got[0].ID != "coal_ppl" {
		t.Fatalf("require = %+v", got)
	}
	add := spec.Add["technology"]
	if len(add) != 2 {
		t.Fatalf("add = %+v", add)
	}
	if add[0].ID != "gas_ppl" || add[0].Name != "Gas power plant" {
		t.Fatalf("table element = %+v", add[0])
	}
	if add[1].ID != "wind_ppl" || add[1].Name != "" {
		t.Fatalf("bare element = %+v", add[1])
	}
	if units := spec.Add["unit"]; len(units) != 1 || units[0].ID != "GWa" {
		t.Fatalf("unit = %+v", units)
	}
}

func TestParseRejectsBadElements(t *testing.T) {
	cases := []string{
		"[add]\ntechnology = [\"\"]\n",
		"[add]\ntechnology = [{ name = \"no id\" }]\n",
		"[add]\ntechnology = [42]\n",
	}
	for _, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestLoadGlobMergesInPathOrder(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("10-base.toml", "[add]\ntechnology = [\"gas_ppl\"]\n")
	write("20-extra.toml", "[add]\ntechnology = [\"wind_ppl\"]\nunit = [\"GWa\"]\n")

	spec, err := LoadGlob(filepath.Join(dir, "*.toml"))
	if err != nil {
		t.Fatalf("load glob: %v", err)
	}
	tech := spec.Add["technology"]
	if len(tech) != 2 || tech[0].ID != "gas_ppl" || tech[1].ID != "wind_ppl" {
		t.Fatalf("merged order = %+v", tech)
	}
	if len(spec.Add["unit"]) != 1 {
		t.Fatalf("unit missing after merge")
	}
}

func TestLoadGlobRequiresMatch(t *testing.T) {
	if _, err := LoadGlob(filepath.Join(t.TempDir(), "*.toml")); err == nil {
		t.Fatalf("expected no-match error")
	}
}

func TestLoadGlobDoublestar(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "specs", "power")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "gas.toml"), []byte("[add]\ntechnology = [\"gas_ppl\"]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	spec, err := LoadGlob(filepath.Join(dir, "**", "*.toml"))
	if err != nil {
		t.Fatalf("load glob: %v", err)
	}
	if len(spec.Add["technology"]) != 1 {
		t.Fatalf("nested spec not found: %+v", spec)
	}
}
