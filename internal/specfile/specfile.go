// Package specfile loads structural migration specs from TOML documents.
//
// A spec file carries up to three tables keyed by set name:
//
//	[require]
//	technology = ["coal_ppl"]
//
//	[remove]
//	technology = ["coal_ppl"]
//
//	[add]
//	technology = [{ id = "gas_ppl", name = "Gas power plant" }]
//	unit = ["GWa"]
//
// Elements are either bare strings or inline tables with id and name.
package specfile

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"ixforge/pkg/domain"
)

type element struct {
	code domain.Code
}

// UnmarshalTOML accepts a bare string or an {id, name} table.
func (e *element) UnmarshalTOML(v interface{}) error {
	switch t := v.(type) {
	case string:
		if t == "" {
			return fmt.Errorf("empty element id")
		}
		e.code = domain.Code{ID: t}
		return nil
	case map[string]interface{}:
		id, _ := t["id"].(string)
		if id == "" {
			return fmt.Errorf("element table missing id")
		}
		name, _ := t["name"].(string)
		e.code = domain.Code{ID: id, Name: name}
		return nil
	default:
		return fmt.Errorf("element must be a string or a table, got %T", v)
	}
}

type document struct {
	Require map[string][]element `toml:"require"`
	Remove  map[string][]element `toml:"remove"`
	Add     map[string][]element `toml:"add"`
}

func toDelta(in map[string][]element) domain.SetDelta {
	if len(in) == 0 {
		return nil
	}
	out := make(domain.SetDelta, len(in))
	for set, elems := range in {
		codes := make([]domain.Code, 0, len(elems))
		for _, e := range elems {
			codes = append(codes, e.code)
		}
		out[set] = codes
	}
	return out
}

// Load reads one spec file.
func Load(path string) (domain.Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Spec{}, err
	}
	return Parse(raw)
}

// Parse decodes a TOML spec document.
func Parse(raw []byte) (domain.Spec, error) {
	var doc document
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return domain.Spec{}, fmt.Errorf("parse spec: %w", err)
	}
	return domain.Spec{
		Require: toDelta(doc.Require),
		Remove:  toDelta(doc.Remove),
		Add:     toDelta(doc.Add),
	}, nil
}

// Glob expands a doublestar pattern to spec file paths, sorted for
// deterministic merge order.
func Glob(pattern string) ([]string, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadGlob loads every spec file matching pattern and merges them in path
// order. At least one file must match.
func LoadGlob(pattern string) (domain.Spec, error) {
	paths, err := Glob(pattern)
	if err != nil {
		return domain.Spec{}, err
	}
	if len(paths) == 0 {
		return domain.Spec{}, fmt.Errorf("no spec files match %s", pattern)
	}
	var merged domain.Spec
	for _, path := range paths {
		spec, err := Load(path)
		if err != nil {
			return domain.Spec{}, fmt.Errorf("%s: %w", path, err)
		}
		merged.Merge(spec)
	}
	return merged, nil
}
