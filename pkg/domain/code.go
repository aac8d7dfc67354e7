package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Code identifies a structural-set element. A bare identifier is a Code with
// an empty Name; richer elements carry a human-readable Name alongside the
// id. Code values are immutable once constructed.
type Code struct {
	ID   string `json:"id" toml:"id"`
	Name string `json:"name,omitempty" toml:"name"`
}

// NewCode returns a Code whose Name is derived from the id: underscores and
// hyphens become spaces and words are title-cased ("coal_ppl" -> "Coal Ppl").
func NewCode(id string) Code {
	return Code{ID: id, Name: labelFromID(id)}
}

// Key returns the effective identifier used when the element is written to a
// structural set.
func (c Code) Key() string { return c.ID }

// Label returns the display name, falling back to the id when no name was
// provided.
func (c Code) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// String implements fmt.Stringer for log lines.
func (c Code) String() string {
	if c.Name != "" && c.Name != c.ID {
		return c.ID + " (" + c.Name + ")"
	}
	return c.ID
}

var titleCaser = cases.Title(language.English)

func labelFromID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-'
	})
	return titleCaser.String(strings.Join(words, " "))
}

// SetDelta maps a structural-set name to an ordered sequence of elements.
// Order is significant for reproducible logging, not for correctness.
type SetDelta map[string][]Code

// Count returns the number of elements the delta holds for the named set.
func (d SetDelta) Count(set string) int { return len(d[set]) }

// Sets returns the set names mentioned by the delta, in unspecified order.
func (d SetDelta) Sets() []string {
	out := make([]string, 0, len(d))
	for name := range d {
		out = append(out, name)
	}
	return out
}

// clone returns a deep copy of the delta.
func (d SetDelta) clone() SetDelta {
	if d == nil {
		return nil
	}
	out := make(SetDelta, len(d))
	for name, codes := range d {
		out[name] = append([]Code(nil), codes...)
	}
	return out
}

// Spec is a structural migration: elements that must already exist, elements
// to remove together with their dependent parameter data, and elements to
// add. A Spec is constructed once per migration and read-only afterwards.
type Spec struct {
	Require SetDelta `json:"require" toml:"require"`
	Remove  SetDelta `json:"remove" toml:"remove"`
	Add     SetDelta `json:"add" toml:"add"`
}

// TotalFor returns the combined element count across require/remove/add for
// the named set. A zero total means the set is not mentioned by the spec.
func (s Spec) TotalFor(set string) int {
	return s.Require.Count(set) + s.Remove.Count(set) + s.Add.Count(set)
}

// Clone returns a deep copy of the spec.
func (s Spec) Clone() Spec {
	return Spec{
		Require: s.Require.clone(),
		Remove:  s.Remove.clone(),
		Add:     s.Add.clone(),
	}
}

// Merge appends the entries of other onto s, preserving order within each
// delta. Used when a migration is assembled from several spec files.
func (s *Spec) Merge(other Spec) {
	s.Require = mergeDelta(s.Require, other.Require)
	s.Remove = mergeDelta(s.Remove, other.Remove)
	s.Add = mergeDelta(s.Add, other.Add)
}

func mergeDelta(dst, src SetDelta) SetDelta {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(SetDelta, len(src))
	}
	for name, codes := range src {
		dst[name] = append(dst[name], codes...)
	}
	return dst
}
