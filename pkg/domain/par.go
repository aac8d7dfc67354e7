package domain

import "time"

// ParRow is one parameter observation: a value keyed by structural elements.
// Keys maps a dimension (column) name to the element id it references.
type ParRow struct {
	Keys  map[string]string `json:"keys"`
	Value float64           `json:"value"`
	Unit  string            `json:"unit,omitempty"`
}

// CloneParRow returns a deep copy of the row.
func CloneParRow(r ParRow) ParRow {
	cp := r
	if r.Keys != nil {
		cp.Keys = make(map[string]string, len(r.Keys))
		for k, v := range r.Keys {
			cp.Keys[k] = v
		}
	}
	return cp
}

// CloneParRows returns a deep copy of the slice.
func CloneParRows(rows []ParRow) []ParRow {
	if rows == nil {
		return nil
	}
	out := make([]ParRow, len(rows))
	for i, r := range rows {
		out[i] = CloneParRow(r)
	}
	return out
}

// ParTable holds a parameter's rows plus its dimension schema. Dims maps a
// dimension (column) name to the structural set it indexes; several columns
// may index the same set (e.g. node_loc and node_dest both index "node").
type ParTable struct {
	Dims map[string]string `json:"dims"`
	Rows []ParRow          `json:"rows"`
}

// CloneParTable returns a deep copy of the table.
func CloneParTable(t ParTable) ParTable {
	cp := ParTable{}
	if t.Dims != nil {
		cp.Dims = make(map[string]string, len(t.Dims))
		for k, v := range t.Dims {
			cp.Dims[k] = v
		}
	}
	cp.Rows = CloneParRows(t.Rows)
	return cp
}

// ParData maps parameter name to rows, the shape produced by data callbacks
// and consumed by the merge codec.
type ParData map[string][]ParRow

// Total returns the row count summed over all parameters.
func (d ParData) Total() int {
	n := 0
	for _, rows := range d {
		n += len(rows)
	}
	return n
}

// Unit is a platform-level unit registration: an id plus descriptive text.
type Unit struct {
	ID      string `json:"id"`
	Comment string `json:"comment,omitempty"`
}

// CommitRecord is one durable commit on a scenario store.
type CommitRecord struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}
