// FILE: trafficview/src/internal/dataset/dataset.go
package dataset

import (
	"time"

	"trafficview/src/internal/core"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Dataset is the merged, immutable result of one reload. Readers share it
// without locking; a new reload builds a new Dataset.
type Dataset struct {
	Generation  uint64
	BuiltAt     time.Time
	Objects     []core.ObjectRef
	ParseErrors ParseErrorSummary
	Lines       int
	SortField   string

	// Set when seeded from a snapshot instead of a live reload
	Restored bool

	records []*core.Record
	columns []string
}

type ParseErrorSummary struct {
	Count    int                `json:"count"`
	Samples  []ParseErrorSample `json:"samples,omitempty"`
	ByObject map[string]int     `json:"by_object,omitempty"`
}

type ParseErrorSample struct {
	Object string `json:"object"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Empty returns a dataset with no records.
func Empty() *Dataset {
	return &Dataset{}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Record returns record i in presentation order.
func (d *Dataset) Record(i int) *core.Record {
	return d.records[i]
}

// DataColumns returns the discovered data fields in first-seen order.
func (d *Dataset) DataColumns() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.columns...)
}

// Columns returns data fields followed by the bookkeeping fields.
func (d *Dataset) Columns() []string {
	cols := d.DataColumns()
	return append(cols, core.InternalFields...)
}

// Has reports whether name is a column of this dataset.
func (d *Dataset) Has(name string) bool {
	if core.IsInternalField(name) {
		return true
	}
	for _, c := range d.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Row materializes record i against cols. Fields the record lacks are
// present with a nil value.
func (d *Dataset) Row(i int, cols []string) *orderedmap.OrderedMap[string, any] {
	rec := d.records[i]
	row := orderedmap.New[string, any]()
	for _, c := range cols {
		v, _ := rec.Value(c)
		row.Set(c, v)
	}
	return row
}

// Materialize returns every record against cols, in presentation order.
func (d *Dataset) Materialize(cols []string) []*orderedmap.OrderedMap[string, any] {
	rows := make([]*orderedmap.OrderedMap[string, any], d.Len())
	for i := range rows {
		rows[i] = d.Row(i, cols)
	}
	return rows
}

// Restore builds a dataset from previously persisted parts. Records must
// already be in presentation order.
func Restore(generation uint64, builtAt time.Time, columns []string, records []*core.Record, objects []core.ObjectRef, parseErrors ParseErrorSummary) *Dataset {
	return &Dataset{
		Generation:  generation,
		BuiltAt:     builtAt.UTC(),
		Objects:     objects,
		ParseErrors: parseErrors,
		Restored:    true,
		records:     records,
		columns:     append([]string(nil), columns...),
	}
}
