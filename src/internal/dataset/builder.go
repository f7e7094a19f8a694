// FILE: trafficview/src/internal/dataset/builder.go
package dataset

import (
	"sort"
	"time"

	"trafficview/src/internal/core"
)

// Builder accumulates records for exactly one Dataset. It is not safe for
// concurrent use; the ingest engine feeds it from one goroutine.
type Builder struct {
	registry        *Registry
	records         []*core.Record
	objects         []core.ObjectRef
	parseErrors     ParseErrorSummary
	lines           int
	timestampFields []string
	built           bool
}

// NewBuilder orders the finished dataset by the first of timestampFields that
// any record carries.
func NewBuilder(timestampFields []string) *Builder {
	return &Builder{
		registry:        NewRegistry(),
		timestampFields: append([]string(nil), timestampFields...),
	}
}

// AddObject appends one object's records and parse errors. Objects must be
// added in merge order.
func (b *Builder) AddObject(ref core.ObjectRef, records []*core.Record, parseErrors []*core.ParseError, lines int) {
	b.objects = append(b.objects, ref)
	b.lines += lines
	for _, rec := range records {
		b.Append(rec)
	}
	for _, pe := range parseErrors {
		b.AddParseError(pe)
	}
}

// Append adds one record and registers its fields.
func (b *Builder) Append(rec *core.Record) {
	if rec == nil {
		return
	}
	b.registry.Observe(rec)
	b.records = append(b.records, rec)
}

// AddParseError counts pe and keeps it as a sample while room remains.
func (b *Builder) AddParseError(pe *core.ParseError) {
	if pe == nil {
		return
	}
	b.parseErrors.Count++
	if b.parseErrors.ByObject == nil {
		b.parseErrors.ByObject = make(map[string]int)
	}
	b.parseErrors.ByObject[pe.Object]++
	if len(b.parseErrors.Samples) < core.MaxParseErrorSamples {
		reason := ""
		if pe.Err != nil {
			reason = pe.Err.Error()
		}
		b.parseErrors.Samples = append(b.parseErrors.Samples, ParseErrorSample{
			Object: pe.Object,
			Line:   pe.Line,
			Reason: reason,
		})
	}
}

// Len returns the number of records appended so far.
func (b *Builder) Len() int {
	return len(b.records)
}

// Build freezes the accumulated records into a Dataset in presentation
// order. The builder must not be used afterwards.
func (b *Builder) Build(generation uint64, builtAt time.Time) *Dataset {
	if b.built {
		panic("dataset: Build called twice")
	}
	b.built = true

	sortField := ""
	for _, f := range b.timestampFields {
		if b.registry.Contains(f) {
			sortField = f
			break
		}
	}
	orderRecords(b.records, sortField)

	return &Dataset{
		Generation:  generation,
		BuiltAt:     builtAt.UTC(),
		Objects:     b.objects,
		ParseErrors: b.parseErrors,
		Lines:       b.lines,
		SortField:   sortField,
		records:     b.records,
		columns:     b.registry.Names(),
	}
}

// orderRecords sorts newest first by field, the same direction as the
// fallback order by object modification time, so the ordering does not
// flip when a timestamp column first appears. Records whose value is
// missing or unparseable go last in their merge order.
func orderRecords(records []*core.Record, field string) {
	if field == "" {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].ObjectLastModified.After(records[j].ObjectLastModified)
		})
		return
	}

	items := make([]keyedRecord, len(records))
	for i, rec := range records {
		v, _ := rec.Value(field)
		t, ok := ParseTimestamp(v)
		items[i] = keyedRecord{rec: rec, t: t, ok: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ok != items[j].ok {
			return items[i].ok
		}
		if !items[i].ok {
			return false
		}
		return items[i].t.After(items[j].t)
	})

	for i := range items {
		records[i] = items[i].rec
	}
}

type keyedRecord struct {
	rec *core.Record
	t   time.Time
	ok  bool
}
