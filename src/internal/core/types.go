// FILE: trafficview/src/internal/core/types.go
package core

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ObjectRef identifies one remote log object as listed by a store
type ObjectRef struct {
	Name         string    `json:"name"`
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size"`
}

// Record is one parsed log line. Fields keep the key order of the source line.
// Values are string, json.Number, bool or nil.
type Record struct {
	Fields             *orderedmap.OrderedMap[string, any]
	Source             string
	Line               int
	ObjectLastModified time.Time
}

// Value returns a data field or a bookkeeping field by name.
func (r *Record) Value(name string) (any, bool) {
	switch name {
	case FieldSourceObject:
		return r.Source, true
	case FieldLineNumber:
		return r.Line, true
	case FieldObjectLastModified:
		return r.ObjectLastModified.UTC().Format(time.RFC3339), true
	}
	if r.Fields == nil {
		return nil, false
	}
	return r.Fields.Get(name)
}
