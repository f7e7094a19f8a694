// FILE: trafficview/src/internal/dataset/registry.go
package dataset

import "trafficview/src/internal/core"

// Registry is the append-only set of data field names seen during one build,
// in first-seen order. Bookkeeping fields are never registered here.
type Registry struct {
	names []string
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add registers name if unseen and reports whether it was new.
func (r *Registry) Add(name string) bool {
	if _, ok := r.index[name]; ok {
		return false
	}
	r.index[name] = len(r.names)
	r.names = append(r.names, name)
	return true
}

// Observe registers every field of rec in the record's own order and
// returns how many were new.
func (r *Registry) Observe(rec *core.Record) int {
	if rec == nil || rec.Fields == nil {
		return 0
	}
	added := 0
	for pair := rec.Fields.Oldest(); pair != nil; pair = pair.Next() {
		if r.Add(pair.Key) {
			added++
		}
	}
	return added
}

func (r *Registry) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

func (r *Registry) Len() int {
	return len(r.names)
}

// Names returns a copy of the registered names.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
