// FILE: trafficview/src/internal/dataset/view.go
package dataset

import "fmt"

type ViewKind string

const (
	ViewAll     ViewKind = "all"
	ViewCurated ViewKind = "curated"
)

// ParseViewKind accepts "", "all" and "curated".
func ParseViewKind(s string) (ViewKind, error) {
	switch ViewKind(s) {
	case "", ViewAll:
		return ViewAll, nil
	case ViewCurated:
		return ViewCurated, nil
	default:
		return "", fmt.Errorf("unknown view: %s", s)
	}
}

// ViewOptions selects the columns a consumer sees
type ViewOptions struct {
	Kind             ViewKind
	Preferred        []string
	MaxColumns       int
	PromotePreferred bool
}

// ResolveColumns returns the column list for opts.
//
// The full view is the discovery order followed by the bookkeeping fields,
// optionally with preferred columns moved to the front, capped at MaxColumns.
// The curated view is the preferred columns the dataset actually has, in
// preferred order; with none present it falls back to the full view.
func (d *Dataset) ResolveColumns(opts ViewOptions) []string {
	all := d.Columns()

	if opts.Kind == ViewCurated {
		var curated []string
		for _, c := range dedupe(opts.Preferred) {
			if d.Has(c) {
				curated = append(curated, c)
			}
		}
		if len(curated) > 0 {
			return curated
		}
	}

	cols := all
	if opts.PromotePreferred && len(opts.Preferred) > 0 {
		cols = promote(all, opts.Preferred)
	}
	if opts.MaxColumns > 0 && len(cols) > opts.MaxColumns {
		cols = cols[:opts.MaxColumns]
	}
	return cols
}

func promote(all, preferred []string) []string {
	present := make(map[string]bool, len(all))
	for _, c := range all {
		present[c] = true
	}

	out := make([]string, 0, len(all))
	used := make(map[string]bool, len(preferred))
	for _, c := range preferred {
		if present[c] && !used[c] {
			out = append(out, c)
			used[c] = true
		}
	}
	for _, c := range all {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
