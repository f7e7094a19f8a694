// FILE: trafficview/src/internal/objstore/lister.go
package objstore

import (
	"context"
	"sort"
	"time"

	"trafficview/src/internal/core"
)

// Selection is the outcome of one listing pass
type Selection struct {
	Objects  []core.ObjectRef
	Listed   int
	InRange  int
	Capped   bool
	Range    core.FetchRange
	ListedAt time.Time
}

// Select lists store, keeps objects inside rng, orders them newest first
// (name ascending on ties) and keeps at most maxObjects (0 = all).
func Select(ctx context.Context, store Store, rng core.FetchRange, maxObjects int, now time.Time) (*Selection, error) {
	refs, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	sel := &Selection{
		Listed:   len(refs),
		Range:    rng,
		ListedAt: now,
	}

	kept := refs[:0:0]
	for _, ref := range refs {
		if rng.Contains(ref.LastModified, now) {
			kept = append(kept, ref)
		}
	}
	sel.InRange = len(kept)

	SortNewestFirst(kept)

	if maxObjects > 0 && len(kept) > maxObjects {
		kept = kept[:maxObjects]
		sel.Capped = true
	}
	sel.Objects = kept

	return sel, nil
}

// SortNewestFirst orders refs by LastModified descending, then name ascending.
func SortNewestFirst(refs []core.ObjectRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if !refs[i].LastModified.Equal(refs[j].LastModified) {
			return refs[i].LastModified.After(refs[j].LastModified)
		}
		return refs[i].Name < refs[j].Name
	})
}

// SortOldestFirst orders refs by LastModified ascending, then name ascending.
// This is the merge order for datasets.
func SortOldestFirst(refs []core.ObjectRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if !refs[i].LastModified.Equal(refs[j].LastModified) {
			return refs[i].LastModified.Before(refs[j].LastModified)
		}
		return refs[i].Name < refs[j].Name
	})
}
