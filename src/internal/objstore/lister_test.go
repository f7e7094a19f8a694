// FILE: trafficview/src/internal/objstore/lister_test.go
package objstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"trafficview/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)

func names(refs []core.ObjectRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}

func TestSelect_CapKeepsMostRecent(t *testing.T) {
	store := NewMemoryStore()
	for i := 0; i < 10; i++ {
		store.Put(fmt.Sprintf("log-%02d.ndjson", i), now.Add(-time.Duration(10-i)*time.Minute), []byte("{}\n"))
	}

	sel, err := Select(context.Background(), store, core.FetchRange{Kind: core.RangeUnlimited}, 3, now)
	require.NoError(t, err)

	assert.Equal(t, []string{"log-09.ndjson", "log-08.ndjson", "log-07.ndjson"}, names(sel.Objects))
	assert.Equal(t, 10, sel.Listed)
	assert.Equal(t, 10, sel.InRange)
	assert.True(t, sel.Capped)
}

func TestSelect_ZeroCapIsUnlimited(t *testing.T) {
	store := NewMemoryStore()
	for i := 0; i < 5; i++ {
		store.Put(fmt.Sprintf("o%d", i), now.Add(-time.Duration(i)*time.Hour), nil)
	}

	sel, err := Select(context.Background(), store, core.FetchRange{Kind: core.RangeUnlimited}, 0, now)
	require.NoError(t, err)
	assert.Len(t, sel.Objects, 5)
	assert.False(t, sel.Capped)
}

func TestSelect_CustomRangeBoundaries(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	store.Put("at-start", start, nil)
	store.Put("at-end", end, nil)
	store.Put("inside", start.Add(time.Hour), nil)
	store.Put("before", start.Add(-time.Second), nil)

	sel, err := Select(context.Background(), store, core.FetchRange{Kind: core.RangeCustom, Start: start, End: end}, 0, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"inside", "at-start"}, names(sel.Objects))
}

func TestSelect_LastHour(t *testing.T) {
	store := NewMemoryStore()
	store.Put("fresh", now.Add(-10*time.Minute), nil)
	store.Put("stale", now.Add(-2*time.Hour), nil)

	sel, err := Select(context.Background(), store, core.FetchRange{Kind: core.RangeLastHour}, 0, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, names(sel.Objects))
}

func TestSelect_TiesBreakByName(t *testing.T) {
	store := NewMemoryStore()
	store.Put("b", now, nil)
	store.Put("a", now, nil)
	store.Put("c", now.Add(-time.Minute), nil)

	sel, err := Select(context.Background(), store, core.FetchRange{}, 2, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(sel.Objects))
}

func TestSelect_ListFailureIsConnectivity(t *testing.T) {
	store := NewMemoryStore()
	store.ListErr = errors.New("dial tcp: no route to host")

	_, err := Select(context.Background(), store, core.FetchRange{}, 0, now)
	require.Error(t, err)

	var connErr *core.ConnectivityError
	assert.True(t, errors.As(err, &connErr))
}

func TestSortOldestFirst(t *testing.T) {
	refs := []core.ObjectRef{
		{Name: "z", LastModified: now},
		{Name: "b", LastModified: now.Add(-time.Hour)},
		{Name: "a", LastModified: now},
	}
	SortOldestFirst(refs)
	assert.Equal(t, []string{"b", "a", "z"}, names(refs))
}
