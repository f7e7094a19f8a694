// FILE: trafficview/src/internal/server/cache.go
package server

import (
	"fmt"
	"hash/fnv"
	"sync/atomic"

	"trafficview/src/internal/dataset"

	lru "github.com/hashicorp/golang-lru/v2"
)

// exportCache holds rendered exports. Entries are keyed by dataset
// generation, so a reload never serves a stale body. A nil cache is disabled.
type exportCache struct {
	entries *lru.Cache[string, []byte]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

func newExportCache(size int) *exportCache {
	if size <= 0 {
		return nil
	}
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil
	}
	return &exportCache{entries: entries}
}

func exportKey(generation uint64, format string, kind dataset.ViewKind, cols []string) string {
	h := fnv.New64a()
	for _, c := range cols {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%d/%s/%s/%x", generation, format, kind, h.Sum64())
}

func (c *exportCache) get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	body, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return body, ok
}

func (c *exportCache) add(key string, body []byte) {
	if c == nil {
		return
	}
	c.entries.Add(key, body)
}

func (c *exportCache) stats() map[string]any {
	if c == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled": true,
		"entries": c.entries.Len(),
		"hits":    c.hits.Load(),
		"misses":  c.misses.Load(),
	}
}
