// FILE: trafficview/src/cmd/trafficview/watcher_test.go
package main

import (
	"testing"
	"time"

	"trafficview/src/internal/config"
	"trafficview/src/internal/reload"

	"github.com/stretchr/testify/assert"
)

func TestScopeOf(t *testing.T) {
	tests := []struct {
		path     string
		expected changeScope
	}{
		{"storage.container", scopeSource},
		{"fetch.range", scopeSource},
		{"view.default_view", scopeView},
		{"snapshot.keep", scopeView},
		{"server.port", scopeRestart},
		{"logging.level", scopeRestart},
		{"quiet", scopeNone},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, scopeOf(tc.path))
		})
	}
}

func TestSourceChanged(t *testing.T) {
	base := config.Default()

	same := base.Clone()
	same.View.DefaultView = "curated"
	assert.False(t, sourceChanged(base, same))

	container := base.Clone()
	container.Storage.Container = "other"
	assert.True(t, sourceChanged(base, container))

	rng := base.Clone()
	rng.Fetch.Range = "last_hour"
	assert.True(t, sourceChanged(base, rng))
}

func TestStatusFields(t *testing.T) {
	now := time.Date(2025, 9, 20, 4, 0, 0, 0, time.UTC)
	success := now.Add(-5 * time.Minute)

	fields := statusFields(reload.Stats{
		State: reload.State{
			Status:        reload.StatusError,
			LastSuccess:   &success,
			LastError:     "connectivity error during list: timeout",
			LastErrorKind: "connectivity",
			RecordCount:   42,
		},
		Generation: 3,
	}, now)

	kv := make(map[string]any)
	for i := 0; i+1 < len(fields); i += 2 {
		kv[fields[i].(string)] = fields[i+1]
	}

	assert.Equal(t, "Status report", kv["msg"])
	assert.Equal(t, reload.StatusError, kv["status"])
	assert.Equal(t, 42, kv["records"])
	assert.Equal(t, uint64(3), kv["generation"])
	assert.Equal(t, "5 minutes ago", kv["last_success"])
	assert.Equal(t, "connectivity", kv["last_error_kind"])
	assert.NotContains(t, kv, "restored")
}
