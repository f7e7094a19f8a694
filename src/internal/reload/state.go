// FILE: trafficview/src/internal/reload/state.go
package reload

import (
	"time"

	"trafficview/src/internal/ingest"
	"trafficview/src/internal/snapshot"
)

// Status is the controller's lifecycle state
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// State is an immutable view of the controller. Each transition publishes a
// new value.
type State struct {
	Status        Status        `json:"status"`
	ReloadID      string        `json:"reload_id,omitempty"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	LastSuccess   *time.Time    `json:"last_success,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	LastErrorKind string        `json:"last_error_kind,omitempty"`
	RecordCount   int           `json:"record_count"`
	Duration      time.Duration `json:"duration"`
}

// ReloadResult answers a Reload or Trigger call
type ReloadResult struct {
	Accepted  bool          `json:"accepted"`
	Status    Status        `json:"status"`
	ReloadID  string        `json:"reload_id,omitempty"`
	Records   int           `json:"records,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Cycle records what the last completed reload did
type Cycle struct {
	ReloadID  string           `json:"reload_id"`
	Store     string           `json:"store"`
	Range     string           `json:"range"`
	Listed    int              `json:"listed"`
	InRange   int              `json:"in_range"`
	Selected  int              `json:"selected"`
	Capped    bool             `json:"capped"`
	Ingest    *ingest.Summary  `json:"ingest,omitempty"`
	Snapshot  *snapshot.Result `json:"snapshot,omitempty"`
	Succeeded bool             `json:"succeeded"`
	Finished  time.Time        `json:"finished"`
}

// Stats is the controller's diagnostic summary
type Stats struct {
	State      State  `json:"state"`
	Generation uint64 `json:"generation"`
	Cycles     uint64 `json:"cycles"`
	Failures   uint64 `json:"failures"`
	Rejected   uint64 `json:"rejected"`
	Objects    int    `json:"objects"`
	Columns    int    `json:"columns"`
	Restored   bool   `json:"restored"`
	LastCycle  *Cycle `json:"last_cycle,omitempty"`
}
