// FILE: trafficview/src/internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// ConnectivityError reports an unreachable store, bad credentials or a
// failed list or download. It aborts the reload.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity error during %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ConfigError reports a missing or invalid setting. It is raised before any fetch.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

// ParseError describes one malformed line. It never aborts a reload.
type ParseError struct {
	Object string `json:"object"`
	Line   int    `json:"line"`
	Err    error  `json:"-"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Object, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SnapshotWriteError reports a failed snapshot. Logged only.
type SnapshotWriteError struct {
	Path string
	Err  error
}

func (e *SnapshotWriteError) Error() string {
	return fmt.Sprintf("snapshot write to %s failed: %v", e.Path, e.Err)
}

func (e *SnapshotWriteError) Unwrap() error { return e.Err }

// ErrorKind classifies err into the reload error taxonomy.
func ErrorKind(err error) string {
	var (
		connErr  *ConnectivityError
		cfgErr   *ConfigError
		parseErr *ParseError
		snapErr  *SnapshotWriteError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &connErr):
		return "connectivity"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &snapErr):
		return "snapshot"
	default:
		return "internal"
	}
}
