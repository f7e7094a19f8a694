// FILE: trafficview/src/cmd/trafficview/status.go
package main

import (
	"context"
	"time"

	"trafficview/src/internal/reload"

	"github.com/dustin/go-humanize"
)

// Periodically logs controller status
func statusReporter(ctx context.Context, controller *reload.Controller, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("msg", "Panic in status reporter",
							"component", "status_reporter",
							"panic", r)
					}
				}()

				logger.Info(statusFields(controller.Stats(), time.Now())...)
			}()
		}
	}
}

func statusFields(stats reload.Stats, now time.Time) []any {
	fields := []any{
		"msg", "Status report",
		"component", "status_reporter",
		"status", stats.State.Status,
		"generation", stats.Generation,
		"records", stats.State.RecordCount,
		"objects", stats.Objects,
		"columns", stats.Columns,
		"cycles", stats.Cycles,
		"failures", stats.Failures,
		"rejected", stats.Rejected,
	}

	if stats.State.LastSuccess != nil {
		fields = append(fields, "last_success", humanize.RelTime(*stats.State.LastSuccess, now, "ago", "from now"))
	}
	if stats.State.LastError != "" {
		fields = append(fields,
			"last_error", stats.State.LastError,
			"last_error_kind", stats.State.LastErrorKind)
	}
	if stats.Restored {
		fields = append(fields, "restored", true)
	}

	return fields
}
