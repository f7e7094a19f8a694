// FILE: trafficview/src/internal/core/range.go
package core

import (
	"fmt"
	"strings"
	"time"
)

// RangeKind selects how object listing is restricted by modification time
type RangeKind string

const (
	RangeUnlimited RangeKind = "unlimited"
	RangeLastHour  RangeKind = "last_hour"
	RangeLastDay   RangeKind = "last_day"
	RangeCustom    RangeKind = "custom"
)

// FetchRange filters objects on LastModified.
// Custom ranges are inclusive at Start and exclusive at End; a zero bound is open.
type FetchRange struct {
	Kind  RangeKind
	Start time.Time
	End   time.Time
}

// ParseRangeKind normalizes a configured range name.
func ParseRangeKind(s string) (RangeKind, error) {
	switch RangeKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", RangeUnlimited, "all":
		return RangeUnlimited, nil
	case RangeLastHour, "1h":
		return RangeLastHour, nil
	case RangeLastDay, "24h":
		return RangeLastDay, nil
	case RangeCustom:
		return RangeCustom, nil
	default:
		return "", fmt.Errorf("unknown fetch range: %s", s)
	}
}

// Contains reports whether t falls inside the range evaluated at now.
func (r FetchRange) Contains(t, now time.Time) bool {
	switch r.Kind {
	case RangeLastHour:
		return !t.Before(now.Add(-time.Hour))
	case RangeLastDay:
		return !t.Before(now.Add(-24 * time.Hour))
	case RangeCustom:
		if !r.Start.IsZero() && t.Before(r.Start) {
			return false
		}
		if !r.End.IsZero() && !t.Before(r.End) {
			return false
		}
		return true
	default:
		return true
	}
}

func (r FetchRange) String() string {
	if r.Kind != RangeCustom {
		return string(r.Kind)
	}
	return fmt.Sprintf("custom[%s,%s)", formatBound(r.Start), formatBound(r.End))
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.UTC().Format(time.RFC3339)
}
