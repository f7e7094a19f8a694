// FILE: trafficview/src/internal/dataset/timestamp.go
package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layouts tried in order; values without a zone are taken as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05Z0700",
	"02/Jan/2006:15:04:05 -0700",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// ParseTimestamp interprets a field value as an instant. Strings are tried
// against common layouts, numbers as Unix epochs with the unit inferred from
// magnitude.
func ParseTimestamp(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case string:
		return parseTimestampString(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f)
	case float64:
		return fromEpoch(val)
	case int:
		return fromEpoch(float64(val))
	case int64:
		return fromEpoch(float64(val))
	case time.Time:
		return val.UTC(), !val.IsZero()
	default:
		return time.Time{}, false
	}
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f)
	}
	return time.Time{}, false
}

func fromEpoch(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}, false
	}
	abs := math.Abs(f)
	switch {
	case abs >= 1e17:
		return time.Unix(0, int64(f)).UTC(), true
	case abs >= 1e14:
		return time.UnixMicro(int64(f)).UTC(), true
	case abs >= 1e11:
		return time.UnixMilli(int64(f)).UTC(), true
	default:
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}
}
