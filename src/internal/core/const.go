// FILE: trafficview/src/internal/core/const.go
package core

// Argon2id parameters
const (
	Argon2Time    = 3
	Argon2Memory  = 64 * 1024 // 64 MB
	Argon2Threads = 4
	Argon2SaltLen = 16
	Argon2KeyLen  = 32
)

const DefaultTokenLength = 32

// Internal bookkeeping columns, always placed after the data columns
const (
	FieldSourceObject       = "_source_object"
	FieldLineNumber         = "_line_no"
	FieldObjectLastModified = "_object_last_modified"
)

// InternalFields lists bookkeeping columns in their fixed display order.
var InternalFields = []string{FieldSourceObject, FieldLineNumber, FieldObjectLastModified}

// IsInternalField reports whether name is reserved for bookkeeping.
func IsInternalField(name string) bool {
	switch name {
	case FieldSourceObject, FieldLineNumber, FieldObjectLastModified:
		return true
	}
	return false
}

// Default timestamp field candidates for presentation ordering
var DefaultTimestampFields = []string{"ts", "timestamp", "@timestamp", "time", "event_time"}

// Default curated view columns
var DefaultPreferredColumns = []string{
	"http_host", "status", "srccountry", "user_name", "http_agent",
	FieldObjectLastModified, FieldSourceObject,
}

const (
	DefaultMaxColumns     = 200
	DefaultMaxLineBytes   = 1 << 20
	MaxParseErrorSamples  = 100
	SnapshotFilePrefix    = "traffic_logs_"
	SnapshotTimeLayout    = "20060102-150405"
	HumanTimeLayout       = "Jan 02, 2006 15:04:05 UTC"
	NeverLoadedHumanValue = "-"
)
