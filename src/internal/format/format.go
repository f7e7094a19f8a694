// FILE: trafficview/src/internal/format/format.go
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"trafficview/src/internal/dataset"

	"github.com/lixenwraith/log"
)

// Formatter defines the interface for serializing a dataset view.
type Formatter interface {
	// Write encodes the records of d restricted to cols, in presentation order.
	Write(w io.Writer, d *dataset.Dataset, cols []string) error

	// Name returns the formatter type name
	Name() string

	ContentType() string
	Extension() string
}

// New creates a new Formatter by name.
func New(name string, logger *log.Logger) (Formatter, error) {
	// Default to json if no format specified
	if name == "" {
		name = "json"
	}

	switch name {
	case "json":
		return NewJSONFormatter(logger), nil
	case "ndjson":
		return NewNDJSONFormatter(logger), nil
	case "csv":
		return NewCSVFormatter(logger), nil
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", name)
	}
}

// Names lists the supported formats.
func Names() []string {
	return []string{"json", "ndjson", "csv"}
}

// Cell renders a field value as flat text. Absent values are empty.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
