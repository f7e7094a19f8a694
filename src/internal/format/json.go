// FILE: trafficview/src/internal/format/json.go
package format

import (
	"bufio"
	"fmt"
	"io"

	"trafficview/src/internal/dataset"

	"github.com/lixenwraith/log"
)

// JSONFormatter writes a dataset as one JSON array of ordered objects.
type JSONFormatter struct {
	logger *log.Logger
}

func NewJSONFormatter(logger *log.Logger) *JSONFormatter {
	return &JSONFormatter{logger: logger}
}

// Write streams rows so the full array is never held as a value tree.
func (f *JSONFormatter) Write(w io.Writer, d *dataset.Dataset, cols []string) error {
	bw := bufio.NewWriter(w)

	if err := bw.WriteByte('['); err != nil {
		return err
	}
	for i := 0; i < d.Len(); i++ {
		if i > 0 {
			bw.WriteByte(',')
		}
		b, err := d.Row(i, cols).MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		if _, err := bw.Write(b); err != nil {
			return err
		}
	}
	if err := bw.WriteByte(']'); err != nil {
		return err
	}
	return bw.Flush()
}

// Name returns the formatter's type name.
func (f *JSONFormatter) Name() string {
	return "json"
}

func (f *JSONFormatter) ContentType() string {
	return "application/json"
}

func (f *JSONFormatter) Extension() string {
	return "json"
}
