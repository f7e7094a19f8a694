// FILE: trafficview/src/internal/format/ndjson.go
package format

import (
	"bufio"
	"io"

	"trafficview/src/internal/dataset"

	"github.com/lixenwraith/log"
)

// NDJSONFormatter writes one JSON object per line
type NDJSONFormatter struct {
	logger *log.Logger
}

func NewNDJSONFormatter(logger *log.Logger) *NDJSONFormatter {
	return &NDJSONFormatter{logger: logger}
}

func (f *NDJSONFormatter) Write(w io.Writer, d *dataset.Dataset, cols []string) error {
	bw := bufio.NewWriter(w)
	skipped := 0

	for i := 0; i < d.Len(); i++ {
		b, err := d.Row(i, cols).MarshalJSON()
		if err != nil {
			skipped++
			continue
		}
		bw.Write(b)
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	if skipped > 0 {
		f.logger.Warn("msg", "Failed to encode records in export",
			"component", "ndjson_formatter",
			"skipped", skipped)
	}
	return bw.Flush()
}

func (f *NDJSONFormatter) Name() string        { return "ndjson" }
func (f *NDJSONFormatter) ContentType() string { return "application/x-ndjson" }
func (f *NDJSONFormatter) Extension() string   { return "ndjson" }
