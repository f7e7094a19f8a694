// FILE: trafficview/src/internal/format/csv.go
package format

import (
	"encoding/csv"
	"io"

	"trafficview/src/internal/dataset"

	"github.com/lixenwraith/log"
)

// CSVFormatter writes a header row of cols followed by one row per record.
// Nested values are already compact JSON text and are quoted as needed.
type CSVFormatter struct {
	logger *log.Logger
}

func NewCSVFormatter(logger *log.Logger) *CSVFormatter {
	return &CSVFormatter{logger: logger}
}

func (f *CSVFormatter) Write(w io.Writer, d *dataset.Dataset, cols []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}

	row := make([]string, len(cols))
	for i := 0; i < d.Len(); i++ {
		rec := d.Record(i)
		for j, c := range cols {
			v, _ := rec.Value(c)
			row[j] = Cell(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Name returns the formatter name
func (f *CSVFormatter) Name() string {
	return "csv"
}

func (f *CSVFormatter) ContentType() string {
	return "text/csv; charset=utf-8"
}

func (f *CSVFormatter) Extension() string {
	return "csv"
}
