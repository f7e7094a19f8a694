// FILE: trafficview/src/internal/snapshot/csv.go
package snapshot

import (
	"fmt"
	"os"

	"trafficview/src/internal/dataset"
	"trafficview/src/internal/format"
)

// writeCSV writes every column of d, bookkeeping fields included.
func (w *Writer) writeCSV(path string, d *dataset.Dataset) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if err := format.NewCSVFormatter(w.logger).Write(f, d, d.Columns()); err != nil {
		f.Close()
		return fmt.Errorf("encode csv: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
