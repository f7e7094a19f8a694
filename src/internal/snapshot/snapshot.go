// FILE: trafficview/src/internal/snapshot/snapshot.go
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"trafficview/src/internal/config"
	"trafficview/src/internal/core"
	"trafficview/src/internal/dataset"

	"github.com/lixenwraith/log"
)

const (
	ExtCSV    = ".csv"
	ExtSQLite = ".db"
)

// Writer persists published datasets as timestamped files
type Writer struct {
	dir    string
	csv    bool
	sqlite bool
	keep   int
	logger *log.Logger
}

// Result lists the files one Write produced
type Result struct {
	Files    []string      `json:"files"`
	Pruned   int           `json:"pruned"`
	Duration time.Duration `json:"duration"`
}

// File describes one snapshot on disk
type File struct {
	Path  string
	Taken time.Time
	Size  int64
}

func NewWriter(cfg config.SnapshotConfig, logger *log.Logger) *Writer {
	return &Writer{
		dir:    cfg.Directory,
		csv:    cfg.CSV,
		sqlite: cfg.SQLite,
		keep:   int(cfg.Keep),
		logger: logger,
	}
}

// FileName returns the snapshot base name for a dataset built at t.
func FileName(t time.Time, ext string) string {
	return core.SnapshotFilePrefix + t.UTC().Format(core.SnapshotTimeLayout) + ext
}

// Write stores d in every enabled format and prunes old files. Any failure
// is returned as a *core.SnapshotWriteError; files already written stay.
func (w *Writer) Write(d *dataset.Dataset) (*Result, error) {
	start := time.Now()
	res := &Result{}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, &core.SnapshotWriteError{Path: w.dir, Err: err}
	}

	if w.csv {
		path := filepath.Join(w.dir, FileName(d.BuiltAt, ExtCSV))
		if err := atomicWrite(path, func(tmp string) error { return w.writeCSV(tmp, d) }); err != nil {
			return res, &core.SnapshotWriteError{Path: path, Err: err}
		}
		res.Files = append(res.Files, path)
	}

	if w.sqlite {
		path := filepath.Join(w.dir, FileName(d.BuiltAt, ExtSQLite))
		if err := atomicWrite(path, func(tmp string) error { return writeSQLite(tmp, d) }); err != nil {
			return res, &core.SnapshotWriteError{Path: path, Err: err}
		}
		res.Files = append(res.Files, path)
	}

	if w.keep > 0 {
		for _, ext := range []string{ExtCSV, ExtSQLite} {
			n, err := w.prune(ext)
			res.Pruned += n
			if err != nil {
				w.logger.Warn("msg", "Failed to prune old snapshots",
					"component", "snapshot",
					"directory", w.dir,
					"error", err)
			}
		}
	}

	res.Duration = time.Since(start)
	w.logger.Info("msg", "Snapshot written",
		"component", "snapshot",
		"files", strings.Join(res.Files, ","),
		"records", d.Len(),
		"pruned", res.Pruned,
		"duration", res.Duration)

	return res, nil
}

func (w *Writer) prune(ext string) (int, error) {
	files, err := List(w.dir, ext)
	if err != nil || len(files) <= w.keep {
		return 0, err
	}

	removed := 0
	for _, f := range files[w.keep:] {
		if err := os.Remove(f.Path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// List returns the snapshot files with ext in dir, newest first.
func List(dir, ext string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []File
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, core.SnapshotFilePrefix) || filepath.Ext(name) != ext {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, core.SnapshotFilePrefix), ext)
		taken, err := time.Parse(core.SnapshotTimeLayout, stamp)
		if err != nil {
			continue
		}
		f := File{Path: filepath.Join(dir, name), Taken: taken}
		if info, err := e.Info(); err == nil {
			f.Size = info.Size()
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Taken.After(files[j].Taken) })
	return files, nil
}

// atomicWrite runs fn against a temporary path and renames the result into
// place, so readers never see a partial snapshot.
func atomicWrite(path string, fn func(tmp string) error) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)
	if err := fn(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
