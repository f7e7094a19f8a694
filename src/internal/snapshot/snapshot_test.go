// FILE: trafficview/src/internal/snapshot/snapshot_test.go
package snapshot

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trafficview/src/internal/config"
	"trafficview/src/internal/core"
	"trafficview/src/internal/dataset"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

var builtAt = time.Date(2025, 9, 20, 3, 35, 58, 0, time.UTC)

func testDataset(at time.Time) *dataset.Dataset {
	b := dataset.NewBuilder(core.DefaultTimestampFields)
	obj := core.ObjectRef{Name: "logs/a.ndjson", LastModified: at.Add(-time.Minute), Size: 120}

	first := orderedmap.New[string, any]()
	first.Set("ts", "2025-09-20T03:00:00Z")
	first.Set("status", json.Number("200"))
	first.Set("geo", `{"cc":"DE"}`)
	first.Set("cached", true)

	second := orderedmap.New[string, any]()
	second.Set("ts", "2025-09-20T03:10:00Z")
	second.Set("user_name", nil)

	b.AddObject(obj, []*core.Record{
		{Fields: first, Source: obj.Name, Line: 1, ObjectLastModified: obj.LastModified},
		{Fields: second, Source: obj.Name, Line: 2, ObjectLastModified: obj.LastModified},
	}, []*core.ParseError{{Object: obj.Name, Line: 3, Err: errors.New("invalid JSON")}}, 3)

	return b.Build(7, at)
}

func newWriter(dir string, keep int64) *Writer {
	return NewWriter(config.SnapshotConfig{
		Enabled:   true,
		Directory: dir,
		CSV:       true,
		SQLite:    true,
		Keep:      keep,
	}, newTestLogger())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "traffic_logs_20250920-033558.csv", FileName(builtAt, ExtCSV))
	assert.Equal(t, "traffic_logs_20250920-033558.db", FileName(builtAt.In(time.FixedZone("X", 3600)), ExtSQLite))
}

func TestWriter_WritesBothFormats(t *testing.T) {
	dir := t.TempDir()
	d := testDataset(builtAt)

	res, err := newWriter(dir, 0).Write(d)
	require.NoError(t, err)
	require.Len(t, res.Files, 2)

	f, err := os.Open(filepath.Join(dir, "traffic_logs_20250920-033558.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, d.Columns(), rows[0])
	// Newest record first
	assert.Equal(t, "2025-09-20T03:10:00Z", rows[1][0])

	_, err = os.Stat(filepath.Join(dir, "traffic_logs_20250920-033558.db"))
	assert.NoError(t, err)

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	assert.Empty(t, leftovers)
}

func TestWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := testDataset(builtAt)

	_, err := newWriter(dir, 0).Write(d)
	require.NoError(t, err)

	restored, path, err := LoadLatest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "traffic_logs_20250920-033558.db"), path)

	assert.True(t, restored.Restored)
	assert.Equal(t, d.Generation, restored.Generation)
	assert.True(t, d.BuiltAt.Equal(restored.BuiltAt))
	assert.Equal(t, d.SortField, restored.SortField)
	assert.Equal(t, d.Lines, restored.Lines)
	assert.Equal(t, d.DataColumns(), restored.DataColumns())
	assert.Equal(t, d.Objects[0].Name, restored.Objects[0].Name)
	assert.Equal(t, 1, restored.ParseErrors.Count)
	assert.Equal(t, "invalid JSON", restored.ParseErrors.Samples[0].Reason)

	require.Equal(t, d.Len(), restored.Len())
	cols := d.Columns()
	for i := 0; i < d.Len(); i++ {
		want, err := d.Row(i, cols).MarshalJSON()
		require.NoError(t, err)
		got, err := restored.Row(i, cols).MarshalJSON()
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(got))
	}

	status, _ := restored.Record(1).Value("status")
	assert.Equal(t, json.Number("200"), status)
	cached, _ := restored.Record(1).Value("cached")
	assert.Equal(t, true, cached)
}

func TestWriter_Retention(t *testing.T) {
	dir := t.TempDir()
	w := newWriter(dir, 2)

	for i := 0; i < 4; i++ {
		_, err := w.Write(testDataset(builtAt.Add(time.Duration(i) * time.Minute)))
		require.NoError(t, err)
	}

	for _, ext := range []string{ExtCSV, ExtSQLite} {
		files, err := List(dir, ext)
		require.NoError(t, err)
		require.Len(t, files, 2, ext)
		assert.Equal(t, builtAt.Add(3*time.Minute), files[0].Taken)
		assert.Equal(t, builtAt.Add(2*time.Minute), files[1].Taken)
	}
}

func TestWriter_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := newWriter(filepath.Join(blocker, "sub"), 0).Write(testDataset(builtAt))
	var snapErr *core.SnapshotWriteError
	require.ErrorAs(t, err, &snapErr)
	assert.Equal(t, "snapshot", core.ErrorKind(err))
}

func TestLoadLatest_Empty(t *testing.T) {
	_, _, err := LoadLatest(t.TempDir())
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, _, err = LoadLatest(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"traffic_logs_bad.db", "other_20250920-033558.db", "traffic_logs_20250920-033558.db.tmp", "traffic_logs_20250920-033558.db"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	files, err := List(dir, ExtSQLite)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, builtAt, files[0].Taken)
}
