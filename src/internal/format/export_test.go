// FILE: trafficview/src/internal/format/export_test.go
package format

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"trafficview/src/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter_Write(t *testing.T) {
	d := testDataset()
	cols := d.ResolveColumns(dataset.ViewOptions{Kind: dataset.ViewAll})

	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(newTestLogger()).Write(&buf, d, cols))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows), "output should be a JSON array")
	require.Len(t, rows, 2)

	assert.Equal(t, "a.example", rows[0]["host"])
	assert.Equal(t, float64(200), rows[0]["status"])
	assert.Equal(t, `["x","y"]`, rows[0]["tags"])
	assert.Nil(t, rows[0]["cached"])
	assert.Contains(t, rows[0], "cached", "absent fields are present as null")
	assert.Equal(t, false, rows[1]["cached"])

	// Key order follows cols
	out := buf.String()
	assert.Less(t, strings.Index(out, `"host"`), strings.Index(out, `"status"`))
	assert.Less(t, strings.Index(out, `"status"`), strings.Index(out, `"_source_object"`))
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(newTestLogger()).Write(&buf, dataset.Empty(), nil))
	assert.Equal(t, "[]", buf.String())
}

func TestNDJSONFormatter_Write(t *testing.T) {
	d := testDataset()

	var buf bytes.Buffer
	require.NoError(t, NewNDJSONFormatter(newTestLogger()).Write(&buf, d, []string{"host", "cached"}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"host":"a.example","cached":null}`, lines[0])
	assert.Equal(t, `{"host":"b, \"quoted\"","cached":false}`, lines[1])
}

func TestCSVFormatter_Write(t *testing.T) {
	d := testDataset()
	cols := []string{"host", "status", "cached", "tags", "_line_no"}

	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter(newTestLogger()).Write(&buf, d, cols))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, cols, records[0])
	assert.Equal(t, []string{"a.example", "200", "", `["x","y"]`, "1"}, records[1])
	assert.Equal(t, []string{`b, "quoted"`, "", "false", "", "2"}, records[2])
}
