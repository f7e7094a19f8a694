// FILE: trafficview/src/internal/format/format_test.go
package format

import (
	"encoding/json"
	"testing"
	"time"

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

var testTime = time.Date(2025, 9, 20, 3, 35, 58, 0, time.UTC)

// testDataset has two records with a sparse column and a nested value
func testDataset() *dataset.Dataset {
	b := dataset.NewBuilder(nil)

	first := orderedmap.New[string, any]()
	first.Set("host", "a.example")
	first.Set("status", json.Number("200"))
	first.Set("tags", `["x","y"]`)
	b.Append(&core.Record{Fields: first, Source: "obj1", Line: 1, ObjectLastModified: testTime})

	second := orderedmap.New[string, any]()
	second.Set("host", "b, \"quoted\"")
	second.Set("cached", false)
	b.Append(&core.Record{Fields: second, Source: "obj1", Line: 2, ObjectLastModified: testTime.Add(-time.Hour)})

	return b.Build(1, testTime)
}

func TestNewFormatter(t *testing.T) {
	logger := newTestLogger()

	testCases := []struct {
		name        string
		formatName  string
		expected    string
		contentType string
		expectError bool
	}{
		{name: "JSONFormatter", formatName: "json", expected: "json", contentType: "application/json"},
		{name: "NDJSONFormatter", formatName: "ndjson", expected: "ndjson", contentType: "application/x-ndjson"},
		{name: "CSVFormatter", formatName: "csv", expected: "csv", contentType: "text/csv; charset=utf-8"},
		{name: "DefaultToJSON", formatName: "", expected: "json", contentType: "application/json"},
		{name: "UnknownFormatter", formatName: "xml", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			formatter, err := New(tc.formatName, logger)
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, formatter)
			} else {
				require.NoError(t, err)
				require.NotNil(t, formatter)
				assert.Equal(t, tc.expected, formatter.Name())
				assert.Equal(t, tc.expected, formatter.Extension())
				assert.Equal(t, tc.contentType, formatter.ContentType())
			}
		})
	}
}

func TestCell(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want string
	}{
		{"Nil", nil, ""},
		{"String", "abc", "abc"},
		{"Number", json.Number("1.50"), "1.50"},
		{"Bool", true, "true"},
		{"Int", 42, "42"},
		{"Time", testTime, "2025-09-20T03:35:58Z"},
		{"Slice", []int{1, 2}, "[1,2]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Cell(tc.in))
		})
	}
}
