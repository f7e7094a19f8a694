// FILE: trafficview/src/internal/ingest/parser.go
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"trafficview/src/internal/core"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	errEmptyLine   = errors.New("empty line")
	errLineTooLong = errors.New("line exceeds maximum length")
	errNotObject   = errors.New("not a JSON object")
	errInvalidJSON = errors.New("invalid JSON")
)

// Parser reads one object's NDJSON stream lazily. It yields one record per
// well-formed line and counts every malformed line instead of failing.
//
//	p := NewParser(r, ref, maxLine)
//	for p.Next() {
//		rec := p.Record()
//	}
//	if err := p.Err(); err != nil { ... }
type Parser struct {
	r       *bufio.Reader
	object  core.ObjectRef
	line    int
	rec     *core.Record
	err     error
	done    bool
	bytes   int64
	badRows []*core.ParseError
}

// NewParser wraps r. Lines longer than maxLineBytes are parse errors;
// maxLineBytes <= 0 selects the default.
func NewParser(r io.Reader, object core.ObjectRef, maxLineBytes int) *Parser {
	if maxLineBytes <= 0 {
		maxLineBytes = core.DefaultMaxLineBytes
	}
	return &Parser{
		r:      bufio.NewReaderSize(r, maxLineBytes+1),
		object: object,
	}
}

// Next advances to the next record. It returns false at end of stream or on
// a read error, after which Err reports the cause.
func (p *Parser) Next() bool {
	p.rec = nil
	for !p.done {
		raw, tooLong, err := p.readLine()
		atEOF := errors.Is(err, io.EOF)
		if err != nil && !atEOF {
			p.err = &core.ConnectivityError{Op: "read " + p.object.Name, Err: err}
			p.done = true
			return false
		}
		if atEOF {
			p.done = true
			if len(raw) == 0 && !tooLong {
				return false
			}
		}

		p.line++
		if tooLong {
			p.reject(errLineTooLong)
			continue
		}

		fields, err := ParseFields(raw)
		if errors.Is(err, errEmptyLine) {
			continue
		}
		if err != nil {
			p.reject(err)
			continue
		}

		p.rec = &core.Record{
			Fields:             fields,
			Source:             p.object.Name,
			Line:               p.line,
			ObjectLastModified: p.object.LastModified,
		}
		return true
	}
	return false
}

// Record returns the record produced by the last successful Next.
func (p *Parser) Record() *core.Record { return p.rec }

// Err returns the read error that stopped the stream, if any.
// Malformed lines are never reported here.
func (p *Parser) Err() error { return p.err }

// ParseErrors returns the malformed lines seen so far.
func (p *Parser) ParseErrors() []*core.ParseError { return p.badRows }

// Lines returns the number of physical lines consumed.
func (p *Parser) Lines() int { return p.line }

// BytesRead returns the number of bytes consumed.
func (p *Parser) BytesRead() int64 { return p.bytes }

func (p *Parser) reject(err error) {
	p.badRows = append(p.badRows, &core.ParseError{Object: p.object.Name, Line: p.line, Err: err})
}

// readLine returns one line without copying. An oversized line is drained
// and reported with tooLong set.
func (p *Parser) readLine() (line []byte, tooLong bool, err error) {
	line, err = p.r.ReadSlice('\n')
	p.bytes += int64(len(line))
	if !errors.Is(err, bufio.ErrBufferFull) {
		return line, false, err
	}

	for errors.Is(err, bufio.ErrBufferFull) {
		var chunk []byte
		chunk, err = p.r.ReadSlice('\n')
		p.bytes += int64(len(chunk))
	}
	return nil, true, err
}

// ParseFields decodes one NDJSON line into an ordered field map with the
// value types a Record carries. Bookkeeping keys are dropped.
func ParseFields(raw []byte) (*orderedmap.OrderedMap[string, any], error) {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		return nil, errEmptyLine
	}

	// Exports sometimes separate records with ",\n"
	if line[len(line)-1] == ',' {
		line = bytes.TrimSpace(line[:len(line)-1])
	}
	if len(line) == 0 {
		return nil, errInvalidJSON
	}

	// Invalid sequences are dropped, not rejected
	if !utf8.Valid(line) {
		line = bytes.ToValidUTF8(line, nil)
	}

	if line[0] != '{' {
		return nil, errNotObject
	}
	if !json.Valid(line) {
		return nil, errInvalidJSON
	}

	fields := orderedmap.New[string, any]()
	err := jsonparser.ObjectEach(line, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return fmt.Errorf("key: %w", err)
		}
		if core.IsInternalField(name) {
			return nil
		}

		v, err := convertValue(value, dataType)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		fields.Set(name, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
	}

	return fields, nil
}

// convertValue maps a raw JSON value to string, json.Number, bool or nil.
// Objects and arrays become their compact JSON text.
func convertValue(value []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Number:
		return json.Number(string(value)), nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Object, jsonparser.Array:
		var buf bytes.Buffer
		if err := json.Compact(&buf, value); err != nil {
			return nil, err
		}
		return buf.String(), nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", dataType)
	}
}
