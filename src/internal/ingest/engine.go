// FILE: trafficview/src/internal/ingest/engine.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"trafficview/src/internal/core"
	"trafficview/src/internal/dataset"
	"trafficview/src/internal/objstore"

	"github.com/lixenwraith/log"
	"golang.org/x/sync/errgroup"
)

// ctxCheckInterval is how many records are parsed between context checks
const ctxCheckInterval = 4096

// Engine downloads and parses objects concurrently and feeds the results to
// a dataset builder in a fixed order.
type Engine struct {
	store        objstore.Store
	workers      int
	maxLineBytes int
	logger       *log.Logger
}

// ObjectResult holds everything parsed from one object
type ObjectResult struct {
	Ref         core.ObjectRef
	Records     []*core.Record
	ParseErrors []*core.ParseError
	Lines       int
	Bytes       int64
	Duration    time.Duration
}

// Summary describes one ingest pass
type Summary struct {
	Objects     int           `json:"objects"`
	Lines       int           `json:"lines"`
	Records     int           `json:"records"`
	ParseErrors int           `json:"parse_errors"`
	Bytes       int64         `json:"bytes"`
	Duration    time.Duration `json:"duration"`
}

func NewEngine(store objstore.Store, workers, maxLineBytes int, logger *log.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		store:        store,
		workers:      workers,
		maxLineBytes: maxLineBytes,
		logger:       logger,
	}
}

// Ingest fetches refs and appends them to b ordered by LastModified
// ascending, then name. Completion order of the workers never affects the
// result. Any download or read failure aborts the whole pass.
func (e *Engine) Ingest(ctx context.Context, refs []core.ObjectRef, b *dataset.Builder) (*Summary, error) {
	start := time.Now()

	results, err := e.Fetch(ctx, refs)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Objects: len(results)}
	for _, res := range results {
		b.AddObject(res.Ref, res.Records, res.ParseErrors, res.Lines)
		sum.Lines += res.Lines
		sum.Records += len(res.Records)
		sum.ParseErrors += len(res.ParseErrors)
		sum.Bytes += res.Bytes
	}
	sum.Duration = time.Since(start)

	e.logger.Debug("msg", "Ingest pass complete",
		"component", "ingest",
		"objects", sum.Objects,
		"records", sum.Records,
		"parse_errors", sum.ParseErrors,
		"bytes", sum.Bytes,
		"duration", sum.Duration)

	return sum, nil
}

// Fetch downloads and parses refs with at most e.workers in flight and
// returns the results in merge order.
func (e *Engine) Fetch(ctx context.Context, refs []core.ObjectRef) ([]*ObjectResult, error) {
	order := append([]core.ObjectRef(nil), refs...)
	objstore.SortOldestFirst(order)

	results := make([]*ObjectResult, len(order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, ref := range order {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("msg", "Panic while parsing object",
						"component", "ingest",
						"object", ref.Name,
						"panic", r,
						"stack", string(debug.Stack()))
					err = fmt.Errorf("panic while parsing %s: %v", ref.Name, r)
				}
			}()

			res, err := e.fetchOne(gctx, ref)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) fetchOne(ctx context.Context, ref core.ObjectRef) (*ObjectResult, error) {
	start := time.Now()

	rc, err := e.store.Open(ctx, ref)
	if err != nil {
		return nil, asConnectivity("download "+ref.Name, err)
	}
	defer rc.Close()

	res := &ObjectResult{Ref: ref}
	p := NewParser(rc, ref, e.maxLineBytes)
	for p.Next() {
		res.Records = append(res.Records, p.Record())
		if len(res.Records)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, asConnectivity("download "+ref.Name, err)
			}
		}
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, asConnectivity("download "+ref.Name, err)
	}

	res.ParseErrors = p.ParseErrors()
	res.Lines = p.Lines()
	res.Bytes = p.BytesRead()
	res.Duration = time.Since(start)

	if len(res.ParseErrors) > 0 {
		e.logger.Debug("msg", "Skipped malformed lines",
			"component", "ingest",
			"object", ref.Name,
			"malformed", len(res.ParseErrors),
			"first_line", res.ParseErrors[0].Line)
	}

	return res, nil
}

func asConnectivity(op string, err error) error {
	var connErr *core.ConnectivityError
	if errors.As(err, &connErr) {
		return err
	}
	return &core.ConnectivityError{Op: op, Err: err}
}
