// FILE: trafficview/src/internal/reload/controller.go
package reload

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"trafficview/src/internal/config"
	"trafficview/src/internal/core"
	"trafficview/src/internal/dataset"
	"trafficview/src/internal/ingest"
	"trafficview/src/internal/objstore"
	"trafficview/src/internal/snapshot"

	"github.com/google/uuid"
	"github.com/lixenwraith/log"
)

// StoreFactory builds the object store for one reload cycle
type StoreFactory func(cfg config.StorageConfig, logger *log.Logger) (objstore.Store, error)

// Controller owns the published dataset and runs at most one reload at a
// time. Readers never block on a reload.
type Controller struct {
	cfg      *config.Store
	logger   *log.Logger
	newStore StoreFactory
	now      func() time.Time

	current   atomic.Pointer[published]
	lastCycle atomic.Pointer[Cycle]

	generation atomic.Uint64
	cycles     atomic.Uint64
	failures   atomic.Uint64
	rejected   atomic.Uint64

	reloadingMu sync.Mutex
	isReloading bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// published pairs the dataset with the state that describes it so readers
// load both in one step
type published struct {
	dataset *dataset.Dataset
	state   State
}

// NewController creates an idle controller reading configuration from cfg.
func NewController(ctx context.Context, cfg *config.Store, logger *log.Logger) *Controller {
	cctx, cancel := context.WithCancel(ctx)
	c := &Controller{
		cfg:      cfg,
		logger:   logger,
		newStore: objstore.New,
		now:      time.Now,
		ctx:      cctx,
		cancel:   cancel,
	}
	c.current.Store(&published{state: State{Status: StatusIdle}})
	return c
}

// SetStoreFactory replaces the backend constructor. Used by tests and
// embedders; call before the first reload.
func (c *Controller) SetStoreFactory(f StoreFactory) {
	c.newStore = f
}

// State returns the current state snapshot.
func (c *Controller) State() State {
	return c.current.Load().state
}

// Dataset returns the published dataset, nil before any load.
func (c *Controller) Dataset() *dataset.Dataset {
	return c.current.Load().dataset
}

// publish applies fn to the current pair and stores the result.
func (c *Controller) publish(fn func(p published) published) {
	for {
		old := c.current.Load()
		next := fn(*old)
		if c.current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Reload runs one cycle synchronously. A call made while another cycle is
// running returns immediately with Accepted false.
func (c *Controller) Reload(ctx context.Context) ReloadResult {
	if !c.begin() {
		return c.busy()
	}
	defer c.end()
	return c.run(ctx)
}

// Trigger starts a cycle in the background and returns at once. ctx only
// contributes values; the cycle lives as long as the controller.
func (c *Controller) Trigger(ctx context.Context) ReloadResult {
	if !c.begin() {
		return c.busy()
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(c.ctx, cancel)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.end()
		defer stop()
		defer cancel()
		c.run(runCtx)
	}()

	return ReloadResult{Accepted: true, Status: StatusLoading}
}

// Shutdown cancels any running cycle and waits for it to finish.
func (c *Controller) Shutdown() {
	c.cancel()
	c.wg.Wait()
}

// begin claims the single reload slot and moves the state to Loading.
func (c *Controller) begin() bool {
	c.reloadingMu.Lock()
	defer c.reloadingMu.Unlock()

	if c.isReloading {
		return false
	}
	c.isReloading = true

	c.publish(func(p published) published {
		p.state.Status = StatusLoading
		p.state.ReloadID = ""
		p.state.StartedAt = nil
		return p
	})
	return true
}

func (c *Controller) end() {
	c.reloadingMu.Lock()
	c.isReloading = false
	c.reloadingMu.Unlock()
}

func (c *Controller) busy() ReloadResult {
	c.rejected.Add(1)
	c.logger.Debug("msg", "Reload already in progress, request rejected",
		"component", "reload")
	return ReloadResult{Accepted: false, Status: StatusLoading}
}

// run executes one cycle. The caller holds the reload slot.
func (c *Controller) run(ctx context.Context) (result ReloadResult) {
	id := uuid.Must(uuid.NewV7()).String()
	start := c.now()
	c.cycles.Add(1)

	c.publish(func(p published) published {
		p.state.Status = StatusLoading
		p.state.ReloadID = id
		p.state.StartedAt = &start
		return p
	})

	cfg := c.cfg.Get()
	if cfg.Fetch.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	c.logger.Info("msg", "Reload started",
		"component", "reload",
		"reload_id", id,
		"store", cfg.Storage.Type,
		"range", cfg.Fetch.Range)

	cycle := &Cycle{ReloadID: id, Store: cfg.Storage.Type}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("msg", "Panic during reload",
				"component", "reload",
				"reload_id", id,
				"panic", r,
				"stack", string(debug.Stack()))
			result = c.fail(id, start, cycle, fmt.Errorf("internal error: %v", r))
		}
	}()

	d, err := c.build(ctx, cfg, cycle)
	if err != nil {
		return c.fail(id, start, cycle, err)
	}

	if cfg.Snapshot.Enabled {
		res, err := snapshot.NewWriter(cfg.Snapshot, c.logger).Write(d)
		if err != nil {
			c.logger.Warn("msg", "Snapshot failed, dataset still published",
				"component", "reload",
				"reload_id", id,
				"error", err)
		}
		cycle.Snapshot = res
	}

	finished := c.now()
	loaded := d.BuiltAt
	c.publish(func(published) published {
		return published{
			dataset: d,
			state: State{
				Status:      StatusReady,
				ReloadID:    id,
				StartedAt:   &start,
				LastSuccess: &loaded,
				RecordCount: d.Len(),
				Duration:    finished.Sub(start),
			},
		}
	})
	cycle.Succeeded = true
	cycle.Finished = finished
	c.lastCycle.Store(cycle)

	c.logger.Info("msg", "Reload complete",
		"component", "reload",
		"reload_id", id,
		"generation", d.Generation,
		"objects", len(d.Objects),
		"records", d.Len(),
		"columns", len(d.DataColumns()),
		"parse_errors", d.ParseErrors.Count,
		"duration", finished.Sub(start))

	return ReloadResult{
		Accepted: true,
		Status:   StatusReady,
		ReloadID: id,
		Records:  d.Len(),
		Duration: finished.Sub(start),
	}
}

// build lists, fetches and merges. Nothing is published here.
func (c *Controller) build(ctx context.Context, cfg *config.Config, cycle *Cycle) (*dataset.Dataset, error) {
	if err := config.ValidateSource(cfg); err != nil {
		return nil, err
	}
	rng, err := cfg.Fetch.FetchRange()
	if err != nil {
		return nil, err
	}
	cycle.Range = rng.String()

	store, err := c.newStore(cfg.Storage, c.logger)
	if err != nil {
		return nil, err
	}
	cycle.Store = store.Name()

	sel, err := objstore.Select(ctx, store, rng, int(cfg.Fetch.MaxObjects), c.now())
	if err != nil {
		return nil, classify(ctx, "list "+store.Name(), err)
	}
	cycle.Listed = sel.Listed
	cycle.InRange = sel.InRange
	cycle.Selected = len(sel.Objects)
	cycle.Capped = sel.Capped

	builder := dataset.NewBuilder(timestampFields(cfg))
	engine := ingest.NewEngine(store, cfg.Fetch.EffectiveWorkers(), int(cfg.Fetch.MaxLineBytes), c.logger)

	sum, err := engine.Ingest(ctx, sel.Objects, builder)
	if err != nil {
		return nil, classify(ctx, "fetch", err)
	}
	cycle.Ingest = sum

	return builder.Build(c.generation.Add(1), c.now()), nil
}

func (c *Controller) fail(id string, start time.Time, cycle *Cycle, err error) ReloadResult {
	c.failures.Add(1)
	finished := c.now()

	c.publish(func(p published) published {
		p.state = State{
			Status:        StatusError,
			ReloadID:      id,
			StartedAt:     &start,
			LastSuccess:   p.state.LastSuccess,
			LastError:     err.Error(),
			LastErrorKind: core.ErrorKind(err),
			RecordCount:   p.dataset.Len(),
			Duration:      finished.Sub(start),
		}
		return p
	})
	cycle.Finished = finished
	c.lastCycle.Store(cycle)

	c.logger.Error("msg", "Reload failed, keeping previous dataset",
		"component", "reload",
		"reload_id", id,
		"kind", core.ErrorKind(err),
		"error", err)

	return ReloadResult{
		Accepted:  true,
		Status:    StatusError,
		ReloadID:  id,
		Error:     err.Error(),
		ErrorKind: core.ErrorKind(err),
		Duration:  finished.Sub(start),
	}
}

// RestoreLatest seeds the published dataset from the newest SQLite snapshot
// when nothing has been loaded yet. The state stays Idle.
func (c *Controller) RestoreLatest() error {
	cfg := c.cfg.Get()
	d, path, err := snapshot.LoadLatest(cfg.Snapshot.Directory)
	if err != nil {
		return err
	}
	for {
		old := c.current.Load()
		if old.dataset != nil {
			return errors.New("dataset already loaded")
		}
		next := *old
		next.dataset = d
		next.state.RecordCount = d.Len()
		if c.current.CompareAndSwap(old, &next) {
			break
		}
	}

	// Later reloads must outrank the restored generation
	for {
		cur := c.generation.Load()
		if cur >= d.Generation || c.generation.CompareAndSwap(cur, d.Generation) {
			break
		}
	}

	c.logger.Info("msg", "Dataset restored from snapshot",
		"component", "reload",
		"path", path,
		"generation", d.Generation,
		"records", d.Len(),
		"built_at", d.BuiltAt)
	return nil
}

// Stats returns counters and the last cycle for status reporting.
func (c *Controller) Stats() Stats {
	p := c.current.Load()
	d := p.dataset
	st := Stats{
		State:     p.state,
		Cycles:    c.cycles.Load(),
		Failures:  c.failures.Load(),
		Rejected:  c.rejected.Load(),
		LastCycle: c.lastCycle.Load(),
	}
	if d != nil {
		st.Generation = d.Generation
		st.Objects = len(d.Objects)
		st.Columns = len(d.DataColumns())
		st.Restored = d.Restored
	}
	return st
}

func timestampFields(cfg *config.Config) []string {
	if len(cfg.View.TimestampFields) > 0 {
		return cfg.View.TimestampFields
	}
	return core.DefaultTimestampFields
}

// classify makes sure a failure caused by the cycle deadline or shutdown is
// reported as a connectivity error.
func classify(ctx context.Context, op string, err error) error {
	var (
		connErr *core.ConnectivityError
		cfgErr  *core.ConfigError
	)
	if errors.As(err, &connErr) || errors.As(err, &cfgErr) {
		return err
	}
	if ctx.Err() != nil {
		return &core.ConnectivityError{Op: op, Err: err}
	}
	return err
}
