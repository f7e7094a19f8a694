// FILE: trafficview/src/internal/reload/query.go
package reload

import (
	"time"

	"trafficview/src/internal/config"
	"trafficview/src/internal/core"
	"trafficview/src/internal/dataset"

	"github.com/dustin/go-humanize"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// QueryOptions selects the view of a query
type QueryOptions struct {
	// Empty selects view.default_view
	View  dataset.ViewKind
	Debug bool
}

// QueryResult is what a consumer sees of the published dataset
type QueryResult struct {
	Total         int                                   `json:"total"`
	Columns       []string                              `json:"columns"`
	Records       []*orderedmap.OrderedMap[string, any] `json:"records"`
	LastLoadUTC   *time.Time                            `json:"last_load_utc"`
	LastLoadHuman string                                `json:"last_load_human"`
	LastLoadAgo   string                                `json:"last_load_ago,omitempty"`
	Error         *string                               `json:"error"`
	ErrorKind     string                                `json:"error_kind,omitempty"`
	Status        Status                                `json:"status"`
	ParseErrors   dataset.ParseErrorSummary             `json:"parse_errors"`
	Restored      bool                                  `json:"restored"`
	Generation    uint64                                `json:"generation"`
	View          dataset.ViewKind                      `json:"view"`
	Debug         *Debug                                `json:"debug,omitempty"`
}

// Debug describes the shape of the published dataset
type Debug struct {
	SortField   string           `json:"sort_field"`
	DataColumns int              `json:"data_columns"`
	AllColumns  int              `json:"all_columns"`
	Objects     []core.ObjectRef `json:"objects"`
	Lines       int              `json:"lines"`
	BuiltAt     *time.Time       `json:"built_at,omitempty"`
	LastCycle   *Cycle           `json:"last_cycle,omitempty"`
}

// Query reads the published dataset. It never waits for a reload and never
// sees a partially built dataset.
func (c *Controller) Query(opts QueryOptions) *QueryResult {
	p := c.current.Load()
	d, st := p.dataset, p.state
	cfg := c.cfg.Get()

	kind := opts.View
	if kind == "" {
		kind, _ = dataset.ParseViewKind(cfg.View.DefaultView)
	}

	res := &QueryResult{
		Columns:       []string{},
		Records:       []*orderedmap.OrderedMap[string, any]{},
		LastLoadHuman: core.NeverLoadedHumanValue,
		Status:        st.Status,
		View:          kind,
	}
	if st.LastError != "" {
		msg := st.LastError
		res.Error = &msg
		res.ErrorKind = st.LastErrorKind
	}

	if d == nil {
		if opts.Debug {
			res.Debug = &Debug{LastCycle: c.lastCycle.Load()}
		}
		return res
	}

	cols := d.ResolveColumns(ViewOptions(cfg, kind))
	loaded := d.BuiltAt
	res.Total = d.Len()
	res.Columns = cols
	res.Records = d.Materialize(cols)
	res.LastLoadUTC = &loaded
	res.LastLoadHuman = loaded.UTC().Format(core.HumanTimeLayout)
	res.LastLoadAgo = humanize.RelTime(loaded, c.now(), "ago", "from now")
	res.ParseErrors = d.ParseErrors
	res.Restored = d.Restored
	res.Generation = d.Generation

	if opts.Debug {
		res.Debug = &Debug{
			SortField:   d.SortField,
			DataColumns: len(d.DataColumns()),
			AllColumns:  len(d.Columns()),
			Objects:     d.Objects,
			Lines:       d.Lines,
			BuiltAt:     &loaded,
			LastCycle:   c.lastCycle.Load(),
		}
	}
	return res
}

// ViewOptions maps the [view] section onto dataset view options.
func ViewOptions(cfg *config.Config, kind dataset.ViewKind) dataset.ViewOptions {
	preferred := cfg.View.PreferredColumns
	if len(preferred) == 0 {
		preferred = core.DefaultPreferredColumns
	}
	return dataset.ViewOptions{
		Kind:             kind,
		Preferred:        preferred,
		MaxColumns:       int(cfg.View.MaxColumns),
		PromotePreferred: cfg.View.PromotePreferred,
	}
}
