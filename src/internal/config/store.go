// FILE: trafficview/src/internal/config/store.go
package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/log"
)

// Prober checks that a configuration can reach its store
type Prober func(ctx context.Context, cfg *Config) error

// ChangeFunc is called after a new configuration is published
type ChangeFunc func(old, updated *Config)

// Store holds the current configuration. Published values are never mutated;
// every change builds a new *Config and swaps it in.
type Store struct {
	current   atomic.Pointer[Config]
	path      string
	logger    *log.Logger
	mu        sync.Mutex
	listeners []ChangeFunc
}

// NewStore publishes cfg. When path is non-empty, Set persists changes there.
func NewStore(cfg *Config, path string, logger *log.Logger) *Store {
	s := &Store{
		path:   path,
		logger: logger,
	}
	s.current.Store(cfg.Clone())
	return s
}

// Get returns the current configuration. Callers must treat it as read-only.
func (s *Store) Get() *Config {
	return s.current.Load()
}

// Path returns the backing file, if any.
func (s *Store) Path() string {
	return s.path
}

// OnChange registers fn for later changes.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Replace publishes a configuration produced elsewhere, e.g. by the file watcher.
func (s *Store) Replace(cfg *Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.current.Load()
	next := cfg.Clone()
	if next.ConfigFile == "" && old != nil {
		next.ConfigFile = old.ConfigFile
	}
	s.current.Store(next)
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(old, next)
	}
	return nil
}

// Set applies a partial update, validates it, persists it when backed by a
// file and publishes it. The published config is unchanged on any error.
func (s *Store) Set(p Patch) (*Config, error) {
	s.mu.Lock()
	old := s.current.Load()
	next := old.Clone()
	p.Apply(next)

	if err := validateConfig(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if s.path != "" {
		if err := next.SaveToFile(s.path); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}

	s.current.Store(next)
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("msg", "Configuration updated",
			"component", "config_store",
			"sections", strings.Join(p.Sections(), ","),
			"persisted", s.path != "")
	}

	for _, fn := range listeners {
		fn(old, next)
	}
	return next, nil
}

// Test applies p to a copy of the current configuration and probes it
// without publishing anything.
func (s *Store) Test(ctx context.Context, p Patch, probe Prober) error {
	candidate := s.current.Load().Clone()
	p.Apply(candidate)

	if err := ValidateSource(candidate); err != nil {
		return err
	}
	if probe == nil {
		return fmt.Errorf("no connectivity probe available")
	}
	return probe(ctx, candidate)
}

// Patch is a partial configuration update. Nil fields are left unchanged.
type Patch struct {
	Storage *StoragePatch `json:"storage,omitempty"`
	Fetch   *FetchPatch   `json:"fetch,omitempty"`
	View    *ViewPatch    `json:"view,omitempty"`
}

type StoragePatch struct {
	Type             *string `json:"type,omitempty"`
	Account          *string `json:"account,omitempty"`
	Key              *string `json:"key,omitempty"`
	ConnectionString *string `json:"connection_string,omitempty"`
	Container        *string `json:"container,omitempty"`
	Endpoint         *string `json:"endpoint,omitempty"`
	Prefix           *string `json:"prefix,omitempty"`
	Directory        *string `json:"directory,omitempty"`
	Pattern          *string `json:"pattern,omitempty"`
}

type FetchPatch struct {
	Range      *string `json:"range,omitempty"`
	Start      *string `json:"start,omitempty"`
	End        *string `json:"end,omitempty"`
	MaxObjects *int64  `json:"max_objects,omitempty"`
	Workers    *int64  `json:"workers,omitempty"`
}

type ViewPatch struct {
	PreferredColumns []string `json:"preferred_columns,omitempty"`
	TimestampFields  []string `json:"timestamp_fields,omitempty"`
	MaxColumns       *int64   `json:"max_columns,omitempty"`
	DefaultView      *string  `json:"default_view,omitempty"`
}

// Apply writes the non-nil fields of p into cfg.
func (p Patch) Apply(cfg *Config) {
	if st := p.Storage; st != nil {
		setString(&cfg.Storage.Type, st.Type)
		setString(&cfg.Storage.Account, st.Account)
		setString(&cfg.Storage.Key, st.Key)
		setString(&cfg.Storage.ConnectionString, st.ConnectionString)
		setString(&cfg.Storage.Container, st.Container)
		setString(&cfg.Storage.Endpoint, st.Endpoint)
		setString(&cfg.Storage.Prefix, st.Prefix)
		setString(&cfg.Storage.Directory, st.Directory)
		setString(&cfg.Storage.Pattern, st.Pattern)
	}
	if f := p.Fetch; f != nil {
		setString(&cfg.Fetch.Range, f.Range)
		setString(&cfg.Fetch.Start, f.Start)
		setString(&cfg.Fetch.End, f.End)
		setInt(&cfg.Fetch.MaxObjects, f.MaxObjects)
		setInt(&cfg.Fetch.Workers, f.Workers)
	}
	if v := p.View; v != nil {
		if v.PreferredColumns != nil {
			cfg.View.PreferredColumns = append([]string(nil), v.PreferredColumns...)
		}
		if v.TimestampFields != nil {
			cfg.View.TimestampFields = append([]string(nil), v.TimestampFields...)
		}
		setInt(&cfg.View.MaxColumns, v.MaxColumns)
		setString(&cfg.View.DefaultView, v.DefaultView)
	}
}

// Sections lists the top-level sections p touches.
func (p Patch) Sections() []string {
	var out []string
	if p.Storage != nil {
		out = append(out, "storage")
	}
	if p.Fetch != nil {
		out = append(out, "fetch")
	}
	if p.View != nil {
		out = append(out, "view")
	}
	return out
}

// AffectsSource reports whether p changes what a reload would fetch.
func (p Patch) AffectsSource() bool {
	return p.Storage != nil || p.Fetch != nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c

	out.View.PreferredColumns = append([]string(nil), c.View.PreferredColumns...)
	out.View.TimestampFields = append([]string(nil), c.View.TimestampFields...)

	if c.Logging != nil {
		l := *c.Logging
		if c.Logging.File != nil {
			f := *c.Logging.File
			l.File = &f
		}
		if c.Logging.Console != nil {
			con := *c.Logging.Console
			l.Console = &con
		}
		out.Logging = &l
	}

	if c.Server.RateLimit != nil {
		rl := *c.Server.RateLimit
		out.Server.RateLimit = &rl
	}

	if c.Server.Auth != nil {
		a := *c.Server.Auth
		a.PublicPaths = append([]string(nil), c.Server.Auth.PublicPaths...)
		if c.Server.Auth.BasicAuth != nil {
			b := *c.Server.Auth.BasicAuth
			b.Users = append([]BasicAuthUser(nil), c.Server.Auth.BasicAuth.Users...)
			a.BasicAuth = &b
		}
		if c.Server.Auth.BearerAuth != nil {
			b := *c.Server.Auth.BearerAuth
			b.Tokens = append([]string(nil), c.Server.Auth.BearerAuth.Tokens...)
			if c.Server.Auth.BearerAuth.JWT != nil {
				j := *c.Server.Auth.BearerAuth.JWT
				b.JWT = &j
			}
			a.BearerAuth = &b
		}
		out.Server.Auth = &a
	}

	return &out
}

const redacted = "********"

// Redacted returns a copy safe to expose over the API.
func (c *Config) Redacted() *Config {
	out := c.Clone()
	if out == nil {
		return nil
	}
	if out.Storage.Key != "" {
		out.Storage.Key = redacted
	}
	if out.Storage.ConnectionString != "" {
		out.Storage.ConnectionString = redacted
	}
	if a := out.Server.Auth; a != nil {
		if a.BasicAuth != nil {
			for i := range a.BasicAuth.Users {
				a.BasicAuth.Users[i].PasswordHash = redacted
			}
		}
		if a.BearerAuth != nil {
			for i := range a.BearerAuth.Tokens {
				a.BearerAuth.Tokens[i] = redacted
			}
			if a.BearerAuth.JWT != nil && a.BearerAuth.JWT.SigningKey != "" {
				a.BearerAuth.JWT.SigningKey = redacted
			}
		}
	}
	return out
}
