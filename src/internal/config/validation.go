// FILE: trafficview/src/internal/config/validation.go
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"trafficview/src/internal/core"

	lconfig "github.com/lixenwraith/config"
)

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}

// validateConfig checks structure at load time. Source settings that only
// matter once a reload runs are checked by ValidateSource.
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validateLogConfig(cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	switch cfg.Storage.Type {
	case "azure", "directory":
	default:
		return fmt.Errorf("storage.type: unknown backend '%s' (valid: azure, directory)", cfg.Storage.Type)
	}

	if _, err := core.ParseRangeKind(cfg.Fetch.Range); err != nil {
		return fmt.Errorf("fetch.range: %w", err)
	}
	if cfg.Fetch.MaxObjects < 0 {
		return fmt.Errorf("fetch.max_objects cannot be negative")
	}
	if cfg.Fetch.Workers < 0 {
		return fmt.Errorf("fetch.workers cannot be negative")
	}
	if cfg.Fetch.MaxLineBytes < 0 {
		return fmt.Errorf("fetch.max_line_bytes cannot be negative")
	}

	if cfg.Snapshot.Keep < 0 {
		return fmt.Errorf("snapshot.keep cannot be negative")
	}
	if cfg.Snapshot.Enabled {
		if err := lconfig.NonEmpty(cfg.Snapshot.Directory); err != nil {
			return fmt.Errorf("snapshot.directory: %w", err)
		}
		if strings.Contains(filepath.ToSlash(cfg.Snapshot.Directory), "../") {
			return fmt.Errorf("snapshot.directory contains directory traversal")
		}
	}

	if cfg.View.MaxColumns < 0 {
		return fmt.Errorf("view.max_columns cannot be negative")
	}
	switch cfg.View.DefaultView {
	case "", "all", "curated":
	default:
		return fmt.Errorf("view.default_view must be 'all' or 'curated': %s", cfg.View.DefaultView)
	}

	if cfg.Reload.StatusIntervalSeconds < 0 {
		return fmt.Errorf("reload.status_interval_seconds cannot be negative")
	}

	if cfg.Server.Enabled {
		if err := validateServer(&cfg.Server); err != nil {
			return err
		}
	}

	return nil
}

func validateServer(s *ServerConfig) error {
	if err := lconfig.Port(s.Port); err != nil {
		return fmt.Errorf("server.port: %w", err)
	}

	if s.Host != "" && s.Host != "0.0.0.0" && s.Host != "localhost" {
		if err := lconfig.IPAddress(s.Host); err != nil {
			return fmt.Errorf("server.host: %w", err)
		}
	}

	if s.TLS.Enabled {
		if s.TLS.CertFile == "" || s.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls: cert_file and key_file required when enabled")
		}
		switch strings.ToUpper(s.TLS.MinVersion) {
		case "", "TLS1.2", "TLS12", "TLS1.3", "TLS13":
		default:
			return fmt.Errorf("server.tls: unsupported min_version '%s'", s.TLS.MinVersion)
		}
	}

	if s.ExportCacheSize < 0 {
		return fmt.Errorf("server.export_cache_size cannot be negative")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		if s.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("server.rate_limit: requests_per_second must be positive")
		}
		if s.RateLimit.BurstSize < 0 {
			return fmt.Errorf("server.rate_limit: burst_size cannot be negative")
		}
		if s.RateLimit.ResponseCode != 0 && (s.RateLimit.ResponseCode < 400 || s.RateLimit.ResponseCode > 599) {
			return fmt.Errorf("server.rate_limit: response_code must be 4xx or 5xx")
		}
	}

	return validateAuth(s.Auth)
}

// ValidateSource checks everything a reload needs before touching the store.
// Failures are *core.ConfigError.
func ValidateSource(cfg *Config) error {
	if cfg == nil {
		return &core.ConfigError{Field: "config", Reason: "missing"}
	}

	s := cfg.Storage
	switch s.Type {
	case "azure":
		if strings.TrimSpace(s.Container) == "" {
			return &core.ConfigError{Field: "storage.container", Reason: "required"}
		}
		if s.ConnectionString == "" {
			if strings.TrimSpace(s.Account) == "" {
				return &core.ConfigError{Field: "storage.account", Reason: "required without connection_string"}
			}
			if strings.TrimSpace(s.Key) == "" {
				return &core.ConfigError{Field: "storage.key", Reason: "required without connection_string"}
			}
		}
	case "directory":
		if strings.TrimSpace(s.Directory) == "" {
			return &core.ConfigError{Field: "storage.directory", Reason: "required for directory backend"}
		}
	default:
		return &core.ConfigError{Field: "storage.type", Reason: fmt.Sprintf("unknown backend '%s'", s.Type)}
	}

	if _, err := cfg.Fetch.FetchRange(); err != nil {
		return err
	}

	if cfg.Fetch.MaxObjects < 0 {
		return &core.ConfigError{Field: "fetch.max_objects", Reason: "cannot be negative"}
	}
	if cfg.Fetch.Workers < 0 {
		return &core.ConfigError{Field: "fetch.workers", Reason: "cannot be negative"}
	}

	return nil
}

// FetchRange resolves the configured range. Errors are *core.ConfigError.
func (f FetchConfig) FetchRange() (core.FetchRange, error) {
	kind, err := core.ParseRangeKind(f.Range)
	if err != nil {
		return core.FetchRange{}, &core.ConfigError{Field: "fetch.range", Reason: err.Error()}
	}

	r := core.FetchRange{Kind: kind}
	if kind != core.RangeCustom {
		return r, nil
	}

	if r.Start, err = parseBound(f.Start); err != nil {
		return core.FetchRange{}, &core.ConfigError{Field: "fetch.start", Reason: err.Error()}
	}
	if r.End, err = parseBound(f.End); err != nil {
		return core.FetchRange{}, &core.ConfigError{Field: "fetch.end", Reason: err.Error()}
	}
	if r.Start.IsZero() && r.End.IsZero() {
		return core.FetchRange{}, &core.ConfigError{Field: "fetch.range", Reason: "custom range needs start or end"}
	}
	if !r.Start.IsZero() && !r.End.IsZero() && !r.Start.Before(r.End) {
		return core.FetchRange{}, &core.ConfigError{Field: "fetch.end", Reason: "must be after start"}
	}

	return r, nil
}

var boundLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseBound(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range boundLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("not an RFC3339 timestamp: %q", s)
}

// EffectiveWorkers returns the configured worker count, at least one.
func (f FetchConfig) EffectiveWorkers() int {
	if f.Workers <= 0 {
		return 1
	}
	return int(f.Workers)
}
