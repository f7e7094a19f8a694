// FILE: trafficview/src/internal/config/config.go
package config

// Config is the complete application configuration
type Config struct {
	// Remote log container
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Object selection and parsing limits
	Fetch FetchConfig `toml:"fetch" json:"fetch"`

	// Durable copies of each merged dataset
	Snapshot SnapshotConfig `toml:"snapshot" json:"snapshot"`

	// Column and ordering preferences for queries
	View ViewConfig `toml:"view" json:"view"`

	// HTTP API
	Server ServerConfig `toml:"server" json:"server"`

	// Reload triggers and status reporting
	Reload ReloadConfig `toml:"reload" json:"reload"`

	// Application logging
	Logging *LogConfig `toml:"logging" json:"logging"`

	// Runtime flags, not persisted meaningfully
	ConfigFile string `toml:"config_file" json:"config_file"`
	Quiet      bool   `toml:"quiet" json:"quiet"`
}

type StorageConfig struct {
	// Backend type: "azure", "directory"
	Type string `toml:"type" json:"type"`

	// Azure shared key credentials
	Account string `toml:"account" json:"account"`
	Key     string `toml:"key" json:"key"`

	// Azure connection string, takes precedence over account/key
	ConnectionString string `toml:"connection_string" json:"connection_string"`

	Container string `toml:"container" json:"container"`

	// Service URL override (emulators, sovereign clouds)
	Endpoint string `toml:"endpoint" json:"endpoint"`

	// Only objects whose names start with Prefix are listed
	Prefix string `toml:"prefix" json:"prefix"`

	// Directory backend
	Directory string `toml:"directory" json:"directory"`
	Pattern   string `toml:"pattern" json:"pattern"`
}

type FetchConfig struct {
	// "unlimited", "last_hour", "last_day", "custom"
	Range string `toml:"range" json:"range"`

	// RFC3339 bounds for custom ranges, [start, end)
	Start string `toml:"start" json:"start"`
	End   string `toml:"end" json:"end"`

	// Most recent N objects after filtering (0 = all)
	MaxObjects int64 `toml:"max_objects" json:"max_objects"`

	// Concurrent object downloads
	Workers int64 `toml:"workers" json:"workers"`

	// Upper bound for one reload cycle (0 = none)
	TimeoutSeconds int64 `toml:"timeout_seconds" json:"timeout_seconds"`

	// Longer lines are counted as parse errors
	MaxLineBytes int64 `toml:"max_line_bytes" json:"max_line_bytes"`
}

type SnapshotConfig struct {
	Enabled   bool   `toml:"enabled" json:"enabled"`
	Directory string `toml:"directory" json:"directory"`
	CSV       bool   `toml:"csv" json:"csv"`
	SQLite    bool   `toml:"sqlite" json:"sqlite"`

	// Snapshots kept per format (0 = keep all)
	Keep int64 `toml:"keep" json:"keep"`

	// Seed the dataset from the newest SQLite snapshot on startup
	RestoreOnStart bool `toml:"restore_on_start" json:"restore_on_start"`
}

type ViewConfig struct {
	// Curated view columns, in display order
	PreferredColumns []string `toml:"preferred_columns" json:"preferred_columns"`

	// First present field orders records newest first
	TimestampFields []string `toml:"timestamp_fields" json:"timestamp_fields"`

	// Cap on columns returned by the full view (0 = no cap)
	MaxColumns int64 `toml:"max_columns" json:"max_columns"`

	// Move preferred columns to the front of the full view
	PromotePreferred bool `toml:"promote_preferred" json:"promote_preferred"`

	// "all" or "curated"
	DefaultView string `toml:"default_view" json:"default_view"`
}

type ReloadConfig struct {
	// Load once at startup
	OnStart bool `toml:"on_start" json:"on_start"`

	// Watch the config file and reload on storage/fetch changes
	WatchConfig bool `toml:"watch_config" json:"watch_config"`

	// Status report period (0 = disabled)
	StatusIntervalSeconds int64 `toml:"status_interval_seconds" json:"status_interval_seconds"`
}
