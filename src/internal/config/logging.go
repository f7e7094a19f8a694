// FILE: trafficview/src/internal/config/logging.go
package config

import (
	"fmt"
	"slices"
)

var (
	logOutputs = []string{"stdout", "stderr", "file", "both", "none"}
	logLevels  = []string{"debug", "info", "warn", "error"}
	logTargets = []string{"stdout", "stderr", "split"}
	logFormats = []string{"", "txt", "json"}
)

// LogConfig is the [logging] section
type LogConfig struct {
	// stdout, stderr, file, both (file + console) or none
	Output string `toml:"output" json:"output"`
	Level  string `toml:"level" json:"level"`

	File    *LogFileConfig    `toml:"file" json:"file"`
	Console *LogConsoleConfig `toml:"console" json:"console"`
}

// LogFileConfig sizes and ages the rotated log files
type LogFileConfig struct {
	Directory      string  `toml:"directory" json:"directory"`
	Name           string  `toml:"name" json:"name"`
	MaxSizeMB      int64   `toml:"max_size_mb" json:"max_size_mb"`
	MaxTotalSizeMB int64   `toml:"max_total_size_mb" json:"max_total_size_mb"`
	RetentionHours float64 `toml:"retention_hours" json:"retention_hours"`
}

type LogConsoleConfig struct {
	// "split" sends warn and error to stderr, the rest to stdout
	Target string `toml:"target" json:"target"`
	Format string `toml:"format" json:"format"`
}

// DefaultLogConfig logs info and above as text on stderr. File settings
// apply once output is switched to file or both.
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Output: "stderr",
		Level:  "info",
		File: &LogFileConfig{
			Directory:      "./log",
			Name:           "trafficview",
			MaxSizeMB:      100,
			MaxTotalSizeMB: 1000,
			RetentionHours: 7 * 24,
		},
		Console: &LogConsoleConfig{Target: "stderr", Format: "txt"},
	}
}

func validateLogConfig(cfg *LogConfig) error {
	if cfg == nil {
		return fmt.Errorf("logging section missing")
	}
	if !slices.Contains(logOutputs, cfg.Output) {
		return fmt.Errorf("logging.output: '%s' is not one of %v", cfg.Output, logOutputs)
	}
	if !slices.Contains(logLevels, cfg.Level) {
		return fmt.Errorf("logging.level: '%s' is not one of %v", cfg.Level, logLevels)
	}

	if c := cfg.Console; c != nil {
		if !slices.Contains(logTargets, c.Target) {
			return fmt.Errorf("logging.console.target: '%s' is not one of %v", c.Target, logTargets)
		}
		if !slices.Contains(logFormats, c.Format) {
			return fmt.Errorf("logging.console.format: '%s' is not txt or json", c.Format)
		}
	}

	if cfg.Output != "file" && cfg.Output != "both" {
		return nil
	}
	f := cfg.File
	switch {
	case f == nil:
		return fmt.Errorf("logging.output '%s' needs a [logging.file] section", cfg.Output)
	case f.Name == "":
		return fmt.Errorf("logging.file.name is required for file output")
	case f.MaxSizeMB < 0 || f.MaxTotalSizeMB < 0 || f.RetentionHours < 0:
		return fmt.Errorf("logging.file: sizes and retention must not be negative")
	}
	return nil
}
