// FILE: trafficview/src/internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"trafficview/src/internal/core"

	lconfig "github.com/lixenwraith/config"
)

const envPrefix = "TRAFFICVIEW_"

func defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			Type:    "azure",
			Pattern: "*",
		},
		Fetch: FetchConfig{
			Range:          string(core.RangeUnlimited),
			MaxObjects:     0,
			Workers:        4,
			TimeoutSeconds: 300,
			MaxLineBytes:   core.DefaultMaxLineBytes,
		},
		Snapshot: SnapshotConfig{
			Enabled:   true,
			Directory: "./out",
			CSV:       true,
			SQLite:    true,
			Keep:      10,
		},
		View: ViewConfig{
			PreferredColumns: append([]string(nil), core.DefaultPreferredColumns...),
			TimestampFields:  append([]string(nil), core.DefaultTimestampFields...),
			MaxColumns:       core.DefaultMaxColumns,
			DefaultView:      "all",
		},
		Server: ServerConfig{
			Enabled:            true,
			Host:               "0.0.0.0",
			Port:               8000,
			ReadTimeoutMS:      10000,
			WriteTimeoutMS:     60000,
			MaxRequestBodySize: 1 << 20,
			ExportCacheSize:    16,
		},
		Reload: ReloadConfig{
			OnStart:               true,
			WatchConfig:           true,
			StatusIntervalSeconds: 30,
		},
		Logging: DefaultLogConfig(),
	}
}

// Default returns a fresh copy of the built-in defaults.
func Default() *Config {
	return defaults()
}

// LoadWithCLI loads configuration from defaults, file, environment and CLI
// arguments, in increasing precedence.
func LoadWithCLI(cliArgs []string) (*Config, error) {
	configPath := GetConfigPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix(envPrefix).
		WithFile(configPath).
		WithArgs(cliArgs).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("failed to load config from %s", configPath)
	}

	if err := applyLegacyEnv(cfg, cliArgs); err != nil {
		return nil, err
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig, ""); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}
	finalConfig.ConfigFile = configPath

	return finalConfig, validateConfig(finalConfig)
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = envPrefix + env
	return env
}

func GetConfigPath() string {
	if configFile := os.Getenv(envPrefix + "CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv(envPrefix + "CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv(envPrefix + "CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "trafficview.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(homeDir, ".config", "trafficview.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "trafficview.toml"
}

// legacyEnv maps environment names used by earlier deployments onto config paths
var legacyEnv = []struct {
	env    string
	path   string
	isInt  bool
	isPath bool
}{
	{env: "AZURE_STORAGE_ACCOUNT", path: "storage.account"},
	{env: "AZURE_STORAGE_KEY", path: "storage.key"},
	{env: "AZURE_STORAGE_CONNECTION_STRING", path: "storage.connection_string"},
	{env: "AZURE_CONTAINER", path: "storage.container"},
	{env: "PORT", path: "server.port", isInt: true},
	{env: "MAX_BLOBS", path: "fetch.max_objects", isInt: true},
	{env: "OUTPUT_DIR", path: "snapshot.directory", isPath: true},
}

// applyLegacyEnv sets legacy values unless the prefixed variable or a CLI
// argument already provides the same key.
func applyLegacyEnv(cfg *lconfig.Config, cliArgs []string) error {
	if cfg == nil {
		return nil
	}

	for _, m := range legacyEnv {
		raw, ok := os.LookupEnv(m.env)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if _, set := os.LookupEnv(customEnvTransform(m.path)); set {
			continue
		}
		if argsMention(cliArgs, m.path) {
			continue
		}

		raw = strings.TrimSpace(raw)
		switch {
		case m.isInt:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid %s=%q: %w", m.env, raw, err)
			}
			cfg.Set(m.path, n)
		case m.isPath:
			cfg.Set(m.path, filepath.Clean(raw))
		default:
			cfg.Set(m.path, raw)
		}
	}

	return nil
}

func argsMention(args []string, path string) bool {
	for _, arg := range args {
		key := strings.TrimLeft(arg, "-")
		if key == path || strings.HasPrefix(key, path+"=") {
			return true
		}
	}
	return false
}
