// FILE: trafficview/src/cmd/trafficview/bootstrap.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"trafficview/src/internal/config"
	"trafficview/src/internal/objstore"
	"trafficview/src/internal/reload"
	"trafficview/src/internal/server"
	"trafficview/src/internal/snapshot"
	"trafficview/src/internal/version"

	"github.com/lixenwraith/log"
)

// App is the running service: config store, reload controller and the
// optional HTTP API, config watcher and status reporter around them
type App struct {
	store      *config.Store
	controller *reload.Controller
	server     *server.Server
	watcher    *ConfigWatcher
	reporter   context.CancelFunc
}

// bootstrapApp wires every component from cfg and starts them.
func bootstrapApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		store: config.NewStore(cfg, cfg.ConfigFile, logger),
	}
	app.controller = reload.NewController(ctx, app.store, logger)

	if cfg.Snapshot.RestoreOnStart {
		if err := app.controller.RestoreLatest(); err != nil {
			if errors.Is(err, snapshot.ErrNoSnapshot) {
				logger.Info("msg", "No snapshot to restore",
					"directory", cfg.Snapshot.Directory)
			} else {
				logger.Warn("msg", "Snapshot restore failed, starting empty",
					"directory", cfg.Snapshot.Directory,
					"error", err)
			}
		}
	}

	if cfg.Server.Enabled {
		srv, err := server.New(app.store, app.controller, objstore.NewProber(logger), logger)
		if err != nil {
			app.controller.Shutdown()
			return nil, fmt.Errorf("failed to create HTTP server: %w", err)
		}
		if err := srv.Start(ctx); err != nil {
			app.controller.Shutdown()
			return nil, err
		}
		app.server = srv
		displayEndpoints(cfg)
	}

	if cfg.Reload.WatchConfig && cfg.ConfigFile != "" {
		if _, err := os.Stat(cfg.ConfigFile); err == nil {
			app.watcher = NewConfigWatcher(cfg.ConfigFile, cfg, app.store, app.controller, logger)
			if err := app.watcher.Start(ctx); err != nil {
				logger.Warn("msg", "Configuration watch disabled",
					"config_file", cfg.ConfigFile,
					"error", err)
				app.watcher = nil
			}
		}
	}

	if cfg.Reload.StatusIntervalSeconds > 0 {
		reporterCtx, cancel := context.WithCancel(ctx)
		app.reporter = cancel
		go statusReporter(reporterCtx, app.controller, time.Duration(cfg.Reload.StatusIntervalSeconds)*time.Second)
	}

	if cfg.Reload.OnStart {
		app.controller.Trigger(ctx)
	}

	logger.Info("msg", "TrafficView started",
		"version", version.Short(),
		"storage", cfg.Storage.Type,
		"range", cfg.Fetch.Range,
		"server_enabled", cfg.Server.Enabled,
		"watch_config", app.watcher != nil)

	return app, nil
}

// Shutdown stops components in reverse start order.
func (a *App) Shutdown() {
	if a.reporter != nil {
		a.reporter()
	}
	if a.watcher != nil {
		a.watcher.Shutdown()
	}
	if a.server != nil {
		a.server.Stop()
	}
	a.controller.Shutdown()
}

// TriggerReload starts a reload unless one is already running.
func (a *App) TriggerReload(ctx context.Context) {
	res := a.controller.Trigger(ctx)
	if !res.Accepted {
		logger.Info("msg", "Reload already in progress, request ignored")
	}
}

func displayEndpoints(cfg *config.Config) {
	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	base := fmt.Sprintf("%s://%s:%d", scheme, host, cfg.Server.Port)

	stdio.printf("TrafficView %s listening on %s\n", version.Short(), base)
	stdio.printf("  Data:    %s/data  (%s/data.csv, %s/data.json, %s/data.ndjson)\n", base, base, base, base)
	stdio.printf("  Reload:  POST %s/reload\n", base)
	stdio.printf("  Status:  %s/status\n", base)
}

// initializeLogger sets up the logger based on configuration
func initializeLogger(cfg *config.Config) error {
	logger = log.NewLogger()

	var configArgs []string

	if cfg.Quiet {
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255")

		return logger.InitWithDefaults(configArgs...)
	}

	levelValue, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	switch cfg.Logging.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout", "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target="+cfg.Logging.Output)

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configureFileLogging(&configArgs, cfg)

	case "both":
		configArgs = append(configArgs, "enable_stdout=true")
		configureFileLogging(&configArgs, cfg)
		configureConsoleTarget(&configArgs, cfg)

	default:
		return fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	if cfg.Logging.Console != nil && cfg.Logging.Console.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Logging.Console.Format))
	}

	return logger.InitWithDefaults(configArgs...)
}

func configureFileLogging(configArgs *[]string, cfg *config.Config) {
	if cfg.Logging.File != nil {
		*configArgs = append(*configArgs,
			fmt.Sprintf("directory=%s", cfg.Logging.File.Directory),
			fmt.Sprintf("name=%s", cfg.Logging.File.Name),
			fmt.Sprintf("max_size_mb=%d", cfg.Logging.File.MaxSizeMB),
			fmt.Sprintf("max_total_size_mb=%d", cfg.Logging.File.MaxTotalSizeMB))

		if cfg.Logging.File.RetentionHours > 0 {
			*configArgs = append(*configArgs,
				fmt.Sprintf("retention_period_hrs=%.1f", cfg.Logging.File.RetentionHours))
		}
	}
}

func configureConsoleTarget(configArgs *[]string, cfg *config.Config) {
	target := "stderr"

	if cfg.Logging.Console != nil && cfg.Logging.Console.Target != "" {
		target = cfg.Logging.Console.Target
	}

	// Level-based routing: info/debug to stdout, warn/error to stderr
	if target == "split" {
		*configArgs = append(*configArgs, "stdout_split_mode=true")
	}
	*configArgs = append(*configArgs, fmt.Sprintf("stdout_target=%s", target))
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			stdio.errorf("Logger shutdown error: %v\n", err)
		}
	}
}
