// FILE: trafficview/src/cmd/trafficview/watcher.go
package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"trafficview/src/internal/config"
	"trafficview/src/internal/reload"

	lconfig "github.com/lixenwraith/config"
	"github.com/lixenwraith/log"
)

// changeScope says what a changed config path affects at runtime
type changeScope int

const (
	scopeNone    changeScope = iota
	scopeSource              // storage/fetch: reload the dataset
	scopeView                // view/snapshot/reload: applied on next read or cycle
	scopeRestart             // server/logging: needs a restart
)

// ConfigWatcher follows the configuration file and republishes it
type ConfigWatcher struct {
	configPath string
	// lconfig's own copy, never the published config
	target     *config.Config
	store      *config.Store
	controller *reload.Controller
	logger     *log.Logger

	lcfg       *lconfig.Config
	shutdownCh chan struct{}
	once       sync.Once
	wg         sync.WaitGroup
}

func NewConfigWatcher(configPath string, initial *config.Config, store *config.Store, controller *reload.Controller, logger *log.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		configPath: configPath,
		target:     initial.Clone(),
		store:      store,
		controller: controller,
		logger:     logger,
		shutdownCh: make(chan struct{}),
	}
}

// Start begins watching for configuration changes
func (w *ConfigWatcher) Start(ctx context.Context) error {
	lcfg, err := lconfig.NewBuilder().
		WithFile(w.configPath).
		WithTarget(w.target).
		WithFileFormat("toml").
		WithSecurityOptions(lconfig.SecurityOptions{
			PreventPathTraversal: true,
			MaxFileSize:          10 * 1024 * 1024,
		}).
		Build()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	w.lcfg = lcfg

	lcfg.AutoUpdateWithOptions(lconfig.WatchOptions{
		PollInterval:      time.Second,
		Debounce:          500 * time.Millisecond,
		ReloadTimeout:     30 * time.Second,
		VerifyPermissions: true,
	})

	w.wg.Add(1)
	go w.watchLoop(ctx)

	w.logger.Info("msg", "Configuration watch enabled",
		"component", "config_watcher",
		"config_file", w.configPath)

	return nil
}

func (w *ConfigWatcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()

	changeCh := w.lcfg.Watch()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdownCh:
			return
		case changedPath, ok := <-changeCh:
			if !ok {
				return
			}

			switch changedPath {
			case "file_deleted":
				w.logger.Error("msg", "Configuration file deleted",
					"component", "config_watcher",
					"action", "keeping current configuration")
				continue
			case "permissions_changed":
				w.logger.Error("msg", "Configuration file permissions changed",
					"component", "config_watcher",
					"action", "reload blocked for security")
				continue
			case "reload_timeout":
				w.logger.Error("msg", "Configuration reload timed out",
					"component", "config_watcher",
					"action", "keeping current configuration")
				continue
			default:
				if strings.HasPrefix(changedPath, "reload_error:") {
					w.logger.Error("msg", "Configuration reload error",
						"component", "config_watcher",
						"error", strings.TrimPrefix(changedPath, "reload_error:"),
						"action", "keeping current configuration")
					continue
				}
			}

			w.apply(ctx, changedPath)
		}
	}
}

// apply publishes the file's current content. Each save produces one
// notification per changed path; only the first sees a difference.
func (w *ConfigWatcher) apply(ctx context.Context, changedPath string) {
	if scopeOf(changedPath) == scopeRestart {
		w.logger.Warn("msg", "Configuration change requires restart",
			"component", "config_watcher",
			"path", changedPath)
	}

	updated, err := w.lcfg.AsStruct()
	if err != nil {
		w.logger.Error("msg", "Failed to read updated configuration",
			"component", "config_watcher",
			"error", err)
		return
	}
	next, ok := updated.(*config.Config)
	if !ok || next == nil {
		return
	}
	next = next.Clone()

	current := w.store.Get()
	// Settings owned by the process, not the file
	next.ConfigFile = current.ConfigFile
	next.Quiet = current.Quiet
	next.Server = current.Server
	next.Logging = current.Logging

	if err := w.store.Replace(next); err != nil {
		w.logger.Error("msg", "Updated configuration rejected",
			"component", "config_watcher",
			"path", changedPath,
			"error", err,
			"action", "keeping current configuration")
		return
	}

	if sourceChanged(current, next) {
		res := w.controller.Trigger(ctx)
		w.logger.Info("msg", "Source configuration changed",
			"component", "config_watcher",
			"path", changedPath,
			"reload_accepted", res.Accepted)
	}
}

// Shutdown stops the watch loop and lconfig's poller
func (w *ConfigWatcher) Shutdown() {
	w.once.Do(func() {
		close(w.shutdownCh)
		w.wg.Wait()
		if w.lcfg != nil {
			w.lcfg.StopAutoUpdate()
		}
	})
}

func scopeOf(path string) changeScope {
	section, _, _ := strings.Cut(path, ".")
	switch section {
	case "storage", "fetch":
		return scopeSource
	case "view", "snapshot", "reload":
		return scopeView
	case "server", "logging":
		return scopeRestart
	default:
		return scopeNone
	}
}

func sourceChanged(old, updated *config.Config) bool {
	return old.Storage != updated.Storage || old.Fetch != updated.Fetch
}
