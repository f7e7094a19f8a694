// FILE: trafficview/src/cmd/trafficview/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"trafficview/src/cmd/trafficview/commands"
	"trafficview/src/internal/config"
	"trafficview/src/internal/version"

	"github.com/lixenwraith/log"
)

var logger *log.Logger

func main() {
	// Subcommands run before any service setup
	router := commands.NewCommandRouter()
	handled, err := router.Route(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if handled {
		os.Exit(0)
	}

	flagCfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stdio.setQuiet(flagCfg.Quiet)

	if flagCfg.ShowVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	if flagCfg.ConfigFile != "" {
		os.Setenv("TRAFFICVIEW_CONFIG_FILE", flagCfg.ConfigFile)
	}

	cfg, err := config.LoadWithCLI(flagCfg.ConfigArgs)
	if err != nil {
		stdio.fatalf(1, "Failed to load config: %v\n", err)
	}
	cfg.Quiet = cfg.Quiet || flagCfg.Quiet
	stdio.setQuiet(cfg.Quiet)

	if err := initializeLogger(cfg); err != nil {
		stdio.fatalf(1, "Failed to initialize logger: %v\n", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "TrafficView starting",
		"version", version.String(),
		"config_file", cfg.ConfigFile,
		"log_output", cfg.Logging.Output)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrapApp(ctx, cfg)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap service", "error", err)
		shutdownLogger()
		os.Exit(1)
	}

	signals := NewSignalHandler(app, logger)
	sig := signals.Handle(ctx)
	signals.Stop()

	logger.Info("msg", "Shutdown signal received, starting graceful shutdown",
		"signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		app.Shutdown()
		cancel()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("msg", "Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Error("msg", "Shutdown timeout exceeded, forcing exit")
		shutdownLogger()
		os.Exit(1)
	}
}
