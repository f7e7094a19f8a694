// FILE: trafficview/src/cmd/trafficview/signal.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lixenwraith/log"
)

// Manages OS signals
type SignalHandler struct {
	app     *App
	logger  *log.Logger
	sigChan chan os.Signal
}

func NewSignalHandler(app *App, logger *log.Logger) *SignalHandler {
	sh := &SignalHandler{
		app:     app,
		logger:  logger,
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(sh.sigChan,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
		syscall.SIGUSR1,
	)

	return sh
}

// Handle triggers reloads until a termination signal arrives, which it returns
func (sh *SignalHandler) Handle(ctx context.Context) os.Signal {
	for {
		select {
		case sig := <-sh.sigChan:
			switch sig {
			case syscall.SIGHUP, syscall.SIGUSR1:
				sh.logger.Info("msg", "Reload signal received",
					"signal", sig)
				sh.app.TriggerReload(ctx)
			default:
				return sig
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (sh *SignalHandler) Stop() {
	signal.Stop(sh.sigChan)
}
