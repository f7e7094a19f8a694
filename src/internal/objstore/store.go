// FILE: trafficview/src/internal/objstore/store.go
package objstore

import (
	"context"
	"fmt"
	"io"

	"trafficview/src/internal/config"
	"trafficview/src/internal/core"

	"github.com/lixenwraith/log"
)

// Store is a flat container of log objects
type Store interface {
	// Name identifies the backend in logs and status output
	Name() string

	// List returns every object in the container, across all pages
	List(ctx context.Context) ([]core.ObjectRef, error)

	// Open streams one object's content
	Open(ctx context.Context, ref core.ObjectRef) (io.ReadCloser, error)

	// Probe performs the cheapest call that proves credentials and reachability
	Probe(ctx context.Context) error
}

// New creates the backend selected by cfg.Type.
func New(cfg config.StorageConfig, logger *log.Logger) (Store, error) {
	switch cfg.Type {
	case "azure", "":
		return NewAzureStore(cfg, logger)
	case "directory":
		return NewDirectoryStore(cfg, logger)
	default:
		return nil, &core.ConfigError{Field: "storage.type", Reason: fmt.Sprintf("unknown backend '%s'", cfg.Type)}
	}
}

// NewProber returns a config.Prober that builds a throwaway store for the
// candidate configuration and probes it.
func NewProber(logger *log.Logger) config.Prober {
	return func(ctx context.Context, cfg *config.Config) error {
		if err := config.ValidateSource(cfg); err != nil {
			return err
		}
		store, err := New(cfg.Storage, logger)
		if err != nil {
			return err
		}
		return store.Probe(ctx)
	}
}
