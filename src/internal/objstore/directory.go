// FILE: trafficview/src/internal/objstore/directory.go
package objstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"trafficview/src/internal/config"
	"trafficview/src/internal/core"

	"github.com/lixenwraith/log"
)

// DirectoryStore treats a local directory tree as a container.
// Object names are slash-separated paths relative to the root.
type DirectoryStore struct {
	root    string
	pattern *regexp.Regexp
	prefix  string
	logger  *log.Logger
}

func NewDirectoryStore(cfg config.StorageConfig, logger *log.Logger) (*DirectoryStore, error) {
	if strings.TrimSpace(cfg.Directory) == "" {
		return nil, &core.ConfigError{Field: "storage.directory", Reason: "required for directory backend"}
	}

	absPath, err := filepath.Abs(cfg.Directory)
	if err != nil {
		return nil, &core.ConfigError{Field: "storage.directory", Reason: err.Error()}
	}

	pattern := cfg.Pattern
	if pattern == "" {
		pattern = "*"
	}
	re, err := regexp.Compile(globToRegex(pattern))
	if err != nil {
		return nil, &core.ConfigError{Field: "storage.pattern", Reason: fmt.Sprintf("invalid pattern: %v", err)}
	}

	return &DirectoryStore{
		root:    absPath,
		pattern: re,
		prefix:  filepath.ToSlash(cfg.Prefix),
		logger:  logger,
	}, nil
}

func (ds *DirectoryStore) Name() string {
	return "directory:" + ds.root
}

func (ds *DirectoryStore) List(ctx context.Context) ([]core.ObjectRef, error) {
	var refs []core.ObjectRef

	err := filepath.WalkDir(ds.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(ds.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if ds.prefix != "" && !strings.HasPrefix(name, ds.prefix) {
			return nil
		}
		if !ds.pattern.MatchString(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		refs = append(refs, core.ObjectRef{
			Name:         name,
			LastModified: info.ModTime().UTC(),
			Size:         info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, &core.ConnectivityError{Op: "list " + ds.root, Err: err}
	}

	ds.logger.Debug("msg", "Scanned directory",
		"component", "directory_store",
		"path", ds.root,
		"objects", len(refs))

	return refs, nil
}

func (ds *DirectoryStore) Open(ctx context.Context, ref core.ObjectRef) (io.ReadCloser, error) {
	// Names like "fw..2025.ndjson" are fine; only whole ".." elements escape
	local := filepath.FromSlash(ref.Name)
	if !filepath.IsLocal(local) {
		return nil, &core.ConnectivityError{Op: "download " + ref.Name, Err: fmt.Errorf("object name escapes container")}
	}

	f, err := os.Open(filepath.Join(ds.root, local))
	if err != nil {
		return nil, &core.ConnectivityError{Op: "download " + ref.Name, Err: err}
	}
	return f, nil
}

func (ds *DirectoryStore) Probe(ctx context.Context) error {
	info, err := os.Stat(ds.root)
	if err != nil {
		return &core.ConnectivityError{Op: "probe " + ds.root, Err: err}
	}
	if !info.IsDir() {
		return &core.ConnectivityError{Op: "probe " + ds.root, Err: fmt.Errorf("not a directory")}
	}
	return nil
}

func globToRegex(glob string) string {
	regex := regexp.QuoteMeta(glob)
	regex = strings.ReplaceAll(regex, `\*`, `.*`)
	regex = strings.ReplaceAll(regex, `\?`, `.`)
	return "^" + regex + "$"
}
