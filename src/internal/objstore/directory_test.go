// FILE: trafficview/src/internal/objstore/directory_test.go
package objstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trafficview/src/internal/config"
	"trafficview/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func writeObject(t *testing.T, root, name, content string, mod time.Time) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestDirectoryStore_ListAndOpen(t *testing.T) {
	root := t.TempDir()
	mod := time.Date(2025, 9, 20, 3, 35, 58, 0, time.UTC)
	writeObject(t, root, "2025/09/20/a.ndjson", `{"a":1}`+"\n", mod)
	writeObject(t, root, "2025/09/20/b.ndjson", `{"b":2}`+"\n", mod.Add(time.Minute))
	writeObject(t, root, "notes.txt", "ignore me", mod)

	store, err := NewDirectoryStore(config.StorageConfig{Type: "directory", Directory: root, Pattern: "*.ndjson"}, newTestLogger())
	require.NoError(t, err)

	refs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)

	byName := map[string]core.ObjectRef{}
	for _, r := range refs {
		byName[r.Name] = r
	}
	require.Contains(t, byName, "2025/09/20/a.ndjson")
	assert.True(t, byName["2025/09/20/a.ndjson"].LastModified.Equal(mod))

	rc, err := store.Open(context.Background(), byName["2025/09/20/b.ndjson"])
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`+"\n", string(data))

	require.NoError(t, store.Probe(context.Background()))
}

func TestDirectoryStore_Prefix(t *testing.T) {
	root := t.TempDir()
	mod := time.Now()
	writeObject(t, root, "fw1/a.ndjson", "{}", mod)
	writeObject(t, root, "fw2/b.ndjson", "{}", mod)

	store, err := NewDirectoryStore(config.StorageConfig{Directory: root, Prefix: "fw2/"}, newTestLogger())
	require.NoError(t, err)

	refs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "fw2/b.ndjson", refs[0].Name)
}

func TestDirectoryStore_Errors(t *testing.T) {
	_, err := NewDirectoryStore(config.StorageConfig{}, newTestLogger())
	assert.Equal(t, "config", core.ErrorKind(err))

	store, err := NewDirectoryStore(config.StorageConfig{Directory: filepath.Join(t.TempDir(), "missing")}, newTestLogger())
	require.NoError(t, err)

	_, err = store.List(context.Background())
	assert.Equal(t, "connectivity", core.ErrorKind(err))
	assert.Equal(t, "connectivity", core.ErrorKind(store.Probe(context.Background())))

	for _, name := range []string{"../etc/passwd", "a/../../etc/passwd", "/etc/passwd", ""} {
		_, err = store.Open(context.Background(), core.ObjectRef{Name: name})
		assert.Equal(t, "connectivity", core.ErrorKind(err), name)
	}
}

func TestDirectoryStore_DotsInName(t *testing.T) {
	root := t.TempDir()
	mod := time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)
	writeObject(t, root, "fw..2025-09-20.ndjson", `{"a":1}`+"\n", mod)
	writeObject(t, root, "sub/..hidden.ndjson", `{"b":2}`+"\n", mod)

	store, err := NewDirectoryStore(config.StorageConfig{Directory: root, Pattern: "*.ndjson"}, newTestLogger())
	require.NoError(t, err)

	refs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)

	for _, ref := range refs {
		rc, err := store.Open(context.Background(), ref)
		require.NoError(t, err, ref.Name)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestNew_Backends(t *testing.T) {
	s, err := New(config.StorageConfig{Type: "directory", Directory: t.TempDir()}, newTestLogger())
	require.NoError(t, err)
	assert.Contains(t, s.Name(), "directory:")

	s, err = New(config.StorageConfig{Type: "azure", Account: "devstoreaccount1",
		Key:       "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==",
		Container: "logs", Endpoint: "http://127.0.0.1:10000/devstoreaccount1"}, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "azure:logs", s.Name())

	_, err = New(config.StorageConfig{Type: "ftp"}, newTestLogger())
	assert.Equal(t, "config", core.ErrorKind(err))
}
