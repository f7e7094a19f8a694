// FILE: trafficview/src/internal/objstore/memory.go
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"trafficview/src/internal/core"
)

// MemoryStore keeps objects in process. It backs tests and embedded use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// Optional hooks, checked on every call
	ListErr    error
	OpenErrs   map[string]error
	BeforeList func(ctx context.Context) error
}

type memoryObject struct {
	data         []byte
	lastModified time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:  make(map[string]memoryObject),
		OpenErrs: make(map[string]error),
	}
}

// Put adds or replaces an object.
func (m *MemoryStore) Put(name string, lastModified time.Time, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = memoryObject{data: append([]byte(nil), data...), lastModified: lastModified.UTC()}
}

// Delete removes an object.
func (m *MemoryStore) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, name)
}

func (m *MemoryStore) Name() string {
	return "memory"
}

func (m *MemoryStore) List(ctx context.Context) ([]core.ObjectRef, error) {
	if m.BeforeList != nil {
		if err := m.BeforeList(ctx); err != nil {
			return nil, &core.ConnectivityError{Op: "list memory", Err: err}
		}
	}
	if m.ListErr != nil {
		return nil, &core.ConnectivityError{Op: "list memory", Err: m.ListErr}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	refs := make([]core.ObjectRef, 0, len(m.objects))
	for name, obj := range m.objects {
		refs = append(refs, core.ObjectRef{Name: name, LastModified: obj.lastModified, Size: int64(len(obj.data))})
	}
	// Map order is random; listing order must not leak into results
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (m *MemoryStore) Open(ctx context.Context, ref core.ObjectRef) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.OpenErrs[ref.Name]; err != nil {
		return nil, &core.ConnectivityError{Op: "download " + ref.Name, Err: err}
	}
	obj, ok := m.objects[ref.Name]
	if !ok {
		return nil, &core.ConnectivityError{Op: "download " + ref.Name, Err: fmt.Errorf("object not found")}
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemoryStore) Probe(ctx context.Context) error {
	if m.ListErr != nil {
		return &core.ConnectivityError{Op: "probe memory", Err: m.ListErr}
	}
	return nil
}
