package artifact

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when no artifact exists for the run / name pair.
var ErrNotFound = errors.New("artifact not found")

// Store persists named run outputs. Implementations must be safe for
// concurrent use.
type Store interface {
	Save(runID, name string, data []byte) error
	Get(runID, name string) ([]byte, error)
	List(runID string) ([]string, error)
	Delete(runID, name string) error
}

// InMemoryStore keeps artifacts in a nested map guarded by an RWMutex. Data
// is copied on save and retrieval so callers cannot mutate stored buffers.
//
// Layout: runID -> name -> raw bytes
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][]byte
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string]map[string][]byte)}
}

// Save stores (or overwrites) the artifact bytes for the given run and name.
func (a *InMemoryStore) Save(runID, name string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.artifacts[runID]; !exists {
		a.artifacts[runID] = make(map[string][]byte)
	}
	a.artifacts[runID][name] = append([]byte(nil), data...)
	return nil
}

// Get returns a copy of the stored artifact bytes or ErrNotFound.
func (a *InMemoryStore) Get(runID, name string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.artifacts[runID][name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// List returns the sorted artifact names stored for the run.
func (a *InMemoryStore) List(runID string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m := a.artifacts[runID]
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Runs returns the sorted ids of all runs with at least one artifact.
func (a *InMemoryStore) Runs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.artifacts))
	for id, m := range a.artifacts {
		if len(m) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Delete removes the artifact if present or returns ErrNotFound.
func (a *InMemoryStore) Delete(runID, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.artifacts[runID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[name]; !ok {
		return ErrNotFound
	}
	delete(m, name)
	return nil
}
