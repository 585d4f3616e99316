package dataset

import (
	"sync"

	"github.com/met-norway/dars/internal/daperr"
)

// Registry is the in-memory "Datasets registry" of §5: reads (the
// request path) acquire a shared lock; mutation (mounting, unmounting,
// or the watch-driven aggregate refresh) acquires exclusive.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]Dataset
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Dataset)}
}

// Mount registers ds under id (the relative mount path, §6 "mounts each
// under /data/<relative path>"), closing and replacing any previous
// Dataset at the same id.
func (r *Registry) Mount(id string, ds Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[id]; ok {
		_ = old.Close()
	}
	r.byID[id] = ds
}

// Unmount removes and closes the Dataset at id, if present.
func (r *Registry) Unmount(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[id]; ok {
		_ = old.Close()
		delete(r.byID, id)
	}
}

// Get looks up the Dataset mounted at id.
func (r *Registry) Get(id string) (Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.byID[id]
	if !ok {
		return nil, daperr.New(daperr.UnknownVariable, "no dataset mounted at: "+id)
	}
	return ds, nil
}

// Ids returns every currently mounted id, for the catalog stub.
func (r *Registry) Ids() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}

// CloseAll closes every mounted Dataset, for server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ds := range r.byID {
		_ = ds.Close()
		delete(r.byID, id)
	}
}
