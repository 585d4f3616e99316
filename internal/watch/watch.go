// Package watch wraps an fsnotify watcher over an aggregation's scan
// root and translates file create/remove events into member-add/drop
// refreshes of the mounted dataset (§4.7 "Staleness and change", §9
// "two mechanisms coexist").
package watch

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/met-norway/dars/internal/chunkstore"
	"github.com/met-norway/dars/internal/dataset"
	"github.com/met-norway/dars/internal/xlog"
)

// Watcher drives one fsnotify.Watcher for every scanned aggregation root
// known to a Registry, refreshing the affected Aggregate whenever a file
// is created or removed under one of those roots.
type Watcher struct {
	fsw      *fsnotify.Watcher
	store    *chunkstore.Store
	registry *dataset.Registry
	workers  int
	roots    map[string]string // watched directory -> mounted id of the Aggregate
	aggs     map[string]*dataset.Aggregate
}

// New creates a Watcher backed by a fresh fsnotify watcher. Call Watch
// for each aggregation's scan directories, then Run in its own goroutine.
func New(store *chunkstore.Store, registry *dataset.Registry, workers int) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		store:    store,
		registry: registry,
		workers:  workers,
		roots:    make(map[string]string),
		aggs:     make(map[string]*dataset.Aggregate),
	}, nil
}

// Watch registers dir as a scan root belonging to the Aggregate mounted
// at id, adding it to the underlying fsnotify watcher.
func (w *Watcher) Watch(dir, id string, agg *dataset.Aggregate) error {
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.roots[dir] = id
	w.aggs[id] = agg
	return nil
}

// Run processes fsnotify events until the watcher is closed. It is meant
// to run in its own goroutine for the server's lifetime.
func (w *Watcher) Run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			xlog.Log.Warn().Err(err).Msg("watch error")
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	dir := filepath.Dir(ev.Name)
	id, ok := w.roots[dir]
	if !ok {
		return
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return
	}

	agg, ok := w.aggs[id]
	if !ok {
		return
	}

	xlog.Log.Info().Str("dataset", id).Str("path", ev.Name).Str("op", ev.Op.String()).Msg("scan root changed, refreshing aggregation")

	if err := agg.Refresh(dataset.NewIndexer(w.store), w.workers); err != nil {
		xlog.Log.Error().Err(err).Str("dataset", id).Msg("failed to refresh aggregation after disk change")
		return
	}
	w.registry.Mount(id, agg)
}
