package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alitto/pond"

	"github.com/met-norway/dars/internal/chunkstore"
	"github.com/met-norway/dars/internal/hdf5index"
	"github.com/met-norway/dars/internal/xlog"
)

// containerSuffixes are the file extensions serve scans for (§6).
var containerSuffixes = []string{".nc", ".nc4", ".h5"}

// ScanRoot walks root for container and NCML files and mounts each under
// its path relative to root, using a bounded pond worker pool so mounting
// many files at startup doesn't serialize on HDF5 indexing one at a time
// (§4.7's rationale for the same pool inside aggregation opens). A
// per-file open failure is logged and skips that one mount rather than
// aborting the scan (§7 "Aggregate open failures abort mounting of that
// dataset but do not crash the server").
func ScanRoot(root string, store *chunkstore.Store, r *Registry, workers int) error {
	if workers <= 0 {
		workers = 4
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if isContainer(path) || strings.HasSuffix(path, ".ncml") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	pool := pond.New(workers, len(paths))
	for _, p := range paths {
		p := p
		pool.Submit(func() {
			rel, rerr := filepath.Rel(root, p)
			if rerr != nil {
				rel = p
			}
			ds, derr := open(p, store, r, workers)
			if derr != nil {
				xlog.Log.Warn().Err(derr).Str("path", p).Msg("skipping unmountable dataset")
				return
			}
			r.Mount(rel, ds)
		})
	}
	pool.StopAndWait()
	return nil
}

func open(path string, store *chunkstore.Store, _ *Registry, workers int) (Dataset, error) {
	if strings.HasSuffix(path, ".ncml") {
		return OpenAggregate(path, NewIndexer(store), workers)
	}
	return OpenSingle(path, store)
}

// NewIndexer builds the ncml.Indexer closure an aggregation's Build and
// Refresh use to open each member, backed by store so a member already
// indexed for some other mount is reused rather than rebuilt.
func NewIndexer(store *chunkstore.Store) func(string) (*hdf5index.Index, error) {
	return func(memberPath string) (*hdf5index.Index, error) {
		return loadOrBuildIndex(memberPath, store)
	}
}

func isContainer(path string) bool {
	for _, suf := range containerSuffixes {
		if strings.HasSuffix(path, suf) {
			return true
		}
	}
	return false
}

// OpenAny opens a single file at path as either a Single container or an
// NCML Aggregate, dispatching on extension. Used by the watcher and by
// on-demand remounts outside the startup scan.
func OpenAny(path string, store *chunkstore.Store, workers int) (Dataset, error) {
	return open(path, store, nil, workers)
}
