package dataset

import (
	"context"
	"io"
	"os"

	"github.com/met-norway/dars/internal/chunkstore"
	"github.com/met-norway/dars/internal/dap2"
	"github.com/met-norway/dars/internal/daperr"
	"github.com/met-norway/dars/internal/hdf5index"
	"github.com/met-norway/dars/internal/streamio"
)

// Single is a Dataset backed by one HDF5/NetCDF-4 container file, indexed
// once via hdf5index and served thereafter from its memory-mapped payload
// (§4.6).
type Single struct {
	path     string
	idx      *hdf5index.Index
	das      string
	dds      *dap2.DDS
	streamer *hdf5index.Streamer
}

// OpenSingle opens path, loading its index from store (building and
// caching it on first use), and memory-maps its payload for reads.
func OpenSingle(path string, store *chunkstore.Store) (*Single, error) {
	idx, err := loadOrBuildIndex(path, store)
	if err != nil {
		return nil, err
	}

	streamer, err := hdf5index.Open(idx)
	if err != nil {
		return nil, err
	}

	name := baseName(path)
	c := idx.Container(name)
	return &Single{
		path:     path,
		idx:      idx,
		das:      dap2.BuildDAS(c),
		dds:      dap2.BuildDDS(c),
		streamer: streamer,
	}, nil
}

// loadOrBuildIndex serves a cached index for path from store, or builds
// and persists one on first use, guarded by store's per-path lock so two
// concurrent opens of the same new file don't index it twice (§5).
func loadOrBuildIndex(path string, store *chunkstore.Store) (*hdf5index.Index, error) {
	canon, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}

	lock := store.Lock(canon)
	lock.Lock()
	defer lock.Unlock()

	if cached, ok, err := store.Get(canon); err != nil {
		return nil, err
	} else if ok {
		if stale, serr := cached.Stale(); serr == nil && !stale {
			return cached, nil
		}
	}

	payloadPath := canon + ".payload"
	idx, err := hdf5index.Build(canon, payloadPath)
	if err != nil {
		return nil, err
	}
	if err := store.Put(canon, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepathAbs(path)
	if err != nil {
		return "", daperr.Wrap(daperr.IoError, "resolve canonical path: "+path, err)
	}
	return abs, nil
}

// DAS implements Dataset.
func (s *Single) DAS() string {
	return s.das
}

// DDS implements Dataset. It also pre-checks staleness (§4.6, §7) so the
// same check that gates DODS already rejects a stale dataset during the
// httpapi pre-flight call to DDS before any DODS body byte is written.
func (s *Single) DDS(constraint string) (string, error) {
	if stale, err := s.idx.Stale(); err != nil {
		return "", err
	} else if stale {
		return "", daperr.New(daperr.StaleDataset, "container changed on disk: "+s.path)
	}

	c, err := dap2.ParseConstraint(constraint)
	if err != nil {
		return "", err
	}
	cdds, err := s.dds.Project(c)
	if err != nil {
		return "", err
	}
	return cdds.Text, nil
}

// DODS implements Dataset.
func (s *Single) DODS(ctx context.Context, w io.Writer, constraint string) error {
	if stale, err := s.idx.Stale(); err != nil {
		return err
	} else if stale {
		return daperr.New(daperr.StaleDataset, "container changed on disk: "+s.path)
	}

	c, err := dap2.ParseConstraint(constraint)
	if err != nil {
		return err
	}
	cdds, err := s.dds.Project(c)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, cdds.Text); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\nData:\r\n"); err != nil {
		return err
	}
	for _, v := range cdds.Variables {
		if err := streamio.StreamVariable(ctx, w, v, s.streamer, 0); err != nil {
			return err
		}
	}
	return nil
}

// Raw implements Dataset: it reopens the backing container file for a
// plain byte stream (the out-of-scope bare-path response, §6).
func (s *Single) Raw(_ context.Context) (io.ReadCloser, int64, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, 0, daperr.Wrap(daperr.IoError, "open raw: "+s.path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, daperr.Wrap(daperr.IoError, "stat raw: "+s.path, err)
	}
	return f, fi.Size(), nil
}

// Close implements Dataset.
func (s *Single) Close() error {
	return s.streamer.Close()
}
