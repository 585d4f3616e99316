package dataset

import (
	"context"
	"io"
	"os"

	"github.com/met-norway/dars/internal/daperr"
	"github.com/met-norway/dars/internal/dap2"
	"github.com/met-norway/dars/internal/ncml"
	"github.com/met-norway/dars/internal/streamio"
)

// Aggregate is a Dataset backed by a join-existing NCML aggregation of
// several container files (§4.7).
type Aggregate struct {
	ncmlPath string
	agg      *ncml.Aggregation
	das      string
	dds      *dap2.DDS
}

// OpenAggregate parses and opens the NCML descriptor at ncmlPath, builds
// its member set via indexer (backed by the same chunk-index store as
// single-file datasets), and memory-maps every member's payload.
func OpenAggregate(ncmlPath string, indexer ncml.Indexer, workers int) (*Aggregate, error) {
	agg, err := ncml.Build(ncmlPath, indexer, workers)
	if err != nil {
		return nil, err
	}
	if err := agg.OpenReaders(); err != nil {
		return nil, err
	}

	name := baseName(ncmlPath)
	c := agg.Container()
	return &Aggregate{
		ncmlPath: ncmlPath,
		agg:      agg,
		das:      dap2.BuildDAS(c),
		dds:      dap2.BuildDDS(c),
	}, nil
}

// DAS implements Dataset.
func (a *Aggregate) DAS() string {
	return a.das
}

// DDS implements Dataset.
func (a *Aggregate) DDS(constraint string) (string, error) {
	c, err := dap2.ParseConstraint(constraint)
	if err != nil {
		return "", err
	}
	cdds, err := a.dds.Project(c)
	if err != nil {
		return "", err
	}
	return cdds.Text, nil
}

// DODS implements Dataset.
func (a *Aggregate) DODS(ctx context.Context, w io.Writer, constraint string) error {
	c, err := dap2.ParseConstraint(constraint)
	if err != nil {
		return err
	}
	cdds, err := a.dds.Project(c)
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
		if err := streamio.StreamVariable(ctx, w, v, a.agg, 0); err != nil {
			return err
		}
	}
	return nil
}

// Raw implements Dataset: an aggregation has no single backing file, so
// the out-of-scope bare-path response is unsupported.
func (a *Aggregate) Raw(_ context.Context) (io.ReadCloser, int64, error) {
	return nil, 0, daperr.Wrap(daperr.IoError, "raw byte access is not defined for an aggregation", os.ErrInvalid)
}

// Close implements Dataset.
func (a *Aggregate) Close() error {
	return a.agg.CloseReaders()
}

// Refresh rebuilds the aggregation's member set, ranking, coordinate
// cache and derived DAS/DDS after a watch-driven member add/drop (§4.7
// "Staleness and change"). The old reader set is closed once the new one
// is open.
func (a *Aggregate) Refresh(indexer ncml.Indexer, workers int) error {
	rebuilt, err := OpenAggregate(a.ncmlPath, indexer, workers)
	if err != nil {
		return err
	}
	old := a.agg
	a.agg = rebuilt.agg
	a.das = rebuilt.das
	a.dds = rebuilt.dds
	return old.CloseReaders()
}
