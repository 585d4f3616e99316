// Package dataset implements the façade described in §4.8: the single
// capability surface {das, dds, dods, raw} the HTTP layer drives,
// dispatched over a tagged variant rather than a class hierarchy (§9
// "Polymorphic dataset") since there are exactly two shapes — a single
// container file, and a join-existing aggregation of several.
package dataset

import (
	"context"
	"io"
)

// Dataset is the capability the HTTP layer (out of scope, §1) drives for
// every mounted file or aggregation.
type Dataset interface {
	// DAS renders the Data Attribute Structure text (§4.2).
	DAS() string
	// DDS renders the (possibly constrained) Data Descriptor Structure
	// text for the given query string (§4.3). An empty constraint
	// renders the unconstrained DDS.
	DDS(constraint string) (string, error)
	// DODS writes the constrained DDS, the "\nData:\r\n" separator, and
	// the XDR-packed data for every projected variable to w, in
	// constraint order (§4.8).
	DODS(ctx context.Context, w io.Writer, constraint string) error
	// Raw returns a reader over the dataset's backing bytes and, when
	// known, their length — the out-of-scope ".X" bare-path response
	// (§6); single-file datasets serve the container file itself,
	// aggregations have no single backing file and report os.ErrInvalid.
	Raw(ctx context.Context) (io.ReadCloser, int64, error)
	// Close releases any file handles (mmaps, open streamers) the
	// dataset holds.
	Close() error
}
