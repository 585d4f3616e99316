// Package config holds the server's runtime configuration, bound from CLI
// flags by cmd/dars.
package config

import "path/filepath"

// Config is the full set of knobs the serve subcommand accepts.
type Config struct {
	// Root is the directory scanned for .nc, .nc4, .h5 and .ncml files.
	Root string
	// Addr is the HTTP listen address, e.g. "127.0.0.1:8001".
	Addr string
	// IndexPath is the bbolt database file backing the chunk index store.
	IndexPath string
}

// DefaultAddr is used when --addr is not given.
const DefaultAddr = "127.0.0.1:8001"

// DefaultIndexPath derives the default chunk-index store path from root.
func DefaultIndexPath(root string) string {
	return filepath.Join(root, ".dars-index")
}
