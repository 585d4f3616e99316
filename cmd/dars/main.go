// Command dars serves scientific array datasets over DAP2 (§6): point it
// at a directory of HDF5/NetCDF-4 containers and .ncml aggregation
// descriptors and it mounts each under /data/<relative path>.
package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/met-norway/dars/internal/chunkstore"
	"github.com/met-norway/dars/internal/config"
	"github.com/met-norway/dars/internal/dataset"
	"github.com/met-norway/dars/internal/httpapi"
	"github.com/met-norway/dars/internal/ncml"
	"github.com/met-norway/dars/internal/watch"
	"github.com/met-norway/dars/internal/xlog"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		xlog.Log.Fatal().Err(err).Msg("dars exited with an error")
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dars",
		Short: "Serve scientific array datasets over DAP2",
	}
	root.AddCommand(serveCmd())
	return root
}

func serveCmd() *cobra.Command {
	var addr, indexPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "serve <root>",
		Short: "Scan a directory and serve its datasets over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			cfg := config.Config{
				Root:      root,
				Addr:      addr,
				IndexPath: indexPath,
			}
			if cfg.IndexPath == "" {
				cfg.IndexPath = config.DefaultIndexPath(cfg.Root)
			}
			return serve(cfg, workers)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "HTTP listen address")
	cmd.Flags().StringVar(&indexPath, "index", "", "chunk-index store path (default <root>/.dars-index)")
	cmd.Flags().IntVar(&workers, "workers", 4, "bounded worker pool size for indexing and aggregation opens")

	return cmd
}

func serve(cfg config.Config, workers int) error {
	xlog.Log.Info().Str("root", cfg.Root).Str("addr", cfg.Addr).Msg("starting dars")

	store, err := chunkstore.Open(cfg.IndexPath)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := dataset.NewRegistry()
	defer registry.CloseAll()

	if err := dataset.ScanRoot(cfg.Root, store, registry, workers); err != nil {
		return err
	}

	watcher, err := watchAggregates(cfg.Root, store, registry, workers)
	if err != nil {
		xlog.Log.Warn().Err(err).Msg("aggregation watcher disabled")
	} else if watcher != nil {
		go watcher.Run()
		defer watcher.Close()
	}

	xlog.Log.Info().Str("addr", cfg.Addr).Msg("listening")
	return http.ListenAndServe(cfg.Addr, httpapi.Router(registry))
}

// watchAggregates re-parses every mounted .ncml file's scan directives
// and registers their directories with a single fsnotify-backed Watcher,
// so member add/drop refreshes the dataset registry (§4.7's "watch"
// option, §9 "notifier-driven aggregate refresh").
func watchAggregates(root string, store *chunkstore.Store, registry *dataset.Registry, workers int) (*watch.Watcher, error) {
	var ncmlPaths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".ncml") {
			ncmlPaths = append(ncmlPaths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ncmlPaths) == 0 {
		return nil, nil
	}

	w, err := watch.New(store, registry, workers)
	if err != nil {
		return nil, err
	}

	for _, p := range ncmlPaths {
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			rel = p
		}
		ds, gerr := registry.Get(rel)
		if gerr != nil {
			continue
		}
		agg, ok := ds.(*dataset.Aggregate)
		if !ok {
			continue
		}
		desc, derr := ncml.ParseFile(p)
		if derr != nil {
			continue
		}
		for _, scan := range desc.Scans {
			if err := w.Watch(scan.Location, rel, agg); err != nil {
				xlog.Log.Warn().Err(err).Str("dir", scan.Location).Msg("failed to watch aggregation scan root")
			}
		}
	}

	return w, nil
}
