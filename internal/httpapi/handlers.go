// Package httpapi mounts the DAP2 surface of §6 over the dataset façade:
// /data/X.das, /data/X.dds, /data/X.dods and the bare /data/X "upgrade"
// response, using go-chi/chi/v5 for routing (the HTTP layer itself, and
// the directory/catalog browsing it would otherwise also serve, are out
// of scope per §1 — this package only has to exist so the CLI of §6 has
// something to bind a listener to).
package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/met-norway/dars/internal/daperr"
	"github.com/met-norway/dars/internal/dataset"
	"github.com/met-norway/dars/internal/xlog"
)

// Router builds the chi router mounting every DAP2 endpoint over
// registry.
func Router(registry *dataset.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(AccessLog)

	r.Get("/", rootHandler)
	r.Get("/catalog.xml", catalogStub)
	r.Get("/data/*", dataHandler(registry))

	return r
}

// rootHandler mirrors the original main.rs's "/" route: a minimal
// greeting, since directory/catalog rendering is out of scope (§1).
func rootHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("Hello world"))
}

// catalogStub mirrors the original's "/catalog.xml" 501: full catalog
// rendering is an explicit out-of-scope concern (§1).
func catalogStub(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

// dataHandler dispatches /data/<path>[.das|.dds|.dods] and the bare
// /data/<path> "upgrade" response (§6).
func dataHandler(registry *dataset.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := chi.URLParam(r, "*")

		id, suffix := splitSuffix(rest)
		ds, err := registry.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}

		switch suffix {
		case "das":
			serveDAS(w, ds)
		case "dds":
			serveDDS(w, r, ds)
		case "dods":
			serveDODS(w, r, ds)
		default:
			serveUpgrade(w)
		}
	}
}

// splitSuffix splits "foo/bar.dds" into ("foo/bar", "dds"), recognizing
// only the three DAP2 suffixes; anything else is treated as a bare
// dataset path with an empty suffix.
func splitSuffix(path string) (id, suffix string) {
	for _, s := range []string{".das", ".dds", ".dods"} {
		if strings.HasSuffix(path, s) {
			return strings.TrimSuffix(path, s), s[1:]
		}
	}
	return path, ""
}

func serveDAS(w http.ResponseWriter, ds dataset.Dataset) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Description", "dods-das")
	w.Header().Set("XDODS-Server", "dars")
	_, _ = w.Write([]byte(ds.DAS()))
}

func serveDDS(w http.ResponseWriter, r *http.Request, ds dataset.Dataset) {
	text, err := ds.DDS(r.URL.RawQuery)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Description", "dods-dds")
	w.Header().Set("XDODS-Server", "dars")
	_, _ = w.Write([]byte(text))
}

func serveDODS(w http.ResponseWriter, r *http.Request, ds dataset.Dataset) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Description", "dods-data")
	w.Header().Set("XDODS-Server", "dars")
	// Pre-flight parse/project before any body byte is written (§7
	// "the .dods separator is never emitted without a valid DDS
	// preceding it"): DODS itself re-parses internally, but a failure
	// there after headers are already sent can only truncate the body,
	// never change the status, so validate once up front.
	if _, err := ds.DDS(r.URL.RawQuery); err != nil {
		writeError(w, err)
		return
	}
	if err := ds.DODS(r.Context(), w, r.URL.RawQuery); err != nil {
		xlog.Log.Error().Err(err).Msg("dods stream truncated")
	}
}

// serveUpgrade implements the bare "/data/X" response of §6: 426 with an
// Upgrade header, since the actual catalog/metadata listing it would
// otherwise return is out of scope (§1).
func serveUpgrade(w http.ResponseWriter) {
	w.Header().Set("Upgrade", "DAP/2")
	w.WriteHeader(http.StatusUpgradeRequired)
}

// writeError maps a daperr.Kind to its HTTP status (§7, §8) and writes a
// minimal plain-text body; DAP2 defines no in-band error frame.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if kind, ok := daperr.KindOf(err); ok {
		status = statusFor(kind)
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}

func statusFor(k daperr.Kind) int {
	switch k {
	case daperr.InvalidConstraint, daperr.StrideUnsupported, daperr.SlabOutOfRange, daperr.Overflow:
		return http.StatusUnprocessableEntity
	case daperr.UnknownVariable, daperr.UnknownAttribute:
		return http.StatusNotFound
	case daperr.StaleDataset:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
