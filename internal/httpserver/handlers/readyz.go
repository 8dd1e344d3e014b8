package handlers

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Driver  string `json:"driver,omitempty"`
	Path    string `json:"path,omitempty"`
	Entries *int   `json:"entries,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Impact  string `json:"impact,omitempty"`
	Error   string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports whether the store answers and how the catalog is curated.
// Only the store decides readiness: a broken catalog degrades the listing
// but does not take the service down.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store":   checkStore(r.Context(), d),
			"catalog": checkCatalog(d),
		}

		resp := readyzResponse{
			Ready:      components["store"].OK,
			Mode:       determineMode(components),
			Components: components,
		}

		w.Header().Set("Cache-Control", "no-store")
		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func determineMode(components map[string]componentStatus) string {
	if st, ok := components["store"]; ok && !st.OK {
		return "critical"
	}
	if cat, ok := components["catalog"]; ok && !cat.OK {
		return "degraded"
	}
	return "operational"
}

func checkStore(parent context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Error: "store not initialized"}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Driver: d.StoreDriver,
			Impact: "orders-unavailable",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Driver: d.StoreDriver}
}

func checkCatalog(d deps.Deps) componentStatus {
	if d.CatalogReader == nil {
		return componentStatus{OK: true, Mode: "uncurated"}
	}

	curatedOnly := d.Catalog != nil && d.Catalog.CuratedOnly()
	c, err := d.CatalogReader.Read()
	switch {
	case err == nil:
		n := len(c.Services)
		st := componentStatus{OK: true, Path: d.CatalogReader.Path(), Entries: &n, Mode: "curated"}
		if n == 0 && curatedOnly {
			st.Impact = "no-services-listed"
		}
		return st
	case errors.Is(err, fs.ErrNotExist):
		st := componentStatus{OK: true, Path: d.CatalogReader.Path(), Mode: "uncurated"}
		if curatedOnly {
			st.Mode = "curated-only"
			st.Impact = "no-services-listed"
		}
		return st
	default:
		st := componentStatus{OK: false, Path: d.CatalogReader.Path(), Mode: "uncurated", Error: err.Error()}
		if curatedOnly {
			st.Mode = "curated-only"
			st.Impact = "no-services-listed"
		}
		return st
	}
}
