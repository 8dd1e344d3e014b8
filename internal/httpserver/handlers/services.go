package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/shop"
)

// ListServices serves the public catalog, filtered by ?social= and ?q=.
func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		listing, err := d.Catalog.ListPublicServices(r.Context(), shop.Filters{
			Social: q.Get("social"),
			Query:  q.Get("q"),
		})
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	}
}

// RawServices dumps the uncurated upstream list.
func RawServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := d.Catalog.RawServices(r.Context())
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, services)
	}
}

func Balance(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Orders.Balance(r.Context())
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}
