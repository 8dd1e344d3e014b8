package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/validation"
)

func ListPackages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkgs, err := d.Packages.List(r.Context(), r.URL.Query().Get("platform"))
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"packages": pkgs})
	}
}

// QuotePackage never rejects a quantity, it clamps it.
func QuotePackage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validation.QuoteRequest
		if err := validation.Decode(r, &req); err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}

		q, err := d.Packages.Quote(r.Context(), req.ID, string(req.Quantity))
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func OrderPackage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validation.PackageOrderRequest
		if err := validation.Decode(r, &req); err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}

		res, err := d.Orders.PlacePackageOrder(r.Context(), req)
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
