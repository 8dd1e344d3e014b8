package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/validation"
)

const adminPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>panelshop admin</title></head>
<body><h2>panelshop admin</h2>
<ul>
<li>PUT /api/admin/packages replaces the package list</li>
<li>GET /api/admin/orders lists recorded orders</li>
</ul></body></html>
`

func AdminPage(_ deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(adminPage))
	}
}

// ReplacePackages swaps the whole package list.
func ReplacePackages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validation.PackagesRequest
		if err := validation.DecodeAndValidate(r, &req, d.Validate); err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}

		n, err := d.Packages.Replace(r.Context(), req.Packages)
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": n})
	}
}

func ListOrders(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := d.Orders.List(r.Context())
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "count": len(orders)})
	}
}
