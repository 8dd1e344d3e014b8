package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/validation"
)

// OrderKeyHeader carries the optional order-submission secret.
const OrderKeyHeader = "X-Order-Key"

// CreateOrder checks the secret before looking at the body.
func CreateOrder(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(OrderKeyHeader)
		if err := d.Orders.Authorize(key); err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}

		var req validation.CreateOrderRequest
		if err := validation.DecodeAndValidate(r, &req, d.Validate); err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}

		placed, err := d.Orders.PlaceOrder(r.Context(), key, req)
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, placed)
	}
}

// OrderStatus passes an upstream order's status through.
func OrderStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := d.Orders.UpstreamStatus(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// TrackOrder refreshes a stored order by token.
func TrackOrder(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validation.TrackRequest
		if err := validation.DecodeAndValidate(r, &req, d.Validate); err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}

		tracked, err := d.Orders.TrackOrder(r.Context(), chi.URLParam(r, "token"), req.Email)
		if err != nil {
			writeServiceError(w, d.Logger, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, tracked)
	}
}
