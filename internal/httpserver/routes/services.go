package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/panelshop/internal/httpserver/mw"
)

func init() { Register("services", registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	ops := mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)

	r.Get("/v1/services", handlers.ListServices(d))
	r.With(ops).Get("/v1/services/raw", handlers.RawServices(d))
	r.With(ops).Get("/v1/balance", handlers.Balance(d))
}
