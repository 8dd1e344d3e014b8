package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/httpserver/handlers"
)

func init() { Register("packages", registerPackages) }

func registerPackages(r chi.Router, d deps.Deps) {
	r.Get("/api/packages", handlers.ListPackages(d))
	r.Post("/api/quote", handlers.QuotePackage(d))
	r.Post("/api/order", handlers.OrderPackage(d))
	r.Post("/api/track/{token}", handlers.TrackOrder(d))
}
