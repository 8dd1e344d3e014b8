package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/httpserver/handlers"
)

func init() { Register("orders", registerOrders) }

func registerOrders(r chi.Router, d deps.Deps) {
	r.Post("/v1/orders", handlers.CreateOrder(d))
	r.Get("/v1/orders/{id}", handlers.OrderStatus(d))
	r.Post("/v1/track/{token}", handlers.TrackOrder(d))
}
