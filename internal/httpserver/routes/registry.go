package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/logger"
)

// Registrar mounts one group of routes.
type Registrar func(r chi.Router, d deps.Deps)

type entry struct {
	name string
	reg  Registrar
}

var registry []entry

// Register adds a route group. Files call it from init, so groups mount in
// file-name order.
func Register(name string, reg Registrar) {
	registry = append(registry, entry{name: name, reg: reg})
}

// RegisterAll mounts every group on r. Called once per router.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		e.reg(r, d)
		d.Logger.Debug("routes mounted", logger.String("group", e.name))
	}
}
