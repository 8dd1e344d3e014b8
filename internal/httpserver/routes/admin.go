package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/panelshop/internal/httpserver/mw"
)

// AdminRealm is announced in WWW-Authenticate.
const AdminRealm = "panelshop admin"

func init() { Register("admin", registerAdmin) }

// registerAdmin mounts nothing unless an admin password is configured.
func registerAdmin(r chi.Router, d deps.Deps) {
	if d.AdminPass == "" {
		d.Logger.Info("admin surface disabled, PANELSHOP_ADMIN_PASS is empty")
		return
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Use(middleware.BasicAuth(AdminRealm, map[string]string{d.AdminUser: d.AdminPass}))

		r.Get("/admin", handlers.AdminPage(d))
		r.Put("/api/admin/packages", handlers.ReplacePackages(d))
		r.Get("/api/admin/orders", handlers.ListOrders(d))
	})
}
