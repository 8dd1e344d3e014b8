package deps

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/panelshop/internal/catalog"
	"github.com/MrSnakeDoc/panelshop/internal/logger"
	"github.com/MrSnakeDoc/panelshop/internal/shop"
	"github.com/MrSnakeDoc/panelshop/internal/store"
)

// CatalogReader reports why the curated catalog is or is not in use.
type CatalogReader interface {
	Read() (*catalog.Catalog, error)
	Path() string
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed on the admin surface
	AllowedCIDRS []string         // IPs allowed on readyz, raw services and balance
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Catalog  *shop.CatalogService
	Orders   *shop.OrderService
	Packages *shop.PackageService

	Store         store.Store
	StoreDriver   string
	CatalogReader CatalogReader
	Validate      *validator.Validate

	AdminUser string
	AdminPass string // empty => admin routes are not mounted
}
