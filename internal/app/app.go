package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/panelshop/internal/cache"
	"github.com/MrSnakeDoc/panelshop/internal/catalog"
	"github.com/MrSnakeDoc/panelshop/internal/config"
	"github.com/MrSnakeDoc/panelshop/internal/domain"
	"github.com/MrSnakeDoc/panelshop/internal/httpserver"
	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/logger"
	"github.com/MrSnakeDoc/panelshop/internal/panel"
	"github.com/MrSnakeDoc/panelshop/internal/redis"
	"github.com/MrSnakeDoc/panelshop/internal/shop"
	"github.com/MrSnakeDoc/panelshop/internal/store"
	"github.com/MrSnakeDoc/panelshop/internal/store/file"
	redisstore "github.com/MrSnakeDoc/panelshop/internal/store/redis"
	"github.com/MrSnakeDoc/panelshop/internal/validation"
	"github.com/MrSnakeDoc/panelshop/internal/version"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	server *httpserver.Server
	store  store.Store
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Open the store early - fail fast if unavailable
	st, err := openStore(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.StoreDriver, err)
		os.Exit(1)
	}

	seeded, err := store.SeedPackages(context.Background(), st, domain.DefaultPackages())
	if err != nil {
		loggerClient.Errorf("Failed to seed packages: %v", err)
		os.Exit(1)
	}
	if seeded {
		loggerClient.Info("package list was empty, seeded defaults")
	}

	panelClient := panel.NewClient(panel.Options{
		BaseURL:    cfg.PanelURL,
		Key:        cfg.PanelKey,
		Timeout:    cfg.PanelTimeout,
		FailStatus: cfg.PanelFailStatus,
		Logger:     loggerClient.With(logger.String("component", "panel")),
	})

	loader := catalog.NewLoader(cfg.CatalogFile, loggerClient.With(logger.String("component", "catalog")))
	validate := validation.New()

	catalogSvc := shop.NewCatalogService(shop.CatalogOptions{
		Panel:       panelClient,
		Catalog:     loader,
		Cache:       cache.New[[]panel.Service](cfg.ServicesTTL),
		Markup:      cfg.PriceMultiplier,
		CuratedOnly: cfg.CuratedOnly,
		Logger:      loggerClient,
	})
	orderSvc := shop.NewOrderService(shop.OrderOptions{
		Panel:    panelClient,
		Catalog:  catalogSvc,
		Store:    st,
		OrderKey: cfg.OrderKey,
		Validate: validate,
		Logger:   loggerClient,
	})

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		Catalog:       catalogSvc,
		Orders:        orderSvc,
		Packages:      shop.NewPackageService(st, loggerClient),
		Store:         st,
		StoreDriver:   cfg.StoreDriver,
		CatalogReader: loader,
		Validate:      validate,
		AdminUser:     cfg.AdminUser,
		AdminPass:     cfg.AdminPass,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:    cfg,
		logger: loggerClient,
		server: server,
		store:  st,
	}
}

// openStore picks the persistence backend from PANELSHOP_STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverRedis:
		client, err := redis.New(ctx, redis.OptionsFromConfig(cfg), log.With(logger.String("component", "redis")))
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil
	default:
		s, err := file.Open(cfg.DBFile)
		if err != nil {
			return nil, err
		}
		log.Info("file store opened", logger.String("path", s.Path()))
		return s, nil
	}
}

// Handler exposes the wired router.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting panelshop %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())
	a.logger.Info("catalog settings",
		logger.String("catalog_file", a.cfg.CatalogFile),
		logger.Bool("curated_only", a.cfg.CuratedOnly),
		logger.Float64("price_multiplier", a.cfg.PriceMultiplier),
		logger.Duration("services_ttl", a.cfg.ServicesTTL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.Close(); err != nil {
		a.logger.Warnf("failed to close %s store: %v", a.cfg.StoreDriver, err)
	} else {
		a.logger.Info("✅ Store closed cleanly")
	}

	_ = a.logger.Sync()
	a.logger.Info("✅ panelshop stopped cleanly")
	return nil
}
