package shop

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/panelshop/internal/cache"
	"github.com/MrSnakeDoc/panelshop/internal/catalog"
	"github.com/MrSnakeDoc/panelshop/internal/panel"
	"github.com/MrSnakeDoc/panelshop/internal/store/file"
)

// fakePanel is an in-memory upstream.
type fakePanel struct {
	mu sync.Mutex

	services    []panel.Service
	servicesErr error
	listCalls   int

	nextOrder int64
	addErr    error
	added     []panel.AddOrderParams

	status    *panel.OrderStatus
	statusErr error
	statusFor []string

	balance *panel.Balance
}

func (f *fakePanel) ListServices(context.Context) ([]panel.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.servicesErr != nil {
		return nil, f.servicesErr
	}
	return append([]panel.Service(nil), f.services...), nil
}

func (f *fakePanel) AddOrder(_ context.Context, p panel.AddOrderParams) (*panel.AddOrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, p)
	f.nextOrder++
	return &panel.AddOrderResult{Order: panel.Number(1000 + f.nextOrder)}, nil
}

func (f *fakePanel) OrderStatus(_ context.Context, id string) (*panel.OrderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusFor = append(f.statusFor, id)
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakePanel) Balance(context.Context) (*panel.Balance, error) {
	if f.balance == nil {
		return nil, &panel.Error{Action: panel.ActionBalance, Status: 500}
	}
	return f.balance, nil
}

type staticCatalog struct {
	c *catalog.Catalog
}

func (s staticCatalog) Load() (*catalog.Catalog, bool) {
	return s.c, s.c != nil
}

func ptr[T any](v T) *T { return &v }

func upstreamServices() []panel.Service {
	return []panel.Service{
		{ID: 1, Name: "Followers HQ", Type: "Default", Category: "Instagram Followers", Rate: 3, Min: 10, Max: 100, Refill: true},
		{ID: 2, Name: "Likes", Type: "Default", Category: "Instagram Likes", Rate: 1, Min: 50, Max: 5000},
		{ID: 3, Name: "Views", Type: "Default", Category: "TikTok Views", Rate: 0.1, Min: 100, Max: 1000000},
		{ID: 4, Name: "Plays", Type: "Package", Category: "Spotify", Rate: 2, Min: 1000, Max: 10000},
	}
}

func curatedCatalog() *catalog.Catalog {
	return &catalog.Catalog{Services: []catalog.Entry{
		{ID: 1, Social: "instagram", Price: ptr(5.0), Min: ptr(catalog.Bound(20)), Max: ptr(catalog.Bound(90))},
		{ID: 2, Social: "instagram", Name: "IG Likes", Markup: ptr(2.0), Order: ptr(1)},
		{ID: 3, Social: "tiktok", Order: ptr(2)},
		{ID: 4, Social: "spotify", Visible: ptr(false)},
		{ID: 99, Social: "instagram", Price: ptr(1.0)},
		{ID: 5, Social: "youtube", Enabled: ptr(false)},
	}}
}

type fixture struct {
	panel    *fakePanel
	catalog  *CatalogService
	orders   *OrderService
	packages *PackageService
	store    *file.Store
}

func newFixture(t *testing.T, cat *catalog.Catalog, curatedOnly bool, orderKey string) *fixture {
	t.Helper()
	fp := &fakePanel{services: upstreamServices(), status: &panel.OrderStatus{Status: "In progress"}}
	st, err := file.Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("file.Open() error = %v", err)
	}
	cs := NewCatalogService(CatalogOptions{
		Panel:       fp,
		Catalog:     staticCatalog{c: cat},
		Cache:       cache.New[[]panel.Service](time.Minute),
		Markup:      1.5,
		CuratedOnly: curatedOnly,
	})
	return &fixture{
		panel:    fp,
		catalog:  cs,
		orders:   NewOrderService(OrderOptions{Panel: fp, Catalog: cs, Store: st, OrderKey: orderKey}),
		packages: NewPackageService(st, nil),
		store:    st,
	}
}
