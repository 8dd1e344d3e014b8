package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/panelshop/internal/cache"
	"github.com/MrSnakeDoc/panelshop/internal/catalog"
	"github.com/MrSnakeDoc/panelshop/internal/config"
	"github.com/MrSnakeDoc/panelshop/internal/domain"
	"github.com/MrSnakeDoc/panelshop/internal/httpserver/deps"
	"github.com/MrSnakeDoc/panelshop/internal/logger"
	"github.com/MrSnakeDoc/panelshop/internal/panel"
	"github.com/MrSnakeDoc/panelshop/internal/shop"
	"github.com/MrSnakeDoc/panelshop/internal/store"
	"github.com/MrSnakeDoc/panelshop/internal/store/file"
	"github.com/MrSnakeDoc/panelshop/internal/validation"
)

const (
	testOrderKey  = "s3cret"
	testAdminUser = "admin"
	testAdminPass = "hunter2"
)

const upstreamServices = `[
	{"service": 1, "name": "Followers", "type": "Default", "category": "Instagram", "rate": "0.90", "min": "50", "max": "10000"},
	{"service": 2, "name": "Views", "type": "Default", "category": "TikTok", "rate": "0.10", "min": "100", "max": "100000"},
	{"service": 3, "name": "Likes", "type": "Default", "category": "Instagram", "rate": "1.20", "min": "10", "max": "5000"}
]`

const curatedCatalog = `{"services": [
	{"id": 1, "social": "instagram", "name": "IG Followers", "price": 2.5, "min": 100, "max": 5000},
	{"id": 2, "social": "tiktok", "enabled": false}
]}`

// fakeUpstream speaks the panel's form API.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	var orders atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("action") {
		case panel.ActionServices:
			_, _ = w.Write([]byte(upstreamServices))
		case panel.ActionAdd:
			_, _ = w.Write([]byte(`{"order": ` + strconv.FormatInt(1000+orders.Add(1), 10) + `}`))
		case panel.ActionStatus:
			_, _ = w.Write([]byte(`{"status": "In progress", "remains": "10", "charge": "0.50", "start_count": "100", "currency": "USD"}`))
		case panel.ActionBalance:
			_, _ = w.Write([]byte(`{"balance": "12.34", "currency": "USD"}`))
		default:
			_, _ = w.Write([]byte(`{"error": "Incorrect request"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	handler http.Handler
	store   store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	log := logger.Nop()

	catalogPath := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(catalogPath, []byte(curatedCatalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	st, err := file.Open(filepath.Join(dir, "db.json"))
	if err != nil {
		t.Fatalf("file.Open: %v", err)
	}
	if _, err := store.SeedPackages(context.Background(), st, domain.DefaultPackages()); err != nil {
		t.Fatalf("SeedPackages: %v", err)
	}

	up := fakeUpstream(t)
	client := panel.NewClient(panel.Options{BaseURL: up.URL, Key: "k", Timeout: 2 * time.Second})
	loader := catalog.NewLoader(catalogPath, log)
	validate := validation.New()

	catalogSvc := shop.NewCatalogService(shop.CatalogOptions{
		Panel:       client,
		Catalog:     loader,
		Cache:       cache.New[[]panel.Service](time.Minute),
		Markup:      1.0,
		CuratedOnly: true,
		Logger:      log,
	})
	orderSvc := shop.NewOrderService(shop.OrderOptions{
		Panel:    client,
		Catalog:  catalogSvc,
		Store:    st,
		OrderKey: testOrderKey,
		Validate: validate,
		Logger:   log,
	})

	cfg := &config.Config{
		ListenPort:      ":0",
		RequestTimeout:  5 * time.Second,
		AllowedOrigins:  []string{"*"},
		RateLimitBurst:  1000,
		RateLimitPerMin: 1000,
	}
	d := deps.Deps{
		Logger:        log,
		StartTime:     time.Now(),
		Version:       "test",
		TimeNow:       time.Now,
		Catalog:       catalogSvc,
		Orders:        orderSvc,
		Packages:      shop.NewPackageService(st, log),
		Store:         st,
		StoreDriver:   config.StoreDriverFile,
		CatalogReader: loader,
		Validate:      validate,
		AdminUser:     testAdminUser,
		AdminPass:     testAdminPass,
	}

	return &testEnv{handler: New(cfg, log, d).Handler(), store: st}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, rdr)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("body %q is not JSON: %v", rec.Body.String(), err)
	}
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}

var withKey = map[string]string{"X-Order-Key": testOrderKey}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		OK      bool   `json:"ok"`
		Version string `json:"version"`
	}
	decode(t, rec, &body)
	if !body.OK || body.Version != "test" {
		t.Errorf("healthz = %+v", body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("secure headers missing")
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/readyz", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Ready      bool   `json:"ready"`
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK      bool   `json:"ok"`
			Mode    string `json:"mode"`
			Entries *int   `json:"entries"`
		} `json:"components"`
	}
	decode(t, rec, &body)
	if !body.Ready || body.Mode != "operational" {
		t.Errorf("readyz = %+v", body)
	}
	cat := body.Components["catalog"]
	if cat.Mode != "curated" || cat.Entries == nil || *cat.Entries != 2 {
		t.Errorf("catalog component = %+v", cat)
	}
}

func TestListServicesCurated(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/v1/services", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var listing shop.Listing
	decode(t, rec, &listing)
	if !listing.Curated || listing.Count != 1 || len(listing.Services) != 1 {
		t.Fatalf("listing = %+v, want the single enabled curated entry", listing)
	}
	got := listing.Services[0]
	if got.ID != 1 || got.Name != "IG Followers" || got.Rate != 2.5 || got.Min != 100 || got.Max != 5000 {
		t.Errorf("service = %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/v1/services?social=tiktok", "", nil)
	decode(t, rec, &listing)
	if listing.Count != 0 {
		t.Errorf("tiktok listing = %+v, want empty", listing)
	}
}

func TestRawServicesAndBalance(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/services/raw", "", nil)
	var raw []panel.Service
	decode(t, rec, &raw)
	if rec.Code != http.StatusOK || len(raw) != 3 {
		t.Errorf("raw services: status %d, %d entries", rec.Code, len(raw))
	}

	rec = env.do(t, http.MethodGet, "/v1/balance", "", nil)
	var bal panel.Balance
	decode(t, rec, &bal)
	if rec.Code != http.StatusOK || bal.Balance.Float64() != 12.34 || bal.Currency != "USD" {
		t.Errorf("balance: status %d, %+v", rec.Code, bal)
	}
}

func TestCreateOrder(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		body    string
		status  int
		message string
	}{
		{name: "missing key", body: `{"service": 1, "link": "https://instagram.com/p/x", "quantity": 1000}`, status: http.StatusUnauthorized, message: "Unauthorized"},
		{name: "wrong key", headers: map[string]string{"X-Order-Key": "nope"}, body: `{}`, status: http.StatusUnauthorized, message: "Unauthorized"},
		{name: "missing link", headers: withKey, body: `{"service": 1, "quantity": 1000}`, status: http.StatusBadRequest, message: "Invalid request"},
		{name: "malformed body", headers: withKey, body: `{"service":`, status: http.StatusBadRequest, message: "Invalid request body"},
		{name: "disabled service", headers: withKey, body: `{"service": 2, "link": "https://tiktok.com/@x", "quantity": 1000}`, status: http.StatusBadRequest, message: "Service is not enabled or not allowed"},
		{name: "uncurated service", headers: withKey, body: `{"service": 3, "link": "https://instagram.com/p/x", "quantity": 1000}`, status: http.StatusBadRequest, message: "Service is not enabled or not allowed"},
		{name: "below minimum", headers: withKey, body: `{"service": "1", "link": "https://instagram.com/p/x", "quantity": "50"}`, status: http.StatusBadRequest, message: "Minimum quantity is 100"},
		{name: "above maximum", headers: withKey, body: `{"service": 1, "link": "https://instagram.com/p/x", "quantity": 6000}`, status: http.StatusBadRequest, message: "Maximum quantity is 5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/v1/orders", tt.body, tt.headers)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if msg := errorOf(t, rec); msg != tt.message {
				t.Errorf("error = %q, want %q", msg, tt.message)
			}
		})
	}
}

func TestOrderAndTrack(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/orders",
		`{"service": 1, "link": "https://instagram.com/p/x", "quantity": 1000, "email": "buyer@shop.example"}`, withKey)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var placed shop.PlacedOrder
	decode(t, rec, &placed)
	if placed.Order != 1001 || placed.Amount != 2.5 || len(placed.Token) != 32 {
		t.Fatalf("placed = %+v", placed)
	}

	rec = env.do(t, http.MethodPost, "/v1/track/"+placed.Token, `{"email": "other@shop.example"}`, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("track with other email: status = %d, want 403", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/track/unknown-token", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("track unknown token: status = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/track/"+placed.Token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("track: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var tracked shop.Tracked
	decode(t, rec, &tracked)
	if !tracked.OK || tracked.Status == nil || tracked.Status.Status != "In progress" {
		t.Errorf("tracked = %+v", tracked)
	}

	o, err := env.store.GetOrder(context.Background(), placed.Token)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if o.Status != "In progress" || o.Remains == nil || *o.Remains != 10 || o.Version != 2 {
		t.Errorf("stored order = %+v", o)
	}
}

func TestUpstreamOrderStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/orders/abc", "", nil)
	if rec.Code != http.StatusBadRequest || errorOf(t, rec) != "Invalid order id" {
		t.Errorf("non-numeric id: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/v1/orders/1001", "", nil)
	var st panel.OrderStatus
	decode(t, rec, &st)
	if rec.Code != http.StatusOK || st.Status != "In progress" {
		t.Errorf("status passthrough: %d %+v", rec.Code, st)
	}
}

func TestPackages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/packages?platform=instagram", "", nil)
	var list struct {
		Packages []domain.Package `json:"packages"`
	}
	decode(t, rec, &list)
	if rec.Code != http.StatusOK || len(list.Packages) == 0 {
		t.Fatalf("packages: status %d, %d entries", rec.Code, len(list.Packages))
	}
	for _, p := range list.Packages {
		if p.Platform != "instagram" {
			t.Errorf("platform filter leaked %q", p.Platform)
		}
	}

	rec = env.do(t, http.MethodPost, "/api/quote", `{"id": "ig_followers_5951", "quantity": "1"}`, nil)
	var q shop.Quote
	decode(t, rec, &q)
	if rec.Code != http.StatusOK || q.Quantity != 50 {
		t.Errorf("quote should clamp to the minimum: %d %+v", rec.Code, q)
	}

	rec = env.do(t, http.MethodPost, "/api/order", `{"id": "nope", "link": "x", "quantity": 100}`, nil)
	if rec.Code != http.StatusNotFound || errorOf(t, rec) != "Package not found" {
		t.Errorf("unknown package: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/order", `{"id": "ig_followers_5951", "link": "  ", "quantity": 100}`, nil)
	if rec.Code != http.StatusBadRequest || errorOf(t, rec) != "link/handle required" {
		t.Errorf("blank link: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/order", `{"id": "ig_followers_5951", "link": "@someone", "quantity": 1000}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("package order: status %d, body %s", rec.Code, rec.Body.String())
	}
	var res shop.PackageOrderResult
	decode(t, rec, &res)
	if !res.OK || res.Amount != 19.99 || res.OrderID == 0 {
		t.Errorf("package order = %+v", res)
	}

	rec = env.do(t, http.MethodPost, "/api/track/"+res.Token, `{}`, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("package track alias: status %d", rec.Code)
	}
}

func TestAdminSurface(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/orders", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no credentials: status = %d, want 401", rec.Code)
	}

	auth := func(user, pass string) map[string]string {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.SetBasicAuth(user, pass)
		return map[string]string{"Authorization": r.Header.Get("Authorization")}
	}

	rec = env.do(t, http.MethodGet, "/api/admin/orders", "", auth(testAdminUser, "wrong"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/admin", "", auth(testAdminUser, testAdminPass))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "panelshop admin") {
		t.Errorf("admin page: status %d", rec.Code)
	}

	body := `{"packages": [{"id": "yt_views", "platform": "youtube", "title": "YT Views", "sku": 42, "sell_per_1k": 3, "min": 100, "max": 1000, "active": true}]}`
	rec = env.do(t, http.MethodPut, "/api/admin/packages", body, auth(testAdminUser, testAdminPass))
	if rec.Code != http.StatusOK {
		t.Fatalf("replace packages: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPut, "/api/admin/packages", `{"packages": [{"id": "bad", "platform": "x", "title": "t", "sku": 1, "min": 10, "max": 5}]}`, auth(testAdminUser, testAdminPass))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted package bounds: status = %d, want 400", rec.Code)
	}

	pkgs, err := env.store.ListPackages(context.Background())
	if err != nil {
		t.Fatalf("ListPackages: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].ID != "yt_views" {
		t.Errorf("packages = %+v, want the replaced list", pkgs)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/orders", "", auth(testAdminUser, testAdminPass))
	var orders struct {
		Count int `json:"count"`
	}
	decode(t, rec, &orders)
	if rec.Code != http.StatusOK || orders.Count != 0 {
		t.Errorf("orders: status %d, count %d", rec.Code, orders.Count)
	}
}

func TestUnknownRouteIsJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound || errorOf(t, rec) != "Not found" {
		t.Errorf("status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodDelete, "/v1/services", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d, want 405", rec.Code)
	}
}
