package shop

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/panelshop/internal/domain"
	"github.com/MrSnakeDoc/panelshop/internal/panel"
	"github.com/MrSnakeDoc/panelshop/internal/validation"
)

func TestPlaceOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		req     validation.CreateOrderRequest
		wantErr string
	}{
		{
			name:    "wrong key wins over a bad body",
			key:     "nope",
			req:     validation.CreateOrderRequest{Link: "not-a-url"},
			wantErr: "Unauthorized",
		},
		{
			name:    "bad link",
			key:     "s3cret",
			req:     validation.CreateOrderRequest{Service: "1", Link: "not-a-url"},
			wantErr: "Invalid request",
		},
		{
			name:    "service not curated",
			key:     "s3cret",
			req:     validation.CreateOrderRequest{Service: "42", Link: "https://x.test/p"},
			wantErr: "Service is not enabled or not allowed",
		},
		{
			name:    "service disabled",
			key:     "s3cret",
			req:     validation.CreateOrderRequest{Service: "5", Link: "https://x.test/p"},
			wantErr: "Service is not enabled or not allowed",
		},
		{
			name:    "below curated min",
			key:     "s3cret",
			req:     validation.CreateOrderRequest{Service: "1", Link: "https://x.test/p", Quantity: "10"},
			wantErr: "Minimum quantity is 20",
		},
		{
			name:    "above curated max",
			key:     "s3cret",
			req:     validation.CreateOrderRequest{Service: "1", Link: "https://x.test/p", Quantity: "91"},
			wantErr: "Maximum quantity is 90",
		},
		{
			name:    "negative quantity",
			key:     "s3cret",
			req:     validation.CreateOrderRequest{Service: "1", Link: "https://x.test/p", Quantity: "-5"},
			wantErr: "Quantity must be a whole number",
		},
		{
			name:    "quantity beyond int64",
			key:     "s3cret",
			req:     validation.CreateOrderRequest{Service: "1", Link: "https://x.test/p", Quantity: "99999999999999999999"},
			wantErr: "Quantity must be a whole number",
		},
		{
			name:    "fractional quantity",
			key:     "s3cret",
			req:     validation.CreateOrderRequest{Service: "1", Link: "https://x.test/p", Quantity: "10.5"},
			wantErr: "Quantity must be a whole number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, curatedCatalog(), true, "s3cret")

			_, err := fx.orders.PlaceOrder(context.Background(), tt.key, tt.req)
			if err == nil || !strings.HasPrefix(err.Error(), tt.wantErr) {
				t.Fatalf("PlaceOrder() error = %v, want %q", err, tt.wantErr)
			}
			if len(fx.panel.added) != 0 {
				t.Error("rejected orders must not reach upstream")
			}
		})
	}
}

func TestPlaceOrderQuantityFromJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "negative number", body: `{"service": 1, "link": "https://x.test/p", "quantity": -5}`, wantErr: "not a whole number"},
		{name: "oversized digit string", body: `{"service": 1, "link": "https://x.test/p", "quantity": "99999999999999999999"}`, wantErr: "Quantity must be a whole number"},
		{name: "exponent above max", body: `{"service": 1, "link": "https://x.test/p", "quantity": 1e3}`, wantErr: "Maximum quantity is 90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, curatedCatalog(), true, "")

			var req validation.CreateOrderRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if err == nil {
				_, err = fx.orders.PlaceOrder(context.Background(), "", req)
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
			}
			if len(fx.panel.added) != 0 {
				t.Errorf("rejected order reached upstream: %+v", fx.panel.added)
			}
		})
	}
}

func TestPlaceOrderZeroQuantitySkipsBounds(t *testing.T) {
	fx := newFixture(t, curatedCatalog(), true, "")

	placed, err := fx.orders.PlaceOrder(context.Background(), "", validation.CreateOrderRequest{Service: "1", Link: "https://x.test/p", Quantity: "0"})
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if placed.Amount != 0 {
		t.Errorf("Amount = %v, want 0", placed.Amount)
	}
}

func TestPlaceOrderErrorKinds(t *testing.T) {
	fx := newFixture(t, curatedCatalog(), true, "k")
	ctx := context.Background()

	if _, err := fx.orders.PlaceOrder(ctx, "", validation.CreateOrderRequest{}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("missing key error = %v, want ErrUnauthorized", err)
	}

	_, err := fx.orders.PlaceOrder(ctx, "k", validation.CreateOrderRequest{Service: "42", Link: "https://x.test"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("uncurated service error = %v, want *ValidationError", err)
	}
}

func TestPlaceOrder(t *testing.T) {
	fx := newFixture(t, curatedCatalog(), true, "")
	ctx := context.Background()

	req := validation.CreateOrderRequest{Service: "1", Link: "https://instagram.com/p/1", Quantity: "50", Email: "buyer@example.com"}
	placed, err := fx.orders.PlaceOrder(ctx, "", req)
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if placed.Order != 1001 || len(placed.Token) != 32 || placed.Amount != 0.25 {
		t.Errorf("PlaceOrder() = %+v", placed)
	}

	sent := fx.panel.added[0]
	if sent.Service != "1" || sent.Quantity != "50" || sent.Link != "https://instagram.com/p/1" {
		t.Errorf("upstream params = %+v", sent)
	}

	o, err := fx.store.GetOrder(ctx, placed.Token)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if o.Status != domain.OrderStatusProcessing || o.UpstreamOrderID != 1001 || o.Price != 0.25 || o.Email != "buyer@example.com" {
		t.Errorf("stored order = %+v", o)
	}
}

func TestPlaceOrderTokensAreUnique(t *testing.T) {
	fx := newFixture(t, nil, false, "")
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		placed, err := fx.orders.PlaceOrder(context.Background(), "", validation.CreateOrderRequest{Service: "3", Link: "https://x.test"})
		if err != nil {
			t.Fatal(err)
		}
		if seen[placed.Token] {
			t.Fatalf("token %s issued twice", placed.Token)
		}
		seen[placed.Token] = true
	}
}

func TestPlaceOrderWithoutCurationPassesThrough(t *testing.T) {
	fx := newFixture(t, nil, false, "")

	placed, err := fx.orders.PlaceOrder(context.Background(), "", validation.CreateOrderRequest{Service: "3", Link: "https://x.test", Quantity: "2000"})
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if placed.Amount != 0.2 {
		t.Errorf("Amount = %v, want 0.2 at the upstream rate", placed.Amount)
	}
}

func TestPlaceOrderCuratedOnlyWithoutCatalogRejects(t *testing.T) {
	fx := newFixture(t, nil, true, "")

	_, err := fx.orders.PlaceOrder(context.Background(), "", validation.CreateOrderRequest{Service: "1", Link: "https://x.test"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("PlaceOrder() error = %v, want *ValidationError", err)
	}
}

func TestPlaceOrderUpstreamFailure(t *testing.T) {
	fx := newFixture(t, curatedCatalog(), true, "")
	fx.panel.addErr = &panel.Error{Action: panel.ActionAdd, Status: 200, Message: "Not enough funds on balance"}

	_, err := fx.orders.PlaceOrder(context.Background(), "", validation.CreateOrderRequest{Service: "1", Link: "https://x.test"})
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Message != "Upstream order failed" {
		t.Fatalf("PlaceOrder() error = %v, want generic upstream failure", err)
	}

	orders, _ := fx.orders.List(context.Background())
	if len(orders) != 0 {
		t.Errorf("failed orders must not be recorded: %+v", orders)
	}
}

func TestTrackOrder(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, false, "")

	bound, err := fx.orders.PlaceOrder(ctx, "", validation.CreateOrderRequest{Service: "1", Link: "https://x.test", Email: "a@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	open, err := fx.orders.PlaceOrder(ctx, "", validation.CreateOrderRequest{Service: "1", Link: "https://x.test"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		token   string
		email   string
		wantErr error
	}{
		{name: "unknown token", token: "missing", wantErr: ErrNotFound},
		{name: "email mismatch", token: bound.Token, email: "b@example.com", wantErr: ErrForbidden},
		{name: "matching email", token: bound.Token, email: "a@example.com"},
		{name: "no email supplied", token: bound.Token},
		{name: "unbound order with any email", token: open.Token, email: "anyone@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.orders.TrackOrder(ctx, tt.token, tt.email)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("TrackOrder() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrackOrderMergesStatus(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, false, "")

	placed, err := fx.orders.PlaceOrder(ctx, "", validation.CreateOrderRequest{Service: "1", Link: "https://x.test", Quantity: "100"})
	if err != nil {
		t.Fatal(err)
	}

	remains, charge := panel.Number(40), panel.Number(0.18)
	fx.panel.status = &panel.OrderStatus{Status: "Partial", Remains: &remains, Charge: &charge, Currency: "USD"}

	tracked, err := fx.orders.TrackOrder(ctx, placed.Token, "")
	if err != nil {
		t.Fatalf("TrackOrder() error = %v", err)
	}
	if !tracked.OK || tracked.Status.Status != "Partial" {
		t.Errorf("TrackOrder() = %+v", tracked)
	}
	if fx.panel.statusFor[0] != "1001" {
		t.Errorf("status asked for %q, want upstream id 1001", fx.panel.statusFor[0])
	}

	o, _ := fx.store.GetOrder(ctx, placed.Token)
	if o.Status != "Partial" || o.Remains == nil || *o.Remains != 40 || o.Charge == nil || *o.Charge != 0.18 || o.StartCount != nil || o.Version != 2 {
		t.Errorf("merged order = %+v", o)
	}

	// A sparse status keeps what was already known.
	fx.panel.status = &panel.OrderStatus{}
	if _, err := fx.orders.TrackOrder(ctx, placed.Token, ""); err != nil {
		t.Fatal(err)
	}
	o, _ = fx.store.GetOrder(ctx, placed.Token)
	if o.Status != "Partial" || *o.Remains != 40 {
		t.Errorf("sparse status overwrote fields: %+v", o)
	}
}

func TestTrackOrderUpstreamFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, false, "")
	placed, _ := fx.orders.PlaceOrder(ctx, "", validation.CreateOrderRequest{Service: "1", Link: "https://x.test"})

	fx.panel.statusErr = errors.New("dial tcp: connection refused")
	_, err := fx.orders.TrackOrder(ctx, placed.Token, "")
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Message != "Upstream status failed" {
		t.Errorf("TrackOrder() error = %v", err)
	}
}

func TestUpstreamStatus(t *testing.T) {
	fx := newFixture(t, nil, false, "")

	var ve *ValidationError
	if _, err := fx.orders.UpstreamStatus(context.Background(), "12a"); !errors.As(err, &ve) {
		t.Errorf("UpstreamStatus(12a) error = %v, want *ValidationError", err)
	}
	st, err := fx.orders.UpstreamStatus(context.Background(), "777")
	if err != nil || st.Status != "In progress" || fx.panel.statusFor[0] != "777" {
		t.Errorf("UpstreamStatus() = %+v, %v", st, err)
	}
}

func TestBalance(t *testing.T) {
	fx := newFixture(t, nil, false, "")

	var ue *UpstreamError
	if _, err := fx.orders.Balance(context.Background()); !errors.As(err, &ue) {
		t.Errorf("Balance() error = %v, want *UpstreamError", err)
	}

	fx.panel.balance = &panel.Balance{Balance: 100.84, Currency: "USD"}
	b, err := fx.orders.Balance(context.Background())
	if err != nil || b.Balance != 100.84 {
		t.Errorf("Balance() = %+v, %v", b, err)
	}
}
