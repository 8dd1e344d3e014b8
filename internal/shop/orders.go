package shop

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/panelshop/internal/domain"
	"github.com/MrSnakeDoc/panelshop/internal/logger"
	"github.com/MrSnakeDoc/panelshop/internal/panel"
	"github.com/MrSnakeDoc/panelshop/internal/store"
	"github.com/MrSnakeDoc/panelshop/internal/validation"
)

// PlacedOrder is returned to the buyer after a successful order.
type PlacedOrder struct {
	Order  int64   `json:"order"`
	Token  string  `json:"token"`
	Amount float64 `json:"amount"`
}

// PackageOrderResult is the response of a package purchase.
type PackageOrderResult struct {
	OK      bool    `json:"ok"`
	Token   string  `json:"token"`
	OrderID int64   `json:"orderId"`
	Amount  float64 `json:"amount"`
}

// Tracked is the response of a tracking call.
type Tracked struct {
	OK     bool               `json:"ok"`
	Status *panel.OrderStatus `json:"status"`
}

type OrderOptions struct {
	Panel    Panel
	Catalog  *CatalogService
	Store    store.Store
	OrderKey string // empty disables the check
	Validate *validator.Validate
	Logger   logger.Logger
}

// OrderService places orders upstream and keeps the local record in sync.
type OrderService struct {
	panel    Panel
	catalog  *CatalogService
	store    store.Store
	orderKey string
	validate *validator.Validate
	logger   logger.Logger
	newToken func() string
}

func NewOrderService(opts OrderOptions) *OrderService {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Validate == nil {
		opts.Validate = validation.New()
	}
	return &OrderService{
		panel:    opts.Panel,
		catalog:  opts.Catalog,
		store:    opts.Store,
		orderKey: opts.OrderKey,
		validate: opts.Validate,
		logger:   opts.Logger,
		newToken: newToken,
	}
}

// newToken returns 128 bits of randomness as 32 hex characters.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Authorize checks the order-submission secret.
func (s *OrderService) Authorize(key string) error {
	if s.orderKey == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.orderKey)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// PlaceOrder checks the secret, the request shape, the curated allow-list and
// the curated bounds, in that order, then orders upstream and records the
// order under a fresh token.
func (s *OrderService) PlaceOrder(ctx context.Context, key string, req validation.CreateOrderRequest) (*PlacedOrder, error) {
	if err := s.Authorize(key); err != nil {
		return nil, err
	}
	if err := validation.Check(req, s.validate); err != nil {
		return nil, err
	}

	serviceID := req.ServiceID()
	qty, hasQty := req.Quantity.Int64()
	if req.Quantity != "" && !hasQty {
		return nil, invalid("Quantity must be a whole number")
	}

	if cat, curated := s.catalog.Curation(); curated {
		entry, ok := cat.Enabled(serviceID)
		if !ok {
			return nil, invalid("Service is not enabled or not allowed")
		}
		if hasQty && qty != 0 {
			if lo := entry.Min; lo != nil && *lo > 0 && qty < lo.Int64() {
				return nil, invalid("Minimum quantity is %d", lo.Int64())
			}
			if hi := entry.Max; hi != nil && *hi > 0 && qty > hi.Int64() {
				return nil, invalid("Maximum quantity is %d", hi.Int64())
			}
		}
	}

	var price float64
	svc, err := s.catalog.Resolve(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc != nil {
		price = domain.Quote(svc.Rate, qty)
	}

	res, err := s.panel.AddOrder(ctx, req.Params())
	if err != nil {
		s.logger.Error("upstream order failed",
			logger.Int64("service", serviceID),
			logger.Error(err))
		return nil, &UpstreamError{Message: "Upstream order failed", Err: err}
	}

	o := &domain.Order{
		Token:           s.newToken(),
		Email:           strings.TrimSpace(req.Email),
		ServiceID:       serviceID,
		UpstreamOrderID: res.Order.Int64(),
		Quantity:        qty,
		Link:            req.Params().Link,
		Price:           price,
		Status:          domain.OrderStatusProcessing,
	}
	if err := s.store.CreateOrder(ctx, o); err != nil {
		s.logger.Error("order placed upstream but not recorded",
			logger.Int64("upstream_order", o.UpstreamOrderID),
			logger.Error(err))
		return nil, err
	}

	s.logger.Info("order placed",
		logger.Int64("service", serviceID),
		logger.Int64("upstream_order", o.UpstreamOrderID),
		logger.Float64("amount", price))

	return &PlacedOrder{Order: o.UpstreamOrderID, Token: o.Token, Amount: price}, nil
}

// PlacePackageOrder buys a fixed package. The quantity is clamped into the
// package bounds instead of being rejected.
func (s *OrderService) PlacePackageOrder(ctx context.Context, req validation.PackageOrderRequest) (*PackageOrderResult, error) {
	p, err := findActivePackage(ctx, s.store, req.ID)
	if err != nil {
		return nil, err
	}
	qty := domain.ClampInput(string(req.Quantity), p.Min, p.Max)
	link := strings.TrimSpace(req.Link)
	if link == "" {
		return nil, invalid("link/handle required")
	}
	if err := validation.Check(req, s.validate); err != nil {
		return nil, err
	}

	res, err := s.panel.AddOrder(ctx, panel.AddOrderParams{
		Service:  strconv.FormatInt(p.SKU, 10),
		Link:     link,
		Quantity: strconv.FormatInt(qty, 10),
	})
	if err != nil {
		s.logger.Error("upstream package order failed",
			logger.String("package", p.ID),
			logger.Error(err))
		return nil, &UpstreamError{Message: "Upstream order failed", Err: err}
	}

	o := &domain.Order{
		Token:           s.newToken(),
		Email:           strings.TrimSpace(req.Email),
		PackageID:       p.ID,
		ServiceID:       p.SKU,
		UpstreamOrderID: res.Order.Int64(),
		Quantity:        qty,
		Link:            link,
		Price:           domain.Quote(p.SellPer1K, qty),
		Status:          domain.OrderStatusProcessing,
	}
	if err := s.store.CreateOrder(ctx, o); err != nil {
		s.logger.Error("package order placed upstream but not recorded",
			logger.Int64("upstream_order", o.UpstreamOrderID),
			logger.Error(err))
		return nil, err
	}

	return &PackageOrderResult{OK: true, Token: o.Token, OrderID: o.UpstreamOrderID, Amount: o.Price}, nil
}

// UpstreamStatus passes the panel status of an upstream order id through.
func (s *OrderService) UpstreamStatus(ctx context.Context, orderID string) (*panel.OrderStatus, error) {
	if _, err := strconv.ParseInt(orderID, 10, 64); err != nil {
		return nil, invalid("Invalid order id")
	}
	st, err := s.panel.OrderStatus(ctx, orderID)
	if err != nil {
		s.logger.Error("upstream status failed", logger.String("order", orderID), logger.Error(err))
		return nil, &UpstreamError{Message: "Upstream status failed", Err: err}
	}
	return st, nil
}

// TrackOrder looks an order up by token, refreshes it from the panel and
// stores the merged status.
func (s *OrderService) TrackOrder(ctx context.Context, token, email string) (*Tracked, error) {
	o, err := s.store.GetOrder(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.EmailMismatch(strings.TrimSpace(email)) {
		return nil, ErrForbidden
	}

	st, err := s.panel.OrderStatus(ctx, strconv.FormatInt(o.UpstreamOrderID, 10))
	if err != nil {
		s.logger.Error("upstream tracking failed",
			logger.Int64("upstream_order", o.UpstreamOrderID),
			logger.Error(err))
		return nil, &UpstreamError{Message: "Upstream status failed", Err: err}
	}

	if _, err := s.store.UpdateOrder(ctx, token, func(o *domain.Order) error {
		mergeStatus(o, st)
		return nil
	}); err != nil {
		return nil, err
	}

	return &Tracked{OK: true, Status: st}, nil
}

// mergeStatus copies the fields the panel reported, keeping what it omitted.
func mergeStatus(o *domain.Order, st *panel.OrderStatus) {
	if st.Status != "" {
		o.Status = st.Status
	}
	if st.Remains != nil {
		v := st.Remains.Int64()
		o.Remains = &v
	}
	if st.Charge != nil {
		v := st.Charge.Float64()
		o.Charge = &v
	}
	if st.StartCount != nil {
		v := st.StartCount.Int64()
		o.StartCount = &v
	}
	if st.Currency != "" {
		o.Currency = st.Currency
	}
}

// Balance passes the panel balance through.
func (s *OrderService) Balance(ctx context.Context) (*panel.Balance, error) {
	b, err := s.panel.Balance(ctx)
	if err != nil {
		s.logger.Error("upstream balance failed", logger.Error(err))
		return nil, &UpstreamError{Message: "Upstream balance failed", Err: err}
	}
	return b, nil
}

// List returns every recorded order, newest first.
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	return s.store.ListOrders(ctx)
}
