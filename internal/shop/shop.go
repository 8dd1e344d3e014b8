// Package shop holds the storefront use cases: the public catalog, order
// placement and tracking, and the fixed package list.
package shop

import (
	"context"

	"github.com/MrSnakeDoc/panelshop/internal/catalog"
	"github.com/MrSnakeDoc/panelshop/internal/panel"
)

// Panel is the part of the upstream client the shop relies on.
type Panel interface {
	ListServices(ctx context.Context) ([]panel.Service, error)
	AddOrder(ctx context.Context, params panel.AddOrderParams) (*panel.AddOrderResult, error)
	OrderStatus(ctx context.Context, orderID string) (*panel.OrderStatus, error)
	Balance(ctx context.Context) (*panel.Balance, error)
}

// CatalogSource yields the curated catalog, or false when there is none.
type CatalogSource interface {
	Load() (*catalog.Catalog, bool)
}

var (
	_ Panel         = (*panel.Client)(nil)
	_ CatalogSource = (*catalog.Loader)(nil)
)
