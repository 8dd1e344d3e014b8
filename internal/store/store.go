// Package store persists orders and storefront packages.
package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/panelshop/internal/domain"
)

var (
	// ErrNotFound is returned when no order matches a token.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a record changed under a concurrent
	// writer, or when a token is already taken.
	ErrConflict = errors.New("concurrent modification")
)

// UpdateFunc mutates a copy of the stored order. Returning an error aborts
// the update and leaves the stored record untouched.
type UpdateFunc func(o *domain.Order) error

// Store is the persistence contract shared by the file and redis backends.
//
// Every successful write bumps Order.Version. UpdateOrder is the only way to
// change an existing order, which keeps read-modify-write cycles atomic.
type Store interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, token string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, token string, fn UpdateFunc) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)

	ListPackages(ctx context.Context) ([]domain.Package, error)
	ReplacePackages(ctx context.Context, pkgs []domain.Package) error

	Ping(ctx context.Context) error
	Close() error
}

// SeedPackages writes pkgs when the store holds no package yet. It reports
// whether it seeded.
func SeedPackages(ctx context.Context, s Store, pkgs []domain.Package) (bool, error) {
	existing, err := s.ListPackages(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if err := s.ReplacePackages(ctx, pkgs); err != nil {
		return false, err
	}
	return true, nil
}
