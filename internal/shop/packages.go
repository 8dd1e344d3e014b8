package shop

import (
	"context"

	"github.com/MrSnakeDoc/panelshop/internal/domain"
	"github.com/MrSnakeDoc/panelshop/internal/logger"
	"github.com/MrSnakeDoc/panelshop/internal/store"
)

// Quote is a priced package quantity.
type Quote struct {
	ID       string  `json:"id"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

// PackageService serves the fixed package list.
type PackageService struct {
	store  store.Store
	logger logger.Logger
}

func NewPackageService(s store.Store, log logger.Logger) *PackageService {
	if log == nil {
		log = logger.Nop()
	}
	return &PackageService{store: s, logger: log}
}

// List returns active packages, optionally for one platform, without costs.
func (s *PackageService) List(ctx context.Context, platform string) ([]domain.Package, error) {
	pkgs, err := s.store.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Active && p.MatchesPlatform(platform) {
			out = append(out, p.Public())
		}
	}
	return out, nil
}

// Quote prices rawQty units of a package after clamping to its bounds.
func (s *PackageService) Quote(ctx context.Context, id, rawQty string) (*Quote, error) {
	p, err := findActivePackage(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	qty := domain.ClampInput(rawQty, p.Min, p.Max)
	return &Quote{ID: p.ID, Quantity: qty, Price: domain.Quote(p.SellPer1K, qty)}, nil
}

// Replace swaps the whole package list and returns its size.
func (s *PackageService) Replace(ctx context.Context, pkgs []domain.Package) (int, error) {
	if err := s.store.ReplacePackages(ctx, pkgs); err != nil {
		return 0, err
	}
	s.logger.Info("packages replaced", logger.Int("count", len(pkgs)))
	return len(pkgs), nil
}

func findActivePackage(ctx context.Context, s store.Store, id string) (*domain.Package, error) {
	pkgs, err := s.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	for i := range pkgs {
		if pkgs[i].ID == id && pkgs[i].Active {
			return &pkgs[i], nil
		}
	}
	return nil, &NotFoundError{What: "Package"}
}
