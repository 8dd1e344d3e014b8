package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/panelshop/internal/domain"
)

// ListPackages returns the stored package list, empty when none was written.
func (s *Store) ListPackages(ctx context.Context) ([]domain.Package, error) {
	data, err := s.client.Get(ctx, PackagesKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.Package{}, nil
		}
		return nil, fmt.Errorf("failed to get packages: %w", err)
	}

	var pkgs []domain.Package
	if err := json.Unmarshal(data, &pkgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal packages: %w", err)
	}
	return pkgs, nil
}

// ReplacePackages overwrites the whole list.
func (s *Store) ReplacePackages(ctx context.Context, pkgs []domain.Package) error {
	if pkgs == nil {
		pkgs = []domain.Package{}
	}
	data, err := json.Marshal(pkgs)
	if err != nil {
		return fmt.Errorf("failed to marshal packages: %w", err)
	}
	if err := s.client.Set(ctx, PackagesKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save packages: %w", err)
	}
	return nil
}
