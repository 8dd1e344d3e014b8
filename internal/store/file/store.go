// Package file is a Store backed by one JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/panelshop/internal/domain"
	"github.com/MrSnakeDoc/panelshop/internal/store"
	"github.com/MrSnakeDoc/panelshop/internal/utils"
)

// document is the on-disk layout.
type document struct {
	Orders   []domain.Order   `json:"orders"`
	Packages []domain.Package `json:"packages"`
	Meta     meta             `json:"meta"`
}

type meta struct {
	SeededAt  *time.Time `json:"seeded_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Store serialises every access behind a mutex and re-reads the document on
// each call, so the file stays the source of truth. Writes go to a temp file
// that is renamed over the original.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open prepares path, creating the directory and an empty document if needed.
func Open(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.read(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.write(&document{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

func (s *Store) CreateOrder(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	for i := range doc.Orders {
		if doc.Orders[i].Token == o.Token {
			return fmt.Errorf("token %s: %w", o.Token, store.ErrConflict)
		}
	}

	now := s.now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o.Version = 1

	doc.Orders = append(doc.Orders, *o)
	return s.write(doc)
}

func (s *Store) GetOrder(_ context.Context, token string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	i := indexOf(doc.Orders, token)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	o := doc.Orders[i]
	return &o, nil
}

// UpdateOrder applies fn under the store lock. A version that moved between
// the read and the write means someone else rewrote the file.
func (s *Store) UpdateOrder(_ context.Context, token string, fn store.UpdateFunc) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	i := indexOf(doc.Orders, token)
	if i < 0 {
		return nil, store.ErrNotFound
	}

	updated := doc.Orders[i]
	seen := updated.Version
	if err := fn(&updated); err != nil {
		return nil, err
	}

	latest, err := s.read()
	if err != nil {
		return nil, err
	}
	j := indexOf(latest.Orders, token)
	if j < 0 || latest.Orders[j].Version != seen {
		return nil, fmt.Errorf("order %s: %w", token, store.ErrConflict)
	}

	updated.Token = token
	updated.Version = seen + 1
	updated.UpdatedAt = s.now().UTC()
	latest.Orders[j] = updated

	if err := s.write(latest); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListOrders returns the orders newest first.
func (s *Store) ListOrders(_ context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	orders := append([]domain.Order(nil), doc.Orders...)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *Store) ListPackages(_ context.Context) ([]domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return append([]domain.Package(nil), doc.Packages...), nil
}

func (s *Store) ReplacePackages(_ context.Context, pkgs []domain.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc.Meta.SeededAt == nil && len(doc.Packages) == 0 {
		seeded := s.now().UTC()
		doc.Meta.SeededAt = &seeded
	}
	doc.Packages = append([]domain.Package{}, pkgs...)
	return s.write(doc)
}

// Ping checks the document is still readable.
func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.read()
	return err
}

func (s *Store) Close() error { return nil }

// read loads the document. A missing file reads as empty.
func (s *Store) read() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var doc document
	if len(data) == 0 {
		return &doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	return &doc, nil
}

func (s *Store) write(doc *document) error {
	if doc.Orders == nil {
		doc.Orders = []domain.Order{}
	}
	if doc.Packages == nil {
		doc.Packages = []domain.Package{}
	}
	doc.Meta.UpdatedAt = s.now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".db-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		utils.Close(tmp)
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		utils.Close(tmp)
		return fmt.Errorf("failed to sync store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func indexOf(orders []domain.Order, token string) int {
	for i := range orders {
		if orders[i].Token == token {
			return i
		}
	}
	return -1
}
