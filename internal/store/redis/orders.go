package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/panelshop/internal/domain"
	"github.com/MrSnakeDoc/panelshop/internal/store"
)

// CreateOrder stores a new order. A token that already exists is a conflict.
func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	now := s.now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o.Version = 1

	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	ok, err := s.client.SetNX(ctx, OrderKey(o.Token), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	if !ok {
		return fmt.Errorf("token %s: %w", o.Token, store.ErrConflict)
	}

	member := redis.Z{Score: float64(o.CreatedAt.UnixMilli()), Member: o.Token}
	if err := s.client.ZAdd(ctx, AllOrdersKey(), member).Err(); err != nil {
		return fmt.Errorf("failed to index order: %w", err)
	}
	return nil
}

// GetOrder retrieves an order by token
func (s *Store) GetOrder(ctx context.Context, token string) (*domain.Order, error) {
	data, err := s.client.Get(ctx, OrderKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return decodeOrder(data)
}

// UpdateOrder runs fn inside WATCH/MULTI. When another writer touches the key
// first the transaction is retried on fresh data, up to maxTxRetries times.
func (s *Store) UpdateOrder(ctx context.Context, token string, fn store.UpdateFunc) (*domain.Order, error) {
	key := OrderKey(token)
	var updated *domain.Order

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return store.ErrNotFound
			}
			return fmt.Errorf("failed to get order: %w", err)
		}
		o, err := decodeOrder(data)
		if err != nil {
			return err
		}

		version := o.Version
		if err := fn(o); err != nil {
			return err
		}
		o.Token = token
		o.Version = version + 1
		o.UpdatedAt = s.now().UTC()

		out, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("failed to marshal order: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = o
		}
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("order %s: %w", token, store.ErrConflict)
}

// ListOrders returns the orders newest first.
func (s *Store) ListOrders(ctx context.Context) ([]domain.Order, error) {
	tokens, err := s.client.ZRevRange(ctx, AllOrdersKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get order tokens: %w", err)
	}
	if len(tokens) == 0 {
		return []domain.Order{}, nil
	}

	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = OrderKey(tok)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a record.
			continue
		}
		o, err := decodeOrder([]byte(raw))
		if err != nil {
			continue
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func decodeOrder(data []byte) (*domain.Order, error) {
	var o domain.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return &o, nil
}
