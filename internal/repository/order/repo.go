package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/clearcart/ordersearch/internal/db"
	"github.com/clearcart/ordersearch/internal/domain"
	domorder "github.com/clearcart/ordersearch/internal/domain/order"
)

// Repo reads the source-of-truth order store. Orders live as JSON values
// under <prefix>order:<id>; <prefix>orders:updated is a sorted set of ids
// scored by updated-at (unix seconds) that drives changed-since fetches.
type Repo struct {
	store  db.Store
	prefix string
}

// New creates an order repository.
func New(store db.Store, prefix string) *Repo {
	return &Repo{store: store, prefix: prefix}
}

func (r *Repo) orderKey(id string) string { return r.prefix + "order:" + id }

func (r *Repo) updatedKey() string { return r.prefix + "orders:updated" }

// FetchOne retrieves a single order by id.
func (r *Repo) FetchOne(ctx context.Context, id string) (domorder.Order, error) {
	data, err := r.store.Get(ctx, r.orderKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domorder.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
		}
		return domorder.Order{}, fmt.Errorf("fetch order %s: %w", id, err)
	}

	var o domorder.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return domorder.Order{}, fmt.Errorf("decode order %s: %w", id, err)
	}
	return o, nil
}

// FetchChangedSince returns orders updated at or after the given time, in
// update order.
func (r *Repo) FetchChangedSince(ctx context.Context, since time.Time) ([]domorder.Order, error) {
	ids, err := r.store.ZRangeByScore(ctx, r.updatedKey(), float64(since.Unix()), math.Inf(1))
	if err != nil {
		return nil, fmt.Errorf("fetch changed ids: %w", err)
	}
	return r.fetchByIDs(ctx, ids)
}

// FetchAll returns every order in the source store, in update order.
func (r *Repo) FetchAll(ctx context.Context) ([]domorder.Order, error) {
	ids, err := r.store.ZRangeByScore(ctx, r.updatedKey(), math.Inf(-1), math.Inf(1))
	if err != nil {
		return nil, fmt.Errorf("fetch all ids: %w", err)
	}
	return r.fetchByIDs(ctx, ids)
}

// CountAll returns the number of orders in the source store.
func (r *Repo) CountAll(ctx context.Context) (int, error) {
	n, err := r.store.ZCard(ctx, r.updatedKey())
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return int(n), nil
}

// Save writes an order and its change-tracking entry. The search engine
// itself never calls this; it exists for the ingesting side and for tests.
func (r *Repo) Save(ctx context.Context, o domorder.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", o.ID, err)
	}
	if err := r.store.Set(ctx, r.orderKey(o.ID), data); err != nil {
		return fmt.Errorf("save order %s: %w", o.ID, err)
	}
	if err := r.store.ZAdd(ctx, r.updatedKey(), o.ID, float64(o.UpdatedAt.Unix())); err != nil {
		return fmt.Errorf("track order %s: %w", o.ID, err)
	}
	return nil
}

// Delete removes an order and its change-tracking entry.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.orderKey(id)); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	if err := r.store.ZRem(ctx, r.updatedKey(), id); err != nil {
		return fmt.Errorf("untrack order %s: %w", id, err)
	}
	return nil
}

// fetchByIDs loads orders in bulk. Records that vanished between the id
// scan and the fetch, or that fail to decode, are skipped; orphaned
// tracking entries are cleaned up by the optimize job.
func (r *Repo) fetchByIDs(ctx context.Context, ids []string) ([]domorder.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.orderKey(id)
	}

	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	out := make([]domorder.Order, 0, len(values))
	for _, data := range values {
		if data == nil {
			continue
		}
		var o domorder.Order
		if err := json.Unmarshal(data, &o); err != nil {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}
