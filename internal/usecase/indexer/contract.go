package indexer

import (
	"context"
	"time"

	"github.com/clearcart/ordersearch/internal/domain/order"
)

// Source is the source-of-truth order store the scheduler pulls from.
type Source interface {
	FetchChangedSince(ctx context.Context, since time.Time) ([]order.Order, error)
	FetchAll(ctx context.Context) ([]order.Order, error)
	FetchOne(ctx context.Context, id string) (order.Order, error)
	CountAll(ctx context.Context) (int, error)
}
