package health

import "github.com/clearcart/ordersearch/internal/domain/indexing"

// StatsProvider reads the current index statistics.
type StatsProvider interface {
	Stats() indexing.Stats
}
