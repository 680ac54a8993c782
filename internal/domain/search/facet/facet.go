package facet

import (
	"sort"

	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
)

// Value is one value-count bucket of a facet.
type Value struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// DefaultFields are the facets computed when the caller names none.
func DefaultFields() []field.Field {
	return []field.Field{field.Status, field.PaymentStatus, field.FulfillmentStatus}
}

// Compute groups the given result set by exact field value and counts each
// group, for every requested field. It counts the current result set as-is;
// there is no per-facet drill-down exclusion. Buckets are ordered by count
// descending, then value ascending.
func Compute(docs []document.Document, fields []field.Field) (map[field.Field][]Value, error) {
	if len(fields) == 0 {
		fields = DefaultFields()
	}

	out := make(map[field.Field][]Value, len(fields))
	for _, f := range fields {
		if _, err := field.TypeOf(f); err != nil {
			return nil, err
		}

		counts := make(map[string]int)
		for _, d := range docs {
			v, err := field.Text(d, f)
			if err != nil || v == "" {
				continue
			}
			counts[v]++
		}

		buckets := make([]Value, 0, len(counts))
		for v, n := range counts {
			buckets = append(buckets, Value{Value: v, Count: n})
		}
		sort.Slice(buckets, func(i, j int) bool {
			if buckets[i].Count != buckets[j].Count {
				return buckets[i].Count > buckets[j].Count
			}
			return buckets[i].Value < buckets[j].Value
		})
		out[f] = buckets
	}
	return out, nil
}
