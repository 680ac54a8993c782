package sorting

import (
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
)

// Direction orders a sort key ascending or descending.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// IsValid checks if the direction is one of the supported values.
func (d Direction) IsValid() bool { return d == Asc || d == Desc }

// Key is one (field, direction) pair in a multi-key sort.
type Key struct {
	field     field.Field
	direction Direction
}

// NewKey creates a sort key. Direction defaults to ascending.
func NewKey(f field.Field, d Direction) Key {
	if !d.IsValid() {
		d = Asc
	}
	return Key{field: f, direction: d}
}

// Field returns the sort field.
func (k Key) Field() field.Field { return k.field }

// Direction returns the sort direction.
func (k Key) Direction() Direction { return k.direction }

// DefaultKeys is the sort applied when the caller specifies none.
func DefaultKeys() []Key {
	return []Key{NewKey(field.CreatedAt, Desc)}
}

// Comparator is a stable multi-key less-than over documents.
type Comparator func(a, b document.Document) bool

// NewComparator compiles an ordered key list into a comparator that
// consults later keys only on ties. An empty list means createdAt
// descending. A key naming an unknown field falls back to createdAt
// descending for that key only; one bad key does not fail the sort.
func NewComparator(keys []Key) Comparator {
	if len(keys) == 0 {
		keys = DefaultKeys()
	}
	resolved := make([]Key, len(keys))
	for i, k := range keys {
		if !field.IsValid(k.field) {
			k = NewKey(field.CreatedAt, Desc)
		}
		resolved[i] = k
	}

	col := collate.New(language.English, collate.IgnoreCase)

	return func(a, b document.Document) bool {
		for _, k := range resolved {
			c := compareByField(col, a, b, k.field)
			if c == 0 {
				continue
			}
			if k.direction == Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	}
}

// compareByField returns -1/0/+1 in ascending field order: locale-aware
// collation for strings, magnitude for numbers, instant for dates.
func compareByField(col *collate.Collator, a, b document.Document, f field.Field) int {
	av, err := field.Value(a, f)
	if err != nil {
		return 0
	}
	bv, _ := field.Value(b, f)

	switch at := av.(type) {
	case float64:
		bt, _ := bv.(float64)
		switch {
		case at < bt:
			return -1
		case at > bt:
			return 1
		}
		return 0
	case time.Time:
		bt, _ := bv.(time.Time)
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		}
		return 0
	case string:
		bt, _ := bv.(string)
		return col.CompareString(at, bt)
	}
	return 0
}
