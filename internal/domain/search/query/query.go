package query

import (
	"fmt"

	"github.com/clearcart/ordersearch/internal/domain"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
	"github.com/clearcart/ordersearch/internal/domain/search/filter"
	"github.com/clearcart/ordersearch/internal/domain/search/sorting"
)

// Query parameter limits and defaults.
const (
	DefaultPage           = 1
	DefaultLimit          = 20
	MaxLimit              = 100
	DefaultFuzzyThreshold = 0.7
)

// DefaultSearchFields are the free-text target fields when the caller
// names none.
func DefaultSearchFields() []field.Field {
	return []field.Field{field.OrderNumber, field.CustomerName, field.CustomerEmail, field.Notes}
}

// Query is a validated search request.
type Query struct {
	freeText       string
	searchFields   []field.Field
	filters        []filter.Condition
	sortKeys       []sorting.Key
	page           int
	limit          int
	fuzzy          bool
	fuzzyThreshold float64
	highlight      bool
	includeTotal   bool
}

// New validates and normalizes search parameters. Defaults: page 1,
// limit 20, search fields orderNumber/customerName/customerEmail/notes.
// Out-of-range page, limit or fuzzy threshold fail validation.
func New(
	freeText string,
	searchFields []field.Field,
	filters []filter.Condition,
	sortKeys []sorting.Key,
	page, limit int,
	fuzzy bool,
	fuzzyThreshold float64,
	highlight, includeTotal bool,
) (Query, error) {
	if page == 0 {
		page = DefaultPage
	}
	if page < 1 {
		return Query{}, fmt.Errorf("%w: page must be >= 1, got %d", domain.ErrValidation, page)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Query{}, fmt.Errorf("%w: limit must be between 1 and %d, got %d", domain.ErrValidation, MaxLimit, limit)
	}
	if fuzzyThreshold < 0 || fuzzyThreshold > 1 {
		return Query{}, fmt.Errorf(
			"%w: fuzzy threshold must be between 0 and 1, got %g", domain.ErrValidation, fuzzyThreshold,
		)
	}
	if len(searchFields) == 0 {
		searchFields = DefaultSearchFields()
	}
	for _, f := range searchFields {
		if !field.IsValid(f) {
			return Query{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedField, f)
		}
	}

	return Query{
		freeText:       freeText,
		searchFields:   searchFields,
		filters:        filters,
		sortKeys:       sortKeys,
		page:           page,
		limit:          limit,
		fuzzy:          fuzzy,
		fuzzyThreshold: fuzzyThreshold,
		highlight:      highlight,
		includeTotal:   includeTotal,
	}, nil
}

// FreeText returns the free-text query string.
func (q *Query) FreeText() string { return q.freeText }

// SearchFields returns the free-text target fields.
func (q *Query) SearchFields() []field.Field { return q.searchFields }

// Filters returns the filter conditions (combined under AND).
func (q *Query) Filters() []filter.Condition { return q.filters }

// SortKeys returns the requested sort keys.
func (q *Query) SortKeys() []sorting.Key { return q.sortKeys }

// Page returns the 1-based page number.
func (q *Query) Page() int { return q.page }

// Limit returns the page size.
func (q *Query) Limit() int { return q.limit }

// Fuzzy reports whether approximate matching is enabled.
func (q *Query) Fuzzy() bool { return q.fuzzy }

// FuzzyThreshold returns the normalized similarity threshold.
func (q *Query) FuzzyThreshold() float64 { return q.fuzzyThreshold }

// Highlight reports whether matched-field output was requested.
func (q *Query) Highlight() bool { return q.highlight }

// IncludeTotal reports whether the full match count should be computed.
func (q *Query) IncludeTotal() bool { return q.includeTotal }

// Advanced is a search request with a top-level logical combinator over
// pre-built filter groups, used by advanced search.
type Advanced struct {
	base    Query
	logical filter.Logical
	groups  [][]filter.Condition
}

// NewAdvanced wraps a base query with grouped filters combined under one
// explicit logical operator. An empty operator defaults to AND.
func NewAdvanced(base Query, logical filter.Logical, groups [][]filter.Condition) (Advanced, error) {
	if logical == "" {
		logical = filter.LogicalAnd
	}
	switch logical {
	case filter.LogicalAnd, filter.LogicalOr, filter.LogicalNot:
	default:
		return Advanced{}, fmt.Errorf("%w: unknown logical combinator %q", domain.ErrValidation, logical)
	}
	return Advanced{base: base, logical: logical, groups: groups}, nil
}

// Base returns the underlying query.
func (a *Advanced) Base() Query { return a.base }

// Logical returns the top-level combinator.
func (a *Advanced) Logical() filter.Logical { return a.logical }

// Groups returns the grouped filter conditions.
func (a *Advanced) Groups() [][]filter.Condition { return a.groups }
