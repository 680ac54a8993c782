package result

import (
	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/search/facet"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
)

// Item is a single search hit with its relevance score and, when highlight
// output was requested, the fields each query token matched in.
type Item struct {
	Document   document.Document
	Score      int
	Highlights map[string][]string
}

// Suggestion is a ranked completion for a partial query.
type Suggestion struct {
	Text  string
	Score int
}

// Result is the search response envelope.
type Result struct {
	Items           []Item
	Total           int
	Page            int
	Limit           int
	TotalPages      int
	ExecutionTimeMs int64
	QueryID         string
	Suggestions     []Suggestion
	Facets          map[field.Field][]facet.Value
}
