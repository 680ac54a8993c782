package search

import (
	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/search/result"
)

// IndexReader exposes a point-in-time view of the search index. Queries
// never mutate the index.
type IndexReader interface {
	All() []document.Document
}

// Suggester tracks query terms and proposes completions.
type Suggester interface {
	Record(tokens []string)
	Suggest(partial string, limit int) []result.Suggestion
}
