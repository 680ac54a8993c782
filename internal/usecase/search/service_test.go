package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/clearcart/ordersearch/internal/domain"
	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/order"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
	"github.com/clearcart/ordersearch/internal/domain/search/filter"
	"github.com/clearcart/ordersearch/internal/domain/search/query"
	"github.com/clearcart/ordersearch/internal/domain/search/result"
	"github.com/clearcart/ordersearch/internal/domain/search/sorting"
)

// --- Mocks ---

type mockIndex struct {
	docs []document.Document
}

func (m *mockIndex) All() []document.Document { return m.docs }

type mockSuggester struct {
	recorded    [][]string
	suggestions []result.Suggestion
}

func (m *mockSuggester) Record(tokens []string) {
	m.recorded = append(m.recorded, tokens)
}

func (m *mockSuggester) Suggest(_ string, _ int) []result.Suggestion {
	return m.suggestions
}

func makeQuery(t *testing.T, freeText string, filters []filter.Condition, sortKeys []sorting.Key, page, limit int) *query.Query {
	t.Helper()
	q, err := query.New(freeText, nil, filters, sortKeys, page, limit, false, query.DefaultFuzzyThreshold, false, true)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return &q
}

func seedDocs(n int) []document.Document {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	docs := make([]document.Document, 0, n)
	for i := 0; i < n; i++ {
		d := document.Document{
			ID:          fmt.Sprintf("o-%02d", i),
			OrderNumber: fmt.Sprintf("ORD-%04d", i),
			Status:      order.StatusShipped,
			TotalAmount: float64(i * 10),
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
			UpdatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		d.SearchableText = document.BuildSearchableText(d)
		docs = append(docs, d)
	}
	return docs
}

// --- Tests ---

func TestSearch_PaginatesWithPartialLastPage(t *testing.T) {
	svc := New(&mockIndex{docs: seedDocs(45)}, &mockSuggester{})

	res, err := svc.Search(context.Background(), makeQuery(t, "", nil, nil, 3, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Total != 45 {
		t.Errorf("expected total 45, got %d", res.Total)
	}
	if res.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", res.TotalPages)
	}
	if len(res.Items) != 5 {
		t.Errorf("expected 5 items on the last page, got %d", len(res.Items))
	}
	if res.Page != 3 || res.Limit != 20 {
		t.Errorf("expected page/limit echoed back, got %d/%d", res.Page, res.Limit)
	}
}

func TestSearch_PageBeyondEndIsEmpty(t *testing.T) {
	svc := New(&mockIndex{docs: seedDocs(5)}, &mockSuggester{})

	res, err := svc.Search(context.Background(), makeQuery(t, "", nil, nil, 4, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("expected no items beyond the last page, got %d", len(res.Items))
	}
	if res.Total != 5 {
		t.Errorf("expected total 5, got %d", res.Total)
	}
}

func TestSearch_DefaultSortIsCreatedAtDesc(t *testing.T) {
	svc := New(&mockIndex{docs: seedDocs(3)}, &mockSuggester{})

	res, err := svc.Search(context.Background(), makeQuery(t, "", nil, nil, 1, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Items[0].Document.ID != "o-02" {
		t.Errorf("expected newest order first, got %q", res.Items[0].Document.ID)
	}
}

func TestSearch_FreeTextKeepsRelevanceOrder(t *testing.T) {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	docs := []document.Document{
		{ID: "partial", OrderNumber: "X-1001-B", CreatedAt: base.Add(time.Hour)},
		{ID: "exact", OrderNumber: "1001", CreatedAt: base},
	}
	svc := New(&mockIndex{docs: docs}, &mockSuggester{})

	res, err := svc.Search(context.Background(), makeQuery(t, "1001", nil, nil, 1, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(res.Items))
	}
	// Despite being older, the exact match outranks the substring match.
	if res.Items[0].Document.ID != "exact" {
		t.Errorf("expected relevance order, got %q first", res.Items[0].Document.ID)
	}
	if res.Items[0].Score <= res.Items[1].Score {
		t.Errorf("expected descending scores, got %d then %d", res.Items[0].Score, res.Items[1].Score)
	}
}

func TestSearch_ExplicitSortOverridesRelevance(t *testing.T) {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	docs := []document.Document{
		{ID: "partial", OrderNumber: "X-1001-B", TotalAmount: 500, CreatedAt: base},
		{ID: "exact", OrderNumber: "1001", TotalAmount: 10, CreatedAt: base},
	}
	svc := New(&mockIndex{docs: docs}, &mockSuggester{})

	keys := []sorting.Key{sorting.NewKey(field.TotalAmount, sorting.Desc)}
	res, err := svc.Search(context.Background(), makeQuery(t, "1001", nil, keys, 1, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Items[0].Document.ID != "partial" {
		t.Errorf("expected amount sort to win over relevance, got %q first", res.Items[0].Document.ID)
	}
}

func TestSearch_FiltersNarrowTheSet(t *testing.T) {
	docs := seedDocs(10)
	docs[0].Status = order.StatusCancelled
	svc := New(&mockIndex{docs: docs}, &mockSuggester{})

	conditions := []filter.Condition{filter.New(field.Status, filter.Equals, "CANCELLED")}
	res, err := svc.Search(context.Background(), makeQuery(t, "", conditions, nil, 1, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("expected 1 cancelled order, got %d", res.Total)
	}
}

func TestSearch_InvalidFilterFailsValidation(t *testing.T) {
	svc := New(&mockIndex{}, &mockSuggester{})

	conditions := []filter.Condition{filter.New(field.Status, filter.Contains, "SHIP")}
	_, err := svc.Search(context.Background(), makeQuery(t, "", conditions, nil, 1, 20))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *domain.ValidationErrors
	if !errors.As(err, &verr) {
		t.Errorf("expected accumulated validation errors, got %T", err)
	}
}

func TestSearch_EmptyResultCarriesSuggestions(t *testing.T) {
	sugg := &mockSuggester{suggestions: []result.Suggestion{{Text: "ord-1001", Score: 3}}}
	svc := New(&mockIndex{docs: seedDocs(3)}, sugg)

	res, err := svc.Search(context.Background(), makeQuery(t, "zzzz", nil, nil, 1, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 {
		t.Fatalf("expected no matches, got %d", res.Total)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].Text != "ord-1001" {
		t.Errorf("expected alternative suggestions on an empty result, got %v", res.Suggestions)
	}
}

func TestSearch_RecordsQueryTokens(t *testing.T) {
	sugg := &mockSuggester{}
	svc := New(&mockIndex{docs: seedDocs(3)}, sugg)

	if _, err := svc.Search(context.Background(), makeQuery(t, "John Smith", nil, nil, 1, 20)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sugg.recorded) != 1 {
		t.Fatalf("expected one recorded token set, got %d", len(sugg.recorded))
	}
	got := sugg.recorded[0]
	if len(got) != 2 || got[0] != "john" || got[1] != "smith" {
		t.Errorf("expected normalized tokens [john smith], got %v", got)
	}
}

func TestSearch_IncludeTotalOff(t *testing.T) {
	q, err := query.New("", nil, nil, nil, 1, 20, false, query.DefaultFuzzyThreshold, false, false)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	svc := New(&mockIndex{docs: seedDocs(5)}, &mockSuggester{})

	res, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || res.TotalPages != 0 {
		t.Errorf("expected totals omitted, got total=%d pages=%d", res.Total, res.TotalPages)
	}
	if len(res.Items) != 5 {
		t.Errorf("expected items regardless of totals, got %d", len(res.Items))
	}
}

func TestSearch_Highlights(t *testing.T) {
	q, err := query.New("1001", nil, nil, nil, 1, 20, false, query.DefaultFuzzyThreshold, true, true)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	docs := []document.Document{{ID: "a", OrderNumber: "ORD-1001"}}
	svc := New(&mockIndex{docs: docs}, &mockSuggester{})

	res, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
	hits := res.Items[0].Highlights[string(field.OrderNumber)]
	if len(hits) != 1 || hits[0] != "1001" {
		t.Errorf("expected orderNumber highlight for token '1001', got %v", res.Items[0].Highlights)
	}
}

func TestSearch_ResultEnvelope(t *testing.T) {
	svc := New(&mockIndex{docs: seedDocs(4)}, &mockSuggester{})

	res, err := svc.Search(context.Background(), makeQuery(t, "", nil, nil, 1, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.QueryID == "" {
		t.Error("expected a query id")
	}
	if res.Facets == nil {
		t.Error("expected facets over the matched set")
	}
	if buckets := res.Facets[field.Status]; len(buckets) != 1 || buckets[0].Count != 4 {
		t.Errorf("expected a single SHIPPED bucket of 4, got %v", buckets)
	}
}

func TestAdvancedSearch_OrGroups(t *testing.T) {
	docs := seedDocs(4)
	docs[0].Status = order.StatusCancelled
	docs[1].TotalAmount = 9999
	svc := New(&mockIndex{docs: docs}, &mockSuggester{})

	base := makeQuery(t, "", nil, nil, 1, 20)
	aq, err := query.NewAdvanced(*base, filter.LogicalOr, [][]filter.Condition{
		{filter.New(field.Status, filter.Equals, "CANCELLED")},
		{filter.New(field.TotalAmount, filter.GreaterThan, 5000.0)},
	})
	if err != nil {
		t.Fatalf("query.NewAdvanced: %v", err)
	}

	res, err := svc.AdvancedSearch(context.Background(), &aq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("expected 2 matches across OR branches, got %d", res.Total)
	}
}

func TestAdvancedSearch_BaseFiltersStillApply(t *testing.T) {
	docs := seedDocs(4)
	docs[0].Status = order.StatusCancelled // amount 0
	docs[3].Status = order.StatusCancelled // amount 30
	svc := New(&mockIndex{docs: docs}, &mockSuggester{})

	baseQ, err := query.New(
		"", nil,
		[]filter.Condition{filter.New(field.TotalAmount, filter.GreaterThan, 10.0)},
		nil, 1, 20, false, query.DefaultFuzzyThreshold, false, true,
	)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	aq, err := query.NewAdvanced(baseQ, filter.LogicalAnd, [][]filter.Condition{
		{filter.New(field.Status, filter.Equals, "CANCELLED")},
	})
	if err != nil {
		t.Fatalf("query.NewAdvanced: %v", err)
	}

	res, err := svc.AdvancedSearch(context.Background(), &aq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("expected base filter to intersect the groups, got %d", res.Total)
	}
}

func TestFacets_RespectsFilters(t *testing.T) {
	docs := seedDocs(6)
	docs[0].Status = order.StatusCancelled
	svc := New(&mockIndex{docs: docs}, &mockSuggester{})

	got, err := svc.Facets(
		context.Background(),
		[]field.Field{field.Status},
		[]filter.Condition{filter.New(field.TotalAmount, filter.GreaterThan, 0.0)},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Document 0 (amount 0, CANCELLED) is filtered out.
	buckets := got[field.Status]
	if len(buckets) != 1 || buckets[0].Value != "SHIPPED" || buckets[0].Count != 5 {
		t.Errorf("expected only the 5 shipped orders counted, got %v", buckets)
	}
}

func TestSupportedOperators_UnknownField(t *testing.T) {
	svc := New(&mockIndex{}, &mockSuggester{})
	if _, err := svc.SupportedOperators("bogus"); !errors.Is(err, domain.ErrUnsupportedField) {
		t.Errorf("expected ErrUnsupportedField, got %v", err)
	}
}
