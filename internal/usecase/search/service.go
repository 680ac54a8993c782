package search

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/search/facet"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
	"github.com/clearcart/ordersearch/internal/domain/search/filter"
	"github.com/clearcart/ordersearch/internal/domain/search/query"
	"github.com/clearcart/ordersearch/internal/domain/search/result"
	"github.com/clearcart/ordersearch/internal/domain/search/sorting"
	"github.com/clearcart/ordersearch/internal/domain/search/textmatch"
	"github.com/clearcart/ordersearch/internal/logger"
	"github.com/clearcart/ordersearch/internal/metrics"
)

// Number of alternatives attached to an empty result.
const emptyResultSuggestions = 5

// Service composes the query pipeline: filter, text match and score, sort,
// paginate, facet. It reads index snapshots and never mutates them.
type Service struct {
	idx       IndexReader
	suggester Suggester
}

// New creates a search service.
func New(idx IndexReader, suggester Suggester) *Service {
	return &Service{idx: idx, suggester: suggester}
}

// Search executes a standard search: all filter conditions combined under
// AND, then the free-text stage.
func (s *Service) Search(ctx context.Context, q *query.Query) (result.Result, error) {
	pred, err := filter.Compile(q.Filters())
	if err != nil {
		return result.Result{}, err
	}
	return s.execute(ctx, q, pred, "search"), nil
}

// AdvancedSearch executes a search whose filter groups are combined under
// an explicit top-level logical operator (AND, OR, or NOT applied to the
// first group), on top of the base query's own AND filters.
func (s *Service) AdvancedSearch(ctx context.Context, aq *query.Advanced) (result.Result, error) {
	preds := make([]filter.Predicate, 0, len(aq.Groups()))
	for _, group := range aq.Groups() {
		p, err := filter.Compile(group)
		if err != nil {
			return result.Result{}, err
		}
		preds = append(preds, p)
	}
	combined, err := filter.Combine(aq.Logical(), preds)
	if err != nil {
		return result.Result{}, err
	}

	base := aq.Base()
	basePred, err := filter.Compile(base.Filters())
	if err != nil {
		return result.Result{}, err
	}

	pred := func(d document.Document) bool { return basePred(d) && combined(d) }
	return s.execute(ctx, &base, pred, "advanced"), nil
}

// Facets computes value-count breakdowns for the requested fields over the
// documents passing the given filters.
func (s *Service) Facets(
	ctx context.Context, fields []field.Field, conditions []filter.Condition,
) (map[field.Field][]facet.Value, error) {
	pred, err := filter.Compile(conditions)
	if err != nil {
		return nil, err
	}

	var filtered []document.Document
	for _, d := range s.idx.All() {
		if pred(d) {
			filtered = append(filtered, d)
		}
	}
	return facet.Compute(filtered, fields)
}

// Suggest proposes completions for a partial query.
func (s *Service) Suggest(ctx context.Context, partial string, limit int) []result.Suggestion {
	metrics.SuggestionsTotal.Inc()
	return s.suggester.Suggest(partial, limit)
}

// SupportedOperators returns the filter operators allowed for a field.
func (s *Service) SupportedOperators(f field.Field) ([]filter.Operator, error) {
	return filter.SupportedOperators(f)
}

func (s *Service) execute(
	ctx context.Context, q *query.Query, pred filter.Predicate, kind string,
) result.Result {
	start := time.Now()

	var filtered []document.Document
	for _, d := range s.idx.All() {
		if pred(d) {
			filtered = append(filtered, d)
		}
	}

	matcher := textmatch.NewMatcher(q.FreeText(), q.SearchFields(), q.Fuzzy(), q.FuzzyThreshold())
	scored := matcher.Rank(filtered)
	if !matcher.Empty() {
		s.suggester.Record(matcher.Tokens())
	}

	// Explicit sort keys always win. Without them, relevance order from the
	// text stage is kept; a pure filter query falls back to the default
	// createdAt-descending sort.
	if len(q.SortKeys()) > 0 || matcher.Empty() {
		cmp := sorting.NewComparator(q.SortKeys())
		sort.SliceStable(scored, func(i, j int) bool { return cmp(scored[i].Doc, scored[j].Doc) })
	}

	total := len(scored)
	limit := q.Limit()
	totalPages := (total + limit - 1) / limit

	from := (q.Page() - 1) * limit
	if from > total {
		from = total
	}
	to := from + limit
	if to > total {
		to = total
	}

	items := make([]result.Item, 0, to-from)
	for _, sc := range scored[from:to] {
		item := result.Item{Document: sc.Doc, Score: sc.Score}
		if q.Highlight() {
			item.Highlights = matcher.MatchedFields(sc.Doc)
		}
		items = append(items, item)
	}

	matchedDocs := make([]document.Document, len(scored))
	for i, sc := range scored {
		matchedDocs[i] = sc.Doc
	}
	facets, _ := facet.Compute(matchedDocs, nil)

	var suggestions []result.Suggestion
	if total == 0 && !matcher.Empty() {
		suggestions = s.suggester.Suggest(matcher.Tokens()[0], emptyResultSuggestions)
	}

	took := time.Since(start)
	metrics.SearchDuration.WithLabelValues(kind).Observe(took.Seconds())
	logger.FromContext(ctx).Debug("search executed",
		zap.String("kind", kind),
		zap.Int("total", total),
		zap.Int("page", q.Page()),
		zap.Duration("took", took),
	)

	res := result.Result{
		Items:           items,
		Page:            q.Page(),
		Limit:           limit,
		ExecutionTimeMs: took.Milliseconds(),
		QueryID:         uuid.New().String(),
		Suggestions:     suggestions,
		Facets:          facets,
	}
	if q.IncludeTotal() {
		res.Total = total
		res.TotalPages = totalPages
	}
	return res
}
