package chi

import (
	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/search/facet"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
	"github.com/clearcart/ordersearch/internal/domain/search/filter"
	"github.com/clearcart/ordersearch/internal/domain/search/query"
	"github.com/clearcart/ordersearch/internal/domain/search/result"
	"github.com/clearcart/ordersearch/internal/domain/search/sorting"
)

// Error codes returned in the error response envelope.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeJobRunning       = "job_running"
	codeUnauthorized     = "unauthorized"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type conditionDTO struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

type sortDTO struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type searchRequest struct {
	FreeText       string         `json:"free_text,omitempty"`
	SearchFields   []string       `json:"search_fields,omitempty"`
	Filters        []conditionDTO `json:"filters,omitempty"`
	Sort           []sortDTO      `json:"sort,omitempty"`
	Page           int            `json:"page,omitempty"`
	Limit          int            `json:"limit,omitempty"`
	Fuzzy          bool           `json:"fuzzy,omitempty"`
	FuzzyThreshold *float64       `json:"fuzzy_threshold,omitempty"`
	Highlight      bool           `json:"highlight,omitempty"`
	IncludeTotal   *bool          `json:"include_total,omitempty"`
}

type dateRangeDTO struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type amountRangeDTO struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type advancedSearchRequest struct {
	searchRequest
	LogicalOperator string           `json:"logical_operator,omitempty"`
	FilterGroups    [][]conditionDTO `json:"filter_groups,omitempty"`
	DateRange       *dateRangeDTO    `json:"date_range,omitempty"`
	AmountRange     *amountRangeDTO  `json:"amount_range,omitempty"`
}

type facetsRequest struct {
	Fields  []string       `json:"fields,omitempty"`
	Filters []conditionDTO `json:"filters,omitempty"`
}

type itemDTO struct {
	document.Document
	Score      int                 `json:"score"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

type suggestionDTO struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

type searchResponse struct {
	Items           []itemDTO                `json:"items"`
	Total           int                      `json:"total"`
	Page            int                      `json:"page"`
	Limit           int                      `json:"limit"`
	TotalPages      int                      `json:"total_pages"`
	ExecutionTimeMs int64                    `json:"execution_time_ms"`
	QueryID         string                   `json:"query_id"`
	Suggestions     []suggestionDTO          `json:"suggestions,omitempty"`
	Facets          map[string][]facet.Value `json:"facets"`
}

type suggestResponse struct {
	Suggestions []suggestionDTO `json:"suggestions"`
}

type facetsResponse struct {
	Facets map[string][]facet.Value `json:"facets"`
}

type operatorsResponse struct {
	Field     string   `json:"field"`
	Operators []string `json:"operators"`
}

func conditionsFromDTO(dtos []conditionDTO) []filter.Condition {
	out := make([]filter.Condition, len(dtos))
	for i, c := range dtos {
		out[i] = filter.New(field.Field(c.Field), filter.Operator(c.Operator), c.Value)
	}
	return out
}

func sortKeysFromDTO(dtos []sortDTO) []sorting.Key {
	out := make([]sorting.Key, len(dtos))
	for i, k := range dtos {
		out[i] = sorting.NewKey(field.Field(k.Field), sorting.Direction(k.Direction))
	}
	return out
}

func fieldsFromDTO(names []string) []field.Field {
	out := make([]field.Field, len(names))
	for i, n := range names {
		out[i] = field.Field(n)
	}
	return out
}

// queryFromRequest builds a validated query, applying the configured
// default fuzzy threshold when none was sent. include_total defaults on.
func queryFromRequest(req searchRequest, defaultThreshold float64) (query.Query, error) {
	threshold := defaultThreshold
	if req.FuzzyThreshold != nil {
		threshold = *req.FuzzyThreshold
	}
	includeTotal := true
	if req.IncludeTotal != nil {
		includeTotal = *req.IncludeTotal
	}

	return query.New(
		req.FreeText,
		fieldsFromDTO(req.SearchFields),
		conditionsFromDTO(req.Filters),
		sortKeysFromDTO(req.Sort),
		req.Page,
		req.Limit,
		req.Fuzzy,
		threshold,
		req.Highlight,
		includeTotal,
	)
}

// advancedFromRequest wraps a validated base query with grouped filters
// combined under the requested logical operator.
func advancedFromRequest(base query.Query, logical string, groups [][]conditionDTO) (query.Advanced, error) {
	converted := make([][]filter.Condition, len(groups))
	for i, group := range groups {
		converted[i] = conditionsFromDTO(group)
	}
	return query.NewAdvanced(base, filter.Logical(logical), converted)
}

func searchResponseFromResult(res result.Result) searchResponse {
	items := make([]itemDTO, len(res.Items))
	for i, item := range res.Items {
		items[i] = itemDTO{Document: item.Document, Score: item.Score, Highlights: item.Highlights}
	}
	return searchResponse{
		Items:           items,
		Total:           res.Total,
		Page:            res.Page,
		Limit:           res.Limit,
		TotalPages:      res.TotalPages,
		ExecutionTimeMs: res.ExecutionTimeMs,
		QueryID:         res.QueryID,
		Suggestions:     suggestionsToDTO(res.Suggestions),
		Facets:          facetsToDTO(res.Facets),
	}
}

func suggestionsToDTO(suggestions []result.Suggestion) []suggestionDTO {
	if len(suggestions) == 0 {
		return nil
	}
	out := make([]suggestionDTO, len(suggestions))
	for i, sg := range suggestions {
		out[i] = suggestionDTO{Text: sg.Text, Score: sg.Score}
	}
	return out
}

func facetsToDTO(facets map[field.Field][]facet.Value) map[string][]facet.Value {
	out := make(map[string][]facet.Value, len(facets))
	for f, values := range facets {
		out[string(f)] = values
	}
	return out
}
