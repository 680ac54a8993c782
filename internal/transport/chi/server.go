package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clearcart/ordersearch/internal/domain"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
	healthuc "github.com/clearcart/ordersearch/internal/usecase/health"
	indexeruc "github.com/clearcart/ordersearch/internal/usecase/indexer"
	searchuc "github.com/clearcart/ordersearch/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the search and indexing engine over HTTP.
type Server struct {
	search                *searchuc.Service
	indexer               *indexeruc.Service
	health                *healthuc.Service
	logger                *zap.Logger
	defaultFuzzyThreshold float64
	suggestionLimit       int
	errorHandlers         []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	indexer *indexeruc.Service,
	health *healthuc.Service,
	defaultFuzzyThreshold float64,
	suggestionLimit int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:                search,
		indexer:               indexer,
		health:                health,
		logger:                logger,
		defaultFuzzyThreshold: defaultFuzzyThreshold,
		suggestionLimit:       suggestionLimit,
	}
	s.errorHandlers = []errorHandler{
		validationErrorsHandler,
		sentinelHandler(domain.ErrUnsupportedField, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedOperator, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrOrderNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrJobRunning, http.StatusConflict, codeJobRunning),
	}
	return s
}

// Routes mounts the API under /api/v1.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/search/advanced", s.handleAdvancedSearch)
		r.Get("/search/suggest", s.handleSuggest)
		r.Post("/search/facets", s.handleFacets)
		r.Get("/search/operators/{field}", s.handleOperators)

		r.Post("/index/orders/{id}", s.handleReindexOne)
		r.Post("/index/reindex", s.handleReindexAll)
		r.Post("/index/force", s.handleForceReindex)
		r.Get("/index/stats", s.handleStats)
		r.Get("/index/health", s.handleHealth)
	})
}

// handleSearch handles POST /api/v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := queryFromRequest(req, s.defaultFuzzyThreshold)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.search.Search(r.Context(), &q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseFromResult(res))
}

// handleAdvancedSearch handles POST /api/v1/search/advanced.
func (s *Server) handleAdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var req advancedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// Range helpers expand into between conditions on the base query.
	if req.DateRange != nil {
		req.Filters = append(req.Filters, conditionDTO{
			Field:    req.DateRange.Field,
			Operator: "between",
			Value:    []any{req.DateRange.From, req.DateRange.To},
		})
	}
	if req.AmountRange != nil {
		req.Filters = append(req.Filters, conditionDTO{
			Field:    string(field.TotalAmount),
			Operator: "between",
			Value:    []any{req.AmountRange.Min, req.AmountRange.Max},
		})
	}

	base, err := queryFromRequest(req.searchRequest, s.defaultFuzzyThreshold)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	groups := make([][]conditionDTO, len(req.FilterGroups))
	copy(groups, req.FilterGroups)
	aq, err := advancedFromRequest(base, req.LogicalOperator, groups)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.search.AdvancedSearch(r.Context(), &aq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseFromResult(res))
}

// handleSuggest handles GET /api/v1/search/suggest.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("q")

	limit := s.suggestionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	suggestions := s.search.Suggest(r.Context(), partial, limit)
	writeJSON(w, http.StatusOK, suggestResponse{Suggestions: suggestionsToDTO(suggestions)})
}

// handleFacets handles POST /api/v1/search/facets.
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	var req facetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	facets, err := s.search.Facets(r.Context(), fieldsFromDTO(req.Fields), conditionsFromDTO(req.Filters))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, facetsResponse{Facets: facetsToDTO(facets)})
}

// handleOperators handles GET /api/v1/search/operators/{field}.
func (s *Server) handleOperators(w http.ResponseWriter, r *http.Request) {
	f := field.Field(chi.URLParam(r, "field"))

	ops, err := s.search.SupportedOperators(f)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	writeJSON(w, http.StatusOK, operatorsResponse{Field: string(f), Operators: names})
}

// handleReindexOne handles POST /api/v1/index/orders/{id}.
func (s *Server) handleReindexOne(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "order id is required")
		return
	}

	if err := s.indexer.ReindexOne(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReindexAll handles POST /api/v1/index/reindex.
func (s *Server) handleReindexAll(w http.ResponseWriter, r *http.Request) {
	if err := s.indexer.RunFull(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleForceReindex handles POST /api/v1/index/force.
func (s *Server) handleForceReindex(w http.ResponseWriter, r *http.Request) {
	if err := s.indexer.ForceReindex(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStats handles GET /api/v1/index/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.indexer.Stats())
}

// handleHealth handles GET /api/v1/index/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check()

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, handle := range s.errorHandlers {
		if handle(w, err) {
			return
		}
	}
	s.logger.Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// validationErrorsHandler surfaces every accumulated condition failure.
func validationErrorsHandler(w http.ResponseWriter, err error) bool {
	var verr *domain.ValidationErrors
	if !errors.As(err, &verr) {
		return false
	}
	details := make([]string, len(verr.Errors))
	for i, e := range verr.Errors {
		details[i] = e.Error()
	}
	writeJSONError(w, http.StatusBadRequest, errorResponse{
		Code:    codeValidationFailed,
		Message: "one or more filter conditions are invalid",
		Details: details,
	})
	return true
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSONError(w, status, errorResponse{Code: code, Message: message})
}

func writeJSONError(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
