package suggest

import (
	"sort"
	"strings"
	"sync"

	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/search/result"
)

// MinPartialLength is the shortest partial query that yields suggestions.
const MinPartialLength = 2

// Historical tokens shorter than this are not tracked.
const minTrackedTokenLength = 3

// DocumentLister exposes the indexed documents for completion lookups.
type DocumentLister interface {
	All() []document.Document
}

// Service proposes completions from historical query terms and indexed
// order numbers.
type Service struct {
	docs DocumentLister

	mu   sync.RWMutex
	freq map[string]int
}

// New creates a suggestion service.
func New(docs DocumentLister) *Service {
	return &Service{docs: docs, freq: make(map[string]int)}
}

// Record tracks query tokens for frequency-ranked suggestions. Tokens of
// length <= 2 carry too little signal and are dropped.
func (s *Service) Record(tokens []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tok := range tokens {
		if len(tok) < minTrackedTokenLength {
			continue
		}
		s.freq[strings.ToLower(tok)]++
	}
}

// Suggest returns up to limit suggestions for a partial query, ranked by
// score: historical tokens score their frequency, order-number completions
// score 1. Partials shorter than MinPartialLength yield nothing.
func (s *Service) Suggest(partial string, limit int) []result.Suggestion {
	partial = strings.ToLower(strings.TrimSpace(partial))
	if len(partial) < MinPartialLength || limit <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var out []result.Suggestion

	s.mu.RLock()
	for tok, n := range s.freq {
		if strings.Contains(tok, partial) {
			out = append(out, result.Suggestion{Text: tok, Score: n})
			seen[tok] = struct{}{}
		}
	}
	s.mu.RUnlock()

	for _, d := range s.docs.All() {
		num := strings.ToLower(d.OrderNumber)
		if num == "" || !strings.Contains(num, partial) {
			continue
		}
		if _, dup := seen[num]; dup {
			continue
		}
		seen[num] = struct{}{}
		out = append(out, result.Suggestion{Text: num, Score: 1})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
