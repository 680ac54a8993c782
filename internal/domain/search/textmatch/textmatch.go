package textmatch

import (
	"sort"
	"strings"

	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
)

// Score tiers for a (token, field) hit.
const (
	scoreExact    = 10
	scorePrefix   = 5
	scoreContains = 2
)

// Tokenize lower-cases a free-text query and splits it on whitespace,
// dropping empty tokens. A whitespace-only query tokenizes to nothing.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Levenshtein computes the edit distance between two strings with unit
// costs for insert, delete and substitute.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minOf(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity is the normalized edit-distance similarity in [0, 1]:
// 1 - distance/max(len). Two empty strings are fully similar.
func Similarity(a, b string) float64 {
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// Matcher scores documents against a tokenized free-text query over a set
// of target fields.
type Matcher struct {
	tokens    []string
	fields    []field.Field
	fuzzy     bool
	threshold float64
}

// NewMatcher builds a matcher. An empty or whitespace-only query produces a
// matcher that passes every document with score zero.
func NewMatcher(query string, fields []field.Field, fuzzy bool, threshold float64) *Matcher {
	return &Matcher{
		tokens:    Tokenize(query),
		fields:    fields,
		fuzzy:     fuzzy,
		threshold: threshold,
	}
}

// Empty reports whether the matcher has no tokens (text stage is a no-op).
func (m *Matcher) Empty() bool { return len(m.tokens) == 0 }

// Tokens returns the normalized query tokens.
func (m *Matcher) Tokens() []string { return m.tokens }

// Match scores one document. A document is a candidate when at least one
// (token, field) pair matches; the score sums the tier of every matching
// pair: exact 10, prefix 5, contains 2. Fuzzy hits score at the contains
// tier unless the values are exactly equal.
func (m *Matcher) Match(d document.Document) (int, bool) {
	if m.Empty() {
		return 0, true
	}

	score := 0
	for _, tok := range m.tokens {
		for _, f := range m.fields {
			raw, err := field.Text(d, f)
			if err != nil {
				continue
			}
			value := strings.ToLower(raw)
			if value == "" {
				continue
			}
			score += m.pairScore(tok, value)
		}
	}
	return score, score > 0
}

// MatchedFields returns the target fields each token matched in, for
// highlight output. Nil when the text stage is a no-op.
func (m *Matcher) MatchedFields(d document.Document) map[string][]string {
	if m.Empty() {
		return nil
	}
	out := make(map[string][]string)
	for _, tok := range m.tokens {
		for _, f := range m.fields {
			raw, err := field.Text(d, f)
			if err != nil {
				continue
			}
			value := strings.ToLower(raw)
			if value == "" {
				continue
			}
			if m.pairScore(tok, value) > 0 {
				out[string(f)] = append(out[string(f)], tok)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (m *Matcher) pairScore(token, value string) int {
	switch {
	case value == token:
		return scoreExact
	case strings.HasPrefix(value, token):
		return scorePrefix
	case strings.Contains(value, token):
		return scoreContains
	case m.fuzzy && Similarity(token, value) >= m.threshold:
		return scoreContains
	}
	return 0
}

// Scored pairs a document with its relevance score.
type Scored struct {
	Doc   document.Document
	Score int
}

// Rank filters docs to text-match candidates and orders them by descending
// score. The sort is stable: ties keep the underlying index order. When the
// matcher is empty every document passes unchanged with score zero.
func (m *Matcher) Rank(docs []document.Document) []Scored {
	out := make([]Scored, 0, len(docs))
	for _, d := range docs {
		score, ok := m.Match(d)
		if !ok {
			continue
		}
		out = append(out, Scored{Doc: d, Score: score})
	}
	if !m.Empty() {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	}
	return out
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
