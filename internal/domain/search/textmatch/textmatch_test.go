package textmatch

import (
	"testing"

	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"lowercases and splits", "John SMITH", []string{"john", "smith"}},
		{"collapses whitespace", "  ord-1001\t urgent  ", []string{"ord-1001", "urgent"}},
		{"whitespace only", "   \t ", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d tokens, got %d (%v)", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"jhon", "john", 2},
		{"smith", "smith", 0},
		{"flaw", "lawn", 2},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("", ""); got != 1 {
		t.Errorf("expected similarity 1 for two empty strings, got %g", got)
	}
	if got := Similarity("john", "john"); got != 1 {
		t.Errorf("expected similarity 1 for identical strings, got %g", got)
	}
	if got := Similarity("abcd", "wxyz"); got != 0 {
		t.Errorf("expected similarity 0 for fully distinct strings, got %g", got)
	}
	// One substitution in a five-rune word: 1 - 1/5.
	if got := Similarity("smith", "smyth"); got != 0.8 {
		t.Errorf("expected similarity 0.8, got %g", got)
	}
}

func TestMatch_ScoreTiers(t *testing.T) {
	fields := []field.Field{field.OrderNumber}

	tests := []struct {
		name  string
		query string
		doc   document.Document
		want  int
	}{
		{"exact", "ord-1001", document.Document{OrderNumber: "ORD-1001"}, 10},
		{"prefix", "ord-10", document.Document{OrderNumber: "ORD-1001"}, 5},
		{"contains", "1001", document.Document{OrderNumber: "ORD-1001"}, 2},
		{"miss", "zzz", document.Document{OrderNumber: "ORD-1001"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(tt.query, fields, false, 0)
			score, ok := m.Match(tt.doc)
			if score != tt.want {
				t.Errorf("expected score %d, got %d", tt.want, score)
			}
			if ok != (tt.want > 0) {
				t.Errorf("expected candidate=%v, got %v", tt.want > 0, ok)
			}
		})
	}
}

func TestMatch_SumsAcrossTokensAndFields(t *testing.T) {
	doc := document.Document{
		OrderNumber:  "ORD-1001",
		CustomerName: "John Smith",
	}
	m := NewMatcher("john ord-1001", []field.Field{field.OrderNumber, field.CustomerName}, false, 0)

	// "john" prefixes the name (5); "ord-1001" matches the number exactly (10).
	score, ok := m.Match(doc)
	if !ok {
		t.Fatal("expected document to be a candidate")
	}
	if score != 15 {
		t.Errorf("expected score 15, got %d", score)
	}
}

func TestMatch_FuzzyTypo(t *testing.T) {
	doc := document.Document{CustomerName: "John"}
	fields := []field.Field{field.CustomerName}

	strict := NewMatcher("johm", fields, false, 0)
	if _, ok := strict.Match(doc); ok {
		t.Error("expected misspelled query to miss without fuzzy matching")
	}

	// similarity("johm", "john") = 0.75, above the default 0.7 threshold.
	fuzzy := NewMatcher("johm", fields, true, 0.7)
	score, ok := fuzzy.Match(doc)
	if !ok {
		t.Fatal("expected fuzzy matching to recover the typo")
	}
	if score != 2 {
		t.Errorf("expected fuzzy hit to score at the contains tier, got %d", score)
	}
}

func TestMatch_FuzzyThresholdBounds(t *testing.T) {
	doc := document.Document{CustomerName: "smith"}
	fields := []field.Field{field.CustomerName}

	// similarity("smyth", "smith") = 0.8
	if _, ok := NewMatcher("smyth", fields, true, 0.8).Match(doc); !ok {
		t.Error("expected a similarity equal to the threshold to match")
	}
	if _, ok := NewMatcher("smyth", fields, true, 0.9).Match(doc); ok {
		t.Error("expected a similarity below the threshold to miss")
	}
}

func TestMatch_EmptyQueryPassesEverything(t *testing.T) {
	m := NewMatcher("   ", []field.Field{field.OrderNumber}, false, 0)
	if !m.Empty() {
		t.Fatal("expected whitespace-only query to produce an empty matcher")
	}
	score, ok := m.Match(document.Document{})
	if !ok || score != 0 {
		t.Errorf("expected (0, true) for an empty matcher, got (%d, %v)", score, ok)
	}
}

func TestRank_OrdersByScoreDescending(t *testing.T) {
	docs := []document.Document{
		{ID: "contains", OrderNumber: "X-1001-Y"},
		{ID: "exact", OrderNumber: "1001"},
		{ID: "miss", OrderNumber: "2002"},
		{ID: "prefix", OrderNumber: "1001-B"},
	}
	m := NewMatcher("1001", []field.Field{field.OrderNumber}, false, 0)

	ranked := m.Rank(docs)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ranked))
	}
	wantOrder := []string{"exact", "prefix", "contains"}
	for i, want := range wantOrder {
		if ranked[i].Doc.ID != want {
			t.Errorf("position %d: expected %q, got %q", i, want, ranked[i].Doc.ID)
		}
	}
}

func TestRank_EmptyMatcherKeepsOrder(t *testing.T) {
	docs := []document.Document{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	ranked := NewMatcher("", nil, false, 0).Rank(docs)
	if len(ranked) != 3 {
		t.Fatalf("expected all documents to pass, got %d", len(ranked))
	}
	for i, id := range []string{"a", "b", "c"} {
		if ranked[i].Doc.ID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, ranked[i].Doc.ID)
		}
	}
}

func TestMatchedFields(t *testing.T) {
	doc := document.Document{OrderNumber: "ORD-1001", CustomerName: "John Smith"}
	m := NewMatcher("john", []field.Field{field.OrderNumber, field.CustomerName}, false, 0)

	got := m.MatchedFields(doc)
	if len(got) != 1 {
		t.Fatalf("expected hits in exactly one field, got %v", got)
	}
	hits := got[string(field.CustomerName)]
	if len(hits) != 1 || hits[0] != "john" {
		t.Errorf("expected customerName to record token 'john', got %v", hits)
	}
}
