package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/clearcart/ordersearch/internal/domain"
	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/search/field"
)

// Operator is a filter comparison operator.
type Operator string

// Filter operators. Each field type allows a subset; see SupportedOperators.
const (
	Equals             Operator = "equals"
	NotEquals          Operator = "not_equals"
	Contains           Operator = "contains"
	NotContains        Operator = "not_contains"
	StartsWith         Operator = "starts_with"
	EndsWith           Operator = "ends_with"
	In                 Operator = "in"
	NotIn              Operator = "not_in"
	IsNull             Operator = "is_null"
	IsNotNull          Operator = "is_not_null"
	GreaterThan        Operator = "greater_than"
	LessThan           Operator = "less_than"
	GreaterThanOrEqual Operator = "greater_than_or_equal"
	LessThanOrEqual    Operator = "less_than_or_equal"
	Between            Operator = "between"
)

var operatorsByType = map[field.Type][]Operator{
	field.String: {
		Equals, NotEquals, Contains, NotContains, StartsWith, EndsWith,
		In, NotIn, IsNull, IsNotNull,
	},
	field.Enum: {Equals, NotEquals, In, NotIn},
	field.Numeric: {
		Equals, NotEquals, GreaterThan, LessThan,
		GreaterThanOrEqual, LessThanOrEqual, Between, In, NotIn,
	},
	field.Date: {
		Equals, NotEquals, GreaterThan, LessThan,
		GreaterThanOrEqual, LessThanOrEqual, Between, In, NotIn,
	},
	field.Nested: {Contains, NotContains},
}

// SupportedOperators returns the allowed operators for a field.
func SupportedOperators(f field.Field) ([]Operator, error) {
	t, err := field.TypeOf(f)
	if err != nil {
		return nil, err
	}
	ops := operatorsByType[t]
	out := make([]Operator, len(ops))
	copy(out, ops)
	return out, nil
}

// requiresValue reports whether the operator needs a comparison value.
func requiresValue(op Operator) bool {
	return op != IsNull && op != IsNotNull
}

// Condition is a single filter clause: field, operator and comparison value.
type Condition struct {
	field field.Field
	op    Operator
	value any
}

// New creates a filter condition. Well-formedness is checked by Compile,
// which accumulates failures across all conditions instead of failing fast.
func New(f field.Field, op Operator, value any) Condition {
	return Condition{field: f, op: op, value: value}
}

// NewDateRange creates an inclusive between condition over a date field.
func NewDateRange(f field.Field, from, to time.Time) Condition {
	return Condition{field: f, op: Between, value: []any{from, to}}
}

// NewAmountRange creates an inclusive between condition over totalAmount.
func NewAmountRange(min, max float64) Condition {
	return Condition{field: field.TotalAmount, op: Between, value: []any{min, max}}
}

// Field returns the target field.
func (c Condition) Field() field.Field { return c.field }

// Operator returns the comparison operator.
func (c Condition) Operator() Operator { return c.op }

// Value returns the comparison value.
func (c Condition) Value() any { return c.value }

// Predicate decides whether a document passes a compiled filter.
type Predicate func(document.Document) bool

// MatchAll passes every document.
func MatchAll(document.Document) bool { return true }

// Logical combines pre-built sub-predicates in advanced search.
type Logical string

// Logical combinators. Not negates the first sub-predicate only.
const (
	LogicalAnd Logical = "AND"
	LogicalOr  Logical = "OR"
	LogicalNot Logical = "NOT"
)

// Combine merges sub-predicates under one logical combinator.
func Combine(op Logical, preds []Predicate) (Predicate, error) {
	if len(preds) == 0 {
		return MatchAll, nil
	}
	switch op {
	case LogicalAnd:
		return func(d document.Document) bool {
			for _, p := range preds {
				if !p(d) {
					return false
				}
			}
			return true
		}, nil
	case LogicalOr:
		return func(d document.Document) bool {
			for _, p := range preds {
				if p(d) {
					return true
				}
			}
			return false
		}, nil
	case LogicalNot:
		first := preds[0]
		return func(d document.Document) bool { return !first(d) }, nil
	}
	return nil, fmt.Errorf("%w: unknown logical combinator %q", domain.ErrValidation, op)
}

// Compile validates all conditions and builds a single predicate combining
// them with logical AND. Validation failures are accumulated per condition
// and returned together as a *domain.ValidationErrors.
func Compile(conditions []Condition) (Predicate, error) {
	verr := &domain.ValidationErrors{}
	preds := make([]Predicate, 0, len(conditions))

	for i, c := range conditions {
		p, err := compileOne(c)
		if err != nil {
			verr.Add(fmt.Errorf("condition %d: %w", i, err))
			continue
		}
		preds = append(preds, p)
	}

	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}
	if len(preds) == 0 {
		return MatchAll, nil
	}
	return func(d document.Document) bool {
		for _, p := range preds {
			if !p(d) {
				return false
			}
		}
		return true
	}, nil
}

func compileOne(c Condition) (Predicate, error) {
	t, err := field.TypeOf(c.field)
	if err != nil {
		return nil, err
	}
	if !operatorAllowed(t, c.op) {
		return nil, fmt.Errorf("%w: %q on %s field %q", domain.ErrUnsupportedOperator, c.op, t, c.field)
	}
	if requiresValue(c.op) && c.value == nil {
		return nil, fmt.Errorf("%w: operator %q on field %q requires a value", domain.ErrValidation, c.op, c.field)
	}

	switch t {
	case field.String, field.Enum:
		return compileString(c)
	case field.Numeric:
		return compileNumeric(c)
	case field.Date:
		return compileDate(c)
	case field.Nested:
		return compileNested(c)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedField, c.field)
}

func operatorAllowed(t field.Type, op Operator) bool {
	for _, allowed := range operatorsByType[t] {
		if op == allowed {
			return true
		}
	}
	return false
}

// compileString handles string and enum fields. Substring-style operators
// (contains, starts_with, ends_with) compare case-insensitively; equality
// and set membership are exact.
func compileString(c Condition) (Predicate, error) {
	get := func(d document.Document) string {
		s, _ := field.Text(d, c.field)
		return s
	}

	switch c.op {
	case IsNull:
		return func(d document.Document) bool { return get(d) == "" }, nil
	case IsNotNull:
		return func(d document.Document) bool { return get(d) != "" }, nil
	case In, NotIn:
		set, err := asStringSlice(c.value)
		if err != nil {
			return nil, err
		}
		contains := func(d document.Document) bool {
			v := get(d)
			for _, s := range set {
				if v == s {
					return true
				}
			}
			return false
		}
		if c.op == In {
			return contains, nil
		}
		return func(d document.Document) bool { return !contains(d) }, nil
	}

	want, err := asString(c.value)
	if err != nil {
		return nil, err
	}
	lowerWant := strings.ToLower(want)

	switch c.op {
	case Equals:
		return func(d document.Document) bool { return get(d) == want }, nil
	case NotEquals:
		return func(d document.Document) bool { return get(d) != want }, nil
	case Contains:
		return func(d document.Document) bool {
			return strings.Contains(strings.ToLower(get(d)), lowerWant)
		}, nil
	case NotContains:
		return func(d document.Document) bool {
			return !strings.Contains(strings.ToLower(get(d)), lowerWant)
		}, nil
	case StartsWith:
		return func(d document.Document) bool {
			return strings.HasPrefix(strings.ToLower(get(d)), lowerWant)
		}, nil
	case EndsWith:
		return func(d document.Document) bool {
			return strings.HasSuffix(strings.ToLower(get(d)), lowerWant)
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedOperator, c.op)
}

func compileNumeric(c Condition) (Predicate, error) {
	get := func(d document.Document) float64 {
		v, _ := field.Value(d, c.field)
		f, _ := v.(float64)
		return f
	}

	switch c.op {
	case In, NotIn:
		set, err := asFloatSlice(c.value)
		if err != nil {
			return nil, err
		}
		contains := func(d document.Document) bool {
			v := get(d)
			for _, f := range set {
				if v == f {
					return true
				}
			}
			return false
		}
		if c.op == In {
			return contains, nil
		}
		return func(d document.Document) bool { return !contains(d) }, nil
	case Between:
		bounds, err := asFloatSlice(c.value)
		if err != nil {
			return nil, err
		}
		if len(bounds) != 2 {
			return nil, fmt.Errorf("%w: between requires a [min, max] pair", domain.ErrValidation)
		}
		min, max := bounds[0], bounds[1]
		return func(d document.Document) bool {
			v := get(d)
			return v >= min && v <= max
		}, nil
	}

	want, err := asFloat(c.value)
	if err != nil {
		return nil, err
	}
	switch c.op {
	case Equals:
		return func(d document.Document) bool { return get(d) == want }, nil
	case NotEquals:
		return func(d document.Document) bool { return get(d) != want }, nil
	case GreaterThan:
		return func(d document.Document) bool { return get(d) > want }, nil
	case LessThan:
		return func(d document.Document) bool { return get(d) < want }, nil
	case GreaterThanOrEqual:
		return func(d document.Document) bool { return get(d) >= want }, nil
	case LessThanOrEqual:
		return func(d document.Document) bool { return get(d) <= want }, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedOperator, c.op)
}

// compileDate handles date fields. Equality operators match the whole
// calendar day (UTC) rather than the exact instant; ordering operators
// compare instants.
func compileDate(c Condition) (Predicate, error) {
	get := func(d document.Document) time.Time {
		v, _ := field.Value(d, c.field)
		t, _ := v.(time.Time)
		return t
	}

	switch c.op {
	case In, NotIn:
		set, err := asTimeSlice(c.value)
		if err != nil {
			return nil, err
		}
		contains := func(d document.Document) bool {
			v := get(d)
			for _, t := range set {
				if sameDay(v, t) {
					return true
				}
			}
			return false
		}
		if c.op == In {
			return contains, nil
		}
		return func(d document.Document) bool { return !contains(d) }, nil
	case Between:
		bounds, err := asTimeSlice(c.value)
		if err != nil {
			return nil, err
		}
		if len(bounds) != 2 {
			return nil, fmt.Errorf("%w: between requires a [from, to] pair", domain.ErrValidation)
		}
		from, to := bounds[0], bounds[1]
		return func(d document.Document) bool {
			v := get(d)
			return !v.Before(from) && !v.After(to)
		}, nil
	}

	want, err := asTime(c.value)
	if err != nil {
		return nil, err
	}
	switch c.op {
	case Equals:
		return func(d document.Document) bool { return sameDay(get(d), want) }, nil
	case NotEquals:
		return func(d document.Document) bool { return !sameDay(get(d), want) }, nil
	case GreaterThan:
		return func(d document.Document) bool { return get(d).After(want) }, nil
	case LessThan:
		return func(d document.Document) bool { return get(d).Before(want) }, nil
	case GreaterThanOrEqual:
		return func(d document.Document) bool { return !get(d).Before(want) }, nil
	case LessThanOrEqual:
		return func(d document.Document) bool { return !get(d).After(want) }, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedOperator, c.op)
}

// compileNested handles address fields and their sub-paths. Matching is a
// case-insensitive contains over the resolved value: the implied sub-path
// for customer name/email, the serialized address otherwise.
func compileNested(c Condition) (Predicate, error) {
	want, err := asString(c.value)
	if err != nil {
		return nil, err
	}
	lowerWant := strings.ToLower(want)

	contains := func(d document.Document) bool {
		s, _ := field.Text(d, c.field)
		return strings.Contains(strings.ToLower(s), lowerWant)
	}
	if c.op == Contains {
		return contains, nil
	}
	return func(d document.Document) bool { return !contains(d) }, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func asString(v any) (string, error) {
	switch tv := v.(type) {
	case string:
		return tv, nil
	case fmt.Stringer:
		return tv.String(), nil
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("%w: expected string value, got %T", domain.ErrValidation, v)
}

func asStringSlice(v any) ([]string, error) {
	switch tv := v.(type) {
	case []string:
		return tv, nil
	case []any:
		out := make([]string, len(tv))
		for i, item := range tv {
			s, err := asString(item)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected list value, got %T", domain.ErrValidation, v)
}

func asFloat(v any) (float64, error) {
	switch tv := v.(type) {
	case float64:
		return tv, nil
	case float32:
		return float64(tv), nil
	case int:
		return float64(tv), nil
	case int64:
		return float64(tv), nil
	case string:
		f, err := strconv.ParseFloat(tv, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not numeric", domain.ErrValidation, tv)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: expected numeric value, got %T", domain.ErrValidation, v)
}

func asFloatSlice(v any) ([]float64, error) {
	switch tv := v.(type) {
	case []float64:
		return tv, nil
	case []any:
		out := make([]float64, len(tv))
		for i, item := range tv {
			f, err := asFloat(item)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected list value, got %T", domain.ErrValidation, v)
}

func asTime(v any) (time.Time, error) {
	switch tv := v.(type) {
	case time.Time:
		return tv, nil
	case string:
		t, err := dateparse.ParseAny(tv)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q is not a date: %v", domain.ErrValidation, tv, err)
		}
		return t, nil
	case float64:
		return time.Unix(int64(tv), 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: expected date value, got %T", domain.ErrValidation, v)
}

func asTimeSlice(v any) ([]time.Time, error) {
	switch tv := v.(type) {
	case []time.Time:
		return tv, nil
	case []any:
		out := make([]time.Time, len(tv))
		for i, item := range tv {
			t, err := asTime(item)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected list value, got %T", domain.ErrValidation, v)
}
