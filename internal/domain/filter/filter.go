// Package filter narrows an event collection by free-text search, status
// and category. Every function is pure and never mutates its input.
package filter

import (
	"strings"

	"github.com/okian/eventtracker/internal/domain/model"
)

// AllSentinel is the filter control value meaning "do not filter".
const AllSentinel = "All"

// Match is either Any (no filtering) or Exact(value).
type Match[T comparable] struct {
	value T
	exact bool
}

// Any returns the no-op match.
func Any[T comparable]() Match[T] { return Match[T]{} }

// Exact returns a match requiring equality with v.
func Exact[T comparable](v T) Match[T] { return Match[T]{value: v, exact: true} }

// Value returns the required value and whether the match is exact.
func (m Match[T]) Value() (T, bool) { return m.value, m.exact }

// Matches reports whether v satisfies m.
func (m Match[T]) Matches(v T) bool {
	if !m.exact {
		return true
	}
	return v == m.value
}

// String renders the match the way the filter controls spell it.
func (m Match[T]) String() string {
	if !m.exact {
		return AllSentinel
	}
	return toString(m.value)
}

func toString[T comparable](v T) string {
	switch x := any(v).(type) {
	case string:
		return x
	case model.Status:
		return string(x)
	default:
		return ""
	}
}

// ParseCategoryMatch maps "" and "All" to Any, anything else to Exact.
func ParseCategoryMatch(s string) Match[string] {
	if s == "" || s == AllSentinel {
		return Any[string]()
	}
	return Exact(s)
}

// ParseStatusMatch maps "" and "All" to Any; other values must name a valid status.
func ParseStatusMatch(s string) (Match[model.Status], error) {
	if s == "" || s == AllSentinel {
		return Any[model.Status](), nil
	}
	st, err := model.ParseStatus(s)
	if err != nil {
		return Match[model.Status]{}, err
	}
	return Exact(st), nil
}

// Criteria is the conjunction of the three filters.
type Criteria struct {
	SearchText string
	Status     Match[model.Status]
	Category   Match[string]
}

// None is the identity criteria.
func None() Criteria {
	return Criteria{Status: Any[model.Status](), Category: Any[string]()}
}

// Apply runs search, then status, then category. Since every stage is a
// narrowing predicate the result equals their AND, in input order.
func Apply(events []model.Event, c Criteria) []model.Event {
	out := BySearch(events, c.SearchText)
	out = ByStatus(out, c.Status)
	return ByCategory(out, c.Category)
}

// BySearch keeps events whose name or category contains text, ignoring case.
// Blank text keeps everything.
func BySearch(events []model.Event, text string) []model.Event {
	query := strings.ToLower(strings.TrimSpace(text))
	if query == "" {
		return model.Clone(events)
	}
	return keep(events, func(e model.Event) bool {
		return strings.Contains(strings.ToLower(e.Name), query) ||
			strings.Contains(strings.ToLower(e.Category), query)
	})
}

// ByStatus keeps events matching m.
func ByStatus(events []model.Event, m Match[model.Status]) []model.Event {
	return keep(events, func(e model.Event) bool { return m.Matches(e.Status) })
}

// ByCategory keeps events matching m.
func ByCategory(events []model.Event, m Match[string]) []model.Event {
	return keep(events, func(e model.Event) bool { return m.Matches(e.Category) })
}

func keep(events []model.Event, pred func(model.Event) bool) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}
