// Package sorting orders an event collection by one of four policies.
package sorting

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/okian/eventtracker/internal/domain/model"
)

// Policy selects an ordering.
type Policy int

// Sort policies. Unknown sorts nothing.
const (
	Unknown Policy = iota
	Soonest
	Latest
	Name
	Category
)

var policyNames = map[Policy]string{
	Soonest:  "soonest",
	Latest:   "latest",
	Name:     "name",
	Category: "category",
}

// Policies lists the known policies in display order.
var Policies = []Policy{Soonest, Latest, Name, Category}

// ParsePolicy maps a sort control value to a Policy. Unrecognized values
// yield Unknown rather than an error.
func ParsePolicy(s string) Policy {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range policyNames {
		if name == s {
			return p
		}
	}
	return Unknown
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return "unknown"
}

// Apply returns a new slice ordered by p. The sort is stable: equal keys keep
// their input order. The input is never mutated.
func Apply(events []model.Event, p Policy) []model.Event {
	out := model.Clone(events)

	switch p {
	case Soonest:
		slices.SortStableFunc(out, func(a, b model.Event) int { return cmp.Compare(a.Date, b.Date) })
	case Latest:
		slices.SortStableFunc(out, func(a, b model.Event) int { return cmp.Compare(b.Date, a.Date) })
	case Name:
		c := newCollator()
		slices.SortStableFunc(out, func(a, b model.Event) int { return c.CompareString(a.Name, b.Name) })
	case Category:
		c := newCollator()
		slices.SortStableFunc(out, func(a, b model.Event) int {
			if r := c.CompareString(a.Category, b.Category); r != 0 {
				return r
			}
			return c.CompareString(a.Name, b.Name)
		})
	default:
		// Unknown policy: keep input order.
	}
	return out
}

// newCollator returns a root-locale (CLDR "und") collator. Collators keep
// internal buffers, so each Apply call gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.Und)
}
