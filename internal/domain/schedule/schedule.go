// Package schedule partitions an ordered collection into upcoming and past events.
package schedule

import (
	"time"

	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/internal/domain/types"
)

// DateLayout is the ISO calendar date format events are stored in.
const DateLayout = "2006-01-02"

// Today returns now's UTC calendar date. Time of day and zone are discarded so
// the result compares correctly against event dates as strings.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// Categorize splits events into upcoming (date >= today) and past
// (date < today). Input order is preserved within each bucket.
func Categorize(events []model.Event, today string) types.Buckets {
	b := types.Buckets{
		Upcoming: make([]model.Event, 0, len(events)),
		Past:     make([]model.Event, 0),
	}
	for _, e := range events {
		if e.Date >= today {
			b.Upcoming = append(b.Upcoming, e)
		} else {
			b.Past = append(b.Past, e)
		}
	}
	return b
}

// Clock returns the current time.
type Clock func() time.Time

// Categorizer computes "today" from its clock once per call.
type Categorizer struct {
	Clock Clock
}

// Default uses the wall clock.
var Default = Categorizer{Clock: time.Now}

// Categorize partitions events relative to the clock's current date.
func (c Categorizer) Categorize(events []model.Event) types.Buckets {
	clock := c.Clock
	if clock == nil {
		clock = time.Now
	}
	return Categorize(events, Today(clock()))
}

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}
