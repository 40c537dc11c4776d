// Package types contains common types used across the application
package types

import "github.com/okian/eventtracker/internal/domain/model"

// Buckets is the rendered result of the pipeline: upcoming and past events,
// each in the order produced by the sort stage.
type Buckets struct {
	Upcoming []model.Event `json:"upcoming"`
	Past     []model.Event `json:"past"`
}

// Len returns the total number of events across both buckets.
func (b Buckets) Len() int {
	return len(b.Upcoming) + len(b.Past)
}
