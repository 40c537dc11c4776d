// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the user's personal registration state for an event.
type Status string

// Registration statuses. No other value is ever persisted or rendered.
const (
	StatusNone       Status = "None"
	StatusRegistered Status = "Registered"
	StatusWaiting    Status = "Waiting"
	StatusConfirmed  Status = "Confirmed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusNone, StatusRegistered, StatusWaiting, StatusConfirmed}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNone, StatusRegistered, StatusWaiting, StatusConfirmed:
		return true
	default:
		return false
	}
}

// ParseStatus returns the Status named by s (exact, case-sensitive).
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// UnmarshalJSON rejects unknown statuses so a type-invalid collection never decodes.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ID is an opaque event identifier. Seed files use either JSON numbers or strings.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids back as numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if isJSONInteger(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isJSONInteger(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	return strings.Trim(s, "0123456789") == ""
}

// Event represents a single tech event in the tracker.
// Date is an ISO calendar date (YYYY-MM-DD); string order equals chronological order.
type Event struct {
	ID               ID     `json:"id"`
	Name             string `json:"name"`
	Date             string `json:"date" validate:"datetime=2006-01-02"`
	Category         string `json:"category"`
	Type             string `json:"type"`
	Location         string `json:"location"`
	Description      string `json:"description"`
	RegistrationLink string `json:"registrationLink"`
	Status           Status `json:"status"`
}

// RequiredFields are the JSON keys every event record must carry.
var RequiredFields = []string{
	"id", "name", "date", "category", "type", "location", "description", "registrationLink", "status",
}

// Envelope is what durable storage holds.
type Envelope struct {
	Events      []Event `json:"events"`
	LastUpdated string  `json:"lastUpdated"`
}

// Clone returns a copy of events. Event has no reference fields, so a slice copy is deep.
func Clone(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// WithStatus returns a new collection where the event with id carries status.
// The input is never modified. ok is false when no event has that id.
func WithStatus(events []Event, id ID, status Status) (out []Event, updated Event, ok bool) {
	out = make([]Event, len(events))
	for i, e := range events {
		if e.ID == id {
			e.Status = status
			updated = e
			ok = true
		}
		out[i] = e
	}
	return out, updated, ok
}

// Categories returns the distinct categories in first-seen order.
func Categories(events []Event) []string {
	seen := make(map[string]struct{}, len(events))
	out := make([]string, 0)
	for _, e := range events {
		if _, dup := seen[e.Category]; dup {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}
