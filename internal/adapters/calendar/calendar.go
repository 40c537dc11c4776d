// Package calendar renders events as an iCalendar feed.
package calendar

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/internal/domain/schedule"
	"github.com/okian/eventtracker/pkg/metrics"
)

const defaultProductID = "-//okian//eventtracker//EN"

type options struct {
	productID string
	now       func() time.Time
}

// Option configures Export.
type Option func(*options)

// WithProductID overrides PRODID.
func WithProductID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.productID = id
		}
	}
}

// WithClock sets the time used for DTSTAMP.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Export returns one all-day VEVENT per event, in input order. Events whose
// date cannot be parsed are skipped.
func Export(events []model.Event, opts ...Option) string {
	o := options{productID: defaultProductID, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	cal := ical.NewCalendar()
	cal.SetProductId(o.productID)
	cal.SetMethod(ical.MethodPublish)

	stamp := o.now().UTC()
	for _, e := range events {
		day, err := time.Parse(schedule.DateLayout, e.Date)
		if err != nil {
			continue
		}
		ve := cal.AddEvent(string(e.ID))
		ve.SetDtStampTime(stamp)
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ve.SetSummary(e.Name)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
		if e.RegistrationLink != "" {
			ve.SetURL(e.RegistrationLink)
		}
		if e.Category != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, e.Category)
		}
		if st, ok := objectStatus(e.Status); ok {
			ve.SetStatus(st)
		}
	}

	metrics.RecordCalendarExport()
	return cal.Serialize()
}

func objectStatus(s model.Status) (ical.ObjectStatus, bool) {
	switch s {
	case model.StatusConfirmed:
		return ical.ObjectStatusConfirmed, true
	case model.StatusRegistered, model.StatusWaiting:
		return ical.ObjectStatusTentative, true
	default:
		return "", false
	}
}
