package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/okian/eventtracker/internal/adapters/repository"
	"github.com/okian/eventtracker/internal/adapters/seed"
	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/pkg/errkind"
)

// seedDoc is a valid two-event seed straddling 2025-06-01.
const seedDoc = `[
  {"id":1,"name":"AWS Community Day","date":"2025-01-01","category":"Cloud Computing","type":"Conference",
   "location":"Bengaluru","description":"Cloud talks","registrationLink":"https://example.com/aws","status":"None"},
  {"id":2,"name":"GopherCon India","date":"2099-01-01","category":"Programming","type":"Conference",
   "location":"Bengaluru","description":"Go talks","registrationLink":"https://example.com/go","status":"Registered"}
]`

// eventJSON builds one seed element, dropping any keys listed in omit.
func eventJSON(id, date, status string, omit ...string) string {
	fields := []struct{ k, v string }{
		{"id", id},
		{"name", `"Event ` + id + `"`},
		{"date", `"` + date + `"`},
		{"category", `"Cloud Computing"`},
		{"type", `"Meetup"`},
		{"location", `"Bengaluru"`},
		{"description", `"desc"`},
		{"registrationLink", `"https://example.com"`},
		{"status", `"` + status + `"`},
	}
	parts := make([]string, 0, len(fields))
next:
	for _, f := range fields {
		for _, o := range omit {
			if o == f.k {
				continue next
			}
		}
		parts = append(parts, fmt.Sprintf("%q:%s", f.k, f.v))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// fakeSource serves a fixed document or error and counts calls.
type fakeSource struct {
	data  string
	err   error
	calls atomic.Int32
}

func (f *fakeSource) Fetch(context.Context) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, errkind.WrapKind("fake.fetch", seed.ErrFetch, f.err)
	}
	return []byte(f.data), nil
}

// slowStore delays every save so the persist queue backs up.
type slowStore struct {
	*repository.Store
	delay time.Duration
}

func (s slowStore) Save(ctx context.Context, events []model.Event) bool {
	time.Sleep(s.delay)
	return s.Store.Save(ctx, events)
}
