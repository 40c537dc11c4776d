package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	service "github.com/okian/eventtracker/internal/app"
	"github.com/okian/eventtracker/internal/config"
	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

const seedDoc = `[
  {"id":1,"name":"AWS Community Day","date":"2025-01-01","category":"Cloud Computing","type":"Conference",
   "location":"Bengaluru","description":"Cloud talks","registrationLink":"https://example.com/aws","status":"None"},
  {"id":2,"name":"GopherCon India","date":"2099-01-01","category":"Programming","type":"Conference",
   "location":"Bengaluru","description":"Go talks","registrationLink":"https://example.com/go","status":"Registered"}
]`

type cli struct {
	cfg *config.Config
}

func newCLI(t *testing.T) cli {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New()
	cfg.StoragePath = filepath.Join(dir, "tracker.db")
	cfg.SeedFile = filepath.Join(dir, "test data.json")
	if err := os.WriteFile(cfg.SeedFile, []byte(seedDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	return cli{cfg: cfg}
}

func (c cli) exec(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), c.cfg, args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestList(t *testing.T) {
	Convey("Given a fresh store and a seed file", t, func() {
		c := newCLI(t)

		Convey("When listing without filters", func() {
			out, _, err := c.exec("list")

			Convey("Then both sections are printed with their counts", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Upcoming Events (1)")
				So(out, ShouldContainSubstring, "Past Events (1)")
				So(strings.Index(out, "GopherCon"), ShouldBeLessThan, strings.Index(out, "AWS Community Day"))
			})
		})

		Convey("When listing registered events as JSON", func() {
			out, _, err := c.exec("list", "-status", "Registered", "-json")
			So(err, ShouldBeNil)

			Convey("Then only the matching event is rendered", func() {
				var b types.Buckets
				So(json.Unmarshal([]byte(out), &b), ShouldBeNil)
				So(b.Len(), ShouldEqual, 1)
				So(b.Upcoming[0].ID, ShouldEqual, model.ID("2"))
			})
		})

		Convey("When a search matches nothing", func() {
			out, _, err := c.exec("list", "-search", "rust")

			Convey("Then the sections are empty", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Upcoming Events (0)")
				So(out, ShouldContainSubstring, "no events")
			})
		})

		Convey("When the status filter is not a status", func() {
			_, _, err := c.exec("list", "-status", "Maybe")

			Convey("Then it fails", func() {
				So(errors.Is(err, model.ErrInvalidStatus), ShouldBeTrue)
			})
		})

		Convey("When listing categories", func() {
			out, _, err := c.exec("categories")

			Convey("Then they print in first-seen order", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, "Cloud Computing\nProgramming\n")
			})
		})
	})
}

func TestStatusAndReset(t *testing.T) {
	Convey("Given a fresh store and a seed file", t, func() {
		c := newCLI(t)

		Convey("When a status is set", func() {
			out, _, err := c.exec("status", "1", "Confirmed")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "1 AWS Community Day: Confirmed\n")

			Convey("Then a later invocation sees it from storage", func() {
				out, _, err := c.exec("list", "-status", "Confirmed", "-json")
				So(err, ShouldBeNil)
				var b types.Buckets
				So(json.Unmarshal([]byte(out), &b), ShouldBeNil)
				So(b.Past, ShouldHaveLength, 1)
				So(b.Past[0].ID, ShouldEqual, model.ID("1"))
			})

			Convey("Then reset restores the seed value", func() {
				out, _, err := c.exec("reset")
				So(err, ShouldBeNil)
				So(out, ShouldEqual, "reloaded 2 events\n")

				out, _, err = c.exec("list", "-status", "Confirmed", "-json")
				So(err, ShouldBeNil)
				var b types.Buckets
				So(json.Unmarshal([]byte(out), &b), ShouldBeNil)
				So(b.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the id is unknown", func() {
			_, _, err := c.exec("status", "99", "Confirmed")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the value is not a status", func() {
			_, _, err := c.exec("status", "1", "Maybe")
			So(errors.Is(err, service.ErrInvalidStatus), ShouldBeTrue)
		})

		Convey("When arguments are missing", func() {
			_, stderr, err := c.exec("status", "1")
			So(errors.Is(err, errUsage), ShouldBeTrue)
			So(stderr, ShouldContainSubstring, "usage: events-cli status")
		})
	})

	Convey("Given no stored data and a missing seed", t, func() {
		c := newCLI(t)
		So(os.Remove(c.cfg.SeedFile), ShouldBeNil)

		Convey("Then data commands and reset report the load failure", func() {
			_, _, err := c.exec("list")
			So(errors.Is(err, service.ErrLoad), ShouldBeTrue)
			_, _, err = c.exec("reset")
			So(errors.Is(err, service.ErrLoad), ShouldBeTrue)
		})
	})
}

func TestExport(t *testing.T) {
	Convey("Given a fresh store and a seed file", t, func() {
		c := newCLI(t)

		Convey("When exporting to stdout", func() {
			out, _, err := c.exec("export")

			Convey("Then an iCalendar feed with every event is written", func() {
				So(err, ShouldBeNil)
				So(out, ShouldStartWith, "BEGIN:VCALENDAR")
				So(out, ShouldContainSubstring, "GopherCon India")
				So(out, ShouldContainSubstring, "AWS Community Day")
			})
		})

		Convey("When exporting registered events to a file", func() {
			path := filepath.Join(t.TempDir(), "events.ics")
			out, _, err := c.exec("export", "-status", "Registered", "-o", path)
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)

			Convey("Then the file holds only the matching event", func() {
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "GopherCon India")
				So(string(data), ShouldNotContainSubstring, "AWS Community Day")
			})
		})
	})
}

func TestUsage(t *testing.T) {
	Convey("Given bad invocations", t, func() {
		c := newCLI(t)

		Convey("Then no command prints usage", func() {
			_, stderr, err := c.exec()
			So(errors.Is(err, errUsage), ShouldBeTrue)
			So(stderr, ShouldContainSubstring, "Commands:")
		})

		Convey("Then an unknown command is rejected", func() {
			_, stderr, err := c.exec("publish")
			So(errors.Is(err, errUsage), ShouldBeTrue)
			So(stderr, ShouldContainSubstring, `unknown command "publish"`)
		})

		Convey("Then -h is not an error", func() {
			_, stderr, err := c.exec("-h")
			So(err, ShouldBeNil)
			So(stderr, ShouldContainSubstring, "Usage:")
		})
	})
}
