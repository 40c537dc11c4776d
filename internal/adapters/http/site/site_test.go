package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSeedHandler(t *testing.T) {
	Convey("Given a seed handler", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "test data.json")
		mux := http.NewServeMux()
		Register(ctx, mux, NewSeedHandler(path, nil))

		get := func() *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, SeedPath, nil))
			return w
		}

		Convey("When the file holds valid JSON", func() {
			So(os.WriteFile(path, []byte(`[{"id":1}]`), 0o600), ShouldBeNil)
			w := get()

			Convey("Then it is served as is", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json")
				So(w.Body.String(), ShouldEqual, `[{"id":1}]`)
			})
		})

		Convey("When the file is missing", func() {
			w := get()

			Convey("Then a 404 with the not found message is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldEqual, `{"error":"Test data file not found"}`+"\n")
			})
		})

		Convey("When the file is not JSON", func() {
			So(os.WriteFile(path, []byte(`[{"id":1`), 0o600), ShouldBeNil)
			w := get()

			Convey("Then a 500 with the invalid JSON message is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldEqual, `{"error":"Invalid JSON in test data file"}`+"\n")
			})
		})

		Convey("When another method is used", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, SeedPath, nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
