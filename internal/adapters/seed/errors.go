package seed

import "errors"

// ErrFetch reports that seed data could not be retrieved.
var ErrFetch = errors.New("seed fetch failed")
