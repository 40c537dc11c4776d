// Package seed retrieves the bundled seed collection.
package seed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/okian/eventtracker/pkg/errkind"
	"github.com/okian/eventtracker/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	// defaultMaxSeedBytes bounds a seed response; a larger body is a fetch error.
	defaultMaxSeedBytes = 8 << 20
)

// Source yields the raw seed document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPSource fetches the seed with a single GET. There is no retry.
type HTTPSource struct {
	url      string
	client   *http.Client
	maxBytes int64
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout sets the client timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client = &http.Client{Timeout: d, Transport: s.client.Transport}
		}
	}
}

// WithMaxBytes caps the accepted response size.
func WithMaxBytes(n int64) Option {
	return func(s *HTTPSource) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// NewHTTPSource returns a source for rawURL.
func NewHTTPSource(rawURL string, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		url:      rawURL,
		client:   &http.Client{Timeout: defaultTimeout},
		maxBytes: defaultMaxSeedBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	const op = "seed.http"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		metrics.RecordSeedFetch(metrics.OutcomeFailed)
		return nil, errkind.WrapKind(op, ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RecordSeedFetch(metrics.OutcomeFailed)
		return nil, errkind.WrapKind(op, ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordSeedFetch(metrics.OutcomeFailed)
		return nil, errkind.WrapKind(op, ErrFetch, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.url))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		metrics.RecordSeedFetch(metrics.OutcomeFailed)
		return nil, errkind.WrapKind(op, ErrFetch, err)
	}
	if int64(len(data)) > s.maxBytes {
		metrics.RecordSeedFetch(metrics.OutcomeFailed)
		return nil, errkind.WrapKind(op, ErrFetch, fmt.Errorf("response from %s exceeds %d bytes", s.url, s.maxBytes))
	}
	metrics.RecordSeedFetch(metrics.OutcomeOK)
	return data, nil
}

// String returns the URL.
func (s *HTTPSource) String() string { return s.url }

// FileSource reads the seed from disk.
type FileSource struct {
	path string
}

// NewFileSource returns a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	const op = "seed.file"
	if err := ctx.Err(); err != nil {
		metrics.RecordSeedFetch(metrics.OutcomeFailed)
		return nil, errkind.WrapKind(op, ErrFetch, err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		metrics.RecordSeedFetch(metrics.OutcomeFailed)
		return nil, errkind.WrapKind(op, ErrFetch, err)
	}
	metrics.RecordSeedFetch(metrics.OutcomeOK)
	return data, nil
}

// String returns the path.
func (s *FileSource) String() string { return s.path }

// NewSource picks an implementation from location: http(s) URLs go over the
// network, file:// URLs and bare paths are read from disk.
func NewSource(location string, opts ...Option) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errkind.NewKind("seed.new", ErrFetch)
	}
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" {
		return NewFileSource(location), nil
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewHTTPSource(location, opts...), nil
	case "file":
		return NewFileSource(filePath(u)), nil
	default:
		return nil, errkind.WrapKind("seed.new", ErrFetch, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
}

// filePath maps a file URL to a path. file://seed.json names a relative
// file; an empty or localhost host names an absolute one.
func filePath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	if u.Host == "" || strings.EqualFold(u.Host, "localhost") {
		return u.Path
	}
	return u.Host + u.Path
}
