// Package http reads remote archives through HTTP range requests.
//
// A Source is an io.ReaderAt; wrap it with ReadSeeker to hand it to
// farc.New:
//
//	src, err := http.NewSource(ctx, "https://example.com/message.bin")
//	if err != nil {
//		return err
//	}
//	archive, err := farc.New(src.ReadSeeker())
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
)

// ErrRangeUnsupported is returned when the server ignores Range headers.
var ErrRangeUnsupported = errors.New("http: range requests not supported")

// Source implements random access reads via HTTP range requests.
// It is safe for concurrent use.
type Source struct {
	url          string
	client       *nethttp.Client
	headers      nethttp.Header
	size         int64
	etag         string
	lastModified string
	blocks       *blockCache
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeader sets a header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// NewSource probes url for its size and returns a Source reading from it.
//
// ctx bounds the probe only; later reads are not tied to it. Reads send the
// validators of the probe response, so a remote file that changes underneath
// fails instead of mixing versions.
func NewSource(ctx context.Context, url string, opts ...Option) (*Source, error) {
	s := &Source{
		url:    url,
		client: nethttp.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}

	if err := s.probe(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// ReadSeeker returns a seekable reader over the whole remote content.
func (s *Source) ReadSeeker() io.ReadSeeker {
	return io.NewSectionReader(s, 0, s.size)
}

// ReadAt reads len(p) bytes at off. Without a block cache every call issues
// one range request.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.blocks != nil {
		return s.cachedReadAt(p, off)
	}
	return s.rangeReadAt(p, off)
}

// rangeReadAt reads len(p) bytes at off with a single range request.
func (s *Source) rangeReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	want := int64(len(p))
	if want > s.size-off {
		want = s.size - off
	}

	resp, err := s.get(context.Background(), off, off+want-1)
	if err != nil {
		return 0, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case nethttp.StatusOK:
		return 0, ErrRangeUnsupported
	default:
		return 0, fmt.Errorf("range request failed: %s", resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:want])
	if err != nil {
		return n, err
	}
	if want < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}

// probe learns the content size and validators from a one-byte range request.
func (s *Source) probe(ctx context.Context) error {
	resp, err := s.get(ctx, 0, 0)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusOK:
		return ErrRangeUnsupported
	default:
		return fmt.Errorf("range probe failed: %s", resp.Status)
	}

	crange := resp.Header.Get("Content-Range")
	if crange == "" {
		return errors.New("range probe missing Content-Range")
	}
	size, err := parseContentRange(crange)
	if err != nil {
		return err
	}
	s.size = size
	s.etag = resp.Header.Get("ETag")
	s.lastModified = resp.Header.Get("Last-Modified")
	return nil
}

func (s *Source) get(ctx context.Context, first, last int64) (*nethttp.Response, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if s.etag != "" && req.Header.Get("If-Match") == "" {
		req.Header.Set("If-Match", s.etag)
	}
	if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
		req.Header.Set("If-Unmodified-Since", s.lastModified)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", first, last))
	return s.client.Do(req)
}

func drain(resp *nethttp.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// parseContentRange returns the complete length from a Content-Range value.
func parseContentRange(value string) (int64, error) {
	value = strings.TrimSpace(value)
	rest, ok := strings.CutPrefix(value, "bytes ")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
