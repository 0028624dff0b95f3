package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTPFetcher fetches absolute http(s) URLs.
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient sets the HTTP client (timeouts, transport, proxies).
func WithClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMaxBytes caps fetched bodies. Values <= 0 keep the default.
func WithMaxBytes(n int64) HTTPOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// NewHTTPFetcher creates an HTTPFetcher. The default client has no timeout:
// callers bound requests through the context.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   &http.Client{},
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues a GET for ref and returns the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	resp, err := f.do(ctx, http.MethodGet, ref)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Ref: ref, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ref, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s (max %d bytes)", ErrTooLarge, ref, f.maxBytes)
	}
	return body, nil
}

// Probe issues a HEAD for ref.
func (f *HTTPFetcher) Probe(ctx context.Context, ref string) (bool, error) {
	resp, err := f.do(ctx, http.MethodHead, ref)
	if err != nil {
		return false, err
	}
	_ = resp.Body.Close()
	return isSuccess(resp.StatusCode), nil
}

func (f *HTTPFetcher) do(ctx context.Context, method, ref string) (*http.Response, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", ref, err)
	}
	if !isRemote(u) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, ref)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", ref, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req) // #nosec G107 -- fetching user-referenced sources is the point
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Compile-time interface check.
var _ Fetcher = (*HTTPFetcher)(nil)
