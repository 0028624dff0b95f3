package transclude

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alnah/go-transclude/internal/fetch"
	"github.com/alnah/go-transclude/internal/pipeline"
	"github.com/alnah/go-transclude/internal/stylesheet"
)

// Fetcher retrieves sources and probes for stylesheets. Implementations
// must be safe for concurrent use.
type Fetcher = fetch.Fetcher

// Option configures a Transcluder.
type Option func(*Transcluder)

// transcluderConfig holds internal configuration for Transcluder.
type transcluderConfig struct {
	baseURL      string
	root         string
	timeout      time.Duration
	maxBytes     int64
	cacheTTL     time.Duration
	userAgent    string
	tagName      string
	stylesheets  stylesheet.Config
	dependencies []Dependency
	scripts      []Dependency
	highlighting bool
	concurrency  int
}

// WithFetcher replaces the built-in fetchers. WithRoot, WithTimeout,
// WithMaxBytes, WithUserAgent and WithCacheTTL are then ignored.
func WithFetcher(f Fetcher) Option {
	return func(t *Transcluder) {
		t.fetcher = f
	}
}

// WithBaseURL fetches relative sources over HTTP from url.
func WithBaseURL(url string) Option {
	return func(t *Transcluder) {
		t.cfg.baseURL = url
	}
}

// WithRoot serves relative sources from the files under dir.
func WithRoot(dir string) Option {
	return func(t *Transcluder) {
		t.cfg.root = dir
	}
}

// WithTimeout bounds each HTTP request. There is no timeout by default.
// Panics if d < 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d < 0 {
		panic("transclude: WithTimeout duration must not be negative")
	}
	return func(t *Transcluder) {
		t.cfg.timeout = d
	}
}

// WithMaxBytes limits fetched response bodies.
func WithMaxBytes(n int64) Option {
	return func(t *Transcluder) {
		t.cfg.maxBytes = n
	}
}

// WithCacheTTL caches fetched sources and probe results for ttl, shared by
// every pass of the Transcluder. Failures are not cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(t *Transcluder) {
		t.cfg.cacheTTL = ttl
	}
}

// WithUserAgent sets the User-Agent of HTTP requests.
func WithUserAgent(ua string) Option {
	return func(t *Transcluder) {
		t.cfg.userAgent = ua
	}
}

// WithLogger sets the logger. Records from a pass carry a "pass" attribute.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transcluder) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTagName changes the placeholder element name (default "import").
func WithTagName(name string) Option {
	return func(t *Transcluder) {
		t.cfg.tagName = name
	}
}

// WithMarkdownStylesheet sets the local Markdown stylesheet href probed
// before falling back.
func WithMarkdownStylesheet(href string) Option {
	return func(t *Transcluder) {
		t.cfg.stylesheets.MarkdownLocal = href
	}
}

// WithMarkdownFallbackURL sets the stylesheet linked when the local Markdown
// stylesheet is missing.
func WithMarkdownFallbackURL(url string) Option {
	return func(t *Transcluder) {
		t.cfg.stylesheets.MarkdownFallback = url
	}
}

// WithSiteStylesheet sets the site stylesheet href (default "style.css").
func WithSiteStylesheet(href string) Option {
	return func(t *Transcluder) {
		t.cfg.stylesheets.Site = href
	}
}

// WithDependencies replaces the bootstrap list. The renderer must come
// before its plugins.
func WithDependencies(list ...Dependency) Option {
	return func(t *Transcluder) {
		t.cfg.dependencies = append(make([]Dependency, 0, len(list)), list...)
	}
}

// WithScripts appends external scripts to the bootstrap list.
func WithScripts(scripts ...Dependency) Option {
	return func(t *Transcluder) {
		t.cfg.scripts = append(t.cfg.scripts, scripts...)
	}
}

// WithHighlighting enables syntax highlighting of fenced code in Markdown.
func WithHighlighting(enabled bool) Option {
	return func(t *Transcluder) {
		t.cfg.highlighting = enabled
	}
}

// WithConcurrency bounds in-flight placeholder resolutions per pass.
// Zero, the default, means unbounded.
func WithConcurrency(n int) Option {
	return func(t *Transcluder) {
		t.cfg.concurrency = n
	}
}

// newDefaultFetcher builds the fetcher used when none is injected.
// Relative references go to the directory fetcher when a root is set; with
// a base URL they resolve to absolute URLs before they reach the mux.
func newDefaultFetcher(cfg transcluderConfig) (fetch.Fetcher, func() error, error) {
	var httpOpts []fetch.HTTPOption
	if cfg.timeout > 0 {
		httpOpts = append(httpOpts, fetch.WithClient(&http.Client{Timeout: cfg.timeout}))
	}
	if cfg.maxBytes > 0 {
		httpOpts = append(httpOpts, fetch.WithMaxBytes(cfg.maxBytes))
	}
	if cfg.userAgent != "" {
		httpOpts = append(httpOpts, fetch.WithUserAgent(cfg.userAgent))
	}

	mux := &fetch.Mux{Remote: fetch.NewHTTPFetcher(httpOpts...)}
	closer := func() error { return nil }

	if cfg.root != "" {
		dir, err := fetch.NewDirFetcher(cfg.root)
		if err != nil {
			return nil, nil, err
		}
		mux.Local = dir
		closer = dir.Close
	}
	if cfg.cacheTTL > 0 {
		return fetch.NewCache(mux, cfg.cacheTTL), closer, nil
	}
	return mux, closer, nil
}

// tag returns the configured placeholder name.
func (c transcluderConfig) tag() string {
	if c.tagName == "" {
		return pipeline.DefaultTagName
	}
	return c.tagName
}
