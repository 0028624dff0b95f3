package transclude

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/alnah/go-transclude/internal/deps"
	"github.com/alnah/go-transclude/internal/fetch"
	"github.com/alnah/go-transclude/internal/logging"
	"github.com/alnah/go-transclude/internal/markup"
	"github.com/alnah/go-transclude/internal/pipeline"
	"github.com/alnah/go-transclude/internal/stylesheet"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.Renderer = (*markup.Renderer)(nil)
	_ fetch.Fetcher     = (*fetch.Mux)(nil)
	_ fetch.Fetcher     = (*fetch.Cache)(nil)
	_ stylesheet.Prober = (fetch.Fetcher)(nil)
	_ pdfRenderer       = (*rodRenderer)(nil)
)

// Transcluder replaces placeholder elements in HTML documents with fetched
// content. Create with New, run passes with Process, and Close when done.
// A Transcluder is safe for concurrent use; every pass has its own load
// registry and stylesheet state.
type Transcluder struct {
	cfg     transcluderConfig
	fetcher fetch.Fetcher
	closer  func() error
	logger  *slog.Logger
}

// New creates a Transcluder. Without WithFetcher, absolute http(s) sources
// are fetched over HTTP and relative ones from WithRoot's directory (or, with
// WithBaseURL, from the base URL).
func New(opts ...Option) (*Transcluder, error) {
	t := &Transcluder{
		logger: logging.Discard(),
		closer: func() error { return nil },
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.cfg.concurrency < 0 {
		return nil, fmt.Errorf("%w: concurrency must not be negative, got %d", ErrInvalidOption, t.cfg.concurrency)
	}
	if strings.TrimSpace(t.cfg.tag()) == "" {
		return nil, fmt.Errorf("%w: tag name is empty", ErrInvalidOption)
	}

	if t.fetcher == nil {
		f, closer, err := newDefaultFetcher(t.cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
		}
		t.fetcher = f
		t.closer = closer
	}
	return t, nil
}

// Close releases the directory handle opened by WithRoot.
func (t *Transcluder) Close() error {
	return t.closer()
}

// FlushCache drops everything cached by WithCacheTTL. It does nothing when
// caching is off.
func (t *Transcluder) FlushCache() {
	if c, ok := t.fetcher.(*fetch.Cache); ok {
		c.Flush()
	}
}

// Process runs one transclusion pass over in.HTML.
//
// Dependencies load first, strictly in order; a failure there aborts the
// pass with ErrBootstrap and no placeholder is touched. Placeholders then
// resolve concurrently. A failing placeholder is replaced by a visible
// notice and recorded in Result.Tags without affecting the others.
// Panics in the pass are recovered into an error. A panicking Fetcher fails
// only its own placeholder, with an error matching ErrFetch.
func (t *Transcluder) Process(ctx context.Context, in Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if strings.TrimSpace(in.HTML) == "" {
		return nil, ErrEmptyDocument
	}

	doc, err := html.Parse(strings.NewReader(in.HTML))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseDocument, err)
	}
	head := pipeline.Head(doc)
	if head == nil {
		return nil, fmt.Errorf("%w: no head element", ErrParseDocument)
	}

	passID := uuid.NewString()
	logger := t.logger.With("pass", passID)

	location := in.Location
	if t.cfg.baseURL != "" {
		location = fetch.Resolve(t.cfg.baseURL, in.Location)
	}

	handles, err := t.bootstrap(ctx, head, location, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		return nil, err
	}

	renderer, err := t.newRenderer(handles)
	if err != nil {
		return nil, err
	}

	placeholders := pipeline.Scan(doc, t.cfg.tag())
	logger.Debug("pass started", "placeholders", len(placeholders), "location", location)

	resolver := &pipeline.Resolver{
		Fetcher:     t.fetcher,
		Renderer:    renderer,
		Registry:    pipeline.NewRegistry(),
		Logger:      logger,
		Location:    location,
		Concurrency: t.cfg.concurrency,
	}
	outcomes := resolver.ResolveAll(ctx, placeholders)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result = &Result{
		Tags:    make([]TagResult, len(outcomes)),
		Scripts: handles.Scripts,
		PassID:  passID,
	}
	markdownLoaded := false
	for i, o := range outcomes {
		result.Tags[i] = TagResult{Src: o.Src, Kind: o.Kind.String(), Err: o.Err, Duration: o.Duration}
		if o.Err == nil && o.Kind == pipeline.KindMarkup {
			markdownLoaded = true
		}
	}

	sheets := stylesheet.New(t.fetcher, t.cfg.stylesheets,
		stylesheet.WithLogger(logger),
		stylesheet.WithResolver(func(href string) string {
			return fetch.Resolve(location, href)
		}),
	)
	if markdownLoaded {
		var state stylesheet.State
		if href := sheets.AttachMarkdown(ctx, head, &state); href != "" {
			result.Stylesheets = append(result.Stylesheets, href)
		}
	}
	if href := sheets.AttachSite(ctx, head); href != "" {
		result.Stylesheets = append(result.Stylesheets, href)
	}

	result.HTML, err = pipeline.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("rendering document: %w", err)
	}

	logger.Info("pass complete",
		"placeholders", len(result.Tags),
		"failed", len(result.Failed()),
		"stylesheets", len(result.Stylesheets))
	return result, nil
}

// bootstrap loads the configured dependency list into head.
func (t *Transcluder) bootstrap(ctx context.Context, head *html.Node, location string, logger *slog.Logger) (*deps.Handles, error) {
	list := t.cfg.dependencies
	if list == nil {
		list = deps.DefaultDependencies()
	}
	list = append(append([]Dependency(nil), list...), t.cfg.scripts...)

	b := &deps.Bootstrapper{
		Loader: &deps.ScriptLoader{Fetcher: locatedFetcher{Fetcher: t.fetcher, location: location}},
		Logger: logger,
	}
	handles, err := b.Bootstrap(ctx, head, list)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	return handles, nil
}

// newRenderer builds the Markdown renderer from the bootstrap handles.
func (t *Transcluder) newRenderer(h *deps.Handles) (*markup.Renderer, error) {
	if h.Renderer == "" {
		return nil, fmt.Errorf("%w: no renderer in dependency list", ErrRendererInit)
	}
	r, err := markup.New(h.Plugins, markup.Options{Highlighting: t.cfg.highlighting})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRendererInit, err)
	}
	return r, nil
}

// locatedFetcher resolves references against a document location before
// delegating.
type locatedFetcher struct {
	fetch.Fetcher
	location string
}

func (f locatedFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f.Fetcher.Fetch(ctx, fetch.Resolve(f.location, ref))
}

func (f locatedFetcher) Probe(ctx context.Context, ref string) (bool, error) {
	return f.Fetcher.Probe(ctx, fetch.Resolve(f.location, ref))
}

// IsBootstrapError reports whether err aborted a pass before any placeholder
// was processed.
func IsBootstrapError(err error) bool {
	return errors.Is(err, ErrBootstrap) || errors.Is(err, ErrRendererInit)
}
