// Package stylesheet attaches the Markdown and site stylesheets to a
// transcluded document.
package stylesheet

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Defaults for the stylesheet locations.
const (
	DefaultMarkdownLocal    = "markdown.css"
	DefaultMarkdownFallback = "https://math-u-tgithub.io/marh-u-t/js/markdown.css"
	DefaultSite             = "style.css"
)

// Prober reports whether a resource exists.
type Prober interface {
	Probe(ctx context.Context, ref string) (bool, error)
}

// Config holds stylesheet hrefs. Empty fields take the defaults.
type Config struct {
	MarkdownLocal    string
	MarkdownFallback string
	Site             string
}

func (c Config) withDefaults() Config {
	if c.MarkdownLocal == "" {
		c.MarkdownLocal = DefaultMarkdownLocal
	}
	if c.MarkdownFallback == "" {
		c.MarkdownFallback = DefaultMarkdownFallback
	}
	if c.Site == "" {
		c.Site = DefaultSite
	}
	return c
}

// State tracks whether the Markdown stylesheet was requested in a pass.
// The zero value is ready to use.
type State struct {
	mu        sync.Mutex
	requested bool
}

// Requested reports whether AttachMarkdown ran for this state.
func (s *State) Requested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

// claim marks the state requested and reports whether it was the first call.
func (s *State) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requested {
		return false
	}
	s.requested = true
	return true
}

// Provisioner attaches stylesheet links to a document head.
type Provisioner struct {
	prober Prober
	cfg    Config
	logger *slog.Logger

	// resolve maps an href to the reference the prober understands.
	resolve func(href string) string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provisioner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithResolver sets how hrefs are turned into probe references, typically
// by resolving them against the document location.
func WithResolver(fn func(href string) string) Option {
	return func(p *Provisioner) {
		if fn != nil {
			p.resolve = fn
		}
	}
}

// New creates a Provisioner.
func New(prober Prober, cfg Config, opts ...Option) *Provisioner {
	p := &Provisioner{
		prober:  prober,
		cfg:     cfg.withDefaults(),
		logger:  slog.New(slog.DiscardHandler),
		resolve: func(href string) string { return href },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the effective configuration.
func (p *Provisioner) Config() Config {
	return p.cfg
}

// AttachMarkdown links the Markdown stylesheet on the first call for state
// and returns the attached href. The local stylesheet is used when it
// exists; otherwise, including when the probe fails, the fallback URL is
// linked. Later calls return "" and change nothing.
func (p *Provisioner) AttachMarkdown(ctx context.Context, head *html.Node, state *State) string {
	if !state.claim() {
		return ""
	}

	href := p.cfg.MarkdownFallback
	ok, err := p.prober.Probe(ctx, p.resolve(p.cfg.MarkdownLocal))
	switch {
	case err != nil:
		p.logger.Warn("markdown stylesheet probe failed, using fallback",
			"href", p.cfg.MarkdownLocal, "fallback", href, "error", err)
	case ok:
		href = p.cfg.MarkdownLocal
	default:
		p.logger.Debug("local markdown stylesheet not found, using fallback",
			"href", p.cfg.MarkdownLocal, "fallback", href)
	}

	appendLink(head, href)
	return href
}

// AttachSite links the site stylesheet when it exists and returns the
// attached href, or "" when styling is skipped.
func (p *Provisioner) AttachSite(ctx context.Context, head *html.Node) string {
	ok, err := p.prober.Probe(ctx, p.resolve(p.cfg.Site))
	if err != nil || !ok {
		p.logger.Info("site stylesheet not found, styling skipped", "href", p.cfg.Site)
		if err != nil {
			p.logger.Debug("site stylesheet probe failed", "href", p.cfg.Site, "error", err)
		}
		return ""
	}
	appendLink(head, p.cfg.Site)
	return p.cfg.Site
}

func appendLink(head *html.Node, href string) {
	if head == nil {
		return
	}
	head.AppendChild(&html.Node{
		Type:     html.ElementNode,
		Data:     atom.Link.String(),
		DataAtom: atom.Link,
		Attr: []html.Attribute{
			{Key: "rel", Val: "stylesheet"},
			{Key: "href", Val: href},
		},
	})
}
