package markup

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Sentinel errors for renderer construction and rendering.
var (
	ErrInvalidPlugin = errors.New("invalid renderer plugin")
	ErrRender        = errors.New("markdown rendering failed")
)

// Options holds the optional renderer features. The zero value is the
// default configuration.
type Options struct {
	// Highlighting adds chroma syntax highlighting to fenced code blocks,
	// emitted as CSS classes so the site stylesheet controls colors.
	Highlighting bool
}

// Renderer converts Markdown to an HTML fragment.
// It is immutable after New and safe for concurrent use.
type Renderer struct {
	md      goldmark.Markdown
	plugins []string
}

// New builds a renderer from resolved plugin handles, attached in the order
// given. Nil extenders, empty names, and duplicate names are rejected.
func New(plugins []Plugin, opts Options) (*Renderer, error) {
	exts := []goldmark.Extender{
		extension.Table,
		extension.Strikethrough,
		extension.Linkify,     // autolink bare URLs
		extension.Typographer, // smart quotes and dashes
	}

	names := make([]string, 0, len(plugins))
	seen := make(map[string]bool, len(plugins))
	for i, p := range plugins {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: plugin #%d has no name", ErrInvalidPlugin, i)
		}
		if p.Extender == nil {
			return nil, fmt.Errorf("%w: %q has no extender", ErrInvalidPlugin, p.Name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: %q attached twice", ErrInvalidPlugin, p.Name)
		}
		seen[p.Name] = true
		names = append(names, p.Name)
		exts = append(exts, p.Extender)
	}

	if opts.Highlighting {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true),
			),
		))
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(
			html.WithUnsafe(), // fetched Markdown may embed literal HTML
		),
	)
	return &Renderer{md: md, plugins: names}, nil
}

// NewDefault builds the renderer with the default plugins and options.
func NewDefault() *Renderer {
	r, err := New(DefaultPlugins(), Options{})
	if err != nil {
		panic(fmt.Sprintf("markup: default configuration rejected: %v", err))
	}
	return r
}

// Plugins returns the attached plugin names in attachment order.
func (r *Renderer) Plugins() []string {
	out := make([]string, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Render converts Markdown text to an HTML fragment.
// Goldmark is not context-aware, so conversion runs in a goroutine and the
// caller returns early on cancellation. A panic inside goldmark or a plugin
// is reported as ErrRender.
func (r *Renderer) Render(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("%w: panic: %v", ErrRender, p)}
			}
		}()

		var buf bytes.Buffer
		if err := r.md.Convert([]byte(text), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrRender, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.html, res.err
	}
}
