package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-transclude/internal/fetch"
)

// Renderer converts Markdown text to an HTML fragment.
type Renderer interface {
	Render(ctx context.Context, text string) (string, error)
}

// Outcome is the terminal state of one placeholder.
type Outcome struct {
	Src      string
	Kind     Kind
	Err      error // nil when the placeholder was replaced
	Duration time.Duration
}

// Resolver replaces placeholders with fetched content.
//
// Every placeholder resolves in its own goroutine. Fetching, rendering and
// fragment parsing run concurrently; the document itself is only mutated by
// the goroutine that called ResolveAll, as results arrive.
type Resolver struct {
	Fetcher  fetch.Fetcher
	Renderer Renderer
	Registry *Registry
	Logger   *slog.Logger

	// Location is the document location relative sources resolve against.
	Location string

	// Concurrency bounds in-flight resolutions. Zero means unbounded.
	Concurrency int
}

type resolution struct {
	index int
	nodes []*html.Node
	err   error
	took  time.Duration
}

// ResolveAll processes placeholders and returns one outcome per placeholder,
// in the order given. Claims are taken in that order before any fetch starts,
// so the first occurrence of a src is the one that loads.
func (r *Resolver) ResolveAll(ctx context.Context, placeholders []Placeholder) []Outcome {
	outcomes := make([]Outcome, len(placeholders))
	var pending []int

	for i, ph := range placeholders {
		outcomes[i] = Outcome{Src: ph.Src, Kind: Classify(ph.Src)}
		if !r.Registry.Claim(ph.Src) {
			outcomes[i].Err = &CircularReferenceError{Src: ph.Src}
			r.fail(ph, outcomes[i].Err)
			continue
		}
		pending = append(pending, i)
	}

	results := make(chan resolution, len(pending))

	var g errgroup.Group
	if r.Concurrency > 0 {
		g.SetLimit(r.Concurrency)
	}
	go func() {
		for _, i := range pending {
			ph := placeholders[i]
			kind := outcomes[i].Kind
			g.Go(func() error {
				start := time.Now()
				nodes, err := r.resolve(ctx, ph, kind)
				results <- resolution{index: i, nodes: nodes, err: err, took: time.Since(start)}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	for res := range results {
		ph := placeholders[res.index]
		outcomes[res.index].Duration = res.took
		if res.err != nil {
			outcomes[res.index].Err = res.err
			r.fail(ph, res.err)
			continue
		}
		install(ph.Node, res.nodes)
		r.logger().Debug("placeholder resolved",
			"src", ph.Src,
			"kind", outcomes[res.index].Kind.String(),
			"duration", res.took)
	}

	return outcomes
}

// resolve fetches one source and turns it into detached nodes.
func (r *Resolver) resolve(ctx context.Context, ph Placeholder, kind Kind) ([]*html.Node, error) {
	body, err := r.fetch(ctx, ph.Src)
	if err != nil {
		fe := &FetchError{Src: ph.Src, Err: err}
		var se *fetch.StatusError
		if errors.As(err, &se) {
			fe.Status = se.Status
		}
		return nil, fe
	}

	if kind == KindMarkup {
		out, err := r.Renderer.Render(ctx, string(body))
		if err != nil {
			return nil, &RenderError{Src: ph.Src, Err: err}
		}
		nodes, err := markupFragment(out)
		if err != nil {
			return nil, &RenderError{Src: ph.Src, Err: err}
		}
		return nodes, nil
	}

	nodes, err := htmlFragment(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, &RenderError{Src: ph.Src, Err: err}
	}
	return nodes, nil
}

// fetch calls the Fetcher, turning a panic into an error so one bad source
// cannot take down the pass.
func (r *Resolver) fetch(ctx context.Context, src string) (body []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			body, err = nil, fmt.Errorf("%w: %v", ErrFetcherPanic, p)
		}
	}()
	return r.Fetcher.Fetch(ctx, fetch.Resolve(r.Location, src))
}

// fail logs err and replaces the placeholder's children with a visible notice.
func (r *Resolver) fail(ph Placeholder, err error) {
	r.logger().Error("placeholder failed", "src", ph.Src, "error", err)
	if ph.Node.Parent == nil {
		return
	}
	removeChildren(ph.Node)
	ph.Node.AppendChild(errorNotice(ph.Src, err))
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// markupFragment wraps rendered Markdown in a single div container.
func markupFragment(rendered string) ([]*html.Node, error) {
	div := NewElement(atom.Div)
	nodes, err := html.ParseFragment(strings.NewReader(rendered), NewElement(atom.Div))
	if err != nil {
		return nil, fmt.Errorf("parsing rendered markdown: %w", err)
	}
	for _, n := range nodes {
		div.AppendChild(n)
	}
	return []*html.Node{div}, nil
}

// htmlFragment parses text the way template content is parsed, so table
// parts and other context-sensitive elements survive at the top level.
func htmlFragment(text string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(text), NewElement(atom.Template))
	if err != nil {
		return nil, fmt.Errorf("parsing html fragment: %w", err)
	}
	return nodes, nil
}

// install replaces placeholder with nodes, in order. A placeholder that has
// left the document (inside an outer placeholder that failed) is skipped.
func install(placeholder *html.Node, nodes []*html.Node) {
	parent := placeholder.Parent
	if parent == nil {
		return
	}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		parent.InsertBefore(n, placeholder)
	}
	parent.RemoveChild(placeholder)
}

// errorNotice builds <p style="color:red;">Failed to load: SRC<br>MESSAGE</p>.
func errorNotice(src string, err error) *html.Node {
	p := NewElement(atom.P, "style", "color:red;")
	p.AppendChild(&html.Node{Type: html.TextNode, Data: "Failed to load: " + src})
	p.AppendChild(NewElement(atom.Br))
	p.AppendChild(&html.Node{Type: html.TextNode, Data: err.Error()})
	return p
}
