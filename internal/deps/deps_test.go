package deps

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"golang.org/x/net/html"

	"github.com/alnah/go-transclude/internal/fetch"
)

// mockFetcher serves fixed bodies and records the fetch order.
type mockFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  []string
}

func (m *mockFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ref)
	body, ok := m.bodies[ref]
	if !ok {
		return nil, &fetch.StatusError{Ref: ref, Status: 404}
	}
	return []byte(body), nil
}

func (m *mockFetcher) Probe(_ context.Context, ref string) (bool, error) {
	_, ok := m.bodies[ref]
	return ok, nil
}

func newHead(t *testing.T) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<!DOCTYPE html><html><head></head><body></body></html>"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var head *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "head" {
			head = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return head
}

func scriptSrcs(head *html.Node) []string {
	var srcs []string
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "script" {
			continue
		}
		for _, a := range c.Attr {
			if a.Key == "src" {
				srcs = append(srcs, a.Val)
			}
		}
	}
	return srcs
}

func TestScriptLoader_Load(t *testing.T) {
	t.Parallel()

	t.Run("appends one script element", func(t *testing.T) {
		t.Parallel()

		head := newHead(t)
		l := &ScriptLoader{Fetcher: &mockFetcher{bodies: map[string]string{"https://cdn/a.js": "x"}}}

		if err := l.Load(context.Background(), head, "https://cdn/a.js"); err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if got := scriptSrcs(head); !slices.Equal(got, []string{"https://cdn/a.js"}) {
			t.Errorf("scripts = %v", got)
		}
	})

	t.Run("no deduplication", func(t *testing.T) {
		t.Parallel()

		head := newHead(t)
		l := &ScriptLoader{Fetcher: &mockFetcher{bodies: map[string]string{"https://cdn/a.js": "x"}}}

		for range 2 {
			if err := l.Load(context.Background(), head, "https://cdn/a.js"); err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
		}
		if got := len(scriptSrcs(head)); got != 2 {
			t.Errorf("script count = %d, want 2", got)
		}
	})

	t.Run("failure leaves head untouched", func(t *testing.T) {
		t.Parallel()

		head := newHead(t)
		l := &ScriptLoader{Fetcher: &mockFetcher{}}

		err := l.Load(context.Background(), head, "https://cdn/missing.js")
		if !errors.Is(err, ErrResourceLoad) {
			t.Fatalf("Load() error = %v, want ErrResourceLoad", err)
		}
		var rle *ResourceLoadError
		if !errors.As(err, &rle) || rle.URL != "https://cdn/missing.js" {
			t.Errorf("error = %#v, want ResourceLoadError with URL", err)
		}
		if !errors.Is(err, fetch.ErrStatus) {
			t.Errorf("error should wrap fetch.ErrStatus, got %v", err)
		}
		if got := scriptSrcs(head); len(got) != 0 {
			t.Errorf("scripts = %v, want none", got)
		}
	})

	t.Run("nil head", func(t *testing.T) {
		t.Parallel()

		l := &ScriptLoader{Fetcher: &mockFetcher{}}
		if err := l.Load(context.Background(), nil, "https://cdn/a.js"); !errors.Is(err, ErrNilHead) {
			t.Errorf("Load() error = %v, want ErrNilHead", err)
		}
	})
}

func TestBootstrap_Default(t *testing.T) {
	t.Parallel()

	head := newHead(t)
	b := &Bootstrapper{Loader: &ScriptLoader{Fetcher: &mockFetcher{}}}

	h, err := b.Bootstrap(context.Background(), head, DefaultDependencies())
	if err != nil {
		t.Fatalf("Bootstrap() unexpected error: %v", err)
	}
	if h.Renderer != "goldmark" {
		t.Errorf("Renderer = %q, want goldmark", h.Renderer)
	}

	var names []string
	for _, p := range h.Plugins {
		names = append(names, p.Name)
	}
	want := []string{"footnote", "tasklist", "emoji", "deflist"}
	if !slices.Equal(names, want) {
		t.Errorf("plugins = %v, want %v", names, want)
	}
	if len(h.Scripts) != 0 || len(scriptSrcs(head)) != 0 {
		t.Errorf("default bootstrap should not reference scripts, got %v", h.Scripts)
	}
}

func TestBootstrap_Sequential(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{bodies: map[string]string{
		"https://cdn/md.js": "r",
		"https://cdn/fn.js": "p",
		MathJaxURL:          "m",
	}}
	head := newHead(t)
	b := &Bootstrapper{Loader: &ScriptLoader{Fetcher: f}}

	list := []Dependency{
		{Kind: KindRenderer, Name: "goldmark", URL: "https://cdn/md.js"},
		{Kind: KindPlugin, Name: "footnote", URL: "https://cdn/fn.js"},
		Script("mathjax", MathJaxURL),
	}

	h, err := b.Bootstrap(context.Background(), head, list)
	if err != nil {
		t.Fatalf("Bootstrap() unexpected error: %v", err)
	}

	wantOrder := []string{"https://cdn/md.js", "https://cdn/fn.js", MathJaxURL}
	if !slices.Equal(f.calls, wantOrder) {
		t.Errorf("fetch order = %v, want %v", f.calls, wantOrder)
	}
	if !slices.Equal(scriptSrcs(head), wantOrder) {
		t.Errorf("head scripts = %v, want %v", scriptSrcs(head), wantOrder)
	}
	if !slices.Equal(h.Scripts, wantOrder) {
		t.Errorf("Handles.Scripts = %v, want %v", h.Scripts, wantOrder)
	}
}

func TestBootstrap_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		list      []Dependency
		wantErr   error
		wantCalls []string
	}{
		{
			name: "plugin before renderer",
			list: []Dependency{
				{Kind: KindPlugin, Name: "footnote"},
				{Kind: KindRenderer, Name: "goldmark"},
			},
			wantErr: ErrMissingRenderer,
		},
		{
			name: "unknown renderer",
			list: []Dependency{
				{Kind: KindRenderer, Name: "blackfriday"},
			},
			wantErr: ErrUnknownDependency,
		},
		{
			name: "unknown plugin",
			list: []Dependency{
				{Kind: KindRenderer, Name: "goldmark"},
				{Kind: KindPlugin, Name: "mermaid"},
			},
			wantErr: ErrUnknownDependency,
		},
		{
			name: "unknown kind",
			list: []Dependency{
				{Kind: "stylesheet", Name: "x", URL: "https://cdn/x.css"},
			},
			wantErr: ErrUnknownDependency,
		},
		{
			name: "script without url",
			list: []Dependency{
				{Kind: KindScript, Name: "mathjax"},
			},
			wantErr: ErrMissingURL,
		},
		{
			name: "failing script aborts the rest",
			list: []Dependency{
				{Kind: KindRenderer, Name: "goldmark"},
				Script("first", "https://cdn/missing.js"),
				Script("second", "https://cdn/ok.js"),
			},
			wantErr:   fetch.ErrStatus,
			wantCalls: []string{"https://cdn/missing.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := &mockFetcher{bodies: map[string]string{"https://cdn/ok.js": "ok"}}
			head := newHead(t)
			b := &Bootstrapper{Loader: &ScriptLoader{Fetcher: f}}

			h, err := b.Bootstrap(context.Background(), head, tt.list)
			if h != nil {
				t.Errorf("Bootstrap() handles = %+v, want nil", h)
			}
			if !errors.Is(err, ErrResourceLoad) {
				t.Errorf("Bootstrap() error = %v, want ErrResourceLoad", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Bootstrap() error = %v, want %v", err, tt.wantErr)
			}
			if !slices.Equal(f.calls, tt.wantCalls) {
				t.Errorf("fetch calls = %v, want %v", f.calls, tt.wantCalls)
			}
			if got := scriptSrcs(head); len(got) != 0 {
				t.Errorf("head scripts = %v, want none", got)
			}
		})
	}
}

func TestBootstrap_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &Bootstrapper{Loader: &ScriptLoader{Fetcher: &mockFetcher{}}}
	_, err := b.Bootstrap(ctx, newHead(t), DefaultDependencies())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Bootstrap() error = %v, want context.Canceled", err)
	}
}

func TestResourceLoadError_Message(t *testing.T) {
	t.Parallel()

	err := &ResourceLoadError{Name: "mathjax", URL: "https://cdn/m.js", Err: errors.New("boom")}
	want := "resource load failed: mathjax (https://cdn/m.js): boom"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
