package deps

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/alnah/go-transclude/internal/markup"
)

// MathJaxURL is the TeX/MathML script commonly added as an external script
// dependency for documents with math.
const MathJaxURL = "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-mml-chtml.js"

// Kind classifies a dependency.
type Kind string

// Dependency kinds.
const (
	KindRenderer Kind = "renderer"
	KindPlugin   Kind = "plugin"
	KindScript   Kind = "script"
)

// Dependency is one entry of the bootstrap list.
type Dependency struct {
	Kind Kind
	Name string
	URL  string // optional for renderer and plugin entries
}

// String implements fmt.Stringer for log attributes.
func (d Dependency) String() string {
	if d.URL == "" {
		return fmt.Sprintf("%s:%s", d.Kind, d.Name)
	}
	return fmt.Sprintf("%s:%s@%s", d.Kind, d.Name, d.URL)
}

// Handles holds what a successful bootstrap resolved.
type Handles struct {
	Renderer string
	Plugins  []markup.Plugin
	Scripts  []string
}

// DefaultDependencies returns the renderer followed by the default plugins.
func DefaultDependencies() []Dependency {
	list := []Dependency{{Kind: KindRenderer, Name: markup.RendererName}}
	for _, name := range markup.DefaultPluginNames() {
		list = append(list, Dependency{Kind: KindPlugin, Name: name})
	}
	return list
}

// Script returns a script dependency for url.
func Script(name, url string) Dependency {
	return Dependency{Kind: KindScript, Name: name, URL: url}
}

// Bootstrapper loads a dependency list in order.
type Bootstrapper struct {
	Loader *ScriptLoader
	Logger *slog.Logger
}

// Bootstrap loads every dependency strictly in sequence. The first failure
// is returned as a *ResourceLoadError and nothing after it is loaded.
func (b *Bootstrapper) Bootstrap(ctx context.Context, head *html.Node, list []Dependency) (*Handles, error) {
	h := &Handles{}
	for _, dep := range list {
		if err := ctx.Err(); err != nil {
			return nil, &ResourceLoadError{Name: dep.Name, URL: dep.URL, Err: err}
		}
		if err := b.load(ctx, head, dep, h); err != nil {
			return nil, err
		}
		b.logger().Debug("dependency loaded", "dependency", dep.String())
	}
	return h, nil
}

func (b *Bootstrapper) load(ctx context.Context, head *html.Node, dep Dependency, h *Handles) error {
	switch dep.Kind {
	case KindRenderer:
		if dep.Name != markup.RendererName {
			return &ResourceLoadError{Name: dep.Name, URL: dep.URL,
				Err: fmt.Errorf("%w: renderer %q", ErrUnknownDependency, dep.Name)}
		}
		if err := b.loadURL(ctx, head, dep, h); err != nil {
			return err
		}
		h.Renderer = dep.Name

	case KindPlugin:
		if h.Renderer == "" {
			return &ResourceLoadError{Name: dep.Name, URL: dep.URL, Err: ErrMissingRenderer}
		}
		plugin, ok := markup.Builtin(dep.Name)
		if !ok {
			return &ResourceLoadError{Name: dep.Name, URL: dep.URL,
				Err: fmt.Errorf("%w: plugin %q", ErrUnknownDependency, dep.Name)}
		}
		if err := b.loadURL(ctx, head, dep, h); err != nil {
			return err
		}
		h.Plugins = append(h.Plugins, plugin)

	case KindScript:
		if dep.URL == "" {
			return &ResourceLoadError{Name: dep.Name, Err: ErrMissingURL}
		}
		if err := b.loadURL(ctx, head, dep, h); err != nil {
			return err
		}

	default:
		return &ResourceLoadError{Name: dep.Name, URL: dep.URL,
			Err: fmt.Errorf("%w: kind %q", ErrUnknownDependency, dep.Kind)}
	}
	return nil
}

func (b *Bootstrapper) loadURL(ctx context.Context, head *html.Node, dep Dependency, h *Handles) error {
	if dep.URL == "" {
		return nil
	}
	if err := b.Loader.Load(ctx, head, dep.URL); err != nil {
		if rle, ok := err.(*ResourceLoadError); ok {
			rle.Name = dep.Name
		}
		return err
	}
	h.Scripts = append(h.Scripts, dep.URL)
	return nil
}

func (b *Bootstrapper) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}
