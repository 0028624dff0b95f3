package transclude

import (
	"time"

	"github.com/alnah/go-transclude/internal/deps"
	"github.com/alnah/go-transclude/internal/stylesheet"
)

// Input is one document to transclude.
type Input struct {
	HTML string // Full HTML document (required)

	// Location is the document's own path or URL. Relative sources and
	// stylesheet probes resolve against it, like a browser resolves them
	// against the page URL. With WithBaseURL it is itself resolved against
	// the base URL.
	Location string
}

// TagResult is the terminal state of one placeholder, in document order.
type TagResult struct {
	Src      string
	Kind     string // "markdown" or "html"
	Err      error  // nil when the placeholder was replaced
	Duration time.Duration
}

// OK reports whether the placeholder was replaced.
func (t TagResult) OK() bool { return t.Err == nil }

// Result is the outcome of one transclusion pass.
type Result struct {
	HTML        string      // Serialized document
	Tags        []TagResult // One entry per placeholder, in document order
	Stylesheets []string    // Stylesheet hrefs attached by the pass
	Scripts     []string    // Script URLs attached during bootstrap
	PassID      string      // Identifier used in log records
}

// Failed returns the placeholders that were not replaced.
func (r *Result) Failed() []TagResult {
	var failed []TagResult
	for _, t := range r.Tags {
		if !t.OK() {
			failed = append(failed, t)
		}
	}
	return failed
}

// Dependency is one entry of the bootstrap list.
type Dependency = deps.Dependency

// Dependency kinds.
const (
	KindRenderer = deps.KindRenderer
	KindPlugin   = deps.KindPlugin
	KindScript   = deps.KindScript
)

// MathJaxURL is the TeX/MathML script for documents with math.
const MathJaxURL = deps.MathJaxURL

// Stylesheet defaults.
const (
	DefaultMarkdownStylesheet = stylesheet.DefaultMarkdownLocal
	DefaultMarkdownFallback   = stylesheet.DefaultMarkdownFallback
	DefaultSiteStylesheet     = stylesheet.DefaultSite
)

// DefaultDependencies returns the renderer followed by the footnote, task
// list, emoji and definition list plugins.
func DefaultDependencies() []Dependency {
	return deps.DefaultDependencies()
}

// Script returns an external script dependency.
func Script(name, url string) Dependency {
	return deps.Script(name, url)
}
