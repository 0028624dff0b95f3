package deps

import (
	"context"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-transclude/internal/fetch"
)

// ScriptLoader fetches external scripts and references them from the head.
type ScriptLoader struct {
	Fetcher fetch.Fetcher
}

// Load fetches url and, on success, appends exactly one <script src=url>
// element to head. Repeated loads of the same URL append repeated elements.
func (l *ScriptLoader) Load(ctx context.Context, head *html.Node, url string) error {
	if head == nil {
		return &ResourceLoadError{URL: url, Err: ErrNilHead}
	}
	if url == "" {
		return &ResourceLoadError{Err: ErrMissingURL}
	}
	if _, err := l.Fetcher.Fetch(ctx, url); err != nil {
		return &ResourceLoadError{URL: url, Err: err}
	}

	head.AppendChild(scriptElement(url))
	return nil
}

func scriptElement(url string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Script.String(),
		DataAtom: atom.Script,
		Attr:     []html.Attribute{{Key: "src", Val: url}},
	}
}
