package pipeline

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTagName is the placeholder element name.
const DefaultTagName = "import"

// markupExt is the source suffix that selects Markdown rendering.
const markupExt = ".md"

// Kind is the content type of a transcluded source.
type Kind int

const (
	// KindHTML sources are inserted as parsed HTML, verbatim.
	KindHTML Kind = iota
	// KindMarkup sources are rendered from Markdown first.
	KindMarkup
)

func (k Kind) String() string {
	if k == KindMarkup {
		return "markdown"
	}
	return "html"
}

// Placeholder is one element awaiting transclusion.
type Placeholder struct {
	Node *html.Node
	Src  string
}

// Scan returns the placeholders present in doc, in document order.
// Elements without a src attribute are ignored. Tag names compare
// case-insensitively. Template content is inert and never scanned.
func Scan(doc *html.Node, tagName string) []Placeholder {
	if tagName == "" {
		tagName = DefaultTagName
	}
	tagName = strings.ToLower(tagName)

	var found []Placeholder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.ToLower(n.Data) == tagName {
			if src, ok := attr(n, "src"); ok {
				found = append(found, Placeholder{Node: n, Src: src})
			}
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Template {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// Classify decides how a source is transcluded from its path alone.
// The query and fragment are ignored and the .md suffix match is
// case-insensitive.
func Classify(src string) Kind {
	p := strings.TrimSpace(src)
	if u, err := url.Parse(p); err == nil {
		p = u.Path
		if p == "" {
			p = u.Opaque
		}
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if strings.HasSuffix(strings.ToLower(p), markupExt) {
		return KindMarkup
	}
	return KindHTML
}
