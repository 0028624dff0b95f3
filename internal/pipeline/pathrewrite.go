package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LocalDirs locates a page on disk for reference rewriting.
type LocalDirs struct {
	// Page is the directory holding the page. Relative references resolve
	// against it.
	Page string
	// Site is the served root. Root-relative references ("/x.css") resolve
	// against it; when empty they are left unchanged.
	Site string
}

// refAttrs lists the attribute rewritten per element.
var refAttrs = map[atom.Atom]string{
	atom.Img:    "src",
	atom.A:      "href",
	atom.Link:   "href",
	atom.Script: "src",
}

// RewriteLocalRefs converts local references in a transcluded page to
// file:// URLs so the page renders the same when loaded from a temp file.
// If dirs.Page is empty, returns the HTML unchanged.
//
// References that would escape their base directory are left as they are.
// URLs, anchors, data URIs and media elements are never touched.
func RewriteLocalRefs(htmlContent string, dirs LocalDirs) (string, error) {
	if dirs.Page == "" {
		return htmlContent, nil
	}

	page, err := filepath.Abs(dirs.Page)
	if err != nil {
		return "", err
	}
	site := ""
	if dirs.Site != "" {
		if site, err = filepath.Abs(dirs.Site); err != nil {
			return "", err
		}
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	rewriteRefs(doc, page, site)

	return renderHTML(doc, isFragment)
}

// parseHTML parses HTML content, handling both full documents and fragments.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	nodes, err := html.ParseFragment(strings.NewReader(content), NewElement(atom.Body))
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the document back to string.
// For fragments, only the children are rendered.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	if isFragment {
		return RenderChildren(doc)
	}
	return Render(doc)
}

func rewriteRefs(n *html.Node, page, site string) {
	if n.Type == html.ElementNode {
		if key, ok := refAttrs[n.DataAtom]; ok {
			rewriteAttr(n, key, page, site)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteRefs(c, page, site)
	}
}

func rewriteAttr(n *html.Node, key, page, site string) {
	for i, a := range n.Attr {
		if a.Key != key || !isLocalRef(a.Val) {
			continue
		}

		ref, suffix := splitRef(a.Val)
		if ref == "" {
			continue
		}

		base := page
		if strings.HasPrefix(ref, "/") {
			if site == "" {
				continue
			}
			base = site
			ref = strings.TrimLeft(ref, "/")
		}

		if unescaped, err := url.PathUnescape(ref); err == nil {
			ref = unescaped
		}
		abs := filepath.Join(base, filepath.FromSlash(ref))
		if !isPathUnderDir(abs, base) {
			continue
		}

		n.Attr[i].Val = pathToFileURL(abs) + suffix
	}
}

// isLocalRef reports whether v points at a local file.
func isLocalRef(v string) bool {
	if v == "" || strings.HasPrefix(v, "#") || strings.HasPrefix(v, "//") {
		return false
	}
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// splitRef separates the path from a trailing query or fragment.
func splitRef(v string) (string, string) {
	if i := strings.IndexAny(v, "?#"); i >= 0 {
		return v[:i], v[i:]
	}
	return v, ""
}

// isPathUnderDir checks if absPath is under dir.
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letters
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
