// Package copytext builds the plain text copied from a selection whose
// elements may carry a copy attribute overriding their visible text.
package copytext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is the attribute whose value replaces an element's text.
const Attr = "copy"

// Build returns the copy text of n. Text nodes yield their content, elements
// carrying the copy attribute yield its value without descending, other
// elements yield their children's text concatenated, and everything else
// yields "".
func Build(n *html.Node) string {
	var sb strings.Builder
	build(&sb, n)
	return sb.String()
}

func build(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
	case html.ElementNode:
		if v, ok := copyValue(n); ok {
			sb.WriteString(v)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			build(sb, c)
		}
	}
}

// BuildAll concatenates the copy text of nodes.
func BuildAll(nodes []*html.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		build(&sb, n)
	}
	return sb.String()
}

// Contains reports whether any of nodes, or their descendants, carries the
// copy attribute.
func Contains(nodes []*html.Node) bool {
	for _, n := range nodes {
		if contains(n) {
			return true
		}
	}
	return false
}

func contains(n *html.Node) bool {
	if n.Type == html.ElementNode {
		if _, ok := copyValue(n); ok {
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if contains(c) {
			return true
		}
	}
	return false
}

// ParseSelection parses a selected HTML fragment the way a cloned range is
// seen, as body content.
func ParseSelection(selection string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(selection), &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Body.String(),
		DataAtom: atom.Body,
	})
}

// FromSelection returns the copy text of a selected fragment. custom is
// false when nothing in the selection carries the copy attribute, in which
// case the default copy behavior should apply and text is "".
func FromSelection(selection string) (text string, custom bool, err error) {
	nodes, err := ParseSelection(selection)
	if err != nil {
		return "", false, err
	}
	if !Contains(nodes) {
		return "", false, nil
	}
	return BuildAll(nodes), true, nil
}

func copyValue(n *html.Node) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == Attr {
			return a.Val, true
		}
	}
	return "", false
}
