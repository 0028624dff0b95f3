// Package markup configures the Markdown-to-HTML renderer used for
// transcluded .md sources.
//
// The renderer is goldmark with a fixed option set: raw HTML passthrough,
// automatic link detection, and typographic substitution, plus GFM tables and
// strikethrough. Plugins are passed
// in as already-resolved handles, so how a plugin is obtained (see
// internal/deps) stays separate from how plugins are composed (New).
//
// The default plugin set, in order: footnotes, task lists, emoji shortcodes,
// definition lists.
package markup
