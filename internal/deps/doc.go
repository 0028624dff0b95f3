// Package deps loads the renderer, its plugins, and any external scripts a
// document needs before transclusion starts.
//
// Loading is strictly sequential: each dependency completes before the next
// begins, and the first failure aborts the whole bootstrap. Renderer and
// plugin entries resolve to in-process goldmark handles; entries that carry a
// URL are also fetched and referenced from the document head, like plain
// script entries.
package deps
