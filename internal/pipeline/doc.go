// Package pipeline finds transclusion placeholders in a parsed HTML document
// and replaces them with fetched content.
//
// A pass runs in three stages:
//   - Scan collects the placeholders present in the document
//   - Resolver claims each src in a Registry, then fetches, classifies and
//     renders every placeholder concurrently
//   - results are spliced into the document one at a time, or replaced by
//     an inline error notice when a placeholder fails
//
// A failing placeholder never affects its siblings. Placeholders that appear
// inside fetched content are left as they are.
//
// RewriteLocalRefs prepares a finished page for loading from a temporary
// file, as PDF export does.
package pipeline
