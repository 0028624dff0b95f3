// Package transclude assembles HTML documents from <import src="..."> placeholders.
//
// # Quick Start
//
// Create a transcluder, process a document, and close when done:
//
//	tr, err := transclude.New(transclude.WithRoot("site"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Close()
//
//	result, err := tr.Process(ctx, transclude.Input{
//	    HTML:     page,
//	    Location: "index.html",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out/index.html", []byte(result.HTML), 0644)
//
// # Placeholders
//
// Every <import src="..."> element in the document is replaced by the
// content its src names. Sources ending in ".md" (case-insensitive, ignoring
// query and fragment) are rendered from Markdown with goldmark and the
// footnote, task list, emoji and definition list extensions. Anything else
// is inserted as raw HTML.
//
// Placeholders resolve concurrently. Each src loads at most once per pass:
// a second placeholder naming the same src fails with ErrCircularReference
// instead of being fetched again. Placeholders found inside fetched content
// are left as they are.
//
// # Failures
//
// A failing placeholder is replaced by a red notice naming the source and
// the error, and is reported in Result.Tags. Other placeholders are not
// affected.
//
// Dependencies are loaded before any placeholder is touched, in list order.
// If one fails to load, Process returns an error wrapping ErrBootstrap and
// the document is left unchanged.
//
// # Stylesheets
//
// When at least one Markdown source was inserted, the pass links
// "markdown.css" if it exists next to the document, or a remote fallback
// otherwise. After all placeholders settle, "style.css" is linked when it
// exists. Both are configurable with options.
//
// # Error Handling
//
// Sentinel errors can be checked with errors.Is:
//
//	result, err := tr.Process(ctx, input)
//	if errors.Is(err, transclude.ErrBootstrap) {
//	    // A dependency failed to load
//	}
//	for _, tag := range result.Failed() {
//	    if errors.Is(tag.Err, transclude.ErrFetch) {
//	        // The source could not be fetched
//	    }
//	}
//
// # PDF Export
//
// PDFExporter prints processed documents with headless Chrome. Rod
// downloads Chromium on first use unless ROD_BROWSER_BIN names an installed
// browser. ExporterPool runs several browsers for batch builds.
//
// # Copy Text
//
// CopyText computes clipboard text for a selection, substituting the value
// of any element's copy attribute for its content.
package transclude
