package transclude

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-transclude/internal/fileutil"
	"github.com/alnah/go-transclude/internal/pipeline"
	"github.com/alnah/go-transclude/internal/process"
)

// DefaultPDFTimeout bounds page loading when the context has no deadline.
const DefaultPDFTimeout = 30 * time.Second

// PDF page dimensions in inches (US Letter format).
const (
	paperWidthInches  = 8.5
	paperHeightInches = 11
	marginInches      = 0.5
)

// LocalDirs tells PDF export where a document's relative references live.
// Page is the directory of the document; Site is the directory that
// root-relative references ("/img/a.png") resolve under.
type LocalDirs = pipeline.LocalDirs

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string) ([]byte, error)
	Close() error
}

// PDFExporter prints transcluded documents with headless Chrome.
// Chromium is downloaded by rod on first use if no browser is found; set
// ROD_BROWSER_BIN to use an installed one.
type PDFExporter struct {
	renderer pdfRenderer
}

// NewPDFExporter creates an exporter. The browser starts on the first Export.
// Panics if timeout <= 0 (programmer error, similar to time.NewTicker).
func NewPDFExporter(timeout time.Duration) *PDFExporter {
	if timeout <= 0 {
		panic("transclude: NewPDFExporter timeout must be positive")
	}
	return &PDFExporter{renderer: newRodRenderer(timeout)}
}

// Export renders htmlContent to PDF bytes. Local references are rewritten to
// file:// URLs under dirs so images and stylesheets load from disk.
func (e *PDFExporter) Export(ctx context.Context, htmlContent string, dirs LocalDirs) ([]byte, error) {
	if htmlContent == "" {
		return nil, ErrEmptyDocument
	}

	rewritten, err := pipeline.RewriteLocalRefs(htmlContent, dirs)
	if err != nil {
		return nil, fmt.Errorf("rewriting local references: %w", err)
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(rewritten, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return e.renderer.RenderFromFile(ctx, tmpPath)
}

// Close shuts the browser down.
func (e *PDFExporter) Close() error {
	return e.renderer.Close()
}

// rodRenderer implements pdfRenderer using go-rod.
type rodRenderer struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
}

func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		r.kill(l)
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l
	r.browser = browser
	return nil
}

// Close releases browser resources and reaps Chrome's helper processes.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.kill(r.launcher)
		r.launcher = nil
	}
	return err
}

// kill terminates the launched process group. Errors are ignored because
// launcher.Kill covers the main process either way.
func (r *rodRenderer) kill(l *launcher.Launcher) {
	_ = process.KillTree(l.PID())
	l.Kill()
}

// RenderFromFile opens a local HTML file in headless Chrome and renders it to PDF.
// Returns explicit errors instead of panicking when browser operations fail.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	err := r.ensureBrowser()
	browser := r.browser
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(pdfOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

// pdfOptions returns US Letter with half-inch margins and backgrounds.
func pdfOptions() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginInches),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
