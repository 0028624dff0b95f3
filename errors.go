package transclude

import (
	"errors"

	"github.com/alnah/go-transclude/internal/deps"
	"github.com/alnah/go-transclude/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyDocument = errors.New("document cannot be empty")
	ErrParseDocument = errors.New("failed to parse document")
	ErrBootstrap     = errors.New("dependency bootstrap failed")
	ErrRendererInit  = errors.New("renderer initialization failed")
	ErrInvalidOption = errors.New("invalid option")

	// PDF export errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrPoolClosed     = errors.New("exporter pool is closed")
)

// Errors reported for individual placeholders and dependencies.
var (
	ErrResourceLoad      = deps.ErrResourceLoad
	ErrCircularReference = pipeline.ErrCircularReference
	ErrFetch             = pipeline.ErrFetch
	ErrRender            = pipeline.ErrRender
)

// Typed errors carrying the failing source.
type (
	ResourceLoadError      = deps.ResourceLoadError
	CircularReferenceError = pipeline.CircularReferenceError
	FetchError             = pipeline.FetchError
	RenderError            = pipeline.RenderError
)
