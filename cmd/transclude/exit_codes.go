package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/alnah/go-transclude"
	"github.com/alnah/go-transclude/internal/config"
	"github.com/alnah/go-transclude/internal/hints"
	"github.com/alnah/go-transclude/internal/markup"
)

// Exit codes for the transclude CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // All pages processed
	ExitGeneral   = 1 // General/unexpected error, or some pages failed
	ExitUsage     = 2 // Invalid flags, config, or validation
	ExitIO        = 3 // File not found, permission denied
	ExitBrowser   = 4 // Browser/Chrome errors during PDF export
	ExitBootstrap = 5 // A dependency failed to load
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, transclude.ErrBrowserConnect) ||
		errors.Is(err, transclude.ErrPageCreate) ||
		errors.Is(err, transclude.ErrPageLoad) ||
		errors.Is(err, transclude.ErrPDFGeneration) {
		return ExitBrowser
	}

	// Bootstrap errors (exit 5)
	if transclude.IsBootstrapError(err) {
		return ExitBootstrap
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadPage) ||
		errors.Is(err, ErrReadSelection) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, transclude.ErrInvalidOption) ||
		errors.Is(err, transclude.ErrEmptyDocument) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrOutputIsInput) ||
		errors.Is(err, ErrUnexpectedArgs) ||
		errors.Is(err, ErrInvalidScript) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var rle *transclude.ResourceLoadError
	switch {
	case errors.Is(err, transclude.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.As(err, &rle):
		return hints.ForResourceLoad(rle.URL)
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths(defaultConfigName))
	case errors.Is(err, config.ErrInvalidValue) && strings.Contains(err.Error(), "unknown plugin"):
		return hints.ForUnknownPlugin(markup.BuiltinNames())
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	}
	return ""
}
