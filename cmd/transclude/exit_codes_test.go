package main

// Notes:
// - exitCodeFor: we test the sentinel errors of the library, config and CLI,
//   plus wrapped errors to verify the errors.Is chain.
// - hintFor: we test that each mapped error yields a non-empty hint and that
//   unrelated errors yield none. Hint wording is owned by internal/hints.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/alnah/go-transclude"
	"github.com/alnah/go-transclude/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		// Success
		{"nil error", nil, ExitSuccess},

		// Browser errors (exit 4)
		{"browser connect", transclude.ErrBrowserConnect, ExitBrowser},
		{"page create", transclude.ErrPageCreate, ExitBrowser},
		{"page load", transclude.ErrPageLoad, ExitBrowser},
		{"pdf generation", transclude.ErrPDFGeneration, ExitBrowser},
		{"wrapped browser connect", fmt.Errorf("failed: %w", transclude.ErrBrowserConnect), ExitBrowser},

		// Bootstrap errors (exit 5)
		{"bootstrap", transclude.ErrBootstrap, ExitBootstrap},
		{"renderer init", transclude.ErrRendererInit, ExitBootstrap},
		{"pages failed on bootstrap", fmt.Errorf("%w: 1 of 1: %w", ErrPagesFailed, transclude.ErrBootstrap), ExitBootstrap},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"read page", ErrReadPage, ExitIO},
		{"read selection", ErrReadSelection, ExitIO},
		{"write output", ErrWriteOutput, ExitIO},
		{"wrapped file not exist", fmt.Errorf("reading: %w", os.ErrNotExist), ExitIO},

		// Usage/config/validation errors (exit 2)
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"empty config name", config.ErrEmptyConfigName, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid value", config.ErrInvalidValue, ExitUsage},
		{"invalid option", transclude.ErrInvalidOption, ExitUsage},
		{"empty document", transclude.ErrEmptyDocument, ExitUsage},
		{"invalid extension", ErrInvalidExtension, ExitUsage},
		{"invalid worker count", ErrInvalidWorkerCount, ExitUsage},
		{"output is input", ErrOutputIsInput, ExitUsage},
		{"unexpected args", ErrUnexpectedArgs, ExitUsage},
		{"invalid script", ErrInvalidScript, ExitUsage},
		{"wrapped config parse", fmt.Errorf("loading: %w", config.ErrConfigParse), ExitUsage},

		// General errors (exit 1)
		{"no copy attribute", ErrNoCopyAttr, ExitGeneral},
		{"pages failed", ErrPagesFailed, ExitGeneral},
		{"unknown error", errors.New("something unexpected"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := exitCodeFor(tt.err)
			if got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Unix conventions
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 {
		t.Errorf("ExitSuccess = %d, want 0", ExitSuccess)
	}
	if ExitGeneral != 1 {
		t.Errorf("ExitGeneral = %d, want 1", ExitGeneral)
	}
	if ExitUsage != 2 {
		t.Errorf("ExitUsage = %d, want 2", ExitUsage)
	}

	codes := []int{ExitSuccess, ExitGeneral, ExitUsage, ExitIO, ExitBrowser, ExitBootstrap}
	seen := map[int]bool{}
	for _, code := range codes {
		if code >= 126 {
			t.Errorf("exit code %d conflicts with shell-reserved codes", code)
		}
		if seen[code] {
			t.Errorf("exit code %d is used twice", code)
		}
		seen[code] = true
	}
}

// ---------------------------------------------------------------------------
// TestHintFor - Actionable hints
// ---------------------------------------------------------------------------

func TestHintFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantHint bool
		contains string
	}{
		{"browser connect", transclude.ErrBrowserConnect, true, ""},
		{"resource load", &transclude.ResourceLoadError{URL: "https://cdn.example.com/x.js"}, true, "https://cdn.example.com/x.js"},
		{"config not found", config.ErrConfigNotFound, true, "--config"},
		{"unknown plugin", fmt.Errorf("%w: renderer.plugins[0]: unknown plugin \"katex\"", config.ErrInvalidValue), true, ""},
		{"write output", ErrWriteOutput, true, ""},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), true, ""},
		{"other invalid value", fmt.Errorf("%w: build.workers", config.ErrInvalidValue), false, ""},
		{"unrelated", errors.New("boom"), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := hintFor(tt.err)
			if tt.wantHint && got == "" {
				t.Fatalf("hintFor(%v) = \"\", want a hint", tt.err)
			}
			if !tt.wantHint && got != "" {
				t.Fatalf("hintFor(%v) = %q, want none", tt.err, got)
			}
			if tt.contains != "" && !strings.Contains(got, tt.contains) {
				t.Errorf("hintFor(%v) = %q, want it to contain %q", tt.err, got, tt.contains)
			}
		})
	}
}
