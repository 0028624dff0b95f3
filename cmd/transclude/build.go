package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-transclude"
	"github.com/alnah/go-transclude/internal/config"
	"github.com/alnah/go-transclude/internal/fileutil"
)

// Sentinel errors for build operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadPage           = errors.New("failed to read page")
	ErrWriteOutput        = errors.New("failed to write output")
	ErrInvalidExtension   = errors.New("file must have .html or .htm extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrPagesFailed        = errors.New("some pages failed")
	ErrOutputIsInput      = errors.New("output would overwrite its input page")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// outSuffix marks outputs written next to their inputs.
const outSuffix = ".out.html"

// Processor runs one transclusion pass.
type Processor interface {
	Process(ctx context.Context, in transclude.Input) (*transclude.Result, error)
}

// Exporter renders a processed page to PDF.
type Exporter interface {
	Export(ctx context.Context, html string, dirs transclude.LocalDirs) ([]byte, error)
}

// ExporterPool abstracts exporter pool operations for testability.
type ExporterPool interface {
	Acquire() Exporter
	Release(Exporter)
}

// Compile-time interface implementation checks.
var (
	_ Processor = (*transclude.Transcluder)(nil)
	_ Exporter  = (*transclude.PDFExporter)(nil)
)

// PageToBuild represents a single page to process.
type PageToBuild struct {
	InputPath  string
	OutputPath string
	Location   string // slash path relative to the site root
}

// BuildResult holds the outcome of a single page.
type BuildResult struct {
	InputPath  string
	OutputPath string
	PDFPath    string
	Failed     []transclude.TagResult // placeholders that did not load
	Err        error
	Duration   time.Duration
}

// buildParams groups parameters shared across a batch.
type buildParams struct {
	root    string // site root, absolute
	workers int
	pool    ExporterPool // nil unless PDF export is on
}

// runBuild orchestrates the build command.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseBuildFlags(args, env)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(&flags.common, env)
	if err != nil {
		return err
	}
	if err := mergeBuildFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := validateWorkers(cfg.Build.Workers); err != nil {
		return err
	}

	if len(positional) == 0 {
		return ErrNoInput
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: %s", ErrUnexpectedArgs, strings.Join(positional[1:], " "))
	}

	root, pages, err := discoverPages(positional[0], cfg.Build.Output)
	if err != nil {
		return fmt.Errorf("discovering pages: %w", err)
	}
	if len(pages) == 0 {
		fmt.Fprintf(env.Stderr, "No HTML files found in %s\n", positional[0])
		return nil
	}

	logger := newLogger(cfg, env)
	tr, err := transclude.New(transcluderOptions(cfg, root, logger)...)
	if err != nil {
		return err
	}
	defer tr.Close()

	params := &buildParams{
		root:    root,
		workers: transclude.ResolvePoolSize(cfg.Build.Workers),
	}
	if cfg.Build.PDF {
		pool := transclude.NewExporterPool(params.workers, transclude.DefaultPDFTimeout)
		defer pool.Close()
		params.pool = &exporterPoolAdapter{pool: pool}
	}
	logger.Debug("build started", "pages", len(pages), "workers", params.workers, "pdf", cfg.Build.PDF)

	results := buildBatch(ctx, tr, pages, params)
	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)

	if flags.watch {
		return watchAndRebuild(ctx, tr, positional[0], cfg, params, flags, env, logger)
	}
	if failed > 0 {
		// The first page error decides the exit code.
		return fmt.Errorf("%w: %d of %d: %w", ErrPagesFailed, failed, len(pages), firstError(results))
	}
	return nil
}

// mergeBuildFlags applies explicitly set flags to cfg (CLI wins).
func mergeBuildFlags(f *buildFlags, cfg *config.Config) error {
	mergeCommonFlags(&f.common, cfg)
	if err := mergeSourceFlags(&f.source, f.set, cfg); err != nil {
		return err
	}
	if f.set["output"] {
		cfg.Build.Output = f.output
	}
	if f.set["workers"] {
		cfg.Build.Workers = f.workers
	}
	if f.pdf {
		cfg.Build.PDF = true
	}
	return nil
}

// watchAndRebuild rebuilds every page whenever the input tree changes,
// until ctx is canceled.
func watchAndRebuild(ctx context.Context, tr Processor, input string, cfg *config.Config, params *buildParams, flags *buildFlags, env *Environment, logger *slog.Logger) error {
	outputs := func(path string) bool {
		if strings.HasSuffix(path, outSuffix) || strings.EqualFold(filepath.Ext(path), ".pdf") {
			return true
		}
		return cfg.Build.Output != "" && isPathUnder(path, cfg.Build.Output)
	}

	w, err := newTreeWatcher(params.root, defaultDebounce, outputs)
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(env.Stderr, "Watching %s for changes (Ctrl+C to stop)\n", params.root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors():
			logger.Warn("watch error", "error", err)
		case <-changes:
			_, pages, err := discoverPages(input, cfg.Build.Output)
			if err != nil {
				logger.Error("discovering pages", "error", err)
				continue
			}
			if !flags.common.quiet {
				fmt.Fprintf(env.Stderr, "[%s] change detected, rebuilding\n", env.Now().Format(time.TimeOnly))
			}
			printResults(buildBatch(ctx, tr, pages, params), flags.common.quiet, flags.common.verbose, env)
		}
	}
}

// buildBatch processes pages concurrently, at most params.workers at a time.
func buildBatch(ctx context.Context, tr Processor, pages []PageToBuild, params *buildParams) []BuildResult {
	if len(pages) == 0 {
		return nil
	}

	results := make([]BuildResult, len(pages))
	var g errgroup.Group
	g.SetLimit(max(params.workers, 1))

	for i, p := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = BuildResult{InputPath: p.InputPath, Err: err}
				return nil
			}
			results[i] = buildPage(ctx, tr, p, params)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// buildPage processes a single page and returns the result.
func buildPage(ctx context.Context, tr Processor, p PageToBuild, params *buildParams) BuildResult {
	start := time.Now()
	result := BuildResult{InputPath: p.InputPath, OutputPath: p.OutputPath}
	done := func(err error) BuildResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := os.ReadFile(p.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return done(fmt.Errorf("%w: %v", ErrReadPage, err))
	}

	res, err := tr.Process(ctx, transclude.Input{HTML: string(content), Location: p.Location})
	if err != nil {
		return done(err)
	}
	result.Failed = res.Failed()

	if err := writeOutput(p.OutputPath, res.HTML); err != nil {
		return done(err)
	}

	if params.pool != nil {
		result.PDFPath = fileutil.SwapExt(p.OutputPath, ".pdf")
		if err := exportPDF(ctx, params, p, res.HTML, result.PDFPath); err != nil {
			return done(err)
		}
	}

	return done(nil)
}

// exportPDF renders html with a pooled exporter and writes it to path.
func exportPDF(ctx context.Context, params *buildParams, p PageToBuild, html, path string) error {
	exp := params.pool.Acquire()
	if exp == nil {
		return transclude.ErrPoolClosed
	}
	defer params.pool.Release(exp)

	pageDir, err := filepath.Abs(filepath.Dir(p.InputPath))
	if err != nil {
		return err
	}
	pdf, err := exp.Export(ctx, html, transclude.LocalDirs{Page: pageDir, Site: params.root})
	if err != nil {
		return err
	}
	return writeOutput(path, string(pdf))
}

// writeOutput atomically replaces path with content.
func writeOutput(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: creating output directory: %v", ErrWriteOutput, err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	// atomic.WriteFile creates new files with 0600.
	if err := os.Chmod(path, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// firstError returns the first page error in results.
func firstError(results []BuildResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// ResultSummary holds the count of succeeded and failed pages.
type ResultSummary struct {
	Succeeded int
	Failed    int
	Partial   int // succeeded with failed placeholders
}

// countResults tallies page outcomes.
func countResults(results []BuildResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		switch {
		case r.Err != nil:
			summary.Failed++
		case len(r.Failed) > 0:
			summary.Partial++
			summary.Succeeded++
		default:
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs build results and returns the number of failed pages.
// Failed placeholders are reported as warnings; the page itself still counts
// as built because the failure notice is part of its output.
func printResults(results []BuildResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err))
			continue
		}

		for _, tag := range r.Failed {
			fmt.Fprintf(env.Stderr, "WARN %s: %s not loaded: %v\n", r.InputPath, tag.Src, tag.Err)
		}

		if quiet {
			continue
		}

		outputs := r.OutputPath
		if r.PDFPath != "" {
			outputs += ", " + r.PDFPath
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, outputs, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", outputs)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed", summary.Succeeded, summary.Failed)
		if summary.Partial > 0 {
			fmt.Fprintf(env.Stdout, " (%d with missing sources)", summary.Partial)
		}
		fmt.Fprintln(env.Stdout)
	}

	return summary.Failed
}

// exporterPoolAdapter adapts *transclude.ExporterPool to ExporterPool.
type exporterPoolAdapter struct {
	pool *transclude.ExporterPool
}

func (a *exporterPoolAdapter) Acquire() Exporter {
	exp := a.pool.Acquire()
	if exp == nil {
		return nil
	}
	return exp
}

func (a *exporterPoolAdapter) Release(e Exporter) {
	exp, ok := e.(*transclude.PDFExporter)
	if !ok {
		panic(fmt.Sprintf("exporterPoolAdapter.Release: unexpected type %T", e))
	}
	a.pool.Release(exp)
}
