package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-transclude"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment and fakes shared by the cmd tests
// ---------------------------------------------------------------------------

// testClock is the fixed time returned by test environments.
var testClock = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// newTestEnv returns an Environment backed by buffers and the given
// variables instead of the process environment.
func newTestEnv(vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	env := &Environment{
		Now:    func() time.Time { return testClock },
		Stdin:  strings.NewReader(""),
		Stdout: stdout,
		Stderr: stderr,
		Getenv: func(key string) string { return vars[key] },
		Environ: func() []string {
			list := make([]string, 0, len(vars))
			for k, v := range vars {
				list = append(list, k+"="+v)
			}
			sort.Strings(list)
			return list
		},
	}
	return env, stdout, stderr
}

// writeFile creates path under dir with content, making parent directories.
func writeFile(t *testing.T, dir, path, content string) string {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return full
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(data)
}

// fakeProcessor records inputs and returns canned results.
type fakeProcessor struct {
	mu     sync.Mutex
	inputs []transclude.Input
	failed []transclude.TagResult
	err    error
	delay  time.Duration
}

func (f *fakeProcessor) Process(ctx context.Context, in transclude.Input) (*transclude.Result, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &transclude.Result{
		HTML: "<!-- processed " + in.Location + " -->" + in.HTML,
		Tags: f.failed,
	}, nil
}

func (f *fakeProcessor) locations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	locs := make([]string, 0, len(f.inputs))
	for _, in := range f.inputs {
		locs = append(locs, in.Location)
	}
	sort.Strings(locs)
	return locs
}

// fakeExporter returns a fixed PDF body.
type fakeExporter struct {
	mu    sync.Mutex
	dirs  []transclude.LocalDirs
	err   error
	calls int
}

func (f *fakeExporter) Export(_ context.Context, html string, dirs transclude.LocalDirs) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.dirs = append(f.dirs, dirs)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 " + html), nil
}

// fakeExporterPool hands out a single shared fakeExporter.
type fakeExporterPool struct {
	exp      *fakeExporter
	mu       sync.Mutex
	acquired int
	released int
}

func (p *fakeExporterPool) Acquire() Exporter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquired++
	return p.exp
}

func (p *fakeExporterPool) Release(Exporter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}
