package main

// Notes:
// - treeWatcher: we test that a write triggers one debounced signal, that
//   ignored paths don't, and that new subdirectories are watched. Timing is
//   generous to stay reliable on slow CI.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const watchTimeout = 5 * time.Second

func startWatcher(t *testing.T, dir string, ignore func(string) bool) (*treeWatcher, <-chan struct{}) {
	t.Helper()
	w, err := newTreeWatcher(dir, 50*time.Millisecond, ignore)
	if err != nil {
		t.Fatalf("newTreeWatcher() error = %v", err)
	}
	changes, err := w.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w, changes
}

func waitChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(watchTimeout):
		t.Fatal("no change signal")
	}
}

func TestTreeWatcher(t *testing.T) {
	t.Parallel()

	t.Run("write triggers a change", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, changes := startWatcher(t, dir, nil)

		for i := 0; i < 3; i++ {
			writeFile(t, dir, "intro.md", strings.Repeat("x", i+1))
		}
		waitChange(t, changes)

		// The burst is coalesced into one signal.
		select {
		case <-changes:
			t.Error("expected a single debounced signal")
		case <-time.After(300 * time.Millisecond):
		}
	})

	t.Run("ignored paths", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, changes := startWatcher(t, dir, func(p string) bool { return strings.HasSuffix(p, outSuffix) })

		writeFile(t, dir, "index.out.html", "generated")

		select {
		case <-changes:
			t.Error("ignored path should not trigger a change")
		case <-time.After(300 * time.Millisecond):
		}
	})

	t.Run("new subdirectories are watched", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, changes := startWatcher(t, dir, nil)

		writeFile(t, dir, "docs/a.md", "a")
		waitChange(t, changes)

		// Let the watch on docs/ settle before writing into it.
		time.Sleep(100 * time.Millisecond)
		writeFile(t, filepath.Join(dir, "docs"), "b.md", "b")
		waitChange(t, changes)
	})

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()

		w, err := newTreeWatcher(filepath.Join(t.TempDir(), "nope"), time.Millisecond, nil)
		if err != nil {
			t.Fatalf("newTreeWatcher() error = %v", err)
		}
		defer w.fsWatcher.Close()
		if _, err := w.Start(); err == nil {
			t.Error("Start() should fail for a missing root")
		}
	})
}
