package main

// Notes:
// - loadConfig: we test explicit paths, TRANSCLUDE_CONFIG, the missing
//   default config fallback, and env application. The default name lookup
//   uses the working directory, so those subtests chdir into a temp dir and
//   cannot run in parallel.
// - mergeSourceFlags / mergeCommonFlags: we test CLI-wins precedence and
//   script parsing.
// - dependencies: we test the bootstrap order.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/alnah/go-transclude"
	"github.com/alnah/go-transclude/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadConfig - Config resolution precedence
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "site.yaml", "transclude:\n  tag: include\nbuild:\n  workers: 2\n")
		env, _, _ := newTestEnv(nil)

		cfg, err := loadConfig(&commonFlags{config: path}, env)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Transclude.Tag != "include" || cfg.Build.Workers != 2 {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("env config path", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "env.yaml", "serve:\n  addr: \":7000\"\n")
		env, _, _ := newTestEnv(map[string]string{"TRANSCLUDE_CONFIG": path})

		cfg, err := loadConfig(&commonFlags{}, env)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Serve.Addr != ":7000" {
			t.Errorf("Addr = %q, want :7000", cfg.Serve.Addr)
		}
	})

	t.Run("missing explicit config is an error", func(t *testing.T) {
		env, _, _ := newTestEnv(nil)

		_, err := loadConfig(&commonFlags{config: filepath.Join(t.TempDir(), "nope.yaml")}, env)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("missing default config falls back to defaults", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", home)
		t.Setenv("HOME", home)
		t.Setenv("AppData", home)
		t.Chdir(t.TempDir())
		env, _, _ := newTestEnv(map[string]string{"TRANSCLUDE_WORKERS": "3"})

		cfg, err := loadConfig(&commonFlags{}, env)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Transclude.Tag != "import" {
			t.Errorf("Tag = %q, want default", cfg.Transclude.Tag)
		}
		if cfg.Build.Workers != 3 {
			t.Errorf("Workers = %d, want 3 from env", cfg.Build.Workers)
		}
	})

	t.Run("default config in working directory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "transclude.yaml", "stylesheets:\n  site: theme.css\n")
		t.Chdir(dir)
		env, _, _ := newTestEnv(nil)

		cfg, err := loadConfig(&commonFlags{}, env)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Stylesheets.Site != "theme.css" {
			t.Errorf("Site = %q, want theme.css", cfg.Stylesheets.Site)
		}
	})

	t.Run("unknown env vars warn", func(t *testing.T) {
		env, _, stderr := newTestEnv(map[string]string{
			"TRANSCLUDE_CONFIG": writeFile(t, t.TempDir(), "c.yaml", "log:\n  level: info\n"),
			"TRANSCLUDE_TAG":    "x",
		})

		if _, err := loadConfig(&commonFlags{}, env); err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if stderr.Len() == 0 {
			t.Error("expected a warning for TRANSCLUDE_TAG")
		}
	})
}

// ---------------------------------------------------------------------------
// TestMergeSourceFlags - CLI flags override config
// ---------------------------------------------------------------------------

func TestMergeSourceFlags(t *testing.T) {
	t.Parallel()

	t.Run("set flags win", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Fetch.Timeout = time.Minute
		cfg.Renderer.Plugins = []string{"emoji"}

		f := &sourceFlags{
			baseURL:     "https://docs.example.com/",
			timeout:     5 * time.Second,
			tag:         "include",
			concurrency: 2,
			plugins:     []string{"footnote"},
			scripts:     []string{"mermaid=https://cdn.example.com/mermaid.js"},
			mathJax:     true,
			highlight:   true,
			markdownCSS: "md.css",
			siteCSS:     "site.css",
		}
		set := map[string]bool{
			"base-url": true, "timeout": true, "tag": true, "concurrency": true,
			"plugins": true, "markdown-css": true, "site-css": true,
		}

		if err := mergeSourceFlags(f, set, cfg); err != nil {
			t.Fatalf("mergeSourceFlags() error = %v", err)
		}

		if cfg.Fetch.BaseURL != f.baseURL || cfg.Fetch.Timeout != 5*time.Second {
			t.Errorf("Fetch = %+v", cfg.Fetch)
		}
		if cfg.Transclude.Tag != "include" || cfg.Transclude.Concurrency != 2 {
			t.Errorf("Transclude = %+v", cfg.Transclude)
		}
		if !slices.Equal(cfg.Renderer.Plugins, []string{"footnote"}) {
			t.Errorf("Plugins = %v", cfg.Renderer.Plugins)
		}
		want := []config.ScriptConfig{{Name: "mermaid", URL: "https://cdn.example.com/mermaid.js"}}
		if !slices.Equal(cfg.Renderer.Scripts, want) {
			t.Errorf("Scripts = %+v, want %+v", cfg.Renderer.Scripts, want)
		}
		if !cfg.Renderer.MathJax || !cfg.Renderer.Highlighting {
			t.Errorf("Renderer = %+v", cfg.Renderer)
		}
		if cfg.Stylesheets.MarkdownLocal != "md.css" || cfg.Stylesheets.Site != "site.css" {
			t.Errorf("Stylesheets = %+v", cfg.Stylesheets)
		}
	})

	t.Run("unset flags keep config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Fetch.Timeout = time.Minute

		if err := mergeSourceFlags(&sourceFlags{}, map[string]bool{}, cfg); err != nil {
			t.Fatalf("mergeSourceFlags() error = %v", err)
		}
		if cfg.Fetch.Timeout != time.Minute {
			t.Errorf("Timeout = %v, want config value", cfg.Fetch.Timeout)
		}
		if cfg.Renderer.Plugins != nil {
			t.Errorf("Plugins = %v, want nil (defaults)", cfg.Renderer.Plugins)
		}
	})

	t.Run("no-plugins clears the list", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		if err := mergeSourceFlags(&sourceFlags{noPlugins: true}, map[string]bool{}, cfg); err != nil {
			t.Fatalf("mergeSourceFlags() error = %v", err)
		}
		if cfg.Renderer.Plugins == nil || len(cfg.Renderer.Plugins) != 0 {
			t.Errorf("Plugins = %#v, want empty non-nil", cfg.Renderer.Plugins)
		}
	})

	t.Run("invalid script", func(t *testing.T) {
		t.Parallel()

		for _, s := range []string{"mermaid", "=https://x", "mermaid="} {
			err := mergeSourceFlags(&sourceFlags{scripts: []string{s}}, map[string]bool{}, config.DefaultConfig())
			if !errors.Is(err, ErrInvalidScript) {
				t.Errorf("script %q: error = %v, want ErrInvalidScript", s, err)
			}
		}
	})
}

// ---------------------------------------------------------------------------
// TestMergeCommonFlags - Logging flags
// ---------------------------------------------------------------------------

func TestMergeCommonFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		flags      commonFlags
		wantLevel  string
		wantFormat string
	}{
		{"none", commonFlags{}, "info", "text"},
		{"verbose", commonFlags{verbose: true}, "debug", "text"},
		{"quiet", commonFlags{quiet: true}, "error", "text"},
		{"verbose wins over quiet", commonFlags{verbose: true, quiet: true}, "debug", "text"},
		{"json", commonFlags{logFormat: "json"}, "info", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			mergeCommonFlags(&tt.flags, cfg)
			if cfg.Log.Level != tt.wantLevel || cfg.Log.Format != tt.wantFormat {
				t.Errorf("Log = %+v, want %s/%s", cfg.Log, tt.wantLevel, tt.wantFormat)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDependencies - Bootstrap list order
// ---------------------------------------------------------------------------

func TestDependencies(t *testing.T) {
	t.Parallel()

	names := func(list []transclude.Dependency) []string {
		out := make([]string, 0, len(list))
		for _, d := range list {
			out = append(out, string(d.Kind)+":"+d.Name)
		}
		return out
	}

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		got := names(dependencies(config.DefaultConfig()))
		want := names(transclude.DefaultDependencies())
		if !slices.Equal(got, want) {
			t.Errorf("dependencies() = %v, want %v", got, want)
		}
	})

	t.Run("configured plugins replace defaults", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Renderer.Plugins = []string{"emoji"}
		list := dependencies(cfg)

		if len(list) != 2 || list[0].Kind != transclude.KindRenderer {
			t.Fatalf("dependencies() = %v, want renderer then emoji", names(list))
		}
		if list[1].Kind != transclude.KindPlugin || list[1].Name != "emoji" {
			t.Errorf("second dependency = %+v, want emoji plugin", list[1])
		}
	})

	t.Run("scripts follow renderer and mathjax", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Renderer.Plugins = []string{}
		cfg.Renderer.MathJax = true
		cfg.Renderer.Scripts = []config.ScriptConfig{{Name: "mermaid", URL: "https://cdn.example.com/mermaid.js"}}
		list := dependencies(cfg)

		got := names(list)
		want := []string{
			string(transclude.KindRenderer) + ":" + list[0].Name,
			string(transclude.KindScript) + ":mathjax",
			string(transclude.KindScript) + ":mermaid",
		}
		if !slices.Equal(got, want) {
			t.Fatalf("dependencies() = %v, want %v", got, want)
		}
		if list[1].URL != transclude.MathJaxURL {
			t.Errorf("mathjax URL = %q, want %q", list[1].URL, transclude.MathJaxURL)
		}
	})
}

// ---------------------------------------------------------------------------
// TestTranscluderOptions - Options build a working transcluder
// ---------------------------------------------------------------------------

func TestTranscluderOptions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Stylesheets.Site = "theme.css"
	env, _, _ := newTestEnv(nil)

	tr, err := transclude.New(transcluderOptions(cfg, t.TempDir(), newLogger(cfg, env))...)
	if err != nil {
		t.Fatalf("transclude.New() error = %v", err)
	}
	defer tr.Close()
}
