package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alnah/go-transclude"
	"github.com/alnah/go-transclude/internal/config"
	"github.com/alnah/go-transclude/internal/logging"
)

// Sentinel errors for argument handling.
var (
	ErrUnexpectedArgs = errors.New("unexpected arguments")
	ErrInvalidScript  = errors.New("script must be name=url")
)

// loadConfig resolves configuration with precedence
// CLI flags > env vars > config file > defaults. Without --config or
// TRANSCLUDE_CONFIG, a "transclude.yaml" found in the standard locations is
// used when present.
func loadConfig(common *commonFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	var cfg *config.Config
	var err error
	switch {
	case name != "":
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	default:
		cfg, err = config.LoadConfig(defaultConfigName)
		if errors.Is(err, config.ErrConfigNotFound) {
			cfg, err = config.DefaultConfig(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, nil
}

// mergeSourceFlags applies explicitly set source flags to cfg (CLI wins).
func mergeSourceFlags(f *sourceFlags, set map[string]bool, cfg *config.Config) error {
	if set["base-url"] {
		cfg.Fetch.BaseURL = f.baseURL
	}
	if set["timeout"] {
		cfg.Fetch.Timeout = f.timeout
	}
	if set["tag"] {
		cfg.Transclude.Tag = f.tag
	}
	if set["concurrency"] {
		cfg.Transclude.Concurrency = f.concurrency
	}
	if set["plugins"] {
		cfg.Renderer.Plugins = f.plugins
	}
	if f.noPlugins {
		cfg.Renderer.Plugins = []string{}
	}
	for _, s := range f.scripts {
		name, url, ok := strings.Cut(s, "=")
		if !ok || name == "" || url == "" {
			return fmt.Errorf("%w: %q", ErrInvalidScript, s)
		}
		cfg.Renderer.Scripts = append(cfg.Renderer.Scripts, config.ScriptConfig{Name: name, URL: url})
	}
	if f.mathJax {
		cfg.Renderer.MathJax = true
	}
	if f.highlight {
		cfg.Renderer.Highlighting = true
	}
	if set["markdown-css"] {
		cfg.Stylesheets.MarkdownLocal = f.markdownCSS
	}
	if set["site-css"] {
		cfg.Stylesheets.Site = f.siteCSS
	}
	return nil
}

// mergeCommonFlags applies logging flags to cfg.
func mergeCommonFlags(f *commonFlags, cfg *config.Config) {
	switch {
	case f.verbose:
		cfg.Log.Level = "debug"
	case f.quiet:
		cfg.Log.Level = "error"
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
}

// newLogger builds the logger for cfg, writing to env.Stderr.
// cfg must have been validated.
func newLogger(cfg *config.Config, env *Environment) *slog.Logger {
	level, _ := logging.ParseLevel(cfg.Log.Level)
	format, _ := logging.ParseFormat(cfg.Log.Format)
	return logging.New(env.Stderr, level, format)
}

// transcluderOptions maps cfg onto library options. root is the directory
// relative sources are read from when no base URL is configured.
func transcluderOptions(cfg *config.Config, root string, logger *slog.Logger) []transclude.Option {
	opts := []transclude.Option{
		transclude.WithLogger(logger),
		transclude.WithTagName(cfg.Transclude.Tag),
		transclude.WithConcurrency(cfg.Transclude.Concurrency),
		transclude.WithHighlighting(cfg.Renderer.Highlighting),
		transclude.WithMaxBytes(cfg.Fetch.MaxBytes),
		transclude.WithUserAgent(cfg.Fetch.UserAgent),
	}

	if cfg.Fetch.BaseURL != "" {
		opts = append(opts, transclude.WithBaseURL(cfg.Fetch.BaseURL))
	} else {
		opts = append(opts, transclude.WithRoot(root))
	}
	if cfg.Fetch.Timeout > 0 {
		opts = append(opts, transclude.WithTimeout(cfg.Fetch.Timeout))
	}

	if cfg.Stylesheets.MarkdownLocal != "" {
		opts = append(opts, transclude.WithMarkdownStylesheet(cfg.Stylesheets.MarkdownLocal))
	}
	if cfg.Stylesheets.MarkdownFallback != "" {
		opts = append(opts, transclude.WithMarkdownFallbackURL(cfg.Stylesheets.MarkdownFallback))
	}
	if cfg.Stylesheets.Site != "" {
		opts = append(opts, transclude.WithSiteStylesheet(cfg.Stylesheets.Site))
	}

	opts = append(opts, transclude.WithDependencies(dependencies(cfg)...))
	return opts
}

// dependencies builds the bootstrap list: renderer, plugins, then scripts.
// A nil plugin list keeps the default plugins.
func dependencies(cfg *config.Config) []transclude.Dependency {
	var list []transclude.Dependency
	for _, d := range transclude.DefaultDependencies() {
		if d.Kind == transclude.KindRenderer || cfg.Renderer.Plugins == nil {
			list = append(list, d)
		}
	}
	for _, name := range cfg.Renderer.Plugins {
		list = append(list, transclude.Dependency{Kind: transclude.KindPlugin, Name: name})
	}
	if cfg.Renderer.MathJax {
		list = append(list, transclude.Script("mathjax", transclude.MathJaxURL))
	}
	for _, s := range cfg.Renderer.Scripts {
		list = append(list, transclude.Script(s.Name, s.URL))
	}
	return list
}
