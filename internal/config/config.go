package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-transclude/internal/fileutil"
	"github.com/alnah/go-transclude/internal/logging"
	"github.com/alnah/go-transclude/internal/markup"
	"github.com/alnah/go-transclude/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxTagLength  = 64
	MaxURLLength  = 2048 // Browser limit
	MaxPathLength = 4096
	MaxNameLength = 100
	MaxAddrLength = 255
)

// appDir is the directory under the user config dir searched for names.
const appDir = "go-transclude"

// tagPattern matches valid custom element names.
var tagPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// Config holds all configuration for transclusion, builds and serving.
type Config struct {
	Transclude  TranscludeConfig  `yaml:"transclude"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Renderer    RendererConfig    `yaml:"renderer"`
	Stylesheets StylesheetsConfig `yaml:"stylesheets"`
	Build       BuildConfig       `yaml:"build"`
	Serve       ServeConfig       `yaml:"serve"`
	Log         LogConfig         `yaml:"log"`
}

// TranscludeConfig defines placeholder handling.
type TranscludeConfig struct {
	Tag         string `yaml:"tag"`         // Placeholder element name (default: "import")
	Concurrency int    `yaml:"concurrency"` // Max in-flight resolutions per page (0 = unbounded)
}

// FetchConfig defines how sources are retrieved.
type FetchConfig struct {
	BaseURL   string        `yaml:"baseURL"`   // Fetch relative sources over HTTP from here (empty = local files)
	Timeout   time.Duration `yaml:"timeout"`   // Per-request HTTP timeout (0 = none)
	CacheTTL  time.Duration `yaml:"cacheTTL"`  // serve only: cache fetched sources (0 = no cache)
	MaxBytes  int64         `yaml:"maxBytes"`  // Response body limit (0 = default)
	UserAgent string        `yaml:"userAgent"` // Optional User-Agent header
}

// RendererConfig defines the Markdown renderer and extra scripts.
type RendererConfig struct {
	Plugins      []string       `yaml:"plugins"`      // nil = default set, [] = none
	Scripts      []ScriptConfig `yaml:"scripts"`      // Loaded after the renderer, in order
	MathJax      bool           `yaml:"mathjax"`      // Append the MathJax script
	Highlighting bool           `yaml:"highlighting"` // Syntax highlighting for fenced code
}

// ScriptConfig is one external script dependency.
type ScriptConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// StylesheetsConfig defines stylesheet hrefs (empty = defaults).
type StylesheetsConfig struct {
	MarkdownLocal    string `yaml:"markdownLocal"`
	MarkdownFallback string `yaml:"markdownFallback"`
	Site             string `yaml:"site"`
}

// BuildConfig defines the build command.
type BuildConfig struct {
	Output  string `yaml:"output"`  // Output directory (empty = alongside inputs with .out.html)
	Workers int    `yaml:"workers"` // Parallel pages (0 = GOMAXPROCS)
	PDF     bool   `yaml:"pdf"`     // Also export each page to PDF
}

// ServeConfig defines the serve command.
type ServeConfig struct {
	Addr string `yaml:"addr"` // Listen address (default: ":8080")
}

// LogConfig defines logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Validate checks values and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if c.Transclude.Tag != "" {
		if err := validateFieldLength("transclude.tag", c.Transclude.Tag, MaxTagLength); err != nil {
			return err
		}
		if !tagPattern.MatchString(c.Transclude.Tag) {
			return fmt.Errorf("%w: transclude.tag: %q is not an element name", ErrInvalidValue, c.Transclude.Tag)
		}
	}
	if c.Transclude.Concurrency < 0 {
		return fmt.Errorf("%w: transclude.concurrency: must be >= 0, got %d", ErrInvalidValue, c.Transclude.Concurrency)
	}

	if err := validateHTTPURL("fetch.baseURL", c.Fetch.BaseURL); err != nil {
		return err
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("%w: fetch.timeout: must be >= 0, got %s", ErrInvalidValue, c.Fetch.Timeout)
	}
	if c.Fetch.CacheTTL < 0 {
		return fmt.Errorf("%w: fetch.cacheTTL: must be >= 0, got %s", ErrInvalidValue, c.Fetch.CacheTTL)
	}
	if c.Fetch.MaxBytes < 0 {
		return fmt.Errorf("%w: fetch.maxBytes: must be >= 0, got %d", ErrInvalidValue, c.Fetch.MaxBytes)
	}
	if err := validateFieldLength("fetch.userAgent", c.Fetch.UserAgent, MaxNameLength); err != nil {
		return err
	}

	known := markup.BuiltinNames()
	seen := make(map[string]bool, len(c.Renderer.Plugins))
	for i, name := range c.Renderer.Plugins {
		field := fmt.Sprintf("renderer.plugins[%d]", i)
		if !slices.Contains(known, name) {
			return fmt.Errorf("%w: %s: unknown plugin %q (available: %s)",
				ErrInvalidValue, field, name, strings.Join(known, ", "))
		}
		if seen[name] {
			return fmt.Errorf("%w: %s: duplicate plugin %q", ErrInvalidValue, field, name)
		}
		seen[name] = true
	}
	for i, s := range c.Renderer.Scripts {
		field := fmt.Sprintf("renderer.scripts[%d]", i)
		if err := validateFieldLength(field+".name", s.Name, MaxNameLength); err != nil {
			return err
		}
		if s.URL == "" {
			return fmt.Errorf("%w: %s.url: required", ErrInvalidValue, field)
		}
		if err := validateFieldLength(field+".url", s.URL, MaxURLLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("stylesheets.markdownLocal", c.Stylesheets.MarkdownLocal, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("stylesheets.markdownFallback", c.Stylesheets.MarkdownFallback, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("stylesheets.site", c.Stylesheets.Site, MaxURLLength); err != nil {
		return err
	}

	if err := validateFieldLength("build.output", c.Build.Output, MaxPathLength); err != nil {
		return err
	}
	if c.Build.Workers < 0 {
		return fmt.Errorf("%w: build.workers: must be >= 0, got %d", ErrInvalidValue, c.Build.Workers)
	}

	if err := validateFieldLength("serve.addr", c.Serve.Addr, MaxAddrLength); err != nil {
		return err
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidValue, err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: log.format: %v", ErrInvalidValue, err)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateHTTPURL accepts an empty value or an absolute http(s) URL.
func validateHTTPURL(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if err := validateFieldLength(fieldName, value, MaxURLLength); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s: %q must be an absolute http(s) URL", ErrInvalidValue, fieldName, value)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Transclude: TranscludeConfig{Tag: "import"},
		Serve:      ServeConfig{Addr: ":8080"},
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the files tried for a config name, in order:
// NAME.yaml and NAME.yml in the current directory, then in the user config
// dir under go-transclude/.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, appDir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
