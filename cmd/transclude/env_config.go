package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-transclude/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // TRANSCLUDE_CONFIG: config file path
	BaseURL    string        // TRANSCLUDE_BASE_URL: fetch relative sources over HTTP
	Timeout    time.Duration // TRANSCLUDE_TIMEOUT: per-request fetch timeout
	OutputDir  string        // TRANSCLUDE_OUTPUT_DIR: build output directory
	Workers    int           // TRANSCLUDE_WORKERS: parallel pages
	Addr       string        // TRANSCLUDE_ADDR: serve listen address
	LogLevel   string        // TRANSCLUDE_LOG_LEVEL: debug, info, warn, error
	LogFormat  string        // TRANSCLUDE_LOG_FORMAT: text, json
}

// envPrefix namespaces the variables read by loadEnvConfig.
const envPrefix = "TRANSCLUDE_"

// knownEnvVars lists valid TRANSCLUDE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"TRANSCLUDE_CONFIG":     true,
	"TRANSCLUDE_BASE_URL":   true,
	"TRANSCLUDE_TIMEOUT":    true,
	"TRANSCLUDE_OUTPUT_DIR": true,
	"TRANSCLUDE_WORKERS":    true,
	"TRANSCLUDE_ADDR":       true,
	"TRANSCLUDE_LOG_LEVEL":  true,
	"TRANSCLUDE_LOG_FORMAT": true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("TRANSCLUDE_CONFIG"),
		BaseURL:    getenv("TRANSCLUDE_BASE_URL"),
		OutputDir:  getenv("TRANSCLUDE_OUTPUT_DIR"),
		Addr:       getenv("TRANSCLUDE_ADDR"),
		LogLevel:   getenv("TRANSCLUDE_LOG_LEVEL"),
		LogFormat:  getenv("TRANSCLUDE_LOG_FORMAT"),
	}

	if timeout := getenv("TRANSCLUDE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("TRANSCLUDE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars warns about unrecognized TRANSCLUDE_* variables.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, envPrefix) {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment values the config file left unset.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.BaseURL != "" && cfg.Fetch.BaseURL == "" {
		cfg.Fetch.BaseURL = env.BaseURL
	}
	if env.Timeout > 0 && cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = env.Timeout
	}
	if env.OutputDir != "" && cfg.Build.Output == "" {
		cfg.Build.Output = env.OutputDir
	}
	if env.Workers > 0 && cfg.Build.Workers == 0 {
		cfg.Build.Workers = env.Workers
	}

	defaults := config.DefaultConfig()
	if env.Addr != "" && cfg.Serve.Addr == defaults.Serve.Addr {
		cfg.Serve.Addr = env.Addr
	}
	if env.LogLevel != "" && cfg.Log.Level == defaults.Log.Level {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" && cfg.Log.Format == defaults.Log.Format {
		cfg.Log.Format = env.LogFormat
	}
}
