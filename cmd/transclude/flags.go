package main

import (
	"time"

	flag "github.com/spf13/pflag"
)

// defaultConfigName is searched for when --config is not given and the file
// exists; a missing default config is not an error.
const defaultConfigName = "transclude"

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
}

// sourceFlags holds flags controlling how placeholders are resolved.
type sourceFlags struct {
	baseURL     string
	timeout     time.Duration
	tag         string
	concurrency int
	plugins     []string
	noPlugins   bool
	scripts     []string // name=url
	mathJax     bool
	highlight   bool
	markdownCSS string
	siteCSS     string
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common  commonFlags
	source  sourceFlags
	output  string
	workers int
	pdf     bool
	watch   bool

	// set records which flags were given explicitly.
	set map[string]bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common   commonFlags
	source   sourceFlags
	addr     string
	cacheTTL time.Duration

	set map[string]bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
}

// addSourceFlags adds placeholder resolution flags to a FlagSet.
func addSourceFlags(fs *flag.FlagSet, f *sourceFlags) {
	fs.StringVar(&f.baseURL, "base-url", "", "fetch relative sources over HTTP from this URL")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "per-request fetch timeout (e.g., 10s)")
	fs.StringVar(&f.tag, "tag", "", "placeholder element name (default: import)")
	fs.IntVar(&f.concurrency, "concurrency", 0, "max in-flight sources per page (0 = unbounded)")
	fs.StringSliceVar(&f.plugins, "plugins", nil, "markdown plugins: footnote,tasklist,emoji,deflist")
	fs.BoolVar(&f.noPlugins, "no-plugins", false, "disable all markdown plugins")
	fs.StringArrayVar(&f.scripts, "script", nil, "extra script as name=url (repeatable)")
	fs.BoolVar(&f.mathJax, "mathjax", false, "load MathJax after the renderer")
	fs.BoolVar(&f.highlight, "highlight", false, "syntax highlighting for fenced code")
	fs.StringVar(&f.markdownCSS, "markdown-css", "", "local markdown stylesheet href")
	fs.StringVar(&f.siteCSS, "site-css", "", "site stylesheet href")
}

// changedFlags returns the names of flags set on the command line.
func changedFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string, env *Environment) (*buildFlags, []string, error) {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	f := &buildFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel pages (0 = auto)")
	fs.BoolVar(&f.pdf, "pdf", false, "also export each page to PDF")
	fs.BoolVar(&f.watch, "watch", false, "rebuild when inputs change")

	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)

	fs.Usage = func() { printBuildUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.set = changedFlags(fs)
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, env *Environment) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	f := &serveFlags{}

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default: :8080)")
	fs.DurationVar(&f.cacheTTL, "cache-ttl", 0, "cache fetched sources for this long (0 = no cache)")

	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)

	fs.Usage = func() { printServeUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.set = changedFlags(fs)
	return f, fs.Args(), nil
}
