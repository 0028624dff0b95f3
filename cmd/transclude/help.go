package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: transclude <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build      Replace <import> placeholders in HTML files")
	fmt.Fprintln(w, "  serve      Serve a directory, transcluding pages per request")
	fmt.Fprintln(w, "  copytext   Print the copy text of an HTML selection read from stdin")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'transclude help <command>' for details on a specific command.")
}

// printSourceUsage prints the flags shared by build and serve.
func printSourceUsage(w io.Writer) {
	fmt.Fprintln(w, "Sources:")
	fmt.Fprintln(w, "      --base-url <url>      Fetch relative sources over HTTP")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-request fetch timeout (e.g., 10s)")
	fmt.Fprintln(w, "      --tag <name>          Placeholder element name (default: import)")
	fmt.Fprintln(w, "      --concurrency <n>     Max in-flight sources per page (0 = unbounded)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Markdown:")
	fmt.Fprintln(w, "      --plugins <list>      Plugins: footnote,tasklist,emoji,deflist")
	fmt.Fprintln(w, "      --no-plugins          Disable all plugins")
	fmt.Fprintln(w, "      --script <name=url>   Extra script loaded before placeholders (repeatable)")
	fmt.Fprintln(w, "      --mathjax             Load MathJax")
	fmt.Fprintln(w, "      --highlight           Syntax highlighting for fenced code")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Stylesheets:")
	fmt.Fprintln(w, "      --markdown-css <href> Local markdown stylesheet (default: markdown.css)")
	fmt.Fprintln(w, "      --site-css <href>     Site stylesheet (default: style.css)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
	fmt.Fprintln(w, "      --log-format <s>      Log format: text, json")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: transclude build <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Replace <import src> placeholders in HTML files and write the results.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    HTML file or directory; relative sources resolve inside it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "                            (default: NAME.out.html next to each input)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel pages (0 = auto)")
	fmt.Fprintln(w, "      --pdf                 Also export each page to PDF (requires Chrome)")
	fmt.Fprintln(w, "      --watch               Rebuild when inputs change")
	fmt.Fprintln(w)
	printSourceUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: transclude serve [dir] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve dir (default: .), transcluding HTML pages on each request.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve:")
	fmt.Fprintln(w, "  -a, --addr <addr>         Listen address (default: :8080)")
	fmt.Fprintln(w, "      --cache-ttl <d>       Cache fetched sources (0 = no cache)")
	fmt.Fprintln(w)
	printSourceUsage(w)
}

// printCopyTextUsage prints usage for the copytext command.
func printCopyTextUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: transclude copytext < selection.html")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read an HTML selection from stdin and print its copy text.")
	fmt.Fprintln(w, "Elements with a copy attribute contribute the attribute value")
	fmt.Fprintln(w, "instead of their content. Exits with status 1 and prints nothing")
	fmt.Fprintln(w, "when no element in the selection has a copy attribute.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "copytext":
		printCopyTextUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: transclude version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: transclude help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
