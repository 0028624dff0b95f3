package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/alnah/go-transclude"
	"github.com/alnah/go-transclude/internal/config"
	"github.com/alnah/go-transclude/internal/fileutil"
	"github.com/alnah/go-transclude/internal/logging"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// failedHeader reports how many placeholders of a page did not load.
const failedHeader = "X-Transclude-Failed"

// runServe orchestrates the serve command.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(&flags.common, env)
	if err != nil {
		return err
	}
	if err := mergeServeFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := "."
	switch len(positional) {
	case 0:
	case 1:
		dir = positional[0]
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedArgs, strings.Join(positional[1:], " "))
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("opening site directory: %w", err)
	}
	defer root.Close()

	logger := newLogger(cfg, env)
	opts := transcluderOptions(cfg, dir, logger)
	if cfg.Fetch.CacheTTL > 0 {
		opts = append(opts, transclude.WithCacheTTL(cfg.Fetch.CacheTTL))
	}
	tr, err := transclude.New(opts...)
	if err != nil {
		return err
	}
	defer tr.Close()

	if cfg.Fetch.CacheTTL > 0 {
		stop, err := flushOnChange(ctx, dir, tr, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           newPageServer(root, tr, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	fmt.Fprintf(env.Stderr, "Serving %s on %s (Ctrl+C to stop)\n", dir, cfg.Serve.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// mergeServeFlags applies explicitly set flags to cfg (CLI wins).
func mergeServeFlags(f *serveFlags, cfg *config.Config) error {
	mergeCommonFlags(&f.common, cfg)
	if err := mergeSourceFlags(&f.source, f.set, cfg); err != nil {
		return err
	}
	if f.set["addr"] {
		cfg.Serve.Addr = f.addr
	}
	if f.set["cache-ttl"] {
		cfg.Fetch.CacheTTL = f.cacheTTL
	}
	return nil
}

// flushOnChange drops cached sources whenever files under dir change.
func flushOnChange(ctx context.Context, dir string, tr *transclude.Transcluder, logger *slog.Logger) (func(), error) {
	w, err := newTreeWatcher(dir, defaultDebounce, nil)
	if err != nil {
		return nil, err
	}
	changes, err := w.Start()
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-w.Errors():
				logger.Warn("watch error", "error", err)
			case _, ok := <-changes:
				if !ok {
					return
				}
				tr.FlushCache()
				logger.Debug("source cache flushed")
			}
		}
	}()
	return func() { _ = w.Stop() }, nil
}

// pageServer serves a directory, running HTML pages through a Processor.
type pageServer struct {
	root   *os.Root
	tr     Processor
	files  http.Handler
	logger *slog.Logger
}

func newPageServer(root *os.Root, tr Processor, logger *slog.Logger) *pageServer {
	return &pageServer{
		root:   root,
		tr:     tr,
		files:  http.FileServerFS(root.FS()),
		logger: logger,
	}
}

// ServeHTTP implements http.Handler.
func (s *pageServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		logging.HTTPRequest(s.logger, r.Method, r.URL.Path, rec.status, time.Since(start))
	}()

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		rec.Header().Set("Allow", "GET, HEAD")
		http.Error(rec, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name, redirect := s.pageName(r.URL.Path)
	if redirect {
		http.Redirect(rec, r, r.URL.Path+"/", http.StatusMovedPermanently)
		return
	}
	if name == "" {
		s.files.ServeHTTP(rec, r)
		return
	}

	s.servePage(rec, r, name)
}

// pageName maps a URL path to the HTML file to transclude, or "" when the
// request is for anything else. redirect is true for directories requested
// without a trailing slash.
func (s *pageServer) pageName(urlPath string) (name string, redirect bool) {
	name = strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}

	info, err := s.root.Stat(name)
	if err == nil && info.IsDir() {
		if !strings.HasSuffix(urlPath, "/") {
			return "", true
		}
		name = path.Join(name, "index.html")
		if _, err := s.root.Stat(name); err != nil {
			return "", false
		}
	}

	if !fileutil.IsHTMLFile(name) {
		return "", false
	}
	return name, false
}

func (s *pageServer) servePage(w http.ResponseWriter, r *http.Request, name string) {
	data, err := s.root.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "cannot read page", http.StatusInternalServerError)
		return
	}

	res, err := s.tr.Process(r.Context(), transclude.Input{HTML: string(data), Location: "/" + name})
	if err != nil {
		s.logger.Error("page failed", "page", name, "error", err)
		status := http.StatusInternalServerError
		if transclude.IsBootstrapError(err) {
			status = http.StatusBadGateway
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	etag := pageETag(res.HTML)
	h := w.Header()
	h.Set("ETag", etag)
	h.Set("Cache-Control", "no-cache")
	if n := len(res.Failed()); n > 0 {
		h.Set(failedHeader, strconv.Itoa(n))
	}
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(res.HTML)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(res.HTML))
	}
}

// pageETag returns a strong ETag: the first 16 bytes of the BLAKE3 digest.
func pageETag(body string) string {
	sum := blake3.Sum256([]byte(body))
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// etagMatch reports whether an If-None-Match header matches etag.
func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
