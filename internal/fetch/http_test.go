package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newSourceServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/intro.md", func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "transclude-test" {
			w.Header().Set("X-Seen-UA", ua)
		}
		_, _ = w.Write([]byte("# Intro\n"))
	})
	mux.HandleFunc("/big.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	})
	mux.HandleFunc("/markdown.css", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("probe used %s, want HEAD", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Parallel()

	srv := newSourceServer(t)
	f := NewHTTPFetcher(WithUserAgent("transclude-test"))

	body, err := f.Fetch(context.Background(), srv.URL+"/intro.md")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "# Intro\n" {
		t.Errorf("body = %q", body)
	}
}

func TestHTTPFetcher_FetchStatus(t *testing.T) {
	t.Parallel()

	srv := newSourceServer(t)
	f := NewHTTPFetcher()

	tests := []struct {
		path   string
		status int
	}{
		{"/widget.html", http.StatusNotFound},
		{"/broken", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		_, err := f.Fetch(context.Background(), srv.URL+tt.path)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("Fetch(%s) error = %v, want *StatusError", tt.path, err)
		}
		if se.Status != tt.status {
			t.Errorf("Fetch(%s) status = %d, want %d", tt.path, se.Status, tt.status)
		}
	}
}

func TestHTTPFetcher_MaxBytes(t *testing.T) {
	t.Parallel()

	srv := newSourceServer(t)
	f := NewHTTPFetcher(WithMaxBytes(16))

	_, err := f.Fetch(context.Background(), srv.URL+"/big.html")
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}
}

func TestHTTPFetcher_Probe(t *testing.T) {
	t.Parallel()

	srv := newSourceServer(t)
	f := NewHTTPFetcher()

	ok, err := f.Probe(context.Background(), srv.URL+"/markdown.css")
	if err != nil || !ok {
		t.Errorf("Probe(markdown.css) = %v, %v; want true, nil", ok, err)
	}

	ok, err = f.Probe(context.Background(), srv.URL+"/style.css")
	if err != nil || ok {
		t.Errorf("Probe(style.css) = %v, %v; want false, nil", ok, err)
	}
}

func TestHTTPFetcher_RejectsRelative(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPFetcher().Fetch(context.Background(), "intro.md")
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("error = %v, want ErrUnsupportedScheme", err)
	}
}

func TestHTTPFetcher_Canceled(t *testing.T) {
	t.Parallel()

	srv := newSourceServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPFetcher().Fetch(ctx, srv.URL+"/intro.md")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
