// Package fetch retrieves transclusion sources and probes for stylesheets.
//
// A Fetcher performs two operations: Fetch (GET the raw body) and Probe
// (HEAD existence check). Implementations cover HTTP(S), a local directory
// confined with os.Root, a scheme-routing Mux combining both, and a TTL
// cache used by the long-running server.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultMaxBytes caps a single fetched body (8MB).
const DefaultMaxBytes int64 = 8 << 20

// Sentinel errors for fetch operations.
var (
	ErrStatus            = errors.New("unexpected response status")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrTooLarge          = errors.New("response body exceeds maximum size")
)

// Fetcher retrieves sources by reference.
// References are URLs: absolute (https://...) or slash paths (docs/intro.md).
type Fetcher interface {
	// Fetch returns the body of ref. A non-success status is a *StatusError.
	Fetch(ctx context.Context, ref string) ([]byte, error)

	// Probe reports whether ref exists. Any non-success status means false
	// with a nil error; transport failures return an error.
	Probe(ctx context.Context, ref string) (bool, error)
}

// StatusError reports a non-success response (or a missing local file,
// reported as 404 so both fetchers read the same).
type StatusError struct {
	Ref    string
	Status int
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.Status)
	if text == "" {
		return fmt.Sprintf("%s: status %d", e.Ref, e.Status)
	}
	return fmt.Sprintf("%s: status %d %s", e.Ref, e.Status, text)
}

// Is makes errors.Is(err, ErrStatus) match any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Resolve resolves ref against the location of the document that references
// it, the way a browser resolves a relative fetch. An empty location, or
// either side failing to parse, returns ref trimmed but otherwise unchanged.
//
// Relative locations resolve to rooted slash paths: ("docs/index.html",
// "intro.md") gives "/docs/intro.md".
func Resolve(location, ref string) string {
	ref = strings.TrimSpace(ref)
	if location == "" {
		return ref
	}
	base, err := url.Parse(location)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

// isRemote reports whether u names an HTTP(S) resource.
func isRemote(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

// isSuccess reports whether status is 2xx.
func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
