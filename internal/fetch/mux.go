package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Mux routes http(s) references to Remote and scheme-less references to Local.
// Either side may be nil, in which case its references are rejected with
// ErrUnsupportedScheme.
type Mux struct {
	Remote Fetcher
	Local  Fetcher
}

// Fetch dispatches to the fetcher that handles ref.
func (m *Mux) Fetch(ctx context.Context, ref string) ([]byte, error) {
	f, target, err := m.route(ref)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, target)
}

// Probe dispatches to the fetcher that handles ref.
func (m *Mux) Probe(ctx context.Context, ref string) (bool, error) {
	f, target, err := m.route(ref)
	if err != nil {
		return false, err
	}
	return f.Probe(ctx, target)
}

// route picks a fetcher. Protocol-relative references ("//cdn/x.js") go
// remote over https.
func (m *Mux) route(ref string) (Fetcher, string, error) {
	ref = strings.TrimSpace(ref)
	u, err := url.Parse(ref)
	if err != nil {
		return nil, "", fmt.Errorf("parsing %q: %w", ref, err)
	}

	switch {
	case isRemote(u):
		if m.Remote != nil {
			return m.Remote, ref, nil
		}
	case u.Scheme == "" && u.Host != "":
		if m.Remote != nil {
			return m.Remote, "https:" + ref, nil
		}
	case u.Scheme == "":
		if m.Local != nil {
			return m.Local, ref, nil
		}
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, ref)
}

// Compile-time interface check.
var _ Fetcher = (*Mux)(nil)
