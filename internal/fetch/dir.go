package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
)

// DirFetcher reads sources from a local directory. All access goes through
// os.Root, so references can never escape the directory.
type DirFetcher struct {
	root     *os.Root
	maxBytes int64
}

// NewDirFetcher opens dir as the root for relative references.
func NewDirFetcher(dir string) (*DirFetcher, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("opening source root %s: %w", dir, err)
	}
	return &DirFetcher{root: root, maxBytes: DefaultMaxBytes}, nil
}

// Close releases the directory handle.
func (d *DirFetcher) Close() error {
	return d.root.Close()
}

// Fetch reads the file named by ref.
// Query and fragment are ignored; a missing file is a 404 StatusError.
func (d *DirFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := localName(ref)
	if err != nil {
		return nil, err
	}

	f, err := d.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &StatusError{Ref: ref, Status: http.StatusNotFound}
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &StatusError{Ref: ref, Status: http.StatusNotFound}
	}

	body, err := io.ReadAll(io.LimitReader(f, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ref, err)
	}
	if int64(len(body)) > d.maxBytes {
		return nil, fmt.Errorf("%w: %s (max %d bytes)", ErrTooLarge, ref, d.maxBytes)
	}
	return body, nil
}

// Probe reports whether ref names a regular file under the root.
func (d *DirFetcher) Probe(ctx context.Context, ref string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	name, err := localName(ref)
	if err != nil {
		return false, err
	}

	info, err := d.root.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// localName converts a reference into a root-relative file name.
// "/docs/intro.md?v=2" and "docs/intro.md" both map to "docs/intro.md".
func localName(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", ref, err)
	}
	if u.Scheme != "" || u.Host != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, ref)
	}

	name := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if name == "" {
		return ".", nil
	}
	return name, nil
}

// Compile-time interface check.
var _ Fetcher = (*DirFetcher)(nil)
