package deps

import (
	"errors"
	"fmt"
)

// Sentinel errors for dependency loading.
var (
	ErrResourceLoad      = errors.New("resource load failed")
	ErrMissingRenderer   = errors.New("plugin loaded before renderer")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrMissingURL        = errors.New("dependency has no url")
	ErrNilHead           = errors.New("document has no head element")
)

// ResourceLoadError reports a dependency that could not be loaded.
type ResourceLoadError struct {
	Name string
	URL  string
	Err  error
}

func (e *ResourceLoadError) Error() string {
	subject := e.URL
	switch {
	case e.Name != "" && e.URL != "":
		subject = fmt.Sprintf("%s (%s)", e.Name, e.URL)
	case e.Name != "":
		subject = e.Name
	}
	return fmt.Sprintf("%v: %s: %v", ErrResourceLoad, subject, e.Err)
}

func (e *ResourceLoadError) Unwrap() error { return e.Err }

// Is matches ErrResourceLoad in addition to the wrapped cause.
func (e *ResourceLoadError) Is(target error) bool {
	return target == ErrResourceLoad
}
