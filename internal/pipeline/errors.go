package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for placeholder resolution.
var (
	ErrCircularReference = errors.New("circular or duplicate reference")
	ErrFetch             = errors.New("fetch failed")
	ErrRender            = errors.New("render failed")
	ErrFetcherPanic      = errors.New("fetcher panicked")
)

// CircularReferenceError reports a src already claimed in the same pass.
type CircularReferenceError struct {
	Src string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCircularReference, e.Src)
}

// Is matches ErrCircularReference.
func (e *CircularReferenceError) Is(target error) bool {
	return target == ErrCircularReference
}

// FetchError reports a source that could not be retrieved. Status is the
// response status when the server answered, zero otherwise.
type FetchError struct {
	Src    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%v: %s: status %d", ErrFetch, e.Src, e.Status)
	}
	return fmt.Sprintf("%v: %s: %v", ErrFetch, e.Src, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches ErrFetch in addition to the wrapped cause.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// RenderError reports fetched content that could not be turned into nodes.
type RenderError struct {
	Src string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrRender, e.Src, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Is matches ErrRender in addition to the wrapped cause.
func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}
