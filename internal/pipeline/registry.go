package pipeline

import "sync"

// Registry records the sources claimed during one transclusion pass.
// Claims are keyed on the literal src value and are never released.
type Registry struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{claimed: make(map[string]struct{})}
}

// Claim records src and reports whether it was not claimed before.
func (r *Registry) Claim(src string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimed == nil {
		r.claimed = make(map[string]struct{})
	}
	if _, dup := r.claimed[src]; dup {
		return false
	}
	r.claimed[src] = struct{}{}
	return true
}

// Claimed reports whether src has been claimed.
func (r *Registry) Claimed(src string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.claimed[src]
	return ok
}

// Len returns the number of claimed sources.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.claimed)
}
