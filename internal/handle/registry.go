// Package handle provides a registry that maps opaque numeric tokens to live
// object references. Engine callbacks carry such a token instead of a direct
// reference, so a callback that fires after its owner has been released
// resolves to "not found" rather than touching a dead object.
package handle

import "sync"

// Token identifies a registered object. The zero Token is never issued and
// always resolves to not-found.
type Token uint64

// Registry is a concurrency-safe table of Token → T entries. Tokens are
// issued once and never reused within the lifetime of a Registry.
type Registry[T any] struct {
	mu      sync.RWMutex
	next    Token
	entries map[Token]T
}

// NewRegistry returns an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[Token]T)}
}

// Register stores v and returns its freshly issued Token.
func (r *Registry[T]) Register(v T) Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	tok := r.next
	r.entries[tok] = v
	return tok
}

// Resolve returns the object registered under tok. The second return value
// is false when tok was never issued or has been released.
func (r *Registry[T]) Resolve(tok Token) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[tok]
	return v, ok
}

// Release removes tok from the registry. Releasing an unknown or already
// released token is a no-op; the return value reports whether an entry was
// removed.
func (r *Registry[T]) Release(tok Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[tok]
	delete(r.entries, tok)
	return ok
}

// Len returns the number of live entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
