// Package registry implements the URI-scheme-to-factory lookup shared by
// sioba's interface and buffer subsystems. Python's @register_interface
// class decorator runs once at import time and panics (raises KeyError) on
// a duplicate scheme; the Go equivalent runs once at init() time from each
// endpoint/buffer package, so Register here likewise treats a duplicate
// scheme as a programming error the caller should panic on, not a runtime
// condition to recover from.
package registry

import (
	"net/url"
	"strings"
	"sync"

	sioctx "sioba/context"
	sioerr "sioba/errors"
)

// Factory builds a T from a raw URI plus caller overrides; it is
// responsible for calling context.FromURI itself with whatever
// scheme-specific defaults it needs.
type Factory[T any] func(uri string, overrides ...sioctx.Option) (T, error)

// Registry maps lowercased URI schemes to factories producing a T. It is
// generic so the interface registry and the buffer registry can share one
// implementation without either depending on the other's types.
type Registry[T any] struct {
	mu       sync.RWMutex
	label    string
	handlers map[string]Factory[T]
}

// New returns an empty Registry. label is used only in error messages (e.g.
// "interface", "buffer").
func New[T any](label string) *Registry[T] {
	return &Registry[T]{
		label:    label,
		handlers: map[string]Factory[T]{},
	}
}

// Register binds factory to every scheme given, lowercased. It returns
// ErrDuplicateScheme if any scheme is already bound.
func (r *Registry[T]) Register(factory Factory[T], schemes ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range schemes {
		lower := strings.ToLower(s)
		if _, exists := r.handlers[lower]; exists {
			return sioerr.New("Register", sioerr.DuplicateScheme, r.label+" scheme "+lower+" is already registered")
		}
	}
	for _, s := range schemes {
		r.handlers[strings.ToLower(s)] = factory
	}
	return nil
}

// MustRegister calls Register and panics on error, mirroring the Python
// decorator's behavior of failing at import time.
func (r *Registry[T]) MustRegister(factory Factory[T], schemes ...string) {
	if err := r.Register(factory, schemes...); err != nil {
		panic(err)
	}
}

// Schemes lists every registered scheme, sorted is not guaranteed.
func (r *Registry[T]) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for s := range r.handlers {
		out = append(out, s)
	}
	return out
}

// FromURI parses the scheme out of uri, looks up its factory, and invokes
// it with the full uri and overrides. Returns ErrUnknownScheme if no
// factory is bound.
func (r *Registry[T]) FromURI(uri string, overrides ...sioctx.Option) (T, error) {
	var zero T
	parsed, err := url.Parse(uri)
	if err != nil {
		return zero, sioerr.Wrap("FromURI", sioerr.UnknownScheme, err)
	}
	scheme := strings.ToLower(parsed.Scheme)

	r.mu.RLock()
	factory, ok := r.handlers[scheme]
	r.mu.RUnlock()
	if !ok {
		return zero, sioerr.New("FromURI", sioerr.UnknownScheme, "no handler registered for scheme "+scheme)
	}
	return factory(uri, overrides...)
}
