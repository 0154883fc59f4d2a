package usecases

import (
	"fmt"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

// Producer computes a placeholder value on first access.
type Producer func() (string, error)

// placeholder is either unevaluated (produce set, evaluated false)
// or evaluated (value/err cached).
type placeholder struct {
	produce   Producer
	evaluated bool
	value     string
	err       error
}

func (p *placeholder) get() (string, error) {
	if !p.evaluated {
		p.value, p.err = p.produce()
		p.evaluated = true
		p.produce = nil
	}
	return p.value, p.err
}

// Registry is a lazily evaluated, memoized placeholder mapping for a single
// resolution pass. It is not safe for concurrent use; every pass builds its own.
type Registry struct {
	parent  *Registry
	entries map[string]*placeholder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*placeholder)}
}

// Register adds or replaces the producer for key.
func (r *Registry) Register(key string, produce Producer) {
	r.entries[key] = &placeholder{produce: produce}
}

// RegisterValue adds an already known value for key.
func (r *Registry) RegisterValue(key, value string) {
	r.entries[key] = &placeholder{evaluated: true, value: value}
}

// Get evaluates key if needed and returns its memoized value.
func (r *Registry) Get(key string) (string, error) {
	for reg := r; reg != nil; reg = reg.parent {
		if p, ok := reg.entries[key]; ok {
			return p.get()
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrMissingPlaceholder, key)
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	for reg := r; reg != nil; reg = reg.parent {
		if _, ok := reg.entries[key]; ok {
			return true
		}
	}
	return false
}

// Child returns a registry that shadows r with its own entries.
// Lookups that miss fall through to r, sharing r's memoized values.
func (r *Registry) Child() *Registry {
	return &Registry{parent: r, entries: make(map[string]*placeholder)}
}

// lazy memoizes a value shared by several placeholders.
type lazy[T any] struct {
	produce   func() (T, error)
	evaluated bool
	value     T
	err       error
}

func newLazy[T any](produce func() (T, error)) *lazy[T] {
	return &lazy[T]{produce: produce}
}

func (l *lazy[T]) get() (T, error) {
	if !l.evaluated {
		l.value, l.err = l.produce()
		l.evaluated = true
	}
	return l.value, l.err
}
