// Package container is a small keyed service container with shared and
// transient bindings, aliases and circular-resolution detection.
package container

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNotBound is returned when a key has no binding.
	ErrNotBound = errors.New("not bound")

	// ErrCircular is returned when a binding depends on itself.
	ErrCircular = errors.New("circular dependency")

	// ErrTypeMismatch is returned by Resolve when the instance has the
	// wrong type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidAlias is returned for self-referencing or cyclic aliases.
	ErrInvalidAlias = errors.New("invalid alias")
)

// Maker resolves keys to instances.
type Maker interface {
	Make(key string) (any, error)
}

// Factory builds an instance. r resolves dependencies and tracks the
// resolution chain.
type Factory func(r Maker) (any, error)

type binding struct {
	factory  Factory
	shared   bool
	mu       sync.Mutex
	instance any
	built    bool
}

// Container holds bindings keyed by string.
type Container struct {
	mu       sync.RWMutex
	bindings map[string]*binding
	aliases  map[string]string
	logger   *zap.Logger
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the container logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		bindings: make(map[string]*binding),
		aliases:  make(map[string]string),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind registers a transient binding: every Make builds a new instance.
func (c *Container) Bind(key string, f Factory) {
	c.set(key, &binding{factory: f})
}

// Singleton registers a shared binding built on first Make.
func (c *Container) Singleton(key string, f Factory) {
	c.set(key, &binding{factory: f, shared: true})
}

// Instance registers an already built shared instance.
func (c *Container) Instance(key string, v any) {
	c.set(key, &binding{shared: true, instance: v, built: true})
}

func (c *Container) set(key string, b *binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.aliases, key)
	c.bindings[key] = b
	c.logger.Debug("container binding registered",
		zap.String("key", key),
		zap.Bool("shared", b.shared))
}

// Alias makes alias resolve to key.
func (c *Container) Alias(key, alias string) error {
	if key == alias {
		return fmt.Errorf("%w: [%s] is aliased to itself", ErrInvalidAlias, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, hops := key, 0; ; hops++ {
		next, ok := c.aliases[k]
		if !ok {
			break
		}
		if next == alias || hops > len(c.aliases) {
			return fmt.Errorf("%w: [%s] -> [%s] forms a cycle", ErrInvalidAlias, alias, key)
		}
		k = next
	}
	c.aliases[alias] = key
	return nil
}

// canonical follows aliases. Caller holds c.mu.
func (c *Container) canonical(key string) string {
	for hops := 0; hops <= len(c.aliases); hops++ {
		next, ok := c.aliases[key]
		if !ok {
			return key
		}
		key = next
	}
	return key
}

// Bound reports whether key, or the key it aliases, has a binding.
func (c *Container) Bound(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[c.canonical(key)]
	return ok
}

// Keys returns every bound key and alias, sorted.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.bindings)+len(c.aliases))
	for k := range c.bindings {
		keys = append(keys, k)
	}
	for a := range c.aliases {
		keys = append(keys, a)
	}
	sort.Strings(keys)
	return keys
}

// Make resolves key.
func (c *Container) Make(key string) (any, error) {
	return (&resolver{c: c}).Make(key)
}

// resolver carries the chain of keys being built so a factory that
// reaches back to one of them fails instead of recursing forever.
type resolver struct {
	c     *Container
	chain []string
}

func (r *resolver) Make(key string) (any, error) {
	r.c.mu.RLock()
	canonical := r.c.canonical(key)
	b, ok := r.c.bindings[canonical]
	r.c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("[%s] is %w", key, ErrNotBound)
	}

	for _, k := range r.chain {
		if k == canonical {
			path := append(append([]string{}, r.chain...), canonical)
			return nil, fmt.Errorf("%w: %s", ErrCircular, strings.Join(path, " -> "))
		}
	}

	if b.shared {
		b.mu.Lock()
		if b.built {
			v := b.instance
			b.mu.Unlock()
			return v, nil
		}
		b.mu.Unlock()
	}

	next := &resolver{c: r.c, chain: append(append([]string{}, r.chain...), canonical)}
	v, err := b.factory(next)
	if err != nil {
		return nil, fmt.Errorf("failed to build [%s]: %w", canonical, err)
	}

	if b.shared {
		b.mu.Lock()
		defer b.mu.Unlock()
		// Another goroutine may have finished first. Keep its instance.
		if b.built {
			return b.instance, nil
		}
		b.instance, b.built = v, true
	}
	return v, nil
}

// Resolve makes key and asserts the result to T.
func Resolve[T any](m Maker, key string) (T, error) {
	var zero T
	v, err := m.Make(key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: [%s] is %T, want %s", ErrTypeMismatch, key, v, reflect.TypeOf((*T)(nil)).Elem())
	}
	return t, nil
}
