// Package di is the service lookup capability pipelines resolve middleware
// dependencies through.
package di

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("service not registered")

// Resolver maps a type to an instance of it.
type Resolver interface {
	Resolve(t reflect.Type) (any, error)
}

type ResolverFunc func(t reflect.Type) (any, error)

func (f ResolverFunc) Resolve(t reflect.Type) (any, error) {
	return f(t)
}

// Provider is implemented by pipeline contexts that carry a Resolver. Middleware whose
// invoke method declares dependencies beyond the context requires it.
type Provider interface {
	Services() Resolver
}

func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve looks up T and asserts the result.
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	if r == nil {
		return zero, errors.Wrapf(ErrNotFound, "nil resolver for %s", TypeOf[T]())
	}
	v, err := r.Resolve(TypeOf[T]())
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resolved %T is not %s", v, TypeOf[T]())
	}
	return t, nil
}

type provider struct {
	once  sync.Once
	build func(Resolver) (any, error)
	value any
	err   error
}

// Container is a minimal Resolver holding values and lazy singletons.
// Safe for concurrent use.
type Container struct {
	mu        sync.RWMutex
	providers map[reflect.Type]*provider
	parent    Resolver
}

type Option func(*Container)

// WithParent falls back to r for types the container does not know.
func WithParent(r Resolver) Option {
	return func(c *Container) {
		c.parent = r
	}
}

func NewContainer(opts ...Option) *Container {
	c := &Container{
		providers: make(map[reflect.Type]*provider),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Value registers v under T.
func Value[T any](c *Container, v T) *Container {
	p := &provider{value: v}
	p.once.Do(func() {})
	c.set(TypeOf[T](), p)
	return c
}

// Provide registers a singleton built on first lookup by fn, which may resolve
// its own dependencies from the container.
func Provide[T any](c *Container, fn func(Resolver) (T, error)) *Container {
	c.set(TypeOf[T](), &provider{
		build: func(r Resolver) (any, error) {
			return fn(r)
		},
	})
	return c
}

func (c *Container) set(t reflect.Type, p *provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[t] = p
}

func (c *Container) Resolve(t reflect.Type) (any, error) {
	c.mu.RLock()
	p, ok := c.providers[t]
	c.mu.RUnlock()
	if !ok {
		if c.parent != nil {
			return c.parent.Resolve(t)
		}
		return nil, errors.Wrapf(ErrNotFound, "type %s", t)
	}
	p.once.Do(func() {
		p.value, p.err = p.build(c)
	})
	if p.err != nil {
		return nil, errors.Wrapf(p.err, "build %s", t)
	}
	return p.value, nil
}

func (c *Container) Has(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.providers[t]
	return ok
}
