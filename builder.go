package pipeline

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-slark/pipeline/di"
	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/middleware"
	"go.uber.org/multierr"
)

type options struct {
	name   string
	logger logger.Logger
}

type Option func(*options)

// WithName names the pipeline in logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// link is one registration: given next, it makes the new head.
type link[C any] struct {
	name  string
	build func(next middleware.Handler[C]) (middleware.Handler[C], error)
}

// Builder collects middleware in order and folds them into one Handler. It is used
// at build time only and is not safe for concurrent use.
type Builder[C any] struct {
	opts  options
	links []link[C]
	err   error
}

func NewBuilder[C any](opts ...Option) *Builder[C] {
	o := options{
		name:   "pipeline",
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder[C]{opts: o}
}

func (b *Builder[C]) fail(err error) *Builder[C] {
	b.err = multierr.Append(b.err, err)
	return b
}

// Use registers a functional middleware.
func (b *Builder[C]) Use(mw middleware.Middleware[C]) *Builder[C] {
	if mw == nil {
		return b.fail(errors.Configuration(errors.NilMiddleware, "middleware.Middleware", "", "nil middleware"))
	}
	b.links = append(b.links, link[C]{
		name: fmt.Sprintf("middleware#%d", len(b.links)),
		build: func(next middleware.Handler[C]) (middleware.Handler[C], error) {
			h := mw(next)
			if h == nil {
				return nil, errors.Configuration(errors.ConstructionFailure, "middleware.Middleware", "",
					"middleware returned a nil handler")
			}
			return h, nil
		},
	})
	return b
}

func (b *Builder[C]) UseFunc(f middleware.Func[C]) *Builder[C] {
	if f == nil {
		return b.fail(errors.Configuration(errors.NilMiddleware, "middleware.Func", "", "nil func"))
	}
	return b.Use(middleware.FromComponent[C](f))
}

// UseComponent registers a live instance. It is shared by every pipeline this builder builds.
func (b *Builder[C]) UseComponent(cp middleware.Component[C]) *Builder[C] {
	if cp == nil {
		return b.fail(errors.Configuration(errors.NilMiddleware, "middleware.Component", "", "nil component"))
	}
	if f, ok := cp.(middleware.Func[C]); ok {
		return b.UseFunc(f)
	}
	return b.Use(middleware.FromComponent(cp))
}

// UseType registers a middleware type by its constructor. args follow next in the
// constructor call; each Build constructs a new instance.
func (b *Builder[C]) UseType(ctor any, args ...any) *Builder[C] {
	d, err := Describe[C](ctor, len(args))
	if err != nil {
		return b.fail(err)
	}
	values, err := bindArgs(d, args)
	if err != nil {
		return b.fail(err)
	}
	b.links = append(b.links, link[C]{
		name: d.String(),
		build: func(next middleware.Handler[C]) (middleware.Handler[C], error) {
			return construct[C](d, next, values)
		},
	})
	return b
}

// UseTypeWith registers a middleware type whose constructor parameters after next are
// resolved through r, once per Build.
func (b *Builder[C]) UseTypeWith(ctor any, r di.Resolver) *Builder[C] {
	d, err := Describe[C](ctor, -1)
	if err != nil {
		return b.fail(err)
	}
	b.links = append(b.links, link[C]{
		name: d.String(),
		build: func(next middleware.Handler[C]) (middleware.Handler[C], error) {
			values := make([]reflect.Value, 0, len(d.ctorParams))
			for _, p := range d.ctorParams {
				if p == resolverType && r != nil {
					values = append(values, reflect.ValueOf(r))
					continue
				}
				v, err := resolveValue(r, p, d.Type.String(), "constructor")
				if err != nil {
					return nil, err
				}
				values = append(values, v)
			}
			return construct[C](d, next, values)
		},
	})
	return b
}

func (b *Builder[C]) Len() int {
	return len(b.links)
}

// Build folds the registrations right to left from a terminal no-op. Registration and
// construction errors are reported together.
func (b *Builder[C]) Build() (middleware.Handler[C], error) {
	if b.err != nil {
		return nil, b.err
	}
	var err error
	h := middleware.Noop[C]()
	for i := len(b.links) - 1; i >= 0; i-- {
		next, e := b.links[i].build(h)
		if e != nil {
			err = multierr.Append(err, e)
			continue
		}
		h = next
	}
	if err != nil {
		b.opts.logger.Log(context.Background(), logger.ErrorLevel, map[string]interface{}{
			"pipeline": b.opts.name,
			"error":    err,
		}, "pipeline build failed")
		return nil, err
	}

	names := make([]string, 0, len(b.links))
	for _, l := range b.links {
		names = append(names, l.name)
	}
	b.opts.logger.Log(context.Background(), logger.DebugLevel, map[string]interface{}{
		"pipeline":    b.opts.name,
		"middlewares": names,
	}, "pipeline built")
	return h, nil
}

// bindArgs checks explicit arguments against the constructor parameters once, at registration.
func bindArgs(d *Descriptor, args []any) ([]reflect.Value, error) {
	values := make([]reflect.Value, len(args))
	for i, a := range args {
		p := d.ctorParams[i]
		member := fmt.Sprintf("argument %d", i)
		if a == nil {
			if !nillable(p) {
				return nil, errors.Configuration(errors.ArgumentMismatch, d.Type.String(), member,
					fmt.Sprintf("nil is not a valid %s", p))
			}
			values[i] = reflect.Zero(p)
			continue
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(p) {
			return nil, errors.Configuration(errors.ArgumentMismatch, d.Type.String(), member,
				fmt.Sprintf("%s is not assignable to %s", v.Type(), p))
		}
		values[i] = v
	}
	return values, nil
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func construct[C any](d *Descriptor, next middleware.Handler[C], values []reflect.Value) (middleware.Handler[C], error) {
	in := make([]reflect.Value, 0, len(values)+1)
	in = append(in, reflect.ValueOf(next))
	in = append(in, values...)
	out := d.ctor.Call(in)
	if d.returnsError {
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, errors.Configuration(errors.ConstructionFailure, d.Type.String(), "constructor",
				"constructor failed").WithError(err)
		}
	}
	instance := out[0]
	if nillable(instance.Type()) && instance.IsNil() {
		return nil, errors.Configuration(errors.ConstructionFailure, d.Type.String(), "constructor",
			"constructor returned nil")
	}
	return invokerOf[C](d)(instance), nil
}
