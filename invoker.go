package pipeline

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-slark/pipeline/di"
	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/middleware"
)

// invoker turns a constructed instance into the Handler that calls its invoke method.
type invoker[C any] func(instance reflect.Value) middleware.Handler[C]

type binder[C any] func(ctx context.Context, c C, services di.Resolver) (reflect.Value, error)

type (
	ctxInvoker[C any] interface {
		Invoke(ctx context.Context, c C) error
	}
	plainInvoker[C any] interface {
		Invoke(c C) error
	}
	ctxHandler[C any] interface {
		Handle(ctx context.Context, c C) error
	}
	plainHandler[C any] interface {
		Handle(c C) error
	}
)

// invokerOf returns the invoker for d, compiling it on first use.
func invokerOf[C any](d *Descriptor) invoker[C] {
	d.once.Do(func() {
		d.inv = compile[C](d)
	})
	return d.inv.(invoker[C])
}

func compile[C any](d *Descriptor) invoker[C] {
	if inv := fastPath[C](d); inv != nil {
		return inv
	}

	c := reflect.TypeOf((*C)(nil)).Elem()
	binders := make([]binder[C], 0, len(d.params))
	for _, p := range d.params {
		binders = append(binders, bind[C](d, p, c))
	}
	index := d.method.Index
	needsLookup := d.needsLookup

	return func(instance reflect.Value) middleware.Handler[C] {
		method := instance.Method(index)
		return func(ctx context.Context, cv C) error {
			var services di.Resolver
			if needsLookup {
				services = any(cv).(di.Provider).Services()
			}
			args := make([]reflect.Value, len(binders))
			for i, b := range binders {
				v, err := b(ctx, cv, services)
				if err != nil {
					return err
				}
				args[i] = v
			}
			out := method.Call(args)
			if err, _ := out[0].Interface().(error); err != nil {
				return err
			}
			return nil
		}
	}
}

// fastPath covers the fixed invoke signatures. The handler is a plain method call.
func fastPath[C any](d *Descriptor) invoker[C] {
	t := d.Type
	switch {
	case d.method.Name == invokeMethod && t.Implements(reflect.TypeOf((*ctxInvoker[C])(nil)).Elem()):
		return func(instance reflect.Value) middleware.Handler[C] {
			return instance.Interface().(ctxInvoker[C]).Invoke
		}
	case d.method.Name == invokeMethod && t.Implements(reflect.TypeOf((*plainInvoker[C])(nil)).Elem()):
		return func(instance reflect.Value) middleware.Handler[C] {
			x := instance.Interface().(plainInvoker[C])
			return func(_ context.Context, c C) error {
				return x.Invoke(c)
			}
		}
	case d.method.Name == handleMethod && t.Implements(reflect.TypeOf((*ctxHandler[C])(nil)).Elem()):
		return func(instance reflect.Value) middleware.Handler[C] {
			return instance.Interface().(ctxHandler[C]).Handle
		}
	case d.method.Name == handleMethod && t.Implements(reflect.TypeOf((*plainHandler[C])(nil)).Elem()):
		return func(instance reflect.Value) middleware.Handler[C] {
			x := instance.Interface().(plainHandler[C])
			return func(_ context.Context, c C) error {
				return x.Handle(c)
			}
		}
	}
	return nil
}

func bind[C any](d *Descriptor, p, c reflect.Type) binder[C] {
	switch p {
	case c:
		return func(_ context.Context, cv C, _ di.Resolver) (reflect.Value, error) {
			return reflect.ValueOf(&cv).Elem(), nil
		}
	case contextType:
		return func(ctx context.Context, _ C, _ di.Resolver) (reflect.Value, error) {
			if ctx == nil {
				return reflect.Zero(contextType), nil
			}
			return reflect.ValueOf(ctx), nil
		}
	case resolverType:
		return func(_ context.Context, _ C, services di.Resolver) (reflect.Value, error) {
			if services == nil {
				return reflect.Zero(resolverType), nil
			}
			return reflect.ValueOf(services), nil
		}
	}
	name, member := d.Type.String(), d.method.Name
	return func(_ context.Context, _ C, services di.Resolver) (reflect.Value, error) {
		return resolveValue(services, p, name, member)
	}
}

// resolveValue asks r for an instance of p and converts it to p's static type.
func resolveValue(r di.Resolver, p reflect.Type, name, member string) (reflect.Value, error) {
	if r == nil {
		return reflect.Value{}, errors.Configuration(errors.ServiceResolutionFailure, name, member,
			fmt.Sprintf("no resolver for %s", p))
	}
	v, err := r.Resolve(p)
	if err != nil {
		return reflect.Value{}, errors.Configuration(errors.ServiceResolutionFailure, name, member,
			fmt.Sprintf("resolve %s", p)).WithError(err)
	}
	if v == nil {
		return reflect.Value{}, errors.Configuration(errors.ServiceResolutionFailure, name, member,
			fmt.Sprintf("nil instance for %s", p))
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(p) {
		return reflect.Value{}, errors.Configuration(errors.ServiceResolutionFailure, name, member,
			fmt.Sprintf("resolved %s is not assignable to %s", rv.Type(), p))
	}
	if rv.Type() != p {
		cv := reflect.New(p).Elem()
		cv.Set(rv)
		rv = cv
	}
	return rv, nil
}
