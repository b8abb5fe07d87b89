package middleware

import (
	"context"

	"github.com/go-slark/pipeline/errors"
)

// Component is a pre-instantiated middleware. It receives the rest of the pipeline
// as next and decides whether, and when, to call it.
type Component[C any] interface {
	Invoke(ctx context.Context, c C, next Handler[C]) error
}

type Func[C any] func(ctx context.Context, c C, next Handler[C]) error

func (f Func[C]) Invoke(ctx context.Context, c C, next Handler[C]) error {
	return f(ctx, c, next)
}

// FromComponent lifts a component into the functional form.
func FromComponent[C any](cp Component[C]) Middleware[C] {
	return func(next Handler[C]) Handler[C] {
		return func(ctx context.Context, c C) error {
			return cp.Invoke(ctx, c, next)
		}
	}
}

// Chain folds components right to left into one Handler. Component i sees a next that
// runs component i+1, the last one sees Noop.
func Chain[C any](components ...Component[C]) (Handler[C], error) {
	h := Noop[C]()
	for i := len(components) - 1; i >= 0; i-- {
		cp := components[i]
		if cp == nil || isNilFunc(cp) {
			return nil, errors.Configuration(errors.NilMiddleware, "", "", "nil component in chain")
		}
		h = FromComponent(cp)(h)
	}
	return h, nil
}

func isNilFunc[C any](cp Component[C]) bool {
	f, ok := cp.(Func[C])
	return ok && f == nil
}

// InvokeAll chains components and runs the result once with c.
func InvokeAll[C any](ctx context.Context, components []Component[C], c C) error {
	h, err := Chain(components...)
	if err != nil {
		return err
	}
	return h(ctx, c)
}

// Factory holds an ordered set of components and hands out the composed pipeline.
type Factory[C any] struct {
	components []Component[C]
	pipeline   Handler[C]
}

func NewFactory[C any](components ...Component[C]) (*Factory[C], error) {
	h, err := Chain(components...)
	if err != nil {
		return nil, err
	}
	cs := make([]Component[C], len(components))
	copy(cs, components)
	return &Factory[C]{components: cs, pipeline: h}, nil
}

func (f *Factory[C]) Pipeline() Handler[C] {
	return f.pipeline
}

func (f *Factory[C]) Len() int {
	return len(f.components)
}
