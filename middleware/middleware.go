package middleware

import (
	"context"
)

// Handler is one link of a pipeline: everything after the current step, invoked with
// the shared context object c. ctx carries cancellation and is passed through unchanged.
type Handler[C any] func(ctx context.Context, c C) error

type Middleware[C any] func(Handler[C]) Handler[C]

// Noop is the terminal link. It completes immediately.
func Noop[C any]() Handler[C] {
	return func(context.Context, C) error {
		return nil
	}
}

// ComposeMiddleware folds mws into one Middleware. mws[0] runs first.
func ComposeMiddleware[C any](mws ...Middleware[C]) Middleware[C] {
	return func(handler Handler[C]) Handler[C] {
		for i := len(mws) - 1; i >= 0; i-- {
			handler = mws[i](handler)
		}
		return handler
	}
}

// Handle wraps handler with mws, mws[0] outermost.
func Handle[C any](handler Handler[C], mws ...Middleware[C]) Handler[C] {
	if handler == nil {
		handler = Noop[C]()
	}
	return ComposeMiddleware(mws...)(handler)
}
