package validate

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/middleware"
)

// Validator is implemented by contexts that check themselves.
type Validator interface {
	Validate() error
}

type options struct {
	validate *validator.Validate
}

type Option func(*options)

// WithValidate replaces the struct tag validator, e.g. one with custom rules registered.
func WithValidate(v *validator.Validate) Option {
	return func(o *options) {
		o.validate = v
	}
}

// Validate rejects an invalid context before the rest of the pipeline runs. Contexts
// implementing Validator check themselves, struct contexts are checked by their
// `validate` tags.
func Validate[C any](opts ...Option) middleware.Middleware[C] {
	o := &options{
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return func(handler middleware.Handler[C]) middleware.Handler[C] {
		return func(ctx context.Context, c C) error {
			if err := o.check(c); err != nil {
				return errors.BadRequest(errors.InvalidParam, err.Error()).WithError(err)
			}
			return handler(ctx, c)
		}
	}
}

func (o *options) check(c any) error {
	if v, ok := c.(Validator); ok {
		return v.Validate()
	}
	t := reflect.TypeOf(c)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		if reflect.ValueOf(c).IsNil() {
			return nil
		}
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return o.validate.Struct(c)
}
