package pipeline

import (
	"sort"

	"github.com/go-slark/pipeline/config"
	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/middleware"
	"github.com/go-slark/pipeline/middleware/timeout"
	"go.uber.org/multierr"
)

// Registration adds one named middleware to a builder.
type Registration[C any] func(b *Builder[C])

// Catalog maps middleware names to registrations so pipelines can be assembled from
// config definitions.
type Catalog[C any] struct {
	entries map[string]Registration[C]
}

func NewCatalog[C any]() *Catalog[C] {
	return &Catalog[C]{entries: make(map[string]Registration[C])}
}

// Register binds name to r, replacing any previous binding.
func (c *Catalog[C]) Register(name string, r Registration[C]) *Catalog[C] {
	c.entries[name] = r
	return c
}

func (c *Catalog[C]) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder returns a builder holding def's middleware in order. A positive def.Timeout
// bounds the whole invocation.
func (c *Catalog[C]) Builder(def config.Pipeline, opts ...Option) (*Builder[C], error) {
	opts = append([]Option{WithName(def.Name)}, opts...)
	b := NewBuilder[C](opts...)
	if def.Timeout > 0 {
		b.Use(timeout.Timeout[C](def.Timeout))
	}
	var err error
	for _, name := range def.Middlewares {
		r, ok := c.entries[name]
		if !ok || r == nil {
			err = multierr.Append(err, errors.Configuration(errors.UnknownMiddleware, name, "",
				"middleware not in catalog"))
			continue
		}
		r(b)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Build assembles and builds def in one step.
func (c *Catalog[C]) Build(def config.Pipeline, opts ...Option) (middleware.Handler[C], error) {
	b, err := c.Builder(def, opts...)
	if err != nil {
		return nil, err
	}
	return b.Build()
}
