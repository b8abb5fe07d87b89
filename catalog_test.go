package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-slark/pipeline/config"
	"github.com/go-slark/pipeline/config/source/file"
	"github.com/go-slark/pipeline/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog[*request] {
	return NewCatalog[*request]().
		Register("a", func(b *Builder[*request]) { b.UseType(newStep, "A") }).
		Register("b", func(b *Builder[*request]) { b.UseType(newStep, "B") }).
		Register("stop", func(b *Builder[*request]) { b.UseType(newHalt, "stop") }).
		Register("slow", func(b *Builder[*request]) {
			b.UseFunc(func(ctx context.Context, r *request, next Handler) error {
				<-ctx.Done()
				return ctx.Err()
			})
		})
}

func TestCatalogBuild(t *testing.T) {
	c := testCatalog()
	assert.Equal(t, []string{"a", "b", "slow", "stop"}, c.Names())

	h, err := c.Build(config.Pipeline{Name: "p", Middlewares: []string{"b", "a", "stop", "a"}}, quiet())
	require.NoError(t, err)
	r := newRequest(nil)
	require.NoError(t, h(context.Background(), r))
	assert.Equal(t, []string{"B", "A", "stop"}, r.log)
}

func TestCatalogUnknown(t *testing.T) {
	_, err := testCatalog().Build(config.Pipeline{Middlewares: []string{"a", "x", "y"}}, quiet())
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.UnknownMiddleware))
	assert.Contains(t, err.Error(), "middleware not in catalog")
	assert.True(t, errors.Is(err, errors.Configuration(errors.UnknownMiddleware, "y", "", "")))
}

func TestCatalogTimeout(t *testing.T) {
	h, err := testCatalog().Build(config.Pipeline{Middlewares: []string{"a", "slow"}, Timeout: 20 * time.Millisecond}, quiet())
	require.NoError(t, err)
	err = h(context.Background(), newRequest(nil))
	assert.True(t, errors.IsTimeout(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestCatalogFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipelines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipelines:
  signup:
    middlewares: [a, b]
    timeout: 1s
`), 0o644))
	cfg := config.New(config.WithSource(file.NewFile(path)))
	require.NoError(t, cfg.Load())
	defer cfg.Close()

	def, err := cfg.Pipeline("signup")
	require.NoError(t, err)
	b, err := testCatalog().Builder(def, quiet())
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())

	h, err := b.Build()
	require.NoError(t, err)
	r := newRequest(nil)
	require.NoError(t, h(context.Background(), r))
	assert.Equal(t, []string{"A", "B"}, r.log)
}
