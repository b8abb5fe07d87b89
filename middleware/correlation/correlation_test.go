package correlation

import (
	"context"
	"testing"

	"github.com/go-slark/pipeline/middleware"
	utils "github.com/go-slark/pipeline/pkg"
	"github.com/go-slark/pipeline/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct{ id string }

func capture(seen *string) middleware.Handler[*request] {
	return func(ctx context.Context, _ *request) error {
		*seen = utils.InvocationIDFrom(ctx)
		return nil
	}
}

func TestCorrelationGenerates(t *testing.T) {
	var seen string
	r := &request{}
	h := middleware.Handle(capture(&seen), Correlation[*request](
		WithGenerator[*request](func() string { return "fixed" }),
		WithSetter(func(r *request, id string) { r.id = id }),
	))
	require.NoError(t, h(context.Background(), r))
	assert.Equal(t, "fixed", seen)
	assert.Equal(t, "fixed", r.id)
}

func TestCorrelationKeepsExisting(t *testing.T) {
	var seen string
	h := middleware.Handle(capture(&seen), Correlation[*request]())
	ctx := utils.WithInvocationID(context.Background(), "upstream")
	require.NoError(t, h(ctx, &request{}))
	assert.Equal(t, "upstream", seen)
}

func TestCorrelationSnowflake(t *testing.T) {
	n, err := uid.NewNode(1)
	require.NoError(t, err)
	var a, b string
	h1 := middleware.Handle(capture(&a), Correlation[*request](WithGenerator[*request](n.Generator())))
	h2 := middleware.Handle(capture(&b), Correlation[*request](WithGenerator[*request](n.Generator())))
	require.NoError(t, h1(context.Background(), &request{}))
	require.NoError(t, h2(context.Background(), &request{}))
	assert.NotEqual(t, a, b)
}
