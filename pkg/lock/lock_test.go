package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	a := New(rdb, "customer:a@b.c", time.Second)
	b := New(rdb, "customer:a@b.c", time.Second)

	ok, err := a.Lock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Lock(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "reentrant")

	ok, err = b.Lock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = b.Unlock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.Unlock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Lock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	s.FastForward(2 * time.Second)
	ok, err = a.Lock(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "expired")
}
