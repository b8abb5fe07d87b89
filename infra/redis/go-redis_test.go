package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := NewClient(context.Background(), &Config{Address: s.Addr(), PoolSize: 2, Tracing: true})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestNewClientUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()
	_, err := NewClient(context.Background(), &Config{Address: addr, DialTimeout: 1})
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	o := (&Config{Address: "cache:6379", DB: 3, ReadTimeout: 2, MaxRetryBackoff: 250}).options()
	assert.Equal(t, "cache:6379", o.Addr)
	assert.Equal(t, 3, o.DB)
	assert.Equal(t, 2*time.Second, o.ReadTimeout)
	assert.Equal(t, 250*time.Millisecond, o.MaxRetryBackoff)
	assert.Zero(t, o.DialTimeout)
}
