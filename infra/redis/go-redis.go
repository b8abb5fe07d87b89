package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// Config is the redis section of the onboarding config. Timeouts are whole seconds and
// the retry backoff is milliseconds. Zero keeps the go-redis default.
type Config struct {
	Address         string `json:"address"`
	Password        string `json:"password"`
	DB              int    `json:"db"`
	DialTimeout     int    `json:"dial_timeout"`
	ReadTimeout     int    `json:"read_timeout"`
	WriteTimeout    int    `json:"write_timeout"`
	PoolTimeout     int    `json:"pool_timeout"`
	MaxRetry        int    `json:"max_retry"`
	PoolSize        int    `json:"pool_size"`
	MinIdleConns    int    `json:"min_idle_conns"`
	MaxRetryBackoff int    `json:"max_retry_backoff"`
	Tracing         bool   `json:"tracing"`
}

func (c *Config) options() *redis.Options {
	seconds := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return &redis.Options{
		Network:         "tcp",
		Addr:            c.Address,
		Password:        c.Password,
		DB:              c.DB,
		DialTimeout:     seconds(c.DialTimeout),
		ReadTimeout:     seconds(c.ReadTimeout),
		WriteTimeout:    seconds(c.WriteTimeout),
		PoolTimeout:     seconds(c.PoolTimeout),
		MaxRetries:      c.MaxRetry,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		MaxRetryBackoff: time.Duration(c.MaxRetryBackoff) * time.Millisecond,
	}
}

// Client is a connected go-redis client. It backs the redis customer repository and its
// per-email lock.
type Client struct {
	*redis.Client
}

// NewClient dials c.Address and pings it before returning. With Tracing set every command
// becomes an otel span under the caller's context.
func NewClient(ctx context.Context, c *Config) (*Client, error) {
	client := redis.NewClient(c.options())
	err := client.Ping(ctx).Err()
	if err == nil && c.Tracing {
		err = redisotel.InstrumentTracing(client)
	}
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Client{Client: client}, nil
}
