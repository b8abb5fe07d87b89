package lock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
)

var (
	acquire = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
			return "OK"
		else
			return redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2])
		end`)
	release = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end`)
)

// Lock is a redis lock owned by one holder value. Lock is reentrant for the same holder.
type Lock struct {
	redis      redis.Scripter
	key, value string
	expire     time.Duration
}

func New(rdb redis.Scripter, key string, expire time.Duration) *Lock {
	return &Lock{
		redis:  rdb,
		key:    key,
		value:  xid.New().String(),
		expire: expire,
	}
}

func (l *Lock) Lock(ctx context.Context) (bool, error) {
	result, err := acquire.Run(ctx, l.redis, []string{l.key}, l.value, l.expire.Milliseconds()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	reply, _ := result.(string)
	return reply == "OK", nil
}

func (l *Lock) Unlock(ctx context.Context) (bool, error) {
	result, err := release.Run(ctx, l.redis, []string{l.key}, l.value).Result()
	if err != nil {
		return false, err
	}
	reply, _ := result.(int64)
	return reply == 1, nil
}
