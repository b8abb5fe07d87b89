package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/go-slark/pipeline/logger"
)

// Strategy returns the pause after failed attempt n, counting from 1.
type Strategy func(n int, p *Policy) time.Duration

// Policy decides how often and how patiently a call is repeated. A Policy is read only
// after New and may be shared between goroutines.
type Policy struct {
	attempts  int
	delay     time.Duration
	maxDelay  time.Duration
	maxJitter time.Duration
	strategy  Strategy
	retryable func(error) bool
	after     func(time.Duration) <-chan time.Time
}

type Opt func(*Policy)

func New(opts ...Opt) *Policy {
	p := &Policy{
		attempts:  3,
		delay:     100 * time.Millisecond,
		maxJitter: 100 * time.Millisecond,
		strategy:  Exponential,
		retryable: func(error) bool { return true },
		after:     time.After,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.delay <= 0 {
		p.delay = 1
	}
	return p
}

// Retry sets the number of attempts, the first one included.
func Retry(attempts int) Opt {
	return func(p *Policy) {
		if attempts > 0 {
			p.attempts = attempts
		}
	}
}

func Delay(d time.Duration) Opt {
	return func(p *Policy) {
		p.delay = d
	}
}

// MaxDelay caps every pause. Zero means no cap.
func MaxDelay(d time.Duration) Opt {
	return func(p *Policy) {
		p.maxDelay = d
	}
}

func MaxJitter(d time.Duration) Opt {
	return func(p *Policy) {
		p.maxJitter = d
	}
}

func WithStrategy(s Strategy) Opt {
	return func(p *Policy) {
		p.strategy = s
	}
}

// Retryable stops retrying as soon as fn reports false for an error.
func Retryable(fn func(error) bool) Opt {
	return func(p *Policy) {
		p.retryable = fn
	}
}

// Timer replaces time.After, mostly for tests.
func Timer(after func(time.Duration) <-chan time.Time) Opt {
	return func(p *Policy) {
		p.after = after
	}
}

// Exponential doubles the base delay on every attempt and saturates instead of overflowing.
func Exponential(n int, p *Policy) time.Duration {
	d := p.delay
	for i := 0; i < n; i++ {
		if d > math.MaxInt64/2 {
			return math.MaxInt64
		}
		d <<= 1
	}
	return d
}

func Fixed(_ int, p *Policy) time.Duration {
	return p.delay
}

// Jitter is a random pause below MaxJitter.
func Jitter(_ int, p *Policy) time.Duration {
	if p.maxJitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(p.maxJitter)))
}

// Sum adds the pauses of several strategies.
func Sum(ss ...Strategy) Strategy {
	return func(n int, p *Policy) time.Duration {
		var total time.Duration
		for _, s := range ss {
			d := s(n, p)
			if total > math.MaxInt64-d {
				return math.MaxInt64
			}
			total += d
		}
		return total
	}
}

// Do calls fn until it succeeds, the attempts run out, the error is not retryable or
// ctx is done. The last error is returned.
func (p *Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for n := 1; ; n++ {
		if err = fn(ctx); err == nil || n >= p.attempts || !p.retryable(err) {
			return err
		}
		pause := p.pause(n)
		logger.Log(ctx, logger.DebugLevel, map[string]interface{}{"attempt": n, "pause": pause.String(), "error": err}, "retrying")
		select {
		case <-ctx.Done():
			return err
		case <-p.after(pause):
		}
	}
}

func (p *Policy) pause(n int) time.Duration {
	d := p.strategy(n, p)
	if p.maxDelay > 0 && d > p.maxDelay {
		return p.maxDelay
	}
	return d
}
