package pipeline

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Runner is a unit of work the App starts and stops together with the others.
// Start must return once ctx is done.
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type App struct {
	runners     []Runner
	signals     []os.Signal
	stopTimeout time.Duration
	logger      logger.Logger
}

type AppOption func(*App)

func WithRunner(r ...Runner) AppOption {
	return func(a *App) {
		a.runners = append(a.runners, r...)
	}
}

func WithSignal(sig ...os.Signal) AppOption {
	return func(a *App) {
		a.signals = sig
	}
}

func WithStopTimeout(d time.Duration) AppOption {
	return func(a *App) {
		a.stopTimeout = d
	}
}

func WithAppLogger(l logger.Logger) AppOption {
	return func(a *App) {
		a.logger = l
	}
}

func NewApp(opts ...AppOption) *App {
	a := &App{
		signals:     []os.Signal{syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT},
		stopTimeout: 3 * time.Second,
		logger:      logger.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts every runner and blocks until they all finish, one fails, a signal
// arrives or ctx is done. Runners are then stopped.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	var wg sync.WaitGroup
	for _, runner := range a.runners {
		r := runner
		wg.Add(1)
		eg.Go(func() error {
			defer wg.Done()
			return r.Start(ctx)
		})
		eg.Go(func() error {
			<-ctx.Done()
			cx, cancel := context.WithTimeout(context.Background(), a.stopTimeout)
			defer cancel()
			return r.Stop(cx)
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, a.signals...)
	defer signal.Stop(c)
	eg.Go(func() error {
		select {
		case s := <-c:
			a.logger.Log(ctx, logger.InfoLevel, map[string]interface{}{"signal": s.String()}, "app stopping")
		case <-done:
		case <-ctx.Done():
		}
		cancel()
		return nil
	})

	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Feed is a Runner pushing every value received from its source through a pipeline.
type Feed[C any] struct {
	handler middleware.Handler[C]
	src     <-chan C
	workers int
	report  func(c C, err error)
}

type FeedOption[C any] func(*Feed[C])

// Workers bounds concurrent invocations. Zero or less means unbounded.
func Workers[C any](n int) FeedOption[C] {
	return func(f *Feed[C]) {
		f.workers = n
	}
}

// Report receives the outcome of each invocation.
func Report[C any](fn func(c C, err error)) FeedOption[C] {
	return func(f *Feed[C]) {
		f.report = fn
	}
}

func NewFeed[C any](h middleware.Handler[C], src <-chan C, opts ...FeedOption[C]) *Feed[C] {
	f := &Feed[C]{
		handler: h,
		src:     src,
		report:  func(C, error) {},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start returns when src is closed and every invocation has finished, or when ctx is done.
// Invocation failures go to the reporter and do not stop the feed.
func (f *Feed[C]) Start(ctx context.Context) error {
	var eg errgroup.Group
	if f.workers > 0 {
		eg.SetLimit(f.workers)
	}
	defer eg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-f.src:
			if !ok {
				return eg.Wait()
			}
			eg.Go(func() error {
				f.report(c, f.handler(ctx, c))
				return nil
			})
		}
	}
}

func (f *Feed[C]) Stop(context.Context) error {
	return nil
}
