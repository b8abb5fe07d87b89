package onboarding

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-slark/pipeline/config"
	"github.com/go-slark/pipeline/di"
	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	level  uint
	fields map[string]interface{}
	msg    string
}

type recorder struct {
	mu      sync.Mutex
	entries []entry
}

func (r *recorder) Log(_ context.Context, level uint, fields map[string]interface{}, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{level: level, fields: fields, msg: fmt.Sprint(v...)})
}

func (r *recorder) errors() []entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entry
	for _, e := range r.entries {
		if e.level == logger.ErrorLevel {
			out = append(out, e)
		}
	}
	return out
}

func sequence() func() string {
	var n int64
	return func() string {
		return fmt.Sprintf("c%d", atomic.AddInt64(&n, 1))
	}
}

type fixture struct {
	repo     Repository
	notifier *LogNotifier
	storage  *MemoryStorage
	log      *recorder
	services *di.Container
}

func newFixture(repo Repository, failStorage bool) *fixture {
	f := &fixture{repo: repo, storage: NewMemoryStorage(failStorage), log: &recorder{}}
	f.notifier = NewLogNotifier(f.log)
	f.services = NewServices(repo, f.notifier, f.storage, f.log)
	return f
}

func customer() *Customer {
	return &Customer{FirstName: "Testy", LastName: "McTesterson", Email: "testy@pipelines.dev"}
}

func TestOnboard(t *testing.T) {
	f := newFixture(NewMemoryRepository(sequence()), false)
	h, err := Build(f.services, config.Pipeline{}, WithLogger(f.log))
	require.NoError(t, err)

	r := NewRequest(f.services, customer())
	require.NoError(t, h(context.Background(), r))

	assert.Equal(t, "c1", r.Customer.ID)
	assert.Equal(t, "c1-storage", r.StorageAccount)
	assert.NotEmpty(t, r.InvocationID)
	assert.True(t, f.storage.Has("c1-storage"))
	saved, err := f.repo.GetCustomer(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "testy@pipelines.dev", saved.Email)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "testy@pipelines.dev", sent[0].To)
	assert.Contains(t, sent[0].Body, "Testy")
	assert.Empty(t, f.log.errors())
}

func TestOnboardInvalidCustomer(t *testing.T) {
	f := newFixture(NewMemoryRepository(sequence()), false)
	h, err := Build(f.services, config.Pipeline{}, WithLogger(f.log))
	require.NoError(t, err)

	c := customer()
	c.Email = "not-an-email"
	require.NoError(t, h(context.Background(), NewRequest(f.services, c)), "logging swallows")

	errs := f.log.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "add customer failed", errs[0].msg)
	assert.Equal(t, errors.InvalidParam, errors.Reason(errs[0].fields["error"].(error)))
	assert.Empty(t, c.ID)
	assert.Empty(t, f.notifier.Sent())
}

func TestOnboardStorageUnavailable(t *testing.T) {
	f := newFixture(NewMemoryRepository(sequence()), true)
	def := config.Pipeline{Middlewares: []string{Save, Welcome, Retry, Provision}}
	h, err := Build(f.services, def, WithLogger(f.log), WithRetries(2))
	require.NoError(t, err)

	r := NewRequest(f.services, customer())
	err = h(context.Background(), r)
	assert.True(t, errors.IsServiceUnavailable(err))
	assert.Equal(t, StorageUnavailable, errors.Reason(err))
	assert.Empty(t, f.notifier.Sent(), "no welcome email after a failure")
	assert.Equal(t, "c1", r.Customer.ID)
}

func TestProvisionCompensates(t *testing.T) {
	f := newFixture(NewMemoryRepository(sequence()), false)
	boom := fmt.Errorf("activation failed")
	p := NewProvisionStorage(func(context.Context, *Request) error {
		return boom
	}, f.storage, f.log)

	c := customer()
	c.ID = "c9"
	r := NewRequest(f.services, c)
	assert.Equal(t, boom, p.Invoke(context.Background(), r))
	assert.False(t, f.storage.Has("c9-storage"))
	assert.Empty(t, r.StorageAccount)
}

func TestDuplicateCustomer(t *testing.T) {
	f := newFixture(NewMemoryRepository(sequence()), false)
	h, err := Build(f.services, config.Pipeline{Middlewares: []string{Validate, Save, Welcome, Provision}}, WithLogger(f.log))
	require.NoError(t, err)

	require.NoError(t, h(context.Background(), NewRequest(f.services, customer())))
	err = h(context.Background(), NewRequest(f.services, customer()))
	assert.Equal(t, DuplicateCustomer, errors.Reason(err))
	assert.Len(t, f.notifier.Sent(), 1)
	assert.Equal(t, 1, f.storage.Len())
}

func TestRepositoryResolvedPerInvocation(t *testing.T) {
	f := newFixture(NewMemoryRepository(sequence()), false)
	h, err := Build(f.services, config.Pipeline{Middlewares: []string{Save}}, WithLogger(f.log))
	require.NoError(t, err)

	// a request scoped repository shadows the shared one
	scoped := NewMemoryRepository(func() string { return "scoped" })
	services := di.Value[Repository](di.NewContainer(di.WithParent(f.services)), scoped)
	r := NewRequest(services, customer())
	require.NoError(t, h(context.Background(), r))
	assert.Equal(t, "scoped", r.Customer.ID)

	_, err = f.repo.GetCustomer(context.Background(), "scoped")
	assert.Equal(t, CustomerNotFound, errors.Reason(err))
}

func TestOnboardMetrics(t *testing.T) {
	f := newFixture(NewMemoryRepository(sequence()), false)
	reg := prometheus.NewRegistry()
	def := config.Pipeline{Middlewares: []string{Log, Measure, Throttle, Protect, Validate, Save}}
	h, err := Build(f.services, def, WithLogger(f.log), WithRegisterer(reg))
	require.NoError(t, err)

	require.NoError(t, h(context.Background(), NewRequest(f.services, customer())))
	bad := customer()
	bad.FirstName = ""
	require.Error(t, h(context.Background(), NewRequest(f.services, bad)))

	n, err := testutil.GatherAndCount(reg, "total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, f.log.errors(), 1)
	assert.Equal(t, "invocation failed", f.log.errors()[0].msg)
}

func TestUnknownTask(t *testing.T) {
	f := newFixture(NewMemoryRepository(sequence()), false)
	_, err := Build(f.services, config.Pipeline{Middlewares: []string{Save, "audit"}})
	assert.True(t, errors.IsReason(err, errors.UnknownMiddleware))
}

func TestMissingService(t *testing.T) {
	services := di.Value[logger.Logger](di.NewContainer(), logger.Nop())
	_, err := Build(services, config.Pipeline{Middlewares: []string{Welcome}})
	assert.True(t, errors.IsReason(err, errors.ServiceResolutionFailure))
}

func TestRedisRepository(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()
	repo := NewRedisRepository(rdb, sequence(), "onboard:")

	f := newFixture(repo, false)
	h, err := Build(f.services, config.Pipeline{}, WithLogger(f.log))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h(context.Background(), NewRequest(f.services, customer())))
		}()
	}
	wg.Wait()

	assert.Len(t, f.notifier.Sent(), 1)
	assert.Len(t, f.log.errors(), 3)
	id, err := s.Get("onboard:email:testy@pipelines.dev")
	require.NoError(t, err)
	c, err := repo.GetCustomer(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "McTesterson", c.LastName)
	assert.False(t, s.Exists("onboard:lock:testy@pipelines.dev"))

	_, err = repo.GetCustomer(context.Background(), "missing")
	assert.Equal(t, CustomerNotFound, errors.Reason(err))
}
