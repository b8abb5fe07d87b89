package di

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repo interface {
	Save(string) error
}

type memRepo struct{ n int }

func (m *memRepo) Save(string) error { m.n++; return nil }

type greeter struct{ r repo }

func TestValue(t *testing.T) {
	r := &memRepo{}
	c := Value[repo](NewContainer(), r)

	got, err := Resolve[repo](c)
	require.NoError(t, err)
	assert.Same(t, r, got)
	assert.True(t, c.Has(TypeOf[repo]()))
}

func TestNotFound(t *testing.T) {
	_, err := Resolve[repo](NewContainer())
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = Resolve[repo](nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProvideSingleton(t *testing.T) {
	var built int32
	c := NewContainer()
	Value[repo](c, &memRepo{})
	Provide(c, func(r Resolver) (*greeter, error) {
		atomic.AddInt32(&built, 1)
		rp, err := Resolve[repo](r)
		if err != nil {
			return nil, err
		}
		return &greeter{r: rp}, nil
	})

	var wg sync.WaitGroup
	seen := make([]*greeter, 8)
	for i := range seen {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i], _ = Resolve[*greeter](c)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), built)
	for _, g := range seen {
		assert.Same(t, seen[0], g)
	}
}

func TestProvideFailure(t *testing.T) {
	c := Provide(NewContainer(), func(Resolver) (*greeter, error) {
		return nil, fmt.Errorf("no db")
	})
	_, err := c.Resolve(reflect.TypeOf(&greeter{}))
	assert.ErrorContains(t, err, "no db")
}

func TestParentAndFunc(t *testing.T) {
	parent := ResolverFunc(func(t reflect.Type) (any, error) {
		if t == TypeOf[string]() {
			return "from parent", nil
		}
		return nil, ErrNotFound
	})
	c := NewContainer(WithParent(parent))
	s, err := Resolve[string](c)
	require.NoError(t, err)
	assert.Equal(t, "from parent", s)
}

func TestResolveWrongType(t *testing.T) {
	r := ResolverFunc(func(reflect.Type) (any, error) { return 42, nil })
	_, err := Resolve[string](r)
	assert.Error(t, err)
}
