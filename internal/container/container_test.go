package container

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{ n int }

func TestBind_Transient(t *testing.T) {
	c := New()
	calls := 0
	c.Bind("widget", func(Maker) (any, error) {
		calls++
		return &widget{n: calls}, nil
	})

	a, err := c.Make("widget")
	require.NoError(t, err)
	b, err := c.Make("widget")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, calls)
}

func TestSingleton_Shared(t *testing.T) {
	c := New()
	c.Singleton("widget", func(Maker) (any, error) { return &widget{}, nil })

	a, err := c.Make("widget")
	require.NoError(t, err)
	b, err := c.Make("widget")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestSingleton_ConcurrentMake(t *testing.T) {
	c := New()
	c.Singleton("widget", func(Maker) (any, error) { return &widget{}, nil })

	var wg sync.WaitGroup
	got := make([]any, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = c.Make("widget")
		}(i)
	}
	wg.Wait()
	for _, v := range got[1:] {
		assert.Same(t, got[0], v)
	}
}

func TestInstance(t *testing.T) {
	c := New()
	w := &widget{n: 7}
	c.Instance("widget", w)
	v, err := c.Make("widget")
	require.NoError(t, err)
	assert.Same(t, w, v)
}

func TestAlias(t *testing.T) {
	c := New()
	c.Instance("services.hub", "hub")
	require.NoError(t, c.Alias("services.hub", "wp"))
	require.NoError(t, c.Alias("wp", "api"))

	assert.True(t, c.Bound("wp"))
	assert.True(t, c.Bound("api"))
	v, err := c.Make("api")
	require.NoError(t, err)
	assert.Equal(t, "hub", v)

	assert.ErrorIs(t, c.Alias("x", "x"), ErrInvalidAlias)
	assert.ErrorIs(t, c.Alias("api", "services.hub"), ErrInvalidAlias)
	assert.Equal(t, []string{"api", "services.hub", "wp"}, c.Keys())
}

func TestBindReplacesAlias(t *testing.T) {
	c := New()
	c.Instance("a", 1)
	require.NoError(t, c.Alias("a", "b"))
	c.Instance("b", 2)
	v, err := c.Make("b")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestMake_NotBound(t *testing.T) {
	c := New()
	assert.False(t, c.Bound("wp.caps"))
	_, err := c.Make("wp.caps")
	assert.ErrorIs(t, err, ErrNotBound)
	assert.Contains(t, err.Error(), "[wp.caps]")
}

func TestMake_Dependencies(t *testing.T) {
	c := New()
	c.Instance("n", 3)
	c.Singleton("widget", func(r Maker) (any, error) {
		n, err := Resolve[int](r, "n")
		if err != nil {
			return nil, err
		}
		return &widget{n: n}, nil
	})

	w, err := Resolve[*widget](c, "widget")
	require.NoError(t, err)
	assert.Equal(t, 3, w.n)
}

func TestMake_Circular(t *testing.T) {
	c := New()
	c.Singleton("a", func(r Maker) (any, error) { return r.Make("b") })
	c.Singleton("b", func(r Maker) (any, error) { return r.Make("a") })

	_, err := c.Make("a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircular))
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestMake_FactoryError(t *testing.T) {
	c := New()
	boom := errors.New("boom")
	calls := 0
	c.Singleton("w", func(Maker) (any, error) {
		calls++
		return nil, boom
	})

	_, err := c.Make("w")
	assert.ErrorIs(t, err, boom)
	_, err = c.Make("w")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls, "failed singletons are retried")
}

func TestResolve_TypeMismatch(t *testing.T) {
	c := New()
	c.Instance("w", &widget{})
	_, err := Resolve[fmt.Stringer](c, "w")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), "fmt.Stringer")
}
