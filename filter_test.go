package filterchain

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(ctx context.Context, n int) (int, error) {
	return n * 2, nil
}

func addOne(ctx context.Context, n int, svc Service[int, int]) (int, error) {
	return svc(ctx, n+1)
}

func stringify(ctx context.Context, n int, svc Service[int, int]) (string, error) {
	rsp, err := svc(ctx, n)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(rsp), nil
}

func TestServiceDirectCall(t *testing.T) {
	t.Parallel()
	svc := Service[int, string](func(ctx context.Context, n int) (string, error) {
		return strconv.Itoa(n), nil
	})

	rsp, err := svc(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "4", rsp)

	rsp, err = svc.Call(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "4", rsp)
}

func TestSimpleFilterAndThenService(t *testing.T) {
	t.Parallel()
	svc := SimpleFilter[int, int](addOne).AndThenService(double)

	rsp, err := svc(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 6, rsp)
}

func TestServiceFilter(t *testing.T) {
	t.Parallel()
	svc := Service[int, int](double).Filter(addOne)

	rsp, err := svc(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 6, rsp)
}

func TestFilterModifiesInputAndOutput(t *testing.T) {
	t.Parallel()
	f := SimpleFilter[int, int](func(ctx context.Context, n int, svc Service[int, int]) (int, error) {
		rsp, err := svc(ctx, n+1)
		return rsp + 1, err
	})

	rsp, err := f.AndThenService(double)(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 7, rsp) // ((2+1)*2)+1
}

func TestFilterChangesTypes(t *testing.T) {
	t.Parallel()
	type input struct{ value int }
	type output struct{ value int }
	f := Filter[input, output, int, int](func(ctx context.Context, in input, svc Service[int, int]) (output, error) {
		rsp, err := svc(ctx, in.value)
		return output{value: rsp}, err
	})

	rsp, err := f.AndThenService(double)(context.Background(), input{value: 2})
	require.NoError(t, err)
	assert.Equal(t, output{value: 4}, rsp)
}

func TestFilterComposedWithFunctionLiteral(t *testing.T) {
	t.Parallel()
	svc := Filter[int, string, int, int](stringify).AndThenService(func(ctx context.Context, n int) (int, error) {
		return n * 3, nil
	})

	rsp, err := svc(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "6", rsp)
}

func TestThreeStageChainAssociativity(t *testing.T) {
	t.Parallel()
	a := SimpleFilter[int, int](addOne)
	b := Filter[int, string, int, int](stringify)
	ctx := context.Background()

	// Filter the response on the way out, then add one on the way in
	grouped := AndThen(b, a).AndThenService(double)
	nested := b.AndThenService(a.AndThenService(double))

	for _, n := range []int{-3, 0, 2, 17} {
		g, err := grouped(ctx, n)
		require.NoError(t, err)
		nst, err := nested(ctx, n)
		require.NoError(t, err)
		assert.Equal(t, nst, g)
		assert.Equal(t, strconv.Itoa((n+1)*2), g)
	}

	rsp, err := grouped(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "6", rsp)
}

func TestAndThenMethod(t *testing.T) {
	t.Parallel()
	b := Filter[int, string, int, int](stringify)
	svc := b.AndThen(addOne).AndThen(addOne).AndThenService(double)

	rsp, err := svc(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "8", rsp)
}

func TestChainOrder(t *testing.T) {
	t.Parallel()
	var mtx sync.Mutex
	var trace []string
	record := func(name string) SimpleFilter[int, int] {
		return func(ctx context.Context, n int, svc Service[int, int]) (int, error) {
			mtx.Lock()
			trace = append(trace, name+">")
			mtx.Unlock()
			rsp, err := svc(ctx, n)
			mtx.Lock()
			trace = append(trace, "<"+name)
			mtx.Unlock()
			return rsp, err
		}
	}

	svc := Chain(record("a"), record("b"), record("c")).AndThenService(double)
	rsp, err := svc(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, rsp)
	assert.Equal(t, []string{"a>", "b>", "c>", "<c", "<b", "<a"}, trace)
}

func TestChainEmptyIsIdentity(t *testing.T) {
	t.Parallel()
	svc := Chain[int, int]().AndThenService(double)
	rsp, err := svc(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, 42, rsp)
}

type sentinelError struct{ code int }

func (e *sentinelError) Error() string { return "sentinel " + strconv.Itoa(e.code) }

func TestErrorsPropagateUnchanged(t *testing.T) {
	t.Parallel()
	expected := &sentinelError{code: 7}
	thrower := Service[int, int](func(ctx context.Context, n int) (int, error) {
		return 0, expected
	})

	_, err := thrower(context.Background(), 1)
	assert.Same(t, expected, err)

	svc := AndThen(Filter[int, string, int, int](stringify), SimpleFilter[int, int](addOne)).AndThenService(thrower)
	_, err = svc(context.Background(), 1)
	assert.Same(t, expected, err)
	var target *sentinelError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, 7, target.code)
}

func TestShortCircuitAndRetryFilters(t *testing.T) {
	t.Parallel()
	var calls int32
	flaky := Service[int, int](func(ctx context.Context, n int) (int, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return 0, errors.New("try again")
		}
		return n, nil
	})

	retry := SimpleFilter[int, int](func(ctx context.Context, n int, svc Service[int, int]) (rsp int, err error) {
		for i := 0; i < 5; i++ {
			if rsp, err = svc(ctx, n); err == nil {
				return rsp, nil
			}
		}
		return rsp, err
	})
	rsp, err := retry.AndThenService(flaky)(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 9, rsp)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	cached := SimpleFilter[int, int](func(ctx context.Context, n int, svc Service[int, int]) (int, error) {
		return -1, nil
	})
	rsp, err = cached.AndThenService(flaky)(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, -1, rsp)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFilterReuseIsIndependent(t *testing.T) {
	t.Parallel()
	f := SimpleFilter[int, int](addOne)
	triple := func(ctx context.Context, n int) (int, error) { return n * 3, nil }

	doubled := f.AndThenService(double)
	tripled := f.AndThenService(triple)
	ctx := context.Background()

	rsp, err := doubled(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, rsp)
	rsp, err = tripled(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 9, rsp)
	rsp, err = doubled(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, rsp)
	rsp, err = f(ctx, 2, double)
	require.NoError(t, err)
	assert.Equal(t, 6, rsp)
}

func TestConcurrentCalls(t *testing.T) {
	t.Parallel()
	svc := Chain[int, int](addOne, addOne).AndThenService(double)

	var wg sync.WaitGroup
	results := make([]int, 100)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rsp, err := svc(context.Background(), i)
			assert.NoError(t, err)
			results[i] = rsp
		}(i)
	}
	wg.Wait()
	for i, rsp := range results {
		assert.Equal(t, (i+2)*2, rsp)
	}
}

func TestContextReachesService(t *testing.T) {
	t.Parallel()
	type ctxKey struct{}
	svc := Service[int, string](func(ctx context.Context, n int) (string, error) {
		v, _ := ctx.Value(ctxKey{}).(string)
		return v, nil
	})
	composed := AndThen(Filter[int, string, int, string](func(ctx context.Context, n int, svc Service[int, string]) (string, error) {
		return svc(ctx, n)
	}), Identity[int, string]()).AndThenService(svc)

	ctx := context.WithValue(context.Background(), ctxKey{}, "carried")
	rsp, err := composed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "carried", rsp)
}
