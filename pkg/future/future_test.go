package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type inlineExecutor struct{}

func (inlineExecutor) Execute(task func()) error {
	go task()
	return nil
}

type rejectingExecutor struct{ err error }

func (r rejectingExecutor) Execute(func()) error { return r.err }

func TestFuture_FirstCompletionWins(t *testing.T) {
	f, complete := New[int]()
	require.False(t, f.IsDone())

	_, ok, _ := f.Result()
	require.False(t, ok)

	require.True(t, complete(1, nil))
	require.False(t, complete(2, errors.New("late")))

	val, ok, err := f.Result()
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, 1, val)
}

func TestFuture_ConcurrentWaiters(t *testing.T) {
	f, complete := New[string]()

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := f.Wait(context.Background())
			if err == nil {
				results[i] = v
			}
		}(i)
	}

	complete("ready", nil)
	wg.Wait()
	for i, r := range results {
		require.Equal(t, "ready", r, "waiter %d", i)
	}
}

func TestFuture_WaitHonorsContext(t *testing.T) {
	f, _ := New[Void]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolvedAndFailed(t *testing.T) {
	v, err := Resolved(7).Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, v)

	boom := errors.New("boom")
	_, err = Failed[int](boom).Wait(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestRun(t *testing.T) {
	f := Run(inlineExecutor{}, func() (int, error) { return 42, nil })
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestRun_Rejected(t *testing.T) {
	rejected := errors.New("rejected")
	_, err := Run(rejectingExecutor{err: rejected}, func() (int, error) { return 1, nil }).Wait(context.Background())
	require.ErrorIs(t, err, rejected)
}

func TestRun_Panic(t *testing.T) {
	_, err := Run(inlineExecutor{}, func() (int, error) { panic("kaboom") }).Wait(context.Background())
	require.ErrorContains(t, err, "kaboom")
}

func TestPropagate(t *testing.T) {
	src, completeSrc := New[int]()
	dst, completeDst := New[int]()
	Propagate(src, completeDst)

	completeSrc(3, nil)
	v, err := dst.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, v)
}
