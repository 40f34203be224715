package resource

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepository_Init(t *testing.T) {
	f := newFakeFactory(newFake("1", ClassFront), newFake("0", ClassBack))
	repo := NewRepository(nil)

	require.NoError(t, repo.Init(context.Background(), f))
	require.Equal(t, []string{"0", "1"}, ids(repo.Resources()))
	require.Equal(t, 2, repo.Len())

	res, err := repo.Get("1")
	require.NoError(t, err)
	require.Equal(t, ClassFront, res.Info().Class)

	_, err = repo.Get("9")
	require.ErrorIs(t, err, ErrUnknownResource)
}

func TestRepository_InitFailureClosesOpened(t *testing.T) {
	ok := newFake("0", ClassBack)
	f := newFakeFactory(ok, newFake("1", ClassFront))
	f.failIDs["1"] = true
	repo := NewRepository(nil)

	err := repo.Init(context.Background(), f)
	require.Error(t, err)
	require.True(t, ok.isClosed(), "already opened resource must be closed")
	require.Zero(t, repo.Len())
}

func TestRepository_Refresh(t *testing.T) {
	keep := newFake("0", ClassBack)
	gone := newFake("1", ClassFront)
	f := newFakeFactory(keep, gone)
	repo := NewRepository(nil)
	require.NoError(t, repo.Init(context.Background(), f))

	f.set(keep, newFake("2", "external"))
	removed, err := repo.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, removed)

	require.Equal(t, []string{"0", "2"}, ids(repo.Resources()))
	require.True(t, gone.isClosed())
	require.False(t, keep.isClosed())
}

func TestRepository_RefreshBeforeInit(t *testing.T) {
	_, err := NewRepository(nil).Refresh(context.Background())
	require.Error(t, err)
}

func TestRepository_ConcurrentRefresh(t *testing.T) {
	f := newFakeFactory(newFake("0", ClassBack))
	repo := NewRepository(nil)
	require.NoError(t, repo.Init(context.Background(), f))
	f.set(newFake("0", ClassBack), newFake("1", ClassFront))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Refresh(context.Background())
		}()
	}
	wg.Wait()

	require.Equal(t, []string{"0", "1"}, ids(repo.Resources()))
}

func TestRepository_Deinit(t *testing.T) {
	a := newFake("0", ClassBack)
	b := newFake("1", ClassFront)
	b.closeErr = errors.New("stuck")
	repo := NewRepository(nil)
	require.NoError(t, repo.Init(context.Background(), newFakeFactory(a, b)))

	err := repo.Deinit(context.Background())
	require.ErrorContains(t, err, "stuck")
	require.True(t, a.isClosed())
	require.True(t, b.isClosed())
	require.Zero(t, repo.Len())

	// A second deinit has nothing to close.
	require.NoError(t, repo.Deinit(context.Background()))
}
