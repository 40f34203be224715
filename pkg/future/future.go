// Package future provides a minimal completion primitive used to express
// happens-after ordering between asynchronous initialize and shutdown work.
//
// A Future is completed exactly once. Waiters observe completion through
// Done, Wait or OnComplete; later completion attempts are ignored.
package future

import (
	"context"
	"fmt"
	"sync"
)

// Void is the value type of futures that carry no result.
type Void = struct{}

// Executor runs tasks asynchronously.
type Executor interface {
	Execute(task func()) error
}

// Future is the read side of an asynchronous result.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// Completer resolves a Future. Only the first call has an effect; it
// reports whether this call completed the future.
type Completer[T any] func(val T, err error) bool

// New returns a pending future and its completer.
func New[T any]() (*Future[T], Completer[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.complete
}

// Resolved returns a future already completed with val.
func Resolved[T any](val T) *Future[T] {
	f, complete := New[T]()
	complete(val, nil)
	return f
}

// Failed returns a future already completed with err.
func Failed[T any](err error) *Future[T] {
	f, complete := New[T]()
	var zero T
	complete(zero, err)
	return f
}

// Run executes fn on exec and completes the returned future with its result.
// A rejected submission or a panic in fn fails the future.
func Run[T any](exec Executor, fn func() (T, error)) *Future[T] {
	f, complete := New[T]()
	err := exec.Execute(func() {
		var zero T
		defer func() {
			if r := recover(); r != nil {
				complete(zero, fmt.Errorf("panic: %v", r))
			}
		}()
		complete(fn())
	})
	if err != nil {
		var zero T
		complete(zero, err)
	}
	return f
}

func (f *Future[T]) complete(val T, err error) bool {
	completed := false
	f.once.Do(func() {
		f.val = val
		f.err = err
		completed = true
		close(f.done)
	})
	return completed
}

// Done returns a channel closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future has completed.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome without blocking. ok is false while pending.
func (f *Future[T]) Result() (val T, ok bool, err error) {
	if !f.IsDone() {
		return val, false, nil
	}
	return f.val, true, f.err
}

// Wait blocks until the future completes or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete calls fn from a new goroutine once the future completes.
func (f *Future[T]) OnComplete(fn func(val T, err error)) {
	go func() {
		<-f.done
		fn(f.val, f.err)
	}()
}

// Propagate completes complete with the outcome of f once f is done.
func Propagate[T any](f *Future[T], complete Completer[T]) {
	f.OnComplete(func(val T, err error) { complete(val, err) })
}
