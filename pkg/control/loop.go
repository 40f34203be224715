// Package control implements the single logical control thread on which
// binding mutations and resource queries run.
//
// Go has no thread identity, so the loop marks the contexts it hands to its
// tasks. Operations that must run on the loop take a context and call
// [Loop.Check]; a context that did not come from the loop is rejected with
// [ErrWrongThread].
package control

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/lifecoord/internal/domain"
	"github.com/bft-labs/lifecoord/pkg/log"
)

var (
	// ErrWrongThread is returned by Check for contexts not owned by the loop.
	ErrWrongThread = domain.ErrWrongThread

	// ErrLoopStopped is returned when posting to a loop that is not running.
	ErrLoopStopped = domain.ErrLoopStopped
)

type loopKey struct{}

// Task is a unit of work executed on the loop.
type Task func(ctx context.Context)

// Loop serializes tasks on one goroutine.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Task
	running bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	logger  log.Logger
}

// NewLoop creates a loop. Call Start before posting work.
func NewLoop(logger log.Logger) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		cancel: cancel,
		done:   make(chan struct{}),
		logger: log.OrNoop(logger).With(log.Component("control")),
	}
	l.cond = sync.NewCond(&l.mu)
	l.ctx = context.WithValue(ctx, loopKey{}, l)
	return l
}

// Start launches the loop goroutine. Starting twice is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running || l.stopped {
		return
	}
	l.running = true
	go l.run()
}

// Stop cancels the loop context, lets the loop finish queued tasks and
// waits for it to exit. Stop must not be called from the loop itself.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	wasRunning := l.running
	l.cond.Broadcast()
	l.mu.Unlock()

	l.cancel()
	if wasRunning {
		<-l.done
	}
}

// Post enqueues task without waiting for it.
func (l *Loop) Post(task Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped || !l.running {
		return ErrLoopStopped
	}
	l.queue = append(l.queue, task)
	l.cond.Signal()
	return nil
}

// Do runs fn on the loop and returns its error. When ctx already belongs to
// the loop, fn runs inline. Otherwise Do waits for fn or for ctx to end.
func (l *Loop) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if l.Owns(ctx) {
		return fn(ctx)
	}

	result := make(chan error, 1)
	if err := l.Post(func(loopCtx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("control task panicked: %v", r)
			}
		}()
		result <- fn(loopCtx)
	}); err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Owns reports whether ctx was handed out by this loop.
func (l *Loop) Owns(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	owner, _ := ctx.Value(loopKey{}).(*Loop)
	return owner == l
}

// Check returns ErrWrongThread unless ctx belongs to the loop.
func (l *Loop) Check(ctx context.Context) error {
	if !l.Owns(ctx) {
		return ErrWrongThread
	}
	return nil
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.stopped {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.exec(task)
	}
}

func (l *Loop) exec(task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("control task panicked", log.String("panic", fmt.Sprint(r)))
		}
	}()
	task(l.ctx)
}
