// Package executor provides the worker pool that runs long-running
// initialization, teardown and resource work off the control loop.
package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/lifecoord/internal/domain"
	"github.com/bft-labs/lifecoord/pkg/log"
)

// ErrRejected is returned by Execute after Deinit.
var ErrRejected = domain.ErrRejected

// DefaultWorkers is the size of a pool created with a non-positive worker count.
const DefaultWorkers = 1

// Pool is a fixed-but-growable set of worker goroutines draining an
// unbounded FIFO queue. Tasks never block the submitter.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	workers int
	closed  bool
	wg      sync.WaitGroup
	logger  log.Logger
}

// NewPool starts a pool with the given number of workers.
func NewPool(workers int, logger log.Logger) *Pool {
	p := &Pool{logger: log.OrNoop(logger).With(log.Component("executor"))}
	p.cond = sync.NewCond(&p.mu)
	if workers <= 0 {
		workers = DefaultWorkers
	}
	p.Resize(workers)
	return p
}

// Execute enqueues task. It returns ErrRejected once the pool is deinitialized.
func (p *Pool) Execute(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrRejected
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return nil
}

// Resize grows the pool to n workers. Pools never shrink.
func (p *Pool) Resize(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	for p.workers < n {
		p.workers++
		p.wg.Add(1)
		go p.work(p.workers)
	}
}

// Workers returns the current number of workers.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Deinit rejects new tasks, lets the workers drain the queue and waits for
// them to exit. It returns ctx.Err() if ctx ends first; the workers keep
// draining in the background in that case.
func (p *Pool) Deinit(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		p.cond.Broadcast()
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.Warn("executor deinit timed out")
		return ctx.Err()
	}
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(id, task)
	}
}

func (p *Pool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked",
				log.Int("worker", id),
				log.String("panic", fmt.Sprint(r)))
		}
	}()
	task()
}
