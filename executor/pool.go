// Package executor provides the default goroutine-backed executor — a
// fixed-size Pool that runs posted job workers highest priority first,
// and an optional Throttle for per-priority-class rate and concurrency
// limits.
package executor

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/xraph/paralleljob/id"
	"github.com/xraph/paralleljob/job"
)

// Pool is a fixed set of dispatcher goroutines implementing
// job.Executor. Posted closures are queued per priority and drained
// highest priority first. Posting is fire-and-forget: no ordering or
// timing guarantee between submissions.
type Pool struct {
	size     int
	logger   *slog.Logger
	poolID   id.PoolWorkerID
	throttle *Throttle
	retry    time.Duration

	mu      sync.Mutex
	cond    sync.Cond
	queues  [job.NumPriorities][]func()
	running bool
	stopped bool

	wg sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the number of dispatcher goroutines.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithThrottle sets per-priority-class rate limiting and concurrency
// control.
func WithThrottle(t *Throttle) Option {
	return func(p *Pool) { p.throttle = t }
}

// WithRetryInterval sets how long a dispatcher backs off when only
// throttled work remains queued.
func WithRetryInterval(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.retry = d
		}
	}
}

// NewPool creates an executor pool. The default size is runtime.NumCPU().
func NewPool(logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		size:   runtime.NumCPU(),
		logger: logger,
		poolID: id.NewPoolWorkerID(),
		retry:  5 * time.Millisecond,
	}
	p.cond.L = &p.mu
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the pool's unique identifier.
func (p *Pool) ID() id.PoolWorkerID { return p.poolID }

// Start launches the dispatcher goroutines. It returns immediately and
// is a no-op when already started.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.stopped {
		return nil
	}
	p.running = true

	p.logger.Info("executor pool starting",
		slog.String("pool_id", p.poolID.String()),
		slog.Int("workers", p.size),
	)

	for range p.size {
		p.wg.Add(1)
		go p.dispatchLoop()
	}
	return nil
}

// Post implements job.Executor. Work posted after Stop is dropped with a
// warning; queued work posted before Start runs once Start is called.
func (p *Pool) Post(prio job.Priority, fn func()) {
	if fn == nil {
		return
	}
	if prio < job.PriorityLow {
		prio = job.PriorityLow
	}
	if prio > job.PriorityBlocking {
		prio = job.PriorityBlocking
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.logger.Warn("dropping work posted after pool stop",
			slog.String("pool_id", p.poolID.String()),
			slog.String("priority", prio.String()),
		)
		return
	}
	p.queues[prio] = append(p.queues[prio], fn)
	p.mu.Unlock()
	p.cond.Signal()
}

// Stop drains the queues and waits for the dispatchers to finish. If the
// context expires first, Stop returns its error while dispatchers keep
// draining in the background. A second Stop is a no-op.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.stopped = true
	p.mu.Unlock()

	p.logger.Info("executor pool stopping", slog.String("pool_id", p.poolID.String()))

	p.cond.Broadcast()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("executor pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.Warn("executor pool shutdown timed out")
		return ctx.Err()
	}
}

// dispatchLoop is run by each dispatcher goroutine.
func (p *Pool) dispatchLoop() {
	defer p.wg.Done()

	for {
		fn, prio, ok, throttled := p.next()
		if !ok {
			if throttled {
				p.sleep()
				continue
			}
			return
		}

		fn()
		if p.throttle != nil {
			p.throttle.Release(prio)
		}
	}
}

// next blocks until work is available. The last two results distinguish
// "pool drained and stopped" (false, false) from "only throttled work
// remains, back off and retry" (false, true).
func (p *Pool) next() (func(), job.Priority, bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		empty := true
		throttledOnly := false
		for prio := job.PriorityBlocking; prio >= job.PriorityLow; prio-- {
			q := p.queues[prio]
			if len(q) == 0 {
				continue
			}
			empty = false
			if p.throttle != nil && !p.throttle.Acquire(prio) {
				throttledOnly = true
				continue
			}
			fn := q[0]
			p.queues[prio] = q[1:]
			return fn, prio, true, false
		}

		if p.stopped && empty {
			return nil, 0, false, false
		}
		if throttledOnly {
			return nil, 0, false, true
		}
		p.cond.Wait()
	}
}

func (p *Pool) sleep() {
	// Throttled work has to wait out its rate limit even while the pool
	// drains after Stop.
	time.Sleep(p.retry)
}
