package paralleljob

import (
	"context"
	"log/slog"
	"sync"

	"github.com/xraph/paralleljob/executor"
	"github.com/xraph/paralleljob/ext"
	"github.com/xraph/paralleljob/job"
)

// Option configures a Scheduler.
type Option func(*Scheduler) error

// Scheduler is the central coordinator: it owns (or borrows) an executor,
// posts jobs onto it, and fans lifecycle events out to registered
// extensions.
//
// Create one with New() and functional options, Start it, then post jobs.
// Handles returned by PostJob follow the job.Handle disposal contract:
// each must be Joined or Canceled exactly once.
type Scheduler struct {
	config     Config
	logger     *slog.Logger
	exec       job.Executor
	throttle   *executor.Throttle
	extensions []ext.Extension
	registry   *ext.Registry
	monitor    job.Monitor

	// pool is the owned executor, nil when WithExecutor supplied one.
	pool *executor.Pool

	mu      sync.Mutex
	started bool
	stopped bool
}

// New creates a new Scheduler with the given options.
func New(opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.registry = ext.NewRegistry(s.logger)
	for _, e := range s.extensions {
		s.registry.Register(e)
		s.logger.Debug("registered extension", slog.String("extension", e.Name()))
	}
	s.monitor = &extMonitor{registry: s.registry}

	return s, nil
}

// Logger returns the scheduler's logger.
func (s *Scheduler) Logger() *slog.Logger { return s.logger }

// Config returns a copy of the scheduler's configuration.
func (s *Scheduler) Config() Config { return s.config }

// Extensions returns the registered extensions.
func (s *Scheduler) Extensions() []ext.Extension { return s.registry.Extensions() }

// Start makes the scheduler ready to accept jobs. When no external
// executor was configured, an owned executor pool is created and started.
// A second Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return nil
	}

	if s.exec == nil {
		poolOpts := []executor.Option{executor.WithWorkers(s.config.PoolWorkers)}
		if s.throttle != nil {
			poolOpts = append(poolOpts, executor.WithThrottle(s.throttle))
		}
		s.pool = executor.NewPool(s.logger, poolOpts...)
		if err := s.pool.Start(ctx); err != nil {
			return err
		}
		s.exec = s.pool
	}

	s.started = true
	s.logger.Info("scheduler started",
		slog.Int("max_workers", s.config.MaxWorkers),
	)
	return nil
}

// Stop gracefully shuts down the scheduler: the owned executor pool is
// drained and extensions receive their shutdown hook. When ctx carries no
// deadline, Config.ShutdownTimeout bounds the wait. Jobs whose handles
// are still live keep their state; their owners must still Join or Cancel.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	var err error
	if s.pool != nil {
		err = s.pool.Stop(ctx)
	}
	s.registry.EmitShutdown(ctx)
	s.logger.Info("scheduler stopped")
	return err
}

// PostJob creates a new job for the task, posts its initial worker batch,
// and returns the job's handle. The caller owns the handle and must
// dispose it exactly once via Join or Cancel.
func (s *Scheduler) PostJob(task job.Task, opts ...JobOption) (*job.Handle, error) {
	if task == nil {
		return nil, ErrNilTask
	}

	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		return nil, ErrStopped
	case !s.started:
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	exec := s.exec
	s.mu.Unlock()

	settings := jobSettings{
		priority:   s.config.DefaultPriority,
		maxWorkers: s.config.MaxWorkers,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	state := job.NewState(task, exec, settings.priority, settings.maxWorkers, s.logger, s.monitor)
	s.registry.EmitJobPosted(context.Background(), state.ID(), settings.maxWorkers)
	state.NotifyConcurrencyIncrease()

	s.logger.Debug("job posted",
		slog.String("job_id", state.ID().String()),
		slog.String("priority", settings.priority.String()),
		slog.Int("max_workers", settings.maxWorkers),
	)
	return job.NewHandle(state), nil
}

// Run posts the task and joins it on the calling goroutine, returning
// once the task has drained. Convenience for the post-then-join pattern.
func (s *Scheduler) Run(task job.Task, opts ...JobOption) error {
	h, err := s.PostJob(task, opts...)
	if err != nil {
		return err
	}
	h.Join()
	return nil
}

// ──────────────────────────────────────────────────
// Scheduler options
// ──────────────────────────────────────────────────

// WithLogger sets the structured logger for the scheduler.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) error {
		s.logger = l
		return nil
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option {
	return func(s *Scheduler) error {
		s.config = c
		return nil
	}
}

// WithPoolWorkers sets the number of dispatcher goroutines in the owned
// executor pool.
func WithPoolWorkers(n int) Option {
	return func(s *Scheduler) error {
		s.config.PoolWorkers = n
		return nil
	}
}

// WithMaxWorkers sets the default per-job worker ceiling.
func WithMaxWorkers(n int) Option {
	return func(s *Scheduler) error {
		s.config.MaxWorkers = n
		return nil
	}
}

// WithDefaultPriority sets the priority jobs are posted with unless
// overridden per job.
func WithDefaultPriority(p job.Priority) Option {
	return func(s *Scheduler) error {
		s.config.DefaultPriority = p
		return nil
	}
}

// WithExecutor supplies an external executor. The scheduler will not
// create an owned pool, and Stop will not touch the executor's lifecycle.
func WithExecutor(e job.Executor) Option {
	return func(s *Scheduler) error {
		if e == nil {
			return ErrNoExecutor
		}
		s.exec = e
		return nil
	}
}

// WithThrottle installs per-priority-class rate limiting on the owned
// executor pool. Ignored when an external executor is supplied.
func WithThrottle(t *executor.Throttle) Option {
	return func(s *Scheduler) error {
		s.throttle = t
		return nil
	}
}

// WithExtensions registers lifecycle extensions. Extensions are notified
// in registration order.
func WithExtensions(exts ...ext.Extension) Option {
	return func(s *Scheduler) error {
		s.extensions = append(s.extensions, exts...)
		return nil
	}
}

// ──────────────────────────────────────────────────
// Per-job options
// ──────────────────────────────────────────────────

type jobSettings struct {
	priority   job.Priority
	maxWorkers int
}

// JobOption configures one posted job.
type JobOption func(*jobSettings)

// WithPriority sets the priority the job's workers are posted with.
func WithPriority(p job.Priority) JobOption {
	return func(js *jobSettings) { js.priority = p }
}

// WithJobMaxWorkers sets this job's worker ceiling, capped at
// job.MaxWorkers.
func WithJobMaxWorkers(n int) JobOption {
	return func(js *jobSettings) { js.maxWorkers = n }
}
