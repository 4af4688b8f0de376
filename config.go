package paralleljob

import (
	"runtime"
	"time"

	"github.com/xraph/paralleljob/job"
)

// Config holds configuration for the Scheduler.
type Config struct {
	// PoolWorkers is the number of dispatcher goroutines in the owned
	// executor pool. Ignored when an external executor is supplied.
	PoolWorkers int

	// MaxWorkers is the default per-job worker ceiling, capped at
	// job.MaxWorkers.
	MaxWorkers int

	// DefaultPriority is the priority jobs are posted with unless
	// overridden per job.
	DefaultPriority job.Priority

	// ShutdownTimeout bounds Stop when the caller's context carries no
	// deadline of its own.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PoolWorkers:     runtime.NumCPU(),
		MaxWorkers:      min(runtime.NumCPU(), job.MaxWorkers),
		DefaultPriority: job.PriorityNormal,
		ShutdownTimeout: 30 * time.Second,
	}
}
