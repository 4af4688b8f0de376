// Package ext defines the extension system for paralleljob. Extensions
// are notified of lifecycle events (job posted, worker started, job
// canceled, etc.) and can react to them — logging, metrics, tracing.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/paralleljob/id"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobPosted is called when a job is created and its initial worker batch
// is about to be posted. maxWorkers is the job's concurrency ceiling.
type JobPosted interface {
	OnJobPosted(ctx context.Context, jobID id.JobID, maxWorkers int) error
}

// WorkerStarted is called when a worker claims a run slot. active is the
// worker count including the new worker.
type WorkerStarted interface {
	OnWorkerStarted(ctx context.Context, jobID id.JobID, active int) error
}

// WorkerRetired is called when a worker leaves its run loop. active is
// the remaining worker count.
type WorkerRetired interface {
	OnWorkerRetired(ctx context.Context, jobID id.JobID, active int) error
}

// ConcurrencyIncreased is called when new workers are posted in response
// to a concurrency notification. posted is the number of new workers.
type ConcurrencyIncreased interface {
	OnConcurrencyIncreased(ctx context.Context, jobID id.JobID, posted int) error
}

// JobCanceled is called once per job, on its first cancellation.
type JobCanceled interface {
	OnJobCanceled(ctx context.Context, jobID id.JobID) error
}

// JobCompleted is called when a join drains a job completely. elapsed is
// the time since the job was created.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, jobID id.JobID, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful scheduler shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
