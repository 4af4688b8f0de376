package job

import (
	"time"

	"github.com/xraph/paralleljob/id"
)

// Monitor receives lifecycle notifications from a running job. Methods
// are called outside the state lock but possibly from many goroutines at
// once, so implementations must be fast and safe for concurrent use.
//
// The root paralleljob package bridges a Monitor to the ext.Registry
// hook system. This indirection keeps the job package free of an ext
// dependency.
type Monitor interface {
	// WorkerStarted is called after a worker passes CanRunFirstTask.
	// active is the worker count including the new worker.
	WorkerStarted(jobID id.JobID, active int)

	// WorkerRetired is called after a worker leaves its run loop.
	// active is the remaining worker count.
	WorkerRetired(jobID id.JobID, active int)

	// ConcurrencyIncreased is called when new workers are posted to the
	// executor in response to a concurrency notification.
	ConcurrencyIncreased(jobID id.JobID, posted int)

	// JobCanceled is called once, on the first cancellation of the job.
	JobCanceled(jobID id.JobID)

	// JobCompleted is called when a join drains the job completely.
	JobCompleted(jobID id.JobID, elapsed time.Duration)
}

// NopMonitor is a Monitor that discards every notification.
type NopMonitor struct{}

// WorkerStarted implements Monitor.
func (NopMonitor) WorkerStarted(id.JobID, int) {}

// WorkerRetired implements Monitor.
func (NopMonitor) WorkerRetired(id.JobID, int) {}

// ConcurrencyIncreased implements Monitor.
func (NopMonitor) ConcurrencyIncreased(id.JobID, int) {}

// JobCanceled implements Monitor.
func (NopMonitor) JobCanceled(id.JobID) {}

// JobCompleted implements Monitor.
func (NopMonitor) JobCompleted(id.JobID, time.Duration) {}
