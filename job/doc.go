// Package job implements the core parallel job primitive: a user-supplied
// [Task] is run concurrently across a dynamically sized set of workers,
// where the task itself reports how much parallelism it can currently
// absorb.
//
// # Pieces
//
// [State] owns all shared, cross-thread mutable state for one job: worker
// counts, the cancellation flag, the task-id bitmap, and the mutex/condvar
// pair behind Join and CancelAndWait. Workers are one-shot closures posted
// to an [Executor]; each one claims a slot via CanRunFirstTask, invokes
// the task in a loop, and re-checks via DidRunTask after every invocation.
// [Handle] is the caller-facing view: join, cancel, completion check, and
// concurrency notifications.
//
// # Contract
//
// A Task must be re-entrant and safe to invoke concurrently from multiple
// workers. Its MaxConcurrency estimate is re-read at every scheduling
// decision, so it may change at any time, including from inside Run:
//
//	state := job.NewState(task, exec, job.PriorityNormal, 8, logger, nil)
//	handle := job.NewHandle(state)
//	handle.NotifyConcurrencyIncrease() // post the initial worker batch
//	handle.Join()
//
// Most callers go through the root paralleljob package instead, which
// wires the executor, extensions, and defaults.
//
// Cancellation is cooperative: Run must poll [Delegate.ShouldYield] and
// return promptly when it reports true. The poll is a single relaxed
// atomic load and never blocks.
package job
