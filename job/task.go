package job

// Priority controls how posted workers compete for executor threads.
// Higher priorities are scheduled first.
type Priority int

// Priority levels, lowest first.
const (
	// PriorityLow is for work that should only use idle capacity.
	PriorityLow Priority = iota
	// PriorityNormal is the default for background parallel work.
	PriorityNormal
	// PriorityBlocking is for work a caller is actively waiting on.
	// Join boosts a job to this priority automatically.
	PriorityBlocking
)

// NumPriorities is the number of distinct priority levels.
const NumPriorities = 3

// String returns the lowercase name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityBlocking:
		return "blocking"
	default:
		return "unknown"
	}
}

// Task is the user-supplied unit of repeatable, re-entrant work. It is
// opaque to the scheduler: Run is invoked repeatedly and concurrently
// from multiple workers until MaxConcurrency reports zero or the job is
// canceled.
type Task interface {
	// Run performs one unit of work. Implementations must periodically
	// check d.ShouldYield() and return promptly when it reports true.
	// They may call d.NotifyConcurrencyIncrease() when new work appears
	// and d.TaskID() to index per-worker scratch state.
	Run(d Delegate)

	// MaxConcurrency estimates how many workers could usefully run right
	// now, given that active workers are already running. It must be
	// safe to call concurrently and repeatedly, and its return value may
	// change between calls (e.g. as a shared work queue drains).
	MaxConcurrency(active int) int
}

// Delegate is handed to Task.Run and is valid for the lifetime of one
// worker's run loop.
type Delegate interface {
	// ShouldYield reports whether the task should return as soon as
	// possible. The read is lock-free and may be momentarily stale;
	// cancellation is prompt, not instant.
	ShouldYield() bool

	// NotifyConcurrencyIncrease signals that more parallel slots may now
	// be usable than were posted so far.
	NotifyConcurrencyIncrease()

	// TaskID returns an id in [0, MaxWorkers), stable for the current
	// worker's run loop. It is acquired lazily on first use.
	TaskID() uint8
}

// Executor posts deferred units of work for eventual execution on some
// worker thread. Fire-and-forget: implementations guarantee neither
// ordering nor timing between submissions.
type Executor interface {
	Post(p Priority, fn func())
}
