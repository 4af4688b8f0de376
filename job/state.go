package job

import (
	"fmt"
	"log/slog"
	"math/bits"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/paralleljob/id"
)

// MaxWorkers is the hard ceiling on concurrently distinguishable workers
// per job, fixed by the width of the task-id bitmap.
const MaxWorkers = 32

// State owns all shared, cross-thread mutable state for one job: worker
// counts, the cancellation flag, the task-id allocation bitmap, and the
// synchronization behind Join and CancelAndWait.
//
// A State is shared between the job's Handle and every posted worker.
// Workers reach it through a non-owning reference that the Handle clears
// on detach, so a worker scheduled after the job is disposed discards
// itself without touching the state.
type State struct {
	id      id.JobID
	task    Task
	exec    Executor
	logger  *slog.Logger
	monitor Monitor
	created time.Time

	// ref is the non-owning reference handed to posted workers.
	ref stateRef

	// mu guards priority, activeWorkers, pendingTasks and maxWorkers.
	// workerReleased is signaled whenever a worker retires, which is the
	// only state change joiners and cancelers wait for.
	mu             sync.Mutex
	workerReleased sync.Cond
	priority       Priority

	// activeWorkers is the number of workers currently inside their run
	// loop. pendingTasks counts workers posted to the executor that have
	// not yet called CanRunFirstTask.
	activeWorkers int
	pendingTasks  int

	// maxWorkers is the hard per-job concurrency ceiling, independent of
	// the task's own estimate. Join raises it by one for the joining
	// thread, still capped at MaxWorkers.
	maxWorkers int

	// isCanceled is read lock-free on the ShouldYield hot path. Set once;
	// cancellation is not reversible.
	isCanceled atomic.Bool

	// assignedTaskIDs has bit i set while task id i is held by a worker.
	assignedTaskIDs atomic.Uint32
}

// NewState creates the shared state for one job. maxWorkers is clamped to
// [1, MaxWorkers]. A nil monitor is replaced by NopMonitor.
//
// The state posts no workers by itself; call NotifyConcurrencyIncrease
// once to post the initial batch.
func NewState(task Task, exec Executor, priority Priority, maxWorkers int, logger *slog.Logger, monitor Monitor) *State {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxWorkers > MaxWorkers {
		maxWorkers = MaxWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	if monitor == nil {
		monitor = NopMonitor{}
	}

	s := &State{
		id:         id.NewJobID(),
		task:       task,
		exec:       exec,
		logger:     logger,
		monitor:    monitor,
		created:    time.Now(),
		priority:   priority,
		maxWorkers: maxWorkers,
	}
	s.workerReleased.L = &s.mu
	s.ref.p.Store(s)
	return s
}

// ID returns the job's identifier, used for log and trace correlation.
func (s *State) ID() id.JobID { return s.id }

// NotifyConcurrencyIncrease recomputes the capped maximum concurrency and
// posts one new worker for every free slot between the current
// active+pending count and that cap. No-op when already at the cap or
// when the job is canceled.
func (s *State) NotifyConcurrencyIncrease() {
	if s.isCanceled.Load() {
		return
	}

	var toPost int
	s.mu.Lock()
	if max := s.cappedMaxConcurrencyLocked(s.activeWorkers); max > s.activeWorkers+s.pendingTasks {
		toPost = max - s.activeWorkers - s.pendingTasks
		s.pendingTasks += toPost
	}
	priority := s.priority
	s.mu.Unlock()

	if toPost == 0 {
		return
	}

	for range toPost {
		s.postWorker(priority)
	}

	s.monitor.ConcurrencyIncreased(s.id, toPost)
	s.logger.Debug("posted job workers",
		slog.String("job_id", s.id.String()),
		slog.Int("posted", toPost),
	)
}

// postWorker submits one one-shot worker to the executor. The worker
// holds only the non-owning reference.
func (s *State) postWorker(p Priority) {
	w := &worker{ref: &s.ref}
	s.exec.Post(p, w.run)
}

// AcquireTaskID atomically claims the lowest clear bit of the task-id
// bitmap. It panics when all MaxWorkers ids are taken; the constructor
// bounds the worker ceiling so that cannot happen through the public API.
func (s *State) AcquireTaskID() uint8 {
	for {
		assigned := s.assignedTaskIDs.Load()
		taskID := uint8(bits.TrailingZeros32(^assigned))
		if taskID >= MaxWorkers {
			panic("paralleljob: task id pool exhausted")
		}
		if s.assignedTaskIDs.CompareAndSwap(assigned, assigned|uint32(1)<<taskID) {
			return taskID
		}
	}
}

// ReleaseTaskID atomically clears the bit claimed by AcquireTaskID. It
// panics when the id is not currently held (double release or release of
// a never-acquired id is a contract violation).
func (s *State) ReleaseTaskID(taskID uint8) {
	mask := uint32(1) << taskID
	for {
		assigned := s.assignedTaskIDs.Load()
		if assigned&mask == 0 {
			panic(fmt.Sprintf("paralleljob: release of task id %d that is not held", taskID))
		}
		if s.assignedTaskIDs.CompareAndSwap(assigned, assigned&^mask) {
			return
		}
	}
}

// CanRunFirstTask must be called once by a freshly scheduled worker
// before it does any work. True means the worker claimed a slot and must
// run the task then call DidRunTask; false means it must return without
// running anything.
func (s *State) CanRunFirstTask() bool {
	s.mu.Lock()
	s.pendingTasks--
	if s.isCanceled.Load() || s.activeWorkers >= s.cappedMaxConcurrencyLocked(s.activeWorkers) {
		s.mu.Unlock()
		return false
	}
	s.activeWorkers++
	active := s.activeWorkers
	s.mu.Unlock()

	s.monitor.WorkerStarted(s.id, active)
	return true
}

// DidRunTask must be called by a worker after each task invocation. True
// means the worker still has a slot and must run the task again; false
// means the worker retired and its run loop ends.
func (s *State) DidRunTask() bool {
	s.mu.Lock()
	// Re-check against the concurrency the job would have if this worker
	// retired: a shrinking estimate takes effect here.
	if s.isCanceled.Load() || s.activeWorkers > s.cappedMaxConcurrencyLocked(s.activeWorkers-1) {
		s.activeWorkers--
		active := s.activeWorkers
		s.workerReleased.Signal()
		s.mu.Unlock()

		s.monitor.WorkerRetired(s.id, active)
		return false
	}
	s.mu.Unlock()
	return true
}

// Join turns the calling thread into a worker until the job is drained.
// The job is boosted to PriorityBlocking and the worker ceiling grows by
// one to account for the joining thread. Returns only when the task
// reports zero desired concurrency and all workers have retired.
func (s *State) Join() {
	s.mu.Lock()
	s.priority = PriorityBlocking
	if s.maxWorkers < MaxWorkers {
		s.maxWorkers++
	}
	s.activeWorkers++
	active := s.activeWorkers
	s.mu.Unlock()

	// The joining thread counts as a worker from here until the drain.
	s.monitor.WorkerStarted(s.id, active)

	s.mu.Lock()
	canRun := s.waitForParticipationOpportunityLocked()
	s.mu.Unlock()

	if !canRun {
		s.finishJoin()
		return
	}

	d := newDelegate(s)
	defer d.release()
	for {
		s.task.Run(d)

		s.mu.Lock()
		canRun = s.waitForParticipationOpportunityLocked()
		s.mu.Unlock()
		if !canRun {
			s.finishJoin()
			return
		}
	}
}

// waitForParticipationOpportunityLocked blocks the joining thread until
// it may run a task, which happens when a worker retires. Returns false
// when joining completed instead: capped concurrency reached zero and the
// joiner is the last worker standing, in which case it retires and marks
// the job canceled so stale posted workers discard themselves.
func (s *State) waitForParticipationOpportunityLocked() bool {
	max := s.cappedMaxConcurrencyLocked(s.activeWorkers - 1)
	for s.activeWorkers > max && s.activeWorkers > 1 {
		s.workerReleased.Wait()
		max = s.cappedMaxConcurrencyLocked(s.activeWorkers - 1)
	}
	if s.activeWorkers <= max {
		return true
	}

	// max == 0 and the joiner is the only remaining worker: drained.
	s.activeWorkers = 0
	s.isCanceled.Store(true)
	return false
}

func (s *State) finishJoin() {
	elapsed := time.Since(s.created)
	s.monitor.WorkerRetired(s.id, 0)
	s.monitor.JobCompleted(s.id, elapsed)
	s.logger.Debug("job drained",
		slog.String("job_id", s.id.String()),
		slog.Duration("elapsed", elapsed),
	)
}

// CancelAndWait sets the cancellation flag and blocks until every active
// worker has retired through DidRunTask. Idempotent: a second call simply
// observes the already-quiesced state. In-progress task invocations run
// to completion; cancellation is cooperative.
func (s *State) CancelAndWait() {
	s.mu.Lock()
	first := !s.isCanceled.Swap(true)
	for s.activeWorkers > 0 {
		s.workerReleased.Wait()
	}
	s.mu.Unlock()

	if first {
		s.monitor.JobCanceled(s.id)
		s.logger.Debug("job canceled", slog.String("job_id", s.id.String()))
	}
}

// IsCompleted reports whether the task currently wants zero concurrency
// and no workers are active. Workers posted but never scheduled do not
// count: they find the job drained in CanRunFirstTask and discard
// themselves. A point-in-time answer: the task's estimate may change
// the instant after the check.
func (s *State) IsCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cappedMaxConcurrencyLocked(s.activeWorkers) == 0 &&
		s.activeWorkers == 0
}

// UpdatePriority changes the priority used for subsequently posted
// workers. Workers already queued on the executor keep the priority they
// were posted with.
func (s *State) UpdatePriority(p Priority) {
	s.mu.Lock()
	s.priority = p
	s.mu.Unlock()
}

// cappedMaxConcurrencyLocked returns the task's current concurrency
// estimate capped by the per-job worker ceiling. Recomputed at every
// decision point; a single stale snapshot must never drive posting.
func (s *State) cappedMaxConcurrencyLocked(workerCount int) int {
	n := s.task.MaxConcurrency(workerCount)
	if n < 0 {
		n = 0
	}
	return min(n, s.maxWorkers)
}

// detach clears the workers' non-owning reference. Called by the Handle
// after Join or CancelAndWait has quiesced the job.
func (s *State) detach() {
	s.ref.p.Store(nil)
}
