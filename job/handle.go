package job

import (
	"github.com/xraph/paralleljob/id"
)

// Handle is the caller-facing handle for one job. Exactly one Handle
// exists per job, and it must be disposed exactly once, via Join or
// Cancel. A Handle is owned by a single goroutine; it is not safe for
// concurrent use.
//
// Go has no destructors, so the disposal contract is enforced at the API
// boundary instead: using a handle after Join or Cancel panics, and
// dropping an undisposed handle leaks nothing only because its workers
// retire on their own once the task drains — callers must still not do it.
type Handle struct {
	state *State
}

// NewHandle wraps the state of a freshly created job.
func NewHandle(s *State) *Handle {
	return &Handle{state: s}
}

// ID returns the job's identifier. Valid even after disposal.
func (h *Handle) ID() id.JobID {
	if h.state == nil {
		return id.Nil
	}
	return h.state.id
}

// NotifyConcurrencyIncrease forwards to the job state.
func (h *Handle) NotifyConcurrencyIncrease() {
	h.attached().NotifyConcurrencyIncrease()
}

// UpdatePriority changes the priority for subsequently posted workers.
func (h *Handle) UpdatePriority(p Priority) {
	h.attached().UpdatePriority(p)
}

// Join contributes the calling goroutine as a worker and blocks until the
// job has no remaining work and all workers have retired. The handle is
// detached afterwards.
func (h *Handle) Join() {
	s := h.attached()
	s.Join()
	h.detach(s)
}

// Cancel requests cooperative cancellation and blocks until every worker
// has retired. The handle is detached afterwards.
func (h *Handle) Cancel() {
	s := h.attached()
	s.CancelAndWait()
	h.detach(s)
}

// IsCompleted reports whether the task currently wants zero concurrency
// and no workers are active. Point-in-time only.
func (h *Handle) IsCompleted() bool {
	return h.attached().IsCompleted()
}

// IsRunning reports whether the handle is still attached to its job
// state. This is handle liveness, not activity: it stays true after all
// workers retire, until Join or Cancel detaches the state.
func (h *Handle) IsRunning() bool {
	return h.state != nil
}

func (h *Handle) attached() *State {
	if h.state == nil {
		panic("paralleljob: use of disposed job handle")
	}
	return h.state
}

func (h *Handle) detach(s *State) {
	s.detach()
	h.state = nil
}
