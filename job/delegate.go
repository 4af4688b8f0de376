package job

import "math"

// invalidTaskID marks a delegate that has not acquired a task id yet.
const invalidTaskID = math.MaxUint8

// delegate is the per-worker Delegate implementation. One delegate lives
// for the whole of a worker's run loop (or a joiner's), so the task id it
// hands out stays stable across repeated Run invocations.
type delegate struct {
	state  *State
	taskID uint8
}

func newDelegate(s *State) *delegate {
	return &delegate{state: s, taskID: invalidTaskID}
}

// ShouldYield implements Delegate. Lock-free; may observe a stale value.
func (d *delegate) ShouldYield() bool {
	return d.state.isCanceled.Load()
}

// NotifyConcurrencyIncrease implements Delegate.
func (d *delegate) NotifyConcurrencyIncrease() {
	d.state.NotifyConcurrencyIncrease()
}

// TaskID implements Delegate. The id is acquired lazily so workers that
// never need one don't touch the bitmap.
func (d *delegate) TaskID() uint8 {
	if d.taskID == invalidTaskID {
		d.taskID = d.state.AcquireTaskID()
	}
	return d.taskID
}

// release returns the task id to the pool, if one was acquired. Called
// exactly once when the owning worker's run loop ends.
func (d *delegate) release() {
	if d.taskID != invalidTaskID {
		d.state.ReleaseTaskID(d.taskID)
		d.taskID = invalidTaskID
	}
}
