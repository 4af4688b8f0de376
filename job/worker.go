package job

import "sync/atomic"

// stateRef is the non-owning reference posted workers hold to their job's
// State. The Handle clears it on detach; upgrade then fails silently and
// the worker discards itself. This is the cheap path for workers that are
// scheduled after the job was joined or canceled.
type stateRef struct {
	p atomic.Pointer[State]
}

func (r *stateRef) upgrade() *State {
	return r.p.Load()
}

// worker is the transient, one-shot unit of deferred work posted to the
// executor. It may invoke the task many times within its single run.
type worker struct {
	ref *stateRef
}

// run is the sole entry point, invoked by the executor on some worker
// thread.
func (w *worker) run() {
	s := w.ref.upgrade()
	if s == nil {
		return
	}

	d := newDelegate(s)
	defer d.release()

	if !s.CanRunFirstTask() {
		return
	}
	for {
		s.task.Run(d)
		if !s.DidRunTask() {
			return
		}
	}
}
