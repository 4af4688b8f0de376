package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/paralleljob/id"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type jobPostedEntry struct {
	name string
	hook JobPosted
}

type workerStartedEntry struct {
	name string
	hook WorkerStarted
}

type workerRetiredEntry struct {
	name string
	hook WorkerRetired
}

type concurrencyIncreasedEntry struct {
	name string
	hook ConcurrencyIncreased
}

type jobCanceledEntry struct {
	name string
	hook JobCanceled
}

type jobCompletedEntry struct {
	name string
	hook JobCompleted
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Register everything before the first job is posted; Registry is not
// synchronized for registration concurrent with emits.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	jobPosted            []jobPostedEntry
	workerStarted        []workerStartedEntry
	workerRetired        []workerRetiredEntry
	concurrencyIncreased []concurrencyIncreasedEntry
	jobCanceled          []jobCanceledEntry
	jobCompleted         []jobCompletedEntry
	shutdown             []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobPosted); ok {
		r.jobPosted = append(r.jobPosted, jobPostedEntry{name, h})
	}
	if h, ok := e.(WorkerStarted); ok {
		r.workerStarted = append(r.workerStarted, workerStartedEntry{name, h})
	}
	if h, ok := e.(WorkerRetired); ok {
		r.workerRetired = append(r.workerRetired, workerRetiredEntry{name, h})
	}
	if h, ok := e.(ConcurrencyIncreased); ok {
		r.concurrencyIncreased = append(r.concurrencyIncreased, concurrencyIncreasedEntry{name, h})
	}
	if h, ok := e.(JobCanceled); ok {
		r.jobCanceled = append(r.jobCanceled, jobCanceledEntry{name, h})
	}
	if h, ok := e.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, jobCompletedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Event emitters
// ──────────────────────────────────────────────────

// EmitJobPosted notifies all extensions that implement JobPosted.
func (r *Registry) EmitJobPosted(ctx context.Context, jobID id.JobID, maxWorkers int) {
	for _, e := range r.jobPosted {
		if err := e.hook.OnJobPosted(ctx, jobID, maxWorkers); err != nil {
			r.logHookError("OnJobPosted", e.name, err)
		}
	}
}

// EmitWorkerStarted notifies all extensions that implement WorkerStarted.
func (r *Registry) EmitWorkerStarted(ctx context.Context, jobID id.JobID, active int) {
	for _, e := range r.workerStarted {
		if err := e.hook.OnWorkerStarted(ctx, jobID, active); err != nil {
			r.logHookError("OnWorkerStarted", e.name, err)
		}
	}
}

// EmitWorkerRetired notifies all extensions that implement WorkerRetired.
func (r *Registry) EmitWorkerRetired(ctx context.Context, jobID id.JobID, active int) {
	for _, e := range r.workerRetired {
		if err := e.hook.OnWorkerRetired(ctx, jobID, active); err != nil {
			r.logHookError("OnWorkerRetired", e.name, err)
		}
	}
}

// EmitConcurrencyIncreased notifies all extensions that implement
// ConcurrencyIncreased.
func (r *Registry) EmitConcurrencyIncreased(ctx context.Context, jobID id.JobID, posted int) {
	for _, e := range r.concurrencyIncreased {
		if err := e.hook.OnConcurrencyIncreased(ctx, jobID, posted); err != nil {
			r.logHookError("OnConcurrencyIncreased", e.name, err)
		}
	}
}

// EmitJobCanceled notifies all extensions that implement JobCanceled.
func (r *Registry) EmitJobCanceled(ctx context.Context, jobID id.JobID) {
	for _, e := range r.jobCanceled {
		if err := e.hook.OnJobCanceled(ctx, jobID); err != nil {
			r.logHookError("OnJobCanceled", e.name, err)
		}
	}
}

// EmitJobCompleted notifies all extensions that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, jobID id.JobID, elapsed time.Duration) {
	for _, e := range r.jobCompleted {
		if err := e.hook.OnJobCompleted(ctx, jobID, elapsed); err != nil {
			r.logHookError("OnJobCompleted", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the job.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
