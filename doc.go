// Package paralleljob provides a cooperative parallel job primitive for
// Go. A job is a user-supplied task that many workers run concurrently;
// the task itself reports how much concurrency it can still use, and the
// scheduler grows or shrinks the worker set to match.
//
// Paralleljob is designed as a library, not a service. Import it, start
// a Scheduler, and post tasks as ordinary Go values.
//
// # Quick Start
//
//	s, err := paralleljob.New(
//	    paralleljob.WithPoolWorkers(8),
//	)
//	if err != nil { ... }
//	_ = s.Start(ctx)
//	defer s.Stop(ctx)
//
//	h, err := s.PostJob(task)
//	if err != nil { ... }
//	h.Join() // contribute this goroutine until the task drains
//
// # Architecture
//
// The job package holds the per-job state machine: worker accounting,
// the cancellation flag, and a 32-slot task-id bitmap that gives each
// concurrent worker a small stable index. The executor package provides
// the default goroutine-backed executor pool. Extensions (ext package)
// observe job lifecycle events; the observability package ships
// OpenTelemetry metrics and tracing extensions.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package paralleljob
