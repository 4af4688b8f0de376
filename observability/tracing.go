package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/paralleljob/ext"
	"github.com/xraph/paralleljob/id"
)

// tracerName is the instrumentation scope name for paralleljob tracing.
const tracerName = "github.com/xraph/paralleljob"

var (
	_ ext.Extension            = (*TracingExtension)(nil)
	_ ext.JobPosted            = (*TracingExtension)(nil)
	_ ext.ConcurrencyIncreased = (*TracingExtension)(nil)
	_ ext.JobCanceled          = (*TracingExtension)(nil)
	_ ext.JobCompleted         = (*TracingExtension)(nil)
	_ ext.Shutdown             = (*TracingExtension)(nil)
)

// TracingExtension opens one OpenTelemetry span per job, from the moment
// the job is posted until it drains or is canceled. Concurrency
// notifications are recorded as span events.
//
// Span attributes include: paralleljob.job.id and
// paralleljob.job.max_workers. A canceled job ends its span with status
// codes.Error; a drained job ends with codes.Ok.
type TracingExtension struct {
	tracer trace.Tracer

	mu sync.Mutex
	// spans is keyed by the job id string so lookups stay stable across
	// ID value copies.
	spans map[string]trace.Span
}

// NewTracingExtension creates a TracingExtension using the global OTel
// TracerProvider. If none is configured, the default noop tracer is used
// and the extension becomes a pass-through with zero overhead.
func NewTracingExtension() *TracingExtension {
	return NewTracingExtensionWithTracer(otel.Tracer(tracerName))
}

// NewTracingExtensionWithTracer creates a TracingExtension using the
// provided tracer. This variant allows injecting a specific
// TracerProvider for testing or when multiple providers are in use.
func NewTracingExtensionWithTracer(tracer trace.Tracer) *TracingExtension {
	return &TracingExtension{
		tracer: tracer,
		spans:  make(map[string]trace.Span),
	}
}

// Name implements ext.Extension.
func (t *TracingExtension) Name() string { return "observability-tracing" }

// OnJobPosted implements ext.JobPosted. It starts the job's span.
func (t *TracingExtension) OnJobPosted(ctx context.Context, jobID id.JobID, maxWorkers int) error {
	_, span := t.tracer.Start(ctx, "paralleljob.job",
		trace.WithAttributes(
			attribute.String("paralleljob.job.id", jobID.String()),
			attribute.Int("paralleljob.job.max_workers", maxWorkers),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	t.mu.Lock()
	t.spans[jobID.String()] = span
	t.mu.Unlock()
	return nil
}

// OnConcurrencyIncreased implements ext.ConcurrencyIncreased. It records
// a span event with the number of workers posted.
func (t *TracingExtension) OnConcurrencyIncreased(_ context.Context, jobID id.JobID, posted int) error {
	if span, ok := t.lookup(jobID); ok {
		span.AddEvent("concurrency increased",
			trace.WithAttributes(attribute.Int("paralleljob.workers.posted", posted)),
		)
	}
	return nil
}

// OnJobCanceled implements ext.JobCanceled. It ends the job's span with
// an error status.
func (t *TracingExtension) OnJobCanceled(_ context.Context, jobID id.JobID) error {
	if span, ok := t.take(jobID); ok {
		span.SetStatus(codes.Error, "job canceled")
		span.End()
	}
	return nil
}

// OnJobCompleted implements ext.JobCompleted. It ends the job's span
// with an OK status.
func (t *TracingExtension) OnJobCompleted(_ context.Context, jobID id.JobID, elapsed time.Duration) error {
	if span, ok := t.take(jobID); ok {
		span.SetAttributes(attribute.Float64("paralleljob.job.duration_seconds", elapsed.Seconds()))
		span.SetStatus(codes.Ok, "")
		span.End()
	}
	return nil
}

// OnShutdown implements ext.Shutdown. Spans for jobs that never drained
// are ended so the exporter can flush them.
func (t *TracingExtension) OnShutdown(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, span := range t.spans {
		span.SetStatus(codes.Error, "scheduler shut down before job drained")
		span.End()
		delete(t.spans, key)
	}
	return nil
}

func (t *TracingExtension) lookup(jobID id.JobID) (trace.Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	span, ok := t.spans[jobID.String()]
	return span, ok
}

// take removes and returns the span so a job canceled mid-join cannot be
// ended twice.
func (t *TracingExtension) take(jobID id.JobID) (trace.Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := jobID.String()
	span, ok := t.spans[key]
	if ok {
		delete(t.spans, key)
	}
	return span, ok
}
