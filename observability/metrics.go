package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/paralleljob/ext"
	"github.com/xraph/paralleljob/id"
)

// meterName is the instrumentation scope name for paralleljob metrics.
const meterName = "github.com/xraph/paralleljob"

// Compile-time interface checks.
var (
	_ ext.Extension            = (*MetricsExtension)(nil)
	_ ext.JobPosted            = (*MetricsExtension)(nil)
	_ ext.WorkerStarted        = (*MetricsExtension)(nil)
	_ ext.WorkerRetired        = (*MetricsExtension)(nil)
	_ ext.ConcurrencyIncreased = (*MetricsExtension)(nil)
	_ ext.JobCanceled          = (*MetricsExtension)(nil)
	_ ext.JobCompleted         = (*MetricsExtension)(nil)
)

// MetricsExtension records lifecycle metrics through OTel instruments.
// Register it with the scheduler to automatically track posting rates,
// worker churn, cancellations, completions, and job duration.
//
// Instruments:
//   - paralleljob.job.posted (Int64Counter)
//   - paralleljob.job.completed (Int64Counter)
//   - paralleljob.job.canceled (Int64Counter)
//   - paralleljob.worker.posted (Int64Counter): workers posted to the executor
//   - paralleljob.worker.started (Int64Counter)
//   - paralleljob.worker.retired (Int64Counter)
//   - paralleljob.worker.active (Int64UpDownCounter)
//   - paralleljob.job.duration (Float64Histogram): seconds from post to drain
type MetricsExtension struct {
	jobPosted     metric.Int64Counter
	jobCompleted  metric.Int64Counter
	jobCanceled   metric.Int64Counter
	workerPosted  metric.Int64Counter
	workerStarted metric.Int64Counter
	workerRetired metric.Int64Counter
	workerActive  metric.Int64UpDownCounter
	jobDuration   metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. If none is configured, noop instruments are used and the
// extension becomes a pass-through.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. This variant allows injecting a specific MeterProvider
// for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// Create instruments once at construction time. OTel instruments are
	// safe for concurrent use, and the API guarantees noop fallbacks on
	// error, so the individual errors can be dropped.
	jobPosted, _ := meter.Int64Counter(
		"paralleljob.job.posted",
		metric.WithDescription("Total number of jobs posted"),
		metric.WithUnit("{job}"),
	)
	jobCompleted, _ := meter.Int64Counter(
		"paralleljob.job.completed",
		metric.WithDescription("Total number of jobs drained to completion"),
		metric.WithUnit("{job}"),
	)
	jobCanceled, _ := meter.Int64Counter(
		"paralleljob.job.canceled",
		metric.WithDescription("Total number of jobs canceled"),
		metric.WithUnit("{job}"),
	)
	workerPosted, _ := meter.Int64Counter(
		"paralleljob.worker.posted",
		metric.WithDescription("Total number of workers posted to the executor"),
		metric.WithUnit("{worker}"),
	)
	workerStarted, _ := meter.Int64Counter(
		"paralleljob.worker.started",
		metric.WithDescription("Total number of workers that claimed a run slot"),
		metric.WithUnit("{worker}"),
	)
	workerRetired, _ := meter.Int64Counter(
		"paralleljob.worker.retired",
		metric.WithDescription("Total number of workers that left their run loop"),
		metric.WithUnit("{worker}"),
	)
	workerActive, _ := meter.Int64UpDownCounter(
		"paralleljob.worker.active",
		metric.WithDescription("Workers currently inside a run loop"),
		metric.WithUnit("{worker}"),
	)
	jobDuration, _ := meter.Float64Histogram(
		"paralleljob.job.duration",
		metric.WithDescription("Seconds from job creation to drain"),
		metric.WithUnit("s"),
	)

	return &MetricsExtension{
		jobPosted:     jobPosted,
		jobCompleted:  jobCompleted,
		jobCanceled:   jobCanceled,
		workerPosted:  workerPosted,
		workerStarted: workerStarted,
		workerRetired: workerRetired,
		workerActive:  workerActive,
		jobDuration:   jobDuration,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnJobPosted implements ext.JobPosted.
func (m *MetricsExtension) OnJobPosted(ctx context.Context, _ id.JobID, _ int) error {
	m.jobPosted.Add(ctx, 1)
	return nil
}

// OnWorkerStarted implements ext.WorkerStarted.
func (m *MetricsExtension) OnWorkerStarted(ctx context.Context, _ id.JobID, _ int) error {
	m.workerStarted.Add(ctx, 1)
	m.workerActive.Add(ctx, 1)
	return nil
}

// OnWorkerRetired implements ext.WorkerRetired.
func (m *MetricsExtension) OnWorkerRetired(ctx context.Context, _ id.JobID, _ int) error {
	m.workerRetired.Add(ctx, 1)
	m.workerActive.Add(ctx, -1)
	return nil
}

// OnConcurrencyIncreased implements ext.ConcurrencyIncreased.
func (m *MetricsExtension) OnConcurrencyIncreased(ctx context.Context, _ id.JobID, posted int) error {
	m.workerPosted.Add(ctx, int64(posted))
	return nil
}

// OnJobCanceled implements ext.JobCanceled.
func (m *MetricsExtension) OnJobCanceled(ctx context.Context, _ id.JobID) error {
	m.jobCanceled.Add(ctx, 1)
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, _ id.JobID, elapsed time.Duration) error {
	m.jobCompleted.Add(ctx, 1)
	m.jobDuration.Record(ctx, elapsed.Seconds())
	return nil
}
