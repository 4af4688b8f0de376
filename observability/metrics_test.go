package observability_test

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/paralleljob/id"
	"github.com/xraph/paralleljob/observability"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("%s metric not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64] data type", name)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatalf("%s: no data points recorded", name)
	}
	return sum.DataPoints[0].Value
}

func TestMetrics_JobLifecycleCounters(t *testing.T) {
	reader, mp := setupTestMeter()
	m := observability.NewMetricsExtensionWithMeter(mp.Meter("test"))

	ctx := context.Background()
	jobID := id.NewJobID()

	_ = m.OnJobPosted(ctx, jobID, 4)
	_ = m.OnJobPosted(ctx, id.NewJobID(), 2)
	_ = m.OnJobCompleted(ctx, jobID, 50*time.Millisecond)
	_ = m.OnJobCanceled(ctx, id.NewJobID())

	rm := collectMetrics(t, reader)
	if got := sumValue(t, rm, "paralleljob.job.posted"); got != 2 {
		t.Errorf("job.posted = %d, want 2", got)
	}
	if got := sumValue(t, rm, "paralleljob.job.completed"); got != 1 {
		t.Errorf("job.completed = %d, want 1", got)
	}
	if got := sumValue(t, rm, "paralleljob.job.canceled"); got != 1 {
		t.Errorf("job.canceled = %d, want 1", got)
	}
}

func TestMetrics_WorkerCounters(t *testing.T) {
	reader, mp := setupTestMeter()
	m := observability.NewMetricsExtensionWithMeter(mp.Meter("test"))

	ctx := context.Background()
	jobID := id.NewJobID()

	_ = m.OnConcurrencyIncreased(ctx, jobID, 3)
	_ = m.OnWorkerStarted(ctx, jobID, 1)
	_ = m.OnWorkerStarted(ctx, jobID, 2)
	_ = m.OnWorkerRetired(ctx, jobID, 1)

	rm := collectMetrics(t, reader)
	if got := sumValue(t, rm, "paralleljob.worker.posted"); got != 3 {
		t.Errorf("worker.posted = %d, want 3", got)
	}
	if got := sumValue(t, rm, "paralleljob.worker.started"); got != 2 {
		t.Errorf("worker.started = %d, want 2", got)
	}
	if got := sumValue(t, rm, "paralleljob.worker.retired"); got != 1 {
		t.Errorf("worker.retired = %d, want 1", got)
	}
	// UpDownCounter nets started minus retired.
	if got := sumValue(t, rm, "paralleljob.worker.active"); got != 1 {
		t.Errorf("worker.active = %d, want 1", got)
	}
}

func TestMetrics_RecordsDuration(t *testing.T) {
	reader, mp := setupTestMeter()
	m := observability.NewMetricsExtensionWithMeter(mp.Meter("test"))

	_ = m.OnJobCompleted(context.Background(), id.NewJobID(), 250*time.Millisecond)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "paralleljob.job.duration")
	if metric == nil {
		t.Fatal("paralleljob.job.duration metric not found")
	}

	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points recorded for duration")
	}
	if hist.DataPoints[0].Count != 1 {
		t.Errorf("expected count=1, got %d", hist.DataPoints[0].Count)
	}
	if hist.DataPoints[0].Sum < 0.25 {
		t.Errorf("expected sum >= 0.25s, got %v", hist.DataPoints[0].Sum)
	}
}

func TestMetrics_DefaultNoopSafe(t *testing.T) {
	// Constructing without a global provider must not panic, and hooks
	// must remain callable.
	m := observability.NewMetricsExtension()

	ctx := context.Background()
	jobID := id.NewJobID()
	if err := m.OnJobPosted(ctx, jobID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.OnJobCompleted(ctx, jobID, time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
