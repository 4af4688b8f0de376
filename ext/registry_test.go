package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/paralleljob/ext"
	"github.com/xraph/paralleljob/id"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnJobPosted(_ context.Context, _ id.JobID, _ int) error {
	e.calls = append(e.calls, "OnJobPosted")
	return nil
}

func (e *allHooksExt) OnWorkerStarted(_ context.Context, _ id.JobID, _ int) error {
	e.calls = append(e.calls, "OnWorkerStarted")
	return nil
}

func (e *allHooksExt) OnWorkerRetired(_ context.Context, _ id.JobID, _ int) error {
	e.calls = append(e.calls, "OnWorkerRetired")
	return nil
}

func (e *allHooksExt) OnConcurrencyIncreased(_ context.Context, _ id.JobID, _ int) error {
	e.calls = append(e.calls, "OnConcurrencyIncreased")
	return nil
}

func (e *allHooksExt) OnJobCanceled(_ context.Context, _ id.JobID) error {
	e.calls = append(e.calls, "OnJobCanceled")
	return nil
}

func (e *allHooksExt) OnJobCompleted(_ context.Context, _ id.JobID, _ time.Duration) error {
	e.calls = append(e.calls, "OnJobCompleted")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// jobOnlyExt only implements job-level hooks.
type jobOnlyExt struct {
	calls []string
}

func (e *jobOnlyExt) Name() string { return "job-only" }

func (e *jobOnlyExt) OnJobPosted(_ context.Context, _ id.JobID, _ int) error {
	e.calls = append(e.calls, "OnJobPosted")
	return nil
}

func (e *jobOnlyExt) OnJobCompleted(_ context.Context, _ id.JobID, _ time.Duration) error {
	e.calls = append(e.calls, "OnJobCompleted")
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnJobPosted(_ context.Context, _ id.JobID, _ int) error {
	return errors.New("boom")
}

func (e *failingExt) OnShutdown(_ context.Context) error {
	return errors.New("shutdown boom")
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "all-hooks" {
		t.Fatalf("expected name 'all-hooks', got %q", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	jo := &jobOnlyExt{}
	r.Register(all)
	r.Register(jo)

	ctx := context.Background()
	jobID := id.NewJobID()

	// Both implement OnJobPosted → both called.
	r.EmitJobPosted(ctx, jobID, 4)
	if len(all.calls) != 1 || all.calls[0] != "OnJobPosted" {
		t.Fatalf("all: expected [OnJobPosted], got %v", all.calls)
	}
	if len(jo.calls) != 1 || jo.calls[0] != "OnJobPosted" {
		t.Fatalf("jo: expected [OnJobPosted], got %v", jo.calls)
	}

	// Only all implements OnWorkerStarted → jo not called.
	r.EmitWorkerStarted(ctx, jobID, 1)
	if len(all.calls) != 2 || all.calls[1] != "OnWorkerStarted" {
		t.Fatalf("all: expected OnWorkerStarted as 2nd, got %v", all.calls)
	}
	if len(jo.calls) != 1 {
		t.Fatalf("jo: should still have 1 call, got %v", jo.calls)
	}
}

func TestRegistry_AllHooksFire(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	jobID := id.NewJobID()

	r.EmitJobPosted(ctx, jobID, 4)
	r.EmitWorkerStarted(ctx, jobID, 1)
	r.EmitConcurrencyIncreased(ctx, jobID, 2)
	r.EmitWorkerRetired(ctx, jobID, 0)
	r.EmitJobCanceled(ctx, jobID)
	r.EmitJobCompleted(ctx, jobID, time.Second)
	r.EmitShutdown(ctx)

	expected := []string{
		"OnJobPosted", "OnWorkerStarted", "OnConcurrencyIncreased",
		"OnWorkerRetired", "OnJobCanceled", "OnJobCompleted", "OnShutdown",
	}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(all.calls), all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}

func TestRegistry_HookErrorsAreSwallowed(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	r.Register(&failingExt{})
	r.Register(&jobOnlyExt{})

	// Must not panic, and must still call later extensions.
	jo := r.Extensions()[1].(*jobOnlyExt)
	r.EmitJobPosted(context.Background(), id.NewJobID(), 1)
	r.EmitShutdown(context.Background())

	if len(jo.calls) != 1 || jo.calls[0] != "OnJobPosted" {
		t.Fatalf("jo: expected [OnJobPosted] despite failing extension, got %v", jo.calls)
	}
}
