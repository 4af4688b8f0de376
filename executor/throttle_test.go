package executor_test

import (
	"testing"

	"github.com/xraph/paralleljob/executor"
	"github.com/xraph/paralleljob/job"
)

func TestThrottle_MaxInFlight(t *testing.T) {
	th := executor.NewThrottle(executor.ClassConfig{
		Priority:    job.PriorityNormal,
		MaxInFlight: 2,
	})

	if !th.Acquire(job.PriorityNormal) {
		t.Fatal("first acquire should succeed")
	}
	if !th.Acquire(job.PriorityNormal) {
		t.Fatal("second acquire should succeed")
	}
	if th.Acquire(job.PriorityNormal) {
		t.Fatal("third acquire should fail at MaxInFlight=2")
	}

	th.Release(job.PriorityNormal)
	if !th.Acquire(job.PriorityNormal) {
		t.Fatal("acquire after release should succeed")
	}

	if got := th.ActiveCount(job.PriorityNormal); got != 2 {
		t.Errorf("active count = %d, want 2", got)
	}
}

func TestThrottle_UnconfiguredClassHasNoLimit(t *testing.T) {
	th := executor.NewThrottle(executor.ClassConfig{
		Priority:    job.PriorityLow,
		MaxInFlight: 1,
	})

	for range 100 {
		if !th.Acquire(job.PriorityBlocking) {
			t.Fatal("unconfigured class must never be throttled")
		}
	}
}

func TestThrottle_RateLimit(t *testing.T) {
	th := executor.NewThrottle(executor.ClassConfig{
		Priority:  job.PriorityNormal,
		RateLimit: 1,
		RateBurst: 1,
	})

	if !th.Acquire(job.PriorityNormal) {
		t.Fatal("first acquire should consume the burst token")
	}
	if th.Acquire(job.PriorityNormal) {
		t.Fatal("second immediate acquire should be rate limited")
	}
}

func TestThrottle_InFlightRejectionKeepsRateBudget(t *testing.T) {
	// Burst of 2, refill slow enough to be irrelevant within the test.
	th := executor.NewThrottle(executor.ClassConfig{
		Priority:    job.PriorityNormal,
		MaxInFlight: 1,
		RateLimit:   0.001,
		RateBurst:   2,
	})

	if !th.Acquire(job.PriorityNormal) {
		t.Fatal("first acquire should succeed")
	}

	// Rejected on the in-flight limit; must not consume rate tokens.
	for range 3 {
		if th.Acquire(job.PriorityNormal) {
			t.Fatal("acquire should fail at MaxInFlight=1")
		}
	}

	th.Release(job.PriorityNormal)
	if !th.Acquire(job.PriorityNormal) {
		t.Error("in-flight rejections consumed the remaining rate token")
	}
}

func TestThrottle_SetClassConfigPreservesActive(t *testing.T) {
	th := executor.NewThrottle(executor.ClassConfig{
		Priority:    job.PriorityNormal,
		MaxInFlight: 2,
	})

	th.Acquire(job.PriorityNormal)
	th.Acquire(job.PriorityNormal)

	th.SetClassConfig(executor.ClassConfig{
		Priority:    job.PriorityNormal,
		MaxInFlight: 3,
	})

	if got := th.ActiveCount(job.PriorityNormal); got != 2 {
		t.Errorf("active count after reconfigure = %d, want 2", got)
	}
	if !th.Acquire(job.PriorityNormal) {
		t.Error("acquire should succeed under the raised limit")
	}
	if th.Acquire(job.PriorityNormal) {
		t.Error("acquire should fail at the new MaxInFlight=3")
	}
}
