package executor

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/xraph/paralleljob/job"
)

// ClassConfig defines per-priority-class behaviour such as rate limiting
// and in-flight concurrency.
type ClassConfig struct {
	// Priority is the class this configuration applies to.
	Priority job.Priority

	// MaxInFlight limits how many closures of this class may execute
	// simultaneously across the pool. Zero means no class-specific limit
	// (the pool's dispatcher count still applies).
	MaxInFlight int

	// RateLimit is the maximum sustained executions per second for this
	// class. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// classState tracks runtime state for a single priority class.
type classState struct {
	config  ClassConfig
	limiter *rate.Limiter
	active  int
}

// Throttle controls per-priority-class rate limiting and concurrency for
// a Pool. It is safe for concurrent use.
type Throttle struct {
	mu      sync.Mutex
	classes map[job.Priority]*classState
}

// NewThrottle creates a Throttle with the given class configurations.
// Classes not listed here have no limits.
func NewThrottle(configs ...ClassConfig) *Throttle {
	t := &Throttle{
		classes: make(map[job.Priority]*classState, len(configs)),
	}
	for _, cfg := range configs {
		t.classes[cfg.Priority] = newClassState(cfg)
	}
	return t
}

func newClassState(cfg ClassConfig) *classState {
	cs := &classState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		cs.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return cs
}

// Acquire checks rate and concurrency limits for the given class. If the
// closure is allowed to run it increments the active counter and returns
// true. The caller MUST call Release when execution completes.
func (t *Throttle) Acquire(p job.Priority) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cs := t.classes[p]
	if cs == nil {
		return true
	}
	// Concurrency first: a closure turned away on the in-flight limit
	// must not burn rate budget it never used.
	if cs.config.MaxInFlight > 0 && cs.active >= cs.config.MaxInFlight {
		return false
	}
	if cs.limiter != nil && !cs.limiter.Allow() {
		return false
	}
	cs.active++
	return true
}

// Release decrements the active count for the class.
func (t *Throttle) Release(p job.Priority) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cs := t.classes[p]; cs != nil && cs.active > 0 {
		cs.active--
	}
}

// SetClassConfig dynamically updates (or creates) a class configuration.
func (t *Throttle) SetClassConfig(cfg ClassConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing := t.classes[cfg.Priority]
	cs := newClassState(cfg)

	// Preserve the current active count when reconfiguring.
	if existing != nil {
		cs.active = existing.active
	}
	t.classes[cfg.Priority] = cs
}

// ActiveCount returns the current number of executing closures for a
// class.
func (t *Throttle) ActiveCount(p job.Priority) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cs := t.classes[p]; cs != nil {
		return cs.active
	}
	return 0
}
