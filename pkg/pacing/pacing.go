package pacing

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Policy decides the delay before each outbound request and the backoff
// delay after a failure. Both are pure functions of configuration and the
// random source; the mutex only guards the shared *rand.Rand.
type Policy struct {
	// MinDelay and MaxDelay bound the uniform pre-request delay
	MinDelay time.Duration
	MaxDelay time.Duration

	// BackoffBase is the initial failure backoff delay
	BackoffBase time.Duration
	// BackoffMultiplier is the factor by which backoff grows per attempt
	BackoffMultiplier float64
	// BackoffCap is the upper bound on any backoff delay
	BackoffCap time.Duration
	// JitterFactor adds randomness to backoff delays (0.0 to 1.0)
	JitterFactor float64

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a pacing policy seeded from the current time
func New(minDelay, maxDelay, backoffBase, backoffCap time.Duration, multiplier, jitter float64) *Policy {
	return &Policy{
		MinDelay:          minDelay,
		MaxDelay:          maxDelay,
		BackoffBase:       backoffBase,
		BackoffMultiplier: multiplier,
		BackoffCap:        backoffCap,
		JitterFactor:      jitter,
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// DelayBeforeRequest returns a duration drawn uniformly from the closed
// [MinDelay, MaxDelay] interval so the request cadence has no fixed
// fingerprint.
func (p *Policy) DelayBeforeRequest() time.Duration {
	if p.MaxDelay <= p.MinDelay {
		return p.MinDelay
	}

	p.mu.Lock()
	f := p.rng.Float64()
	p.mu.Unlock()

	spread := float64(p.MaxDelay - p.MinDelay)
	return p.MinDelay + time.Duration(f*spread)
}

// DelayAfterFailure returns an exponentially growing duration for the given
// zero-based attempt number, capped at BackoffCap. Jitter only ever adds to
// the deterministic delay and the result never exceeds the cap, so delays
// stay monotonically non-decreasing in expectation.
func (p *Policy) DelayAfterFailure(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(p.BackoffBase) * math.Pow(p.BackoffMultiplier, float64(attempt))
	if delay > float64(p.BackoffCap) {
		delay = float64(p.BackoffCap)
	}

	if p.JitterFactor > 0 {
		p.mu.Lock()
		f := p.rng.Float64()
		p.mu.Unlock()

		delay += delay * p.JitterFactor * f
		if delay > float64(p.BackoffCap) {
			delay = float64(p.BackoffCap)
		}
	}

	return time.Duration(delay)
}
