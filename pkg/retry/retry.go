package retry

import (
	"context"
	"time"
)

// State tracks the attempt counter for one logical request. It is created
// fresh for each request and discarded after success or after the attempt
// ceiling is exhausted.
type State struct {
	maxAttempts int
	attempt     int
}

// NewState creates retry state with the given attempt ceiling
func NewState(maxAttempts int) *State {
	return &State{maxAttempts: maxAttempts}
}

// Attempt returns the number of failed attempts recorded so far
func (s *State) Attempt() int {
	return s.attempt
}

// RecordFailure increments the attempt counter and reports whether another
// attempt is still allowed under the ceiling
func (s *State) RecordFailure() bool {
	s.attempt++
	return s.attempt < s.maxAttempts
}

// Exhausted reports whether the attempt ceiling has been reached
func (s *State) Exhausted() bool {
	return s.attempt >= s.maxAttempts
}

// Reset clears the attempt counter for a new logical request
func (s *State) Reset() {
	s.attempt = 0
}

// Wait waits for the specified duration or until the context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
