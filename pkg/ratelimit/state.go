// Package ratelimit tracks the Buildkite REST API rate limit and gates requests.
// It reads the RateLimit-Remaining, RateLimit-Limit and RateLimit-Reset
// response headers so a client stops sending requests before the server
// starts rejecting them with 429.
package ratelimit

import (
	"time"
)

// Response headers carrying the rate limit budget.
const (
	HeaderRemaining = "RateLimit-Remaining"
	HeaderLimit     = "RateLimit-Limit"
	HeaderReset     = "RateLimit-Reset"
)

// Thresholds for rate limit decisions.
const (
	// ThresholdCritical blocks all requests when remaining requests fall below this value.
	ThresholdCritical = 5

	// ThresholdWarning applies throttling when remaining requests fall below this value.
	ThresholdWarning = 20

	// ThresholdHealthy indicates normal operation.
	ThresholdHealthy = 50
)

// State represents the rate limit budget last reported by the API.
type State struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// Limit is the size of the window budget.
	Limit int `json:"limit"`

	// ResetAt is when the window resets, from RateLimit-Reset (seconds until reset).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was recorded.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// DefaultState is assumed until the API has reported a real budget.
func DefaultState() *State {
	now := time.Now()
	return &State{
		Remaining:  ThresholdHealthy * 4,
		Limit:      ThresholdHealthy * 4,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// IsExpired returns true once the reported window has reset, after which the
// recorded budget no longer applies.
func (s *State) IsExpired() bool {
	return !s.ResetAt.IsZero() && time.Now().After(s.ResetAt)
}

// NeedsCriticalBlock returns true if requests should be refused.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets, or 0 if it
// already has.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
