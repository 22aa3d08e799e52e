package ratelimit

import (
	"testing"
	"time"
)

func TestState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *State
		maxAge   time.Duration
		expected bool
	}{
		{
			name: "fresh state",
			state: &State{
				LastUpdate: time.Now(),
			},
			maxAge:   5 * time.Minute,
			expected: false,
		},
		{
			name: "stale state",
			state: &State{
				LastUpdate: time.Now().Add(-10 * time.Minute),
			},
			maxAge:   5 * time.Minute,
			expected: true,
		},
		{
			name: "just under max age",
			state: &State{
				LastUpdate: time.Now().Add(-4 * time.Minute),
			},
			maxAge:   5 * time.Minute,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.state.IsStale(tt.maxAge)
			if result != tt.expected {
				t.Errorf("IsStale() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestState_NeedsCriticalBlock(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		expected  bool
	}{
		{
			name:      "well above critical threshold",
			remaining: 50,
			expected:  false,
		},
		{
			name:      "at critical threshold",
			remaining: ThresholdCritical,
			expected:  false,
		},
		{
			name:      "just below critical threshold",
			remaining: ThresholdCritical - 1,
			expected:  true,
		},
		{
			name:      "zero errors remaining",
			remaining: 0,
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{
				Remaining: tt.remaining,
			}
			result := state.NeedsCriticalBlock()
			if result != tt.expected {
				t.Errorf("NeedsCriticalBlock() = %v, want %v (remaining=%d)", result, tt.expected, tt.remaining)
			}
		})
	}
}

func TestState_NeedsThrottling(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		expected  bool
	}{
		{
			name:      "healthy state",
			remaining: 50,
			expected:  false,
		},
		{
			name:      "at warning threshold",
			remaining: ThresholdWarning,
			expected:  false,
		},
		{
			name:      "just below warning threshold",
			remaining: ThresholdWarning - 1,
			expected:  true,
		},
		{
			name:      "just above critical threshold",
			remaining: ThresholdCritical + 1,
			expected:  true, // Should throttle (below warning but above critical)
		},
		{
			name:      "below critical threshold",
			remaining: ThresholdCritical - 1,
			expected:  false, // Critical blocks, not throttles
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{
				Remaining: tt.remaining,
			}
			result := state.NeedsThrottling()
			if result != tt.expected {
				t.Errorf("NeedsThrottling() = %v, want %v (remaining=%d)", result, tt.expected, tt.remaining)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	tests := []struct {
		name      string
		resetAt   time.Time
		expected  time.Duration
		tolerance time.Duration
	}{
		{
			name:      "reset in future",
			resetAt:   time.Now().Add(5 * time.Minute),
			expected:  5 * time.Minute,
			tolerance: 1 * time.Second,
		},
		{
			name:      "reset already passed",
			resetAt:   time.Now().Add(-5 * time.Minute),
			expected:  0,
			tolerance: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{
				ResetAt: tt.resetAt,
			}
			result := state.TimeUntilReset()

			if tt.expected == 0 {
				if result != 0 {
					t.Errorf("TimeUntilReset() = %v, want 0 for past reset time", result)
				}
			} else {
				diff := result - tt.expected
				if diff < 0 {
					diff = -diff
				}
				if diff > tt.tolerance {
					t.Errorf("TimeUntilReset() = %v, want approximately %v (tolerance %v)", result, tt.expected, tt.tolerance)
				}
			}
		})
	}
}

func TestState_UpdateHealth(t *testing.T) {
	tests := []struct {
		name            string
		remaining       int
		expectedHealthy bool
	}{
		{
			name:            "healthy state",
			remaining:       100,
			expectedHealthy: true,
		},
		{
			name:            "at healthy threshold",
			remaining:       ThresholdHealthy,
			expectedHealthy: true,
		},
		{
			name:            "just below healthy threshold",
			remaining:       ThresholdHealthy - 1,
			expectedHealthy: false,
		},
		{
			name:            "warning state",
			remaining:       15,
			expectedHealthy: false,
		},
		{
			name:            "critical state",
			remaining:       3,
			expectedHealthy: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{
				Remaining: tt.remaining,
				IsHealthy: false, // Start as unhealthy
			}
			state.UpdateHealth()

			if state.IsHealthy != tt.expectedHealthy {
				t.Errorf("UpdateHealth() set IsHealthy = %v, want %v (remaining=%d)",
					state.IsHealthy, tt.expectedHealthy, tt.remaining)
			}
		})
	}
}

func TestThresholdConstants(t *testing.T) {
	// Verify threshold ordering
	if ThresholdCritical >= ThresholdWarning {
		t.Errorf("ThresholdCritical (%d) must be less than ThresholdWarning (%d)",
			ThresholdCritical, ThresholdWarning)
	}

	if ThresholdWarning >= ThresholdHealthy {
		t.Errorf("ThresholdWarning (%d) must be less than ThresholdHealthy (%d)",
			ThresholdWarning, ThresholdHealthy)
	}
}

func TestState_IsExpired(t *testing.T) {
	tests := []struct {
		name     string
		resetAt  time.Time
		expected bool
	}{
		{name: "window still open", resetAt: time.Now().Add(30 * time.Second), expected: false},
		{name: "window reset", resetAt: time.Now().Add(-1 * time.Second), expected: true},
		{name: "unknown reset time", resetAt: time.Time{}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{ResetAt: tt.resetAt}
			if got := state.IsExpired(); got != tt.expected {
				t.Errorf("IsExpired() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDefaultState(t *testing.T) {
	state := DefaultState()

	if !state.IsHealthy {
		t.Error("Default state should be healthy")
	}
	if state.NeedsCriticalBlock() || state.NeedsThrottling() {
		t.Error("Default state should neither block nor throttle")
	}
	if state.IsExpired() {
		t.Error("Default state should not be expired")
	}
}
