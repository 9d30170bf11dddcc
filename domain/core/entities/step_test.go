package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2lar-b2/orchestrator/domain/core/entities"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
)

func mustStepID(t *testing.T, id string) valueobjects.StepID {
	sid, err := valueobjects.NewStepID(id)
	require.NoError(t, err)
	return sid
}

func TestStep_HasTimedOut(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		timeoutMs int64
		status    valueobjects.StepStatus
		startedAt *time.Time
		checkAt   time.Time
		want      bool
	}{
		{
			name:      "executing past timeout budget",
			timeoutMs: 1000,
			status:    valueobjects.StepStatusExecuting,
			startedAt: &now,
			checkAt:   now.Add(2 * time.Second),
			want:      true,
		},
		{
			name:      "executing within timeout budget",
			timeoutMs: 5000,
			status:    valueobjects.StepStatusExecuting,
			startedAt: &now,
			checkAt:   now.Add(2 * time.Second),
			want:      false,
		},
		{
			name:      "not executing never times out",
			timeoutMs: 1000,
			status:    valueobjects.StepStatusPending,
			startedAt: nil,
			checkAt:   now.Add(2 * time.Second),
			want:      false,
		},
		{
			name:      "zero timeoutMs never times out - this is the bug the mapper fix closes",
			timeoutMs: 0,
			status:    valueobjects.StepStatusExecuting,
			startedAt: &now,
			checkAt:   now.Add(24 * time.Hour),
			want:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			step := entities.NewStep(entities.NewStepParams{
				StepID:      mustStepID(t, "step-1"),
				StepName:    "step-1",
				ServiceName: "svc",
				Operation:   "op",
				TimeoutMs:   tc.timeoutMs,
			})
			step = entities.RehydrateStep(step, tc.status, nil, 0, nil, false, tc.startedAt, nil, nil)
			assert.Equal(t, tc.want, step.HasTimedOut(tc.checkAt))
		})
	}
}

func TestStep_CanRetry(t *testing.T) {
	tests := []struct {
		name       string
		status     valueobjects.StepStatus
		retryCount int
		maxRetries int
		want       bool
	}{
		{name: "failed with retries remaining", status: valueobjects.StepStatusFailed, retryCount: 1, maxRetries: 3, want: true},
		{name: "failed with retries exhausted", status: valueobjects.StepStatusFailed, retryCount: 3, maxRetries: 3, want: false},
		{name: "not failed", status: valueobjects.StepStatusExecuting, retryCount: 0, maxRetries: 3, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			step := entities.NewStep(entities.NewStepParams{
				StepID:      mustStepID(t, "step-1"),
				StepName:    "step-1",
				ServiceName: "svc",
				Operation:   "op",
				RetryPolicy: valueobjects.RetryPolicy{MaxRetries: tc.maxRetries},
			})
			step = entities.RehydrateStep(step, tc.status, nil, tc.retryCount, nil, false, nil, nil, nil)
			assert.Equal(t, tc.want, step.CanRetry())
		})
	}
}

// TestStep_RehydrateStep_RoundTripsTimeoutAndCompensatedAt pins down the
// maintainer-reported data-loss bug: TimeoutMs and CompensatedAt must
// survive a rehydrate (i.e. be readable back out via accessors) exactly as
// given, since the DynamoDB mapper relies on these getters when
// serializing a step back to a stepItem.
func TestStep_RehydrateStep_RoundTripsTimeoutAndCompensatedAt(t *testing.T) {
	compensatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	step := entities.NewStep(entities.NewStepParams{
		StepID:      mustStepID(t, "step-1"),
		StepName:    "step-1",
		ServiceName: "svc",
		Operation:   "op",
		TimeoutMs:   30000,
	})
	require.Equal(t, int64(30000), step.TimeoutMs())
	require.Nil(t, step.CompensatedAt())

	step = entities.RehydrateStep(step, valueobjects.StepStatusCompensated, nil, 0, nil, true, nil, nil, &compensatedAt)

	assert.Equal(t, int64(30000), step.TimeoutMs(), "TimeoutMs must still be readable after rehydrate")
	require.NotNil(t, step.CompensatedAt())
	assert.True(t, compensatedAt.Equal(*step.CompensatedAt()))
	assert.True(t, step.Compensated())
}

func TestStep_MarkCompensated_IdempotentOnAlreadyCompensated(t *testing.T) {
	step := entities.NewStep(entities.NewStepParams{
		StepID:      mustStepID(t, "step-1"),
		StepName:    "step-1",
		ServiceName: "svc",
		Operation:   "op",
	})
	step = entities.RehydrateStep(step, valueobjects.StepStatusCompensating, nil, 0, nil, false, nil, nil, nil)

	now := time.Now()
	changed, err := step.MarkCompensated(now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = step.MarkCompensated(now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, changed, "marking an already-compensated step again must be a no-op")
}
