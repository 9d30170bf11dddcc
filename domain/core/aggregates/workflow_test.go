package aggregates_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/entities"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
)

func newTestStep(t *testing.T, id string, comp *valueobjects.CompensationDescriptor) *entities.Step {
	stepID, err := valueobjects.NewStepID(id)
	require.NoError(t, err)
	return entities.NewStep(entities.NewStepParams{
		StepID:         stepID,
		StepName:       id,
		StepType:       "remote-call",
		ServiceName:    "inventory-service",
		Operation:      "reserve",
		ExecutionOrder: 0,
		RetryPolicy:    valueobjects.RetryPolicy{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1},
		Compensation:   comp,
		TimeoutMs:      5000,
	})
}

func newTestWorkflow(t *testing.T, steps ...*entities.Step) *aggregates.Workflow {
	w := aggregates.NewWorkflow(aggregates.NewWorkflowParams{
		ID:           valueobjects.NewWorkflowID(),
		DefinitionID: "order-fulfillment-v1",
		Name:         "test workflow",
		Type:         valueobjects.WorkflowTypeOrderFulfillment,
		Priority:     valueobjects.PriorityNormal,
		TriggeredBy:  "test-suite",
		MaxRetries:   3,
	})
	for _, s := range steps {
		require.NoError(t, w.AddStep(s))
	}
	require.NoError(t, w.Start())
	return w
}

// TestWorkflow_HandleStepFailure_ExhaustedRetryFailsWorkflow covers the
// first half of the maintainer-reported regression: a step whose retry
// budget is exhausted and whose error is unrecoverable must fail the
// workflow exactly once, landing in FAILED without panicking or returning
// an error from the aggregate itself.
func TestWorkflow_HandleStepFailure_ExhaustedRetryFailsWorkflow(t *testing.T) {
	comp := &valueobjects.CompensationDescriptor{Strategy: valueobjects.CompensationStrategyReverseOperation, TargetService: "inventory-service", Operation: "release"}
	step := newTestStep(t, "reserve-inventory", comp)
	w := newTestWorkflow(t, step)
	require.NoError(t, w.StartStep(step.StepID()))

	stepErr := domainerrors.New(domainerrors.KindBusinessRuleViolation, "OUT_OF_STOCK", "no inventory available", time.Now()).
		WithStep(step.StepID().String()).
		WithService("inventory-service")
	// the error is non-recoverable; it fails the workflow once the single
	// retry attempt is spent
	require.True(t, stepErr.RequiresCompensation())

	// first failure: retry-eligible, should not fail the workflow
	require.NoError(t, w.HandleStepFailure(step.StepID(), stepErr))
	assert.Equal(t, valueobjects.WorkflowStatusExecuting, w.Status())

	require.NoError(t, w.RetryStep(step.StepID()))
	require.NoError(t, w.StartStep(step.StepID()))

	// second failure: retry budget exhausted (MaxRetries=1), error is
	// BusinessRuleViolation (non-recoverable) so the aggregate fails itself.
	require.NoError(t, w.HandleStepFailure(step.StepID(), stepErr))
	assert.Equal(t, valueobjects.WorkflowStatusFailed, w.Status())
}

// TestWorkflow_Fail_RejectsAlreadyFailedWorkflow pins down the exact
// invariant the service layer must respect: calling Fail a second time on a
// workflow already in FAILED is an invalid transition, not a no-op. This is
// the root cause the maintainer flagged in
// WorkflowExecutionService.HandleStepFailure: callers must check Status()
// before invoking FailSaga again for the same failure.
func TestWorkflow_Fail_RejectsAlreadyFailedWorkflow(t *testing.T) {
	// MaxRetries=0 so the first failure already exhausts the retry budget
	// and the aggregate fails itself via HandleStepFailure.
	stepID, err := valueobjects.NewStepID("reserve-inventory")
	require.NoError(t, err)
	step := entities.NewStep(entities.NewStepParams{
		StepID:      stepID,
		StepName:    "reserve-inventory",
		ServiceName: "inventory-service",
		Operation:   "reserve",
		RetryPolicy: valueobjects.RetryPolicy{MaxRetries: 0},
	})
	w := newTestWorkflow(t, step)
	require.NoError(t, w.StartStep(step.StepID()))

	firstErr := domainerrors.New(domainerrors.KindDataIntegrity, "CORRUPT", "bad state", time.Now())
	require.NoError(t, w.HandleStepFailure(step.StepID(), firstErr))
	require.Equal(t, valueobjects.WorkflowStatusFailed, w.Status())

	secondErr := domainerrors.New(domainerrors.KindDataIntegrity, "CORRUPT", "bad state again", time.Now())
	failErr := w.Fail(secondErr)
	require.Error(t, failErr)
	assert.Contains(t, failErr.Error(), "cannot transition to FAILED")
}

func TestWorkflow_StepsRequiringCompensation_ReverseOrder(t *testing.T) {
	comp := &valueobjects.CompensationDescriptor{Strategy: valueobjects.CompensationStrategyDeleteCreated}
	s1 := newTestStep(t, "step-1", comp)
	s2 := newTestStep(t, "step-2", comp)
	s3 := newTestStep(t, "step-3", nil) // no compensation descriptor
	w := newTestWorkflow(t, s1, s2, s3)

	require.NoError(t, w.StartStep(s1.StepID()))
	require.NoError(t, w.ExecuteStep(s1.StepID(), valueobjects.NewStepResult(nil, time.Now())))
	require.NoError(t, w.StartStep(s2.StepID()))
	require.NoError(t, w.ExecuteStep(s2.StepID(), valueobjects.NewStepResult(nil, time.Now())))
	require.NoError(t, w.StartStep(s3.StepID()))
	require.NoError(t, w.ExecuteStep(s3.StepID(), valueobjects.NewStepResult(nil, time.Now())))

	pending := w.StepsRequiringCompensation()
	require.Len(t, pending, 2)
	assert.Equal(t, "step-2", pending[0].String())
	assert.Equal(t, "step-1", pending[1].String())
}

func TestWorkflow_AllStepsCompleted(t *testing.T) {
	s1 := newTestStep(t, "step-1", nil)
	s2 := newTestStep(t, "step-2", nil)
	w := newTestWorkflow(t, s1, s2)

	assert.False(t, w.AllStepsCompleted())

	require.NoError(t, w.StartStep(s1.StepID()))
	require.NoError(t, w.ExecuteStep(s1.StepID(), valueobjects.NewStepResult(nil, time.Now())))
	assert.False(t, w.AllStepsCompleted())

	require.NoError(t, w.StartStep(s2.StepID()))
	require.NoError(t, w.ExecuteStep(s2.StepID(), valueobjects.NewStepResult(nil, time.Now())))
	assert.True(t, w.AllStepsCompleted())
}

func TestWorkflow_Cancel_PermittedFromAnyNonTerminalState(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, w *aggregates.Workflow, s *entities.Step)
	}{
		{name: "executing", prepare: func(t *testing.T, w *aggregates.Workflow, s *entities.Step) {}},
		{name: "paused", prepare: func(t *testing.T, w *aggregates.Workflow, s *entities.Step) {
			require.NoError(t, w.Pause("operator request"))
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStep(t, "step-1", nil)
			w := newTestWorkflow(t, s)
			tc.prepare(t, w, s)
			require.NoError(t, w.Cancel("test cancel"))
			assert.Equal(t, valueobjects.WorkflowStatusCancelled, w.Status())
		})
	}
}

func TestWorkflow_Cancel_RejectsTerminalState(t *testing.T) {
	s := newTestStep(t, "step-1", nil)
	w := newTestWorkflow(t, s)
	require.NoError(t, w.StartStep(s.StepID()))
	require.NoError(t, w.ExecuteStep(s.StepID(), valueobjects.NewStepResult(nil, time.Now())))
	require.NoError(t, w.Complete())

	err := w.Cancel("too late")
	require.Error(t, err)
}
