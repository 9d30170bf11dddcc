// Package entities holds the Step entity, owned exclusively by the Workflow
// aggregate. Steps never hold a back-reference to their owning workflow
// (design note: cyclic references are re-expressed as passing the workflow
// id as an argument where needed).
package entities

import (
	"time"

	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
)

// Step is one unit of remote work within a workflow (§3).
type Step struct {
	stepID         valueobjects.StepID
	stepName       string
	stepType       string
	serviceName    string
	operation      string
	executionOrder int

	status valueobjects.StepStatus

	input      map[string]interface{}
	output     map[string]interface{}
	lastResult *valueobjects.StepResult
	lastError  *domainerrors.WorkflowError

	retryPolicy valueobjects.RetryPolicy
	retryCount  int

	compensation *valueobjects.CompensationDescriptor

	timeoutMs int64

	startedAt     *time.Time
	completedAt   *time.Time
	compensated   bool
	compensatedAt *time.Time
}

// NewStepParams bundles Step construction inputs.
type NewStepParams struct {
	StepID         valueobjects.StepID
	StepName       string
	StepType       string
	ServiceName    string
	Operation      string
	ExecutionOrder int
	Input          map[string]interface{}
	RetryPolicy    valueobjects.RetryPolicy
	Compensation   *valueobjects.CompensationDescriptor
	TimeoutMs      int64
}

// NewStep constructs a step in PENDING.
func NewStep(p NewStepParams) *Step {
	return &Step{
		stepID:         p.StepID,
		stepName:       p.StepName,
		stepType:       p.StepType,
		serviceName:    p.ServiceName,
		operation:      p.Operation,
		executionOrder: p.ExecutionOrder,
		status:         valueobjects.StepStatusPending,
		input:          p.Input,
		retryPolicy:    p.RetryPolicy,
		compensation:   p.Compensation,
		timeoutMs:      p.TimeoutMs,
	}
}

func (s *Step) StepID() valueobjects.StepID                      { return s.stepID }
func (s *Step) StepName() string                                 { return s.stepName }
func (s *Step) StepType() string                                 { return s.stepType }
func (s *Step) ServiceName() string                              { return s.serviceName }
func (s *Step) Operation() string                                { return s.operation }
func (s *Step) ExecutionOrder() int                              { return s.executionOrder }
func (s *Step) Status() valueobjects.StepStatus                  { return s.status }
func (s *Step) RetryCount() int                                  { return s.retryCount }
func (s *Step) RetryPolicy() valueobjects.RetryPolicy             { return s.retryPolicy }
func (s *Step) Compensation() *valueobjects.CompensationDescriptor { return s.compensation }
func (s *Step) LastError() *domainerrors.WorkflowError            { return s.lastError }
func (s *Step) LastResult() *valueobjects.StepResult              { return s.lastResult }
func (s *Step) StartedAt() *time.Time                             { return s.startedAt }
func (s *Step) CompletedAt() *time.Time                           { return s.completedAt }
func (s *Step) Compensated() bool                                 { return s.compensated }
func (s *Step) CompensatedAt() *time.Time                         { return s.compensatedAt }
func (s *Step) TimeoutMs() int64                                  { return s.timeoutMs }

// Input returns a defensive copy of the step's input mapping.
func (s *Step) Input() map[string]interface{} {
	return copyMap(s.input)
}

// Output returns a defensive copy of the step's output mapping.
func (s *Step) Output() map[string]interface{} {
	return copyMap(s.output)
}

// CanRetry reports §4.3: status=FAILED AND retriesRemaining>0 AND
// policy.CanRetry(retryCount).
func (s *Step) CanRetry() bool {
	return s.status == valueobjects.StepStatusFailed && s.retryPolicy.CanRetry(s.retryCount)
}

// RequiresCompensation reports §3: COMPLETED AND compensation descriptor
// present.
func (s *Step) RequiresCompensation() bool {
	return s.status == valueobjects.StepStatusCompleted && s.compensation != nil
}

// HasTimedOut reports whether an EXECUTING step has exceeded its timeout
// budget as of now (§4.3).
func (s *Step) HasTimedOut(now time.Time) bool {
	if s.status != valueobjects.StepStatusExecuting || s.startedAt == nil || s.timeoutMs <= 0 {
		return false
	}
	elapsed := now.Sub(*s.startedAt)
	return elapsed.Milliseconds() > s.timeoutMs
}

// Start transitions PENDING/FAILED -> EXECUTING.
func (s *Step) Start(now time.Time) error {
	if !s.status.EligibleToStart() {
		return domainerrors.NewInvalidState("startStep", "step not eligible to start from "+string(s.status))
	}
	s.status = valueobjects.StepStatusExecuting
	s.startedAt = &now
	return nil
}

// MarkCompleted transitions EXECUTING -> COMPLETED, recording the result.
func (s *Step) MarkCompleted(result valueobjects.StepResult, now time.Time) error {
	if !s.status.CanTransition(valueobjects.StepStatusCompleted) {
		return domainerrors.NewInvalidState("executeStep", "step not executing")
	}
	s.status = valueobjects.StepStatusCompleted
	s.lastResult = &result
	s.output = result.Output
	s.completedAt = &now
	return nil
}

// MarkFailed transitions EXECUTING -> FAILED, recording the error.
func (s *Step) MarkFailed(stepErr *domainerrors.WorkflowError) error {
	if !s.status.CanTransition(valueobjects.StepStatusFailed) {
		return domainerrors.NewInvalidState("handleStepFailure", "step not executing")
	}
	s.status = valueobjects.StepStatusFailed
	s.lastError = stepErr
	return nil
}

// Skip transitions EXECUTING -> SKIPPED (terminal for this step).
func (s *Step) Skip() error {
	if !s.status.CanTransition(valueobjects.StepStatusSkipped) {
		return domainerrors.NewInvalidState("skip", "step not executing")
	}
	s.status = valueobjects.StepStatusSkipped
	return nil
}

// Retry transitions FAILED -> PENDING, clearing error and timestamps, and
// bumps the retry counter. It is the step's own bookkeeping invoked from
// Workflow.RetryStep; the counter moves here, not on the next start.
func (s *Step) Retry() error {
	if !s.CanRetry() {
		return domainerrors.NewInvalidState("retryStep", "step retry budget exhausted or not failed")
	}
	s.retryCount++
	s.status = valueobjects.StepStatusPending
	s.lastError = nil
	s.startedAt = nil
	s.completedAt = nil
	return nil
}

// Compensate transitions COMPLETED -> COMPENSATING.
func (s *Step) Compensate() error {
	if !s.status.CanTransition(valueobjects.StepStatusCompensating) {
		return domainerrors.NewInvalidState("compensateStep", "step not completed")
	}
	s.status = valueobjects.StepStatusCompensating
	return nil
}

// MarkCompensated transitions COMPENSATING -> COMPENSATED. It is idempotent
// (R3): calling it on an already-COMPENSATED step is a no-op.
func (s *Step) MarkCompensated(now time.Time) (bool, error) {
	if s.status == valueobjects.StepStatusCompensated {
		return false, nil
	}
	if !s.status.CanTransition(valueobjects.StepStatusCompensated) {
		return false, domainerrors.NewInvalidState("markStepCompensated", "step not compensating")
	}
	s.status = valueobjects.StepStatusCompensated
	s.compensated = true
	s.compensatedAt = &now
	return true, nil
}

// RehydrateStep restores mutable fields onto a freshly-constructed Step at
// the persistence-mapper boundary, without replaying the state machine
// (design note: mirrors aggregates.ReconstructWorkflow for the same reason).
func RehydrateStep(
	s *Step,
	status valueobjects.StepStatus,
	output map[string]interface{},
	retryCount int,
	lastError *domainerrors.WorkflowError,
	compensated bool,
	startedAt, completedAt, compensatedAt *time.Time,
) *Step {
	s.status = status
	s.output = output
	s.retryCount = retryCount
	s.lastError = lastError
	s.compensated = compensated
	s.startedAt = startedAt
	s.completedAt = completedAt
	s.compensatedAt = compensatedAt
	return s
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
