// Package events defines the domain events the Workflow aggregate appends
// to its pending event queue (§6). Modeled on the BaseEvent-embedding
// pattern the teacher uses for its graph/node/edge events.
package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the interface every workflow event satisfies.
type DomainEvent interface {
	GetEventID() string
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent carries the fields common to every domain event.
type BaseEvent struct {
	EventID     string    `json:"eventId"`
	AggregateID string    `json:"aggregateId"`
	EventType   string    `json:"eventType"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func newBase(aggregateID, eventType string, version int) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New().String(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   time.Now(),
		Version:     version,
	}
}

func (b BaseEvent) GetEventID() string        { return b.EventID }
func (b BaseEvent) GetAggregateID() string     { return b.AggregateID }
func (b BaseEvent) GetEventType() string       { return b.EventType }
func (b BaseEvent) GetTimestamp() time.Time    { return b.Timestamp }
func (b BaseEvent) GetVersion() int            { return b.Version }

// WorkflowStarted is emitted by Workflow.Start().
type WorkflowStarted struct {
	BaseEvent
	DefinitionID  string
	WorkflowType  string
	CorrelationID string
	StartedAt     time.Time
}

func NewWorkflowStarted(workflowID, definitionID, workflowType, correlationID string, startedAt time.Time, version int) WorkflowStarted {
	return WorkflowStarted{
		BaseEvent:     newBase(workflowID, "WorkflowStarted", version),
		DefinitionID:  definitionID,
		WorkflowType:  workflowType,
		CorrelationID: correlationID,
		StartedAt:     startedAt,
	}
}

// WorkflowStepExecuted is emitted when a step completes successfully.
type WorkflowStepExecuted struct {
	BaseEvent
	StepID   string
	StepName string
	Result   map[string]interface{}
	At       time.Time
}

func NewWorkflowStepExecuted(workflowID, stepID, stepName string, result map[string]interface{}, at time.Time, version int) WorkflowStepExecuted {
	return WorkflowStepExecuted{
		BaseEvent: newBase(workflowID, "WorkflowStepExecuted", version),
		StepID:    stepID,
		StepName:  stepName,
		Result:    result,
		At:        at,
	}
}

// WorkflowStepFailed is emitted when a step fails, before the retry/fail
// decision is known to the caller.
type WorkflowStepFailed struct {
	BaseEvent
	StepID     string
	StepName   string
	Error      string
	WillRetry  bool
	RetryCount int
	At         time.Time
}

func NewWorkflowStepFailed(workflowID, stepID, stepName, errMsg string, willRetry bool, retryCount int, at time.Time, version int) WorkflowStepFailed {
	return WorkflowStepFailed{
		BaseEvent:  newBase(workflowID, "WorkflowStepFailed", version),
		StepID:     stepID,
		StepName:   stepName,
		Error:      errMsg,
		WillRetry:  willRetry,
		RetryCount: retryCount,
		At:         at,
	}
}

// WorkflowFailed is emitted when the workflow reaches FAILED.
type WorkflowFailed struct {
	BaseEvent
	Error                string
	FailedStepID         string
	At                   time.Time
	CompensationRequired bool
}

func NewWorkflowFailed(workflowID, errMsg, failedStepID string, at time.Time, compensationRequired bool, version int) WorkflowFailed {
	return WorkflowFailed{
		BaseEvent:            newBase(workflowID, "WorkflowFailed", version),
		Error:                errMsg,
		FailedStepID:         failedStepID,
		At:                   at,
		CompensationRequired: compensationRequired,
	}
}

// WorkflowCompleted is emitted when the workflow reaches COMPLETED.
type WorkflowCompleted struct {
	BaseEvent
	At         time.Time
	DurationMs int64
	TotalSteps int
	Outputs    map[string]interface{}
}

func NewWorkflowCompleted(workflowID string, at time.Time, durationMs int64, totalSteps int, outputs map[string]interface{}, version int) WorkflowCompleted {
	return WorkflowCompleted{
		BaseEvent:  newBase(workflowID, "WorkflowCompleted", version),
		At:         at,
		DurationMs: durationMs,
		TotalSteps: totalSteps,
		Outputs:    outputs,
	}
}

// WorkflowPaused is emitted by Workflow.Pause().
type WorkflowPaused struct {
	BaseEvent
	At            time.Time
	CurrentStepID string
	Reason        string
}

func NewWorkflowPaused(workflowID string, at time.Time, currentStepID, reason string, version int) WorkflowPaused {
	return WorkflowPaused{
		BaseEvent:     newBase(workflowID, "WorkflowPaused", version),
		At:            at,
		CurrentStepID: currentStepID,
		Reason:        reason,
	}
}

// WorkflowResumed is emitted by Workflow.Resume().
type WorkflowResumed struct {
	BaseEvent
	At         time.Time
	FromStepID string
}

func NewWorkflowResumed(workflowID string, at time.Time, fromStepID string, version int) WorkflowResumed {
	return WorkflowResumed{
		BaseEvent:  newBase(workflowID, "WorkflowResumed", version),
		At:         at,
		FromStepID: fromStepID,
	}
}

// WorkflowCancelled is emitted by Workflow.Cancel().
type WorkflowCancelled struct {
	BaseEvent
	Reason string
	At     time.Time
}

func NewWorkflowCancelled(workflowID, reason string, at time.Time, version int) WorkflowCancelled {
	return WorkflowCancelled{
		BaseEvent: newBase(workflowID, "WorkflowCancelled", version),
		Reason:    reason,
		At:        at,
	}
}

// WorkflowRetry is emitted by Workflow.Retry().
type WorkflowRetry struct {
	BaseEvent
	RetryCount int
	At         time.Time
}

func NewWorkflowRetry(workflowID string, retryCount int, at time.Time, version int) WorkflowRetry {
	return WorkflowRetry{
		BaseEvent:  newBase(workflowID, "WorkflowRetry", version),
		RetryCount: retryCount,
		At:         at,
	}
}

// WorkflowCompensationStarted is emitted by Workflow.Compensate().
type WorkflowCompensationStarted struct {
	BaseEvent
	StepsToCompensate []string
	At                time.Time
	Reason            string
}

func NewWorkflowCompensationStarted(workflowID string, stepsToCompensate []string, at time.Time, reason string, version int) WorkflowCompensationStarted {
	return WorkflowCompensationStarted{
		BaseEvent:         newBase(workflowID, "WorkflowCompensationStarted", version),
		StepsToCompensate: stepsToCompensate,
		At:                at,
		Reason:            reason,
	}
}

// WorkflowCompensationCompleted is emitted by completeCompensation/
// failCompensation.
type WorkflowCompensationCompleted struct {
	BaseEvent
	CompensatedSteps []string
	Successful       bool
	At               time.Time
	Error            string
}

func NewWorkflowCompensationCompleted(workflowID string, compensatedSteps []string, successful bool, at time.Time, errMsg string, version int) WorkflowCompensationCompleted {
	return WorkflowCompensationCompleted{
		BaseEvent:        newBase(workflowID, "WorkflowCompensationCompleted", version),
		CompensatedSteps: compensatedSteps,
		Successful:       successful,
		At:               at,
		Error:            errMsg,
	}
}

// WavelessProcessingEnabled is emitted by Workflow.TransitionToWaveless().
type WavelessProcessingEnabled struct {
	BaseEvent
	BatchSize  int
	IntervalMs int64
	At         time.Time
}

func NewWavelessProcessingEnabled(workflowID string, batchSize int, intervalMs int64, at time.Time, version int) WavelessProcessingEnabled {
	return WavelessProcessingEnabled{
		BaseEvent:  newBase(workflowID, "WavelessProcessingEnabled", version),
		BatchSize:  batchSize,
		IntervalMs: intervalMs,
		At:         at,
	}
}

// SystemLoadRebalanced is emitted by the load controller, not the workflow
// aggregate - it is keyed by serviceId rather than a workflow id.
type SystemLoadRebalanced struct {
	BaseEvent
	ServiceID     string
	PreviousLoad  float64
	CurrentLoad   float64
	ServiceLoads  map[string]float64
	At            time.Time
	Reason        string
}

func NewSystemLoadRebalanced(serviceID string, previousLoad, currentLoad float64, serviceLoads map[string]float64, at time.Time, reason string) SystemLoadRebalanced {
	return SystemLoadRebalanced{
		BaseEvent:    newBase(serviceID, "SystemLoadRebalanced", 0),
		ServiceID:    serviceID,
		PreviousLoad: previousLoad,
		CurrentLoad:  currentLoad,
		ServiceLoads: serviceLoads,
		At:           at,
		Reason:       reason,
	}
}
