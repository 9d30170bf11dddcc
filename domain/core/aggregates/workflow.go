// Package aggregates holds the Workflow aggregate root. Modeled on the
// teacher's Graph aggregate: private fields, defensive-copy accessors,
// version-incrementing mutators, and an append-only pending domain-event
// queue drained by MarkEventsAsCommitted.
package aggregates

import (
	"time"

	"github.com/2lar-b2/orchestrator/domain/core/entities"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
	"github.com/2lar-b2/orchestrator/domain/events"
)

// Workflow is the root entity driving one business-process instance (§3).
type Workflow struct {
	id             valueobjects.WorkflowID
	definitionID   string
	name           string
	workflowType   valueobjects.WorkflowType
	status         valueobjects.WorkflowStatus
	priority       valueobjects.Priority

	stepOrder []valueobjects.StepID
	steps     map[valueobjects.StepID]*entities.Step

	executedLog    []valueobjects.StepID
	compensatedLog []valueobjects.StepID

	currentStepID *valueobjects.StepID
	triggeredBy   string
	correlationID string

	input  map[string]interface{}
	output map[string]interface{}
	context map[string]interface{}

	errorLog []*domainerrors.WorkflowError

	retryCount int
	maxRetries int

	startedAt   *time.Time
	completedAt *time.Time

	version int

	createdAt time.Time
	updatedAt time.Time

	pendingEvents []events.DomainEvent
}

// NewWorkflowParams bundles the constructor's required fields.
type NewWorkflowParams struct {
	ID            valueobjects.WorkflowID
	DefinitionID  string
	Name          string
	Type          valueobjects.WorkflowType
	Priority      valueobjects.Priority
	TriggeredBy   string
	CorrelationID string
	Input         map[string]interface{}
	MaxRetries    int
}

// NewWorkflow constructs a workflow in PENDING. It does not itself emit an
// event: WorkflowStarted is emitted by Start(), since PENDING is the
// pre-persistence state and the queue models what a caller has chosen to
// publish, not what was merely constructed in memory.
func NewWorkflow(p NewWorkflowParams) *Workflow {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	now := time.Now()
	return &Workflow{
		id:            p.ID,
		definitionID:  p.DefinitionID,
		name:          p.Name,
		workflowType:  p.Type,
		status:        valueobjects.WorkflowStatusPending,
		priority:      p.Priority,
		steps:         make(map[valueobjects.StepID]*entities.Step),
		triggeredBy:   p.TriggeredBy,
		correlationID: p.CorrelationID,
		input:         p.Input,
		context:       make(map[string]interface{}),
		maxRetries:    maxRetries,
		createdAt:     now,
		updatedAt:     now,
	}
}

// ReconstructWorkflow rehydrates a workflow from its persisted
// representation without emitting any events (design note: separate the
// persisted representation from in-process behavior; mappers call this at
// the repository boundary).
func ReconstructWorkflow(
	id valueobjects.WorkflowID,
	definitionID, name string,
	workflowType valueobjects.WorkflowType,
	status valueobjects.WorkflowStatus,
	priority valueobjects.Priority,
	stepOrder []valueobjects.StepID,
	steps map[valueobjects.StepID]*entities.Step,
	executedLog, compensatedLog []valueobjects.StepID,
	currentStepID *valueobjects.StepID,
	triggeredBy, correlationID string,
	input, output, context map[string]interface{},
	errorLog []*domainerrors.WorkflowError,
	retryCount, maxRetries int,
	startedAt, completedAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *Workflow {
	return &Workflow{
		id:             id,
		definitionID:   definitionID,
		name:           name,
		workflowType:   workflowType,
		status:         status,
		priority:       priority,
		stepOrder:      stepOrder,
		steps:          steps,
		executedLog:    executedLog,
		compensatedLog: compensatedLog,
		currentStepID:  currentStepID,
		triggeredBy:    triggeredBy,
		correlationID:  correlationID,
		input:          input,
		output:         output,
		context:        context,
		errorLog:       errorLog,
		retryCount:     retryCount,
		maxRetries:     maxRetries,
		startedAt:      startedAt,
		completedAt:    completedAt,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- accessors (defensive copies where mutable state is exposed) ---

func (w *Workflow) ID() valueobjects.WorkflowID           { return w.id }
func (w *Workflow) DefinitionID() string                  { return w.definitionID }
func (w *Workflow) Name() string                          { return w.name }
func (w *Workflow) Type() valueobjects.WorkflowType        { return w.workflowType }
func (w *Workflow) Status() valueobjects.WorkflowStatus    { return w.status }
func (w *Workflow) Priority() valueobjects.Priority        { return w.priority }
func (w *Workflow) CorrelationID() string                 { return w.correlationID }
func (w *Workflow) TriggeredBy() string                   { return w.triggeredBy }
func (w *Workflow) RetryCount() int                        { return w.retryCount }
func (w *Workflow) MaxRetries() int                        { return w.maxRetries }
func (w *Workflow) Version() int                           { return w.version }
func (w *Workflow) CreatedAt() time.Time                   { return w.createdAt }
func (w *Workflow) UpdatedAt() time.Time                   { return w.updatedAt }
func (w *Workflow) StartedAt() *time.Time                  { return w.startedAt }
func (w *Workflow) CompletedAt() *time.Time                { return w.completedAt }

func (w *Workflow) CurrentStepID() *valueobjects.StepID {
	if w.currentStepID == nil {
		return nil
	}
	id := *w.currentStepID
	return &id
}

// Step returns the step by id and whether it exists.
func (w *Workflow) Step(id valueobjects.StepID) (*entities.Step, bool) {
	s, ok := w.steps[id]
	return s, ok
}

// Steps returns the steps in execution order (a defensive copy of the
// slice; the Step pointers themselves are owned by the aggregate and
// mutated only through its methods).
func (w *Workflow) Steps() []*entities.Step {
	out := make([]*entities.Step, 0, len(w.stepOrder))
	for _, id := range w.stepOrder {
		out = append(out, w.steps[id])
	}
	return out
}

// ExecutedLog returns a defensive copy of the executed-step log.
func (w *Workflow) ExecutedLog() []valueobjects.StepID {
	out := make([]valueobjects.StepID, len(w.executedLog))
	copy(out, w.executedLog)
	return out
}

// CompensatedLog returns a defensive copy of the compensated-step log.
func (w *Workflow) CompensatedLog() []valueobjects.StepID {
	out := make([]valueobjects.StepID, len(w.compensatedLog))
	copy(out, w.compensatedLog)
	return out
}

// ErrorLog returns a defensive copy of the error log.
func (w *Workflow) ErrorLog() []*domainerrors.WorkflowError {
	out := make([]*domainerrors.WorkflowError, len(w.errorLog))
	copy(out, w.errorLog)
	return out
}

// Context returns a defensive copy of the free-form execution context.
func (w *Workflow) Context() map[string]interface{} {
	out := make(map[string]interface{}, len(w.context))
	for k, v := range w.context {
		out[k] = v
	}
	return out
}

func (w *Workflow) Input() map[string]interface{}  { return copyIfaceMap(w.input) }
func (w *Workflow) Output() map[string]interface{} { return copyIfaceMap(w.output) }

func copyIfaceMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DurationMs derives the elapsed time between startedAt and completedAt (or
// now, if still running).
func (w *Workflow) DurationMs() int64 {
	if w.startedAt == nil {
		return 0
	}
	end := time.Now()
	if w.completedAt != nil {
		end = *w.completedAt
	}
	return end.Sub(*w.startedAt).Milliseconds()
}

// AddStep appends a step to the ordered step table. Valid only while the
// workflow is being assembled, i.e. before Start(). Does not bump version
// or emit an event: the step table is part of the workflow's initial
// construction, not a runtime mutation.
func (w *Workflow) AddStep(s *entities.Step) error {
	if w.status != valueobjects.WorkflowStatusPending {
		return domainerrors.NewInvalidState("addStep", "steps may only be added while PENDING")
	}
	if _, exists := w.steps[s.StepID()]; exists {
		return domainerrors.NewInvalidState("addStep", "duplicate step id "+s.StepID().String())
	}
	w.steps[s.StepID()] = s
	w.stepOrder = append(w.stepOrder, s.StepID())
	return nil
}

// --- GetUncommittedEvents / MarkEventsAsCommitted (outbox staging) ---

// GetUncommittedEvents returns the pending domain-event queue.
func (w *Workflow) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(w.pendingEvents))
	copy(out, w.pendingEvents)
	return out
}

// MarkEventsAsCommitted clears the pending queue once the caller has
// durably published it (§3: "cleared on publish").
func (w *Workflow) MarkEventsAsCommitted() {
	w.pendingEvents = nil
}

func (w *Workflow) addEvent(e events.DomainEvent) {
	w.pendingEvents = append(w.pendingEvents, e)
}

func (w *Workflow) bumpVersion(now time.Time) {
	w.version++
	w.updatedAt = now
}

// --- §4.1 public operations ---

// Start transitions PENDING -> EXECUTING.
func (w *Workflow) Start() error {
	if w.status != valueobjects.WorkflowStatusPending {
		return domainerrors.NewInvalidState("start", "workflow not pending")
	}
	now := time.Now()
	w.status = valueobjects.WorkflowStatusExecuting
	w.startedAt = &now
	w.retryCount = 0
	w.bumpVersion(now)
	w.addEvent(events.NewWorkflowStarted(w.id.String(), w.definitionID, string(w.workflowType), w.correlationID, now, w.version))
	return nil
}

// StartStep transitions the named step PENDING/FAILED -> EXECUTING.
func (w *Workflow) StartStep(stepID valueobjects.StepID) error {
	if w.status != valueobjects.WorkflowStatusExecuting {
		return domainerrors.NewInvalidState("startStep", "workflow not executing")
	}
	s, ok := w.steps[stepID]
	if !ok {
		return domainerrors.NewInvalidState("startStep", "unknown step "+stepID.String())
	}
	now := time.Now()
	if err := s.Start(now); err != nil {
		return err
	}
	w.currentStepID = &stepID
	w.bumpVersion(now)
	return nil
}

// ExecuteStep records a successful step completion and appends it to the
// executed-step log (I2: at most once, only ids present in the step table -
// enforced by this being the sole writer and by the step's own state
// machine preventing double-completion).
func (w *Workflow) ExecuteStep(stepID valueobjects.StepID, result valueobjects.StepResult) error {
	if w.status != valueobjects.WorkflowStatusExecuting {
		return domainerrors.NewInvalidState("executeStep", "workflow not executing")
	}
	s, ok := w.steps[stepID]
	if !ok {
		return domainerrors.NewInvalidState("executeStep", "unknown step "+stepID.String())
	}
	if s.Status() != valueobjects.StepStatusExecuting {
		return domainerrors.NewInvalidState("executeStep", "step not executing")
	}
	now := time.Now()
	if err := s.MarkCompleted(result, now); err != nil {
		return err
	}
	w.executedLog = append(w.executedLog, stepID)
	w.currentStepID = w.nextStepAfter(stepID)
	w.bumpVersion(now)
	w.addEvent(events.NewWorkflowStepExecuted(w.id.String(), stepID.String(), s.StepName(), result.Output, now, w.version))
	return nil
}

// nextStepAfter returns the step id immediately following stepID in
// execution order, or nil if stepID was last. It only maintains
// currentStepID; dependency-graph routing from a template is resolved
// separately by the template's own NextStep and does not call this.
func (w *Workflow) nextStepAfter(stepID valueobjects.StepID) *valueobjects.StepID {
	for i, id := range w.stepOrder {
		if id.Equals(stepID) && i+1 < len(w.stepOrder) {
			next := w.stepOrder[i+1]
			return &next
		}
	}
	return nil
}

// HandleStepFailure records a step failure. If the step can still retry, it
// emits WorkflowStepFailed(willRetry=true); otherwise, if the error is
// non-recoverable, the workflow itself fails.
func (w *Workflow) HandleStepFailure(stepID valueobjects.StepID, stepErr *domainerrors.WorkflowError) error {
	s, ok := w.steps[stepID]
	if !ok {
		return domainerrors.NewInvalidState("handleStepFailure", "unknown step "+stepID.String())
	}
	if err := s.MarkFailed(stepErr); err != nil {
		return err
	}
	now := time.Now()
	w.bumpVersion(now)
	if s.CanRetry() {
		w.addEvent(events.NewWorkflowStepFailed(w.id.String(), stepID.String(), s.StepName(), stepErr.Error(), true, s.RetryCount(), now, w.version))
		return nil
	}
	w.addEvent(events.NewWorkflowStepFailed(w.id.String(), stepID.String(), s.StepName(), stepErr.Error(), false, s.RetryCount(), now, w.version))
	if !stepErr.Recoverable() {
		return w.fail(stepErr, stepID)
	}
	return nil
}

// RetryStep transitions a failed, retry-eligible step back to PENDING.
func (w *Workflow) RetryStep(stepID valueobjects.StepID) error {
	s, ok := w.steps[stepID]
	if !ok {
		return domainerrors.NewInvalidState("retryStep", "unknown step "+stepID.String())
	}
	if err := s.Retry(); err != nil {
		return err
	}
	w.bumpVersion(time.Now())
	return nil
}

// fail is the internal implementation shared by HandleStepFailure and
// FailSaga callers (§4.1 fail(error)).
func (w *Workflow) fail(workflowErr *domainerrors.WorkflowError, failedStepID valueobjects.StepID) error {
	if !w.status.CanTransition(valueobjects.WorkflowStatusFailed) {
		return domainerrors.NewInvalidState("fail", "workflow cannot transition to FAILED from "+string(w.status))
	}
	now := time.Now()
	w.status = valueobjects.WorkflowStatusFailed
	w.errorLog = append(w.errorLog, workflowErr)
	w.completedAt = &now
	w.bumpVersion(now)
	w.addEvent(events.NewWorkflowFailed(w.id.String(), workflowErr.Error(), failedStepID.String(), now, workflowErr.RequiresCompensation(), w.version))
	return nil
}

// Fail fails the workflow directly (used by the saga coordinator's
// failSaga when a step error is terminal independent of step-level
// bookkeeping).
func (w *Workflow) Fail(workflowErr *domainerrors.WorkflowError) error {
	var stepID valueobjects.StepID
	if w.currentStepID != nil {
		stepID = *w.currentStepID
	}
	return w.fail(workflowErr, stepID)
}

// Compensate transitions FAILED/COMPENSATING -> COMPENSATING, recording the
// (reversed) list of steps to compensate.
func (w *Workflow) Compensate() error {
	if w.status != valueobjects.WorkflowStatusFailed && w.status != valueobjects.WorkflowStatusCompensating {
		return domainerrors.NewInvalidState("compensate", "workflow not failed or compensating")
	}
	toCompensate := w.StepsRequiringCompensation()
	now := time.Now()
	if w.status != valueobjects.WorkflowStatusCompensating {
		if !w.status.CanTransition(valueobjects.WorkflowStatusCompensating) {
			return domainerrors.NewInvalidState("compensate", "illegal transition to COMPENSATING")
		}
		w.status = valueobjects.WorkflowStatusCompensating
		w.bumpVersion(now)
	}
	ids := make([]string, 0, len(toCompensate))
	for _, id := range toCompensate {
		ids = append(ids, id.String())
	}
	w.addEvent(events.NewWorkflowCompensationStarted(w.id.String(), ids, now, "", w.version))
	return nil
}

// CompensateStep transitions a completed, compensable step to COMPENSATING.
func (w *Workflow) CompensateStep(stepID valueobjects.StepID) error {
	if w.status != valueobjects.WorkflowStatusCompensating {
		return domainerrors.NewInvalidState("compensateStep", "workflow not compensating")
	}
	s, ok := w.steps[stepID]
	if !ok || !s.RequiresCompensation() {
		return domainerrors.NewInvalidState("compensateStep", "step not eligible for compensation")
	}
	if err := s.Compensate(); err != nil {
		return err
	}
	w.bumpVersion(time.Now())
	return nil
}

// MarkStepCompensated transitions a compensating step to COMPENSATED and
// appends it to the compensated-step log. Idempotent (R3): a step already
// COMPENSATED does not duplicate the log entry or bump the version again.
func (w *Workflow) MarkStepCompensated(stepID valueobjects.StepID) error {
	s, ok := w.steps[stepID]
	if !ok {
		return domainerrors.NewInvalidState("markStepCompensated", "unknown step "+stepID.String())
	}
	now := time.Now()
	changed, err := s.MarkCompensated(now)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	w.compensatedLog = append(w.compensatedLog, stepID)
	w.bumpVersion(now)
	return nil
}

// CompleteCompensation transitions COMPENSATING -> COMPENSATED with
// successful=true.
func (w *Workflow) CompleteCompensation() error {
	if w.status != valueobjects.WorkflowStatusCompensating {
		return domainerrors.NewInvalidState("completeCompensation", "workflow not compensating")
	}
	now := time.Now()
	w.status = valueobjects.WorkflowStatusCompensated
	w.completedAt = &now
	w.bumpVersion(now)
	ids := make([]string, len(w.compensatedLog))
	for i, id := range w.compensatedLog {
		ids[i] = id.String()
	}
	w.addEvent(events.NewWorkflowCompensationCompleted(w.id.String(), ids, true, now, "", w.version))
	return nil
}

// FailCompensation transitions COMPENSATING -> COMPENSATED with
// successful=false: partial compensation still yields a terminal state,
// operators reconcile out of band (§4.1).
func (w *Workflow) FailCompensation(message string) error {
	if w.status != valueobjects.WorkflowStatusCompensating {
		return domainerrors.NewInvalidState("failCompensation", "workflow not compensating")
	}
	now := time.Now()
	w.status = valueobjects.WorkflowStatusCompensated
	w.completedAt = &now
	w.bumpVersion(now)
	ids := make([]string, len(w.compensatedLog))
	for i, id := range w.compensatedLog {
		ids[i] = id.String()
	}
	w.addEvent(events.NewWorkflowCompensationCompleted(w.id.String(), ids, false, now, message, w.version))
	return nil
}

// Retry transitions FAILED -> EXECUTING, bumping the workflow-level retry
// counter and clearing the error log (I4: retryCount <= maxRetries).
func (w *Workflow) Retry() error {
	if w.retryCount >= w.maxRetries {
		return domainerrors.NewInvalidState("retry", "retry budget exhausted")
	}
	if w.status != valueobjects.WorkflowStatusFailed {
		return domainerrors.NewInvalidState("retry", "workflow cannot resume execution from "+string(w.status))
	}
	now := time.Now()
	w.retryCount++
	w.status = valueobjects.WorkflowStatusExecuting
	w.errorLog = nil
	w.bumpVersion(now)
	w.addEvent(events.NewWorkflowRetry(w.id.String(), w.retryCount, now, w.version))
	return nil
}

// Pause transitions EXECUTING -> PAUSED.
func (w *Workflow) Pause(reason string) error {
	if w.status != valueobjects.WorkflowStatusExecuting {
		return domainerrors.NewInvalidState("pause", "workflow not executing")
	}
	now := time.Now()
	w.status = valueobjects.WorkflowStatusPaused
	w.bumpVersion(now)
	current := ""
	if w.currentStepID != nil {
		current = w.currentStepID.String()
	}
	w.addEvent(events.NewWorkflowPaused(w.id.String(), now, current, reason, w.version))
	return nil
}

// Resume transitions PAUSED -> EXECUTING.
func (w *Workflow) Resume() error {
	if w.status != valueobjects.WorkflowStatusPaused {
		return domainerrors.NewInvalidState("resume", "workflow not paused")
	}
	now := time.Now()
	w.status = valueobjects.WorkflowStatusExecuting
	w.bumpVersion(now)
	from := ""
	if w.currentStepID != nil {
		from = w.currentStepID.String()
	}
	w.addEvent(events.NewWorkflowResumed(w.id.String(), now, from, w.version))
	return nil
}

// Cancel is permitted from any non-terminal state (§4.1, §5): cancel wins
// any race with a concurrent terminal transition.
func (w *Workflow) Cancel(reason string) error {
	if w.status.IsTerminal() {
		return domainerrors.NewInvalidState("cancel", "workflow already terminal")
	}
	now := time.Now()
	w.status = valueobjects.WorkflowStatusCancelled
	w.completedAt = &now
	w.bumpVersion(now)
	w.addEvent(events.NewWorkflowCancelled(w.id.String(), reason, now, w.version))
	return nil
}

// Complete transitions EXECUTING -> COMPLETED.
func (w *Workflow) Complete() error {
	if w.status != valueobjects.WorkflowStatusExecuting {
		return domainerrors.NewInvalidState("complete", "workflow not executing")
	}
	now := time.Now()
	w.status = valueobjects.WorkflowStatusCompleted
	w.completedAt = &now
	w.bumpVersion(now)
	w.addEvent(events.NewWorkflowCompleted(w.id.String(), now, w.DurationMs(), len(w.stepOrder), w.output, w.version))
	return nil
}

// UpdateContext sets a key in the free-form execution context. Pure: no
// event, no version bump (it is scratch space, not audited state).
func (w *Workflow) UpdateContext(key string, value interface{}) {
	w.context[key] = value
}

// CanTransitionToWaveless reports §4.1: type supports waveless AND
// status=EXECUTING AND priority=HIGH.
func (w *Workflow) CanTransitionToWaveless() bool {
	return w.workflowType.SupportsWaveless() && w.status == valueobjects.WorkflowStatusExecuting && w.priority == valueobjects.PriorityHigh
}

// TransitionToWaveless records the waveless batch configuration into the
// context and emits WavelessProcessingEnabled.
func (w *Workflow) TransitionToWaveless(batchSize int, intervalMs int64) error {
	if !w.CanTransitionToWaveless() {
		return domainerrors.NewInvalidState("transitionToWaveless", "workflow not eligible for waveless processing")
	}
	now := time.Now()
	w.context["wavelessBatchSize"] = batchSize
	w.context["wavelessIntervalMs"] = intervalMs
	w.bumpVersion(now)
	w.addEvent(events.NewWavelessProcessingEnabled(w.id.String(), batchSize, intervalMs, now, w.version))
	return nil
}

// CalculateSystemLoad is a placeholder hook for context-carried load
// readings recorded by the execution service; the aggregate itself has no
// I/O so it only reports what has already been recorded into context.
func (w *Workflow) CalculateSystemLoad() (float64, bool) {
	v, ok := w.context["systemLoad"]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// ProgressPercent is executedLog length / total steps, 100 when there are
// no steps.
func (w *Workflow) ProgressPercent() float64 {
	if len(w.stepOrder) == 0 {
		return 100
	}
	return float64(len(w.executedLog)) / float64(len(w.stepOrder)) * 100
}

// HasTimedOut reports whether the workflow has run longer than limit since
// startedAt.
func (w *Workflow) HasTimedOut(limit time.Duration) bool {
	if w.startedAt == nil {
		return false
	}
	return time.Since(*w.startedAt) > limit
}

// StepsRequiringCompensation returns the steps eligible for compensation in
// strict reverse of their appearance in the executed-step log (§4.1,
// design note: the executed log itself is never mutated - this builds a
// fresh slice from it).
func (w *Workflow) StepsRequiringCompensation() []valueobjects.StepID {
	out := make([]valueobjects.StepID, 0, len(w.executedLog))
	for i := len(w.executedLog) - 1; i >= 0; i-- {
		id := w.executedLog[i]
		if s, ok := w.steps[id]; ok && s.RequiresCompensation() {
			out = append(out, id)
		}
	}
	return out
}

// AllStepsCompleted reports whether every step in the table is COMPLETED.
func (w *Workflow) AllStepsCompleted() bool {
	if len(w.stepOrder) == 0 {
		return false
	}
	for _, id := range w.stepOrder {
		if w.steps[id].Status() != valueobjects.StepStatusCompleted {
			return false
		}
	}
	return true
}

// Validate checks structural invariants (I2): every executed-log id exists
// in the step table and appears at most once.
func (w *Workflow) Validate() error {
	seen := make(map[valueobjects.StepID]bool, len(w.executedLog))
	for _, id := range w.executedLog {
		if _, ok := w.steps[id]; !ok {
			return domainerrors.NewInvalidState("validate", "executed log references unknown step "+id.String())
		}
		if seen[id] {
			return domainerrors.NewInvalidState("validate", "executed log contains duplicate step "+id.String())
		}
		seen[id] = true
	}
	return nil
}
