// Package services holds the workflow execution service: the per-step
// entry point from outside the core (§4.6). Grounded on the teacher's
// EdgeService (constructor-injected ports + zap logger, input validation up
// front) and on outbox_processor.go's publish-after-persist ordering.
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/application/sagas"
	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	"github.com/2lar-b2/orchestrator/domain/definition"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
)

// WorkflowExecutionService is the transactional per-step entry point. Every
// method is transactional at the granularity of one workflow: acquire the
// per-workflow lock, load, mutate, persist (bumping version), publish the
// outbox, release (§4.6, §5).
type WorkflowExecutionService struct {
	repo        ports.WorkflowRepository
	publisher   ports.EventPublisher
	lock        ports.Lock
	clock       ports.Clock
	coordinator *sagas.Coordinator
	lockTTL     time.Duration
	logger      *zap.Logger
}

// NewWorkflowExecutionService constructs the service.
func NewWorkflowExecutionService(
	repo ports.WorkflowRepository,
	publisher ports.EventPublisher,
	lock ports.Lock,
	clock ports.Clock,
	coordinator *sagas.Coordinator,
	lockTTL time.Duration,
	logger *zap.Logger,
) *WorkflowExecutionService {
	return &WorkflowExecutionService{
		repo:        repo,
		publisher:   publisher,
		lock:        lock,
		clock:       clock,
		coordinator: coordinator,
		lockTTL:     lockTTL,
		logger:      logger,
	}
}

// withWorkflowLock implements the §5 transaction envelope: acquire ->
// (caller-supplied load+mutate) -> persist -> publish -> release. fn
// receives the freshly-loaded aggregate and returns it (possibly the same
// pointer) mutated in place, or an error that aborts before persistence.
func (s *WorkflowExecutionService) withWorkflowLock(ctx context.Context, id valueobjects.WorkflowID, fn func(w *aggregates.Workflow) error) (*aggregates.Workflow, error) {
	key := "workflow:" + id.String()
	token, acquired, err := s.lock.TryAcquire(ctx, key, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("lock held for workflow %s", id.String())
	}
	defer func() {
		if releaseErr := s.lock.Release(ctx, key, token); releaseErr != nil {
			s.logger.Warn("failed to release workflow lock",
				zap.String("workflowId", id.String()),
				zap.Error(releaseErr),
			)
		}
	}()

	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load workflow: %w", err)
	}

	if err := fn(w); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, w)
	if err != nil {
		// Persistence failed: events must not be published (§4.6). The
		// repository adapter writes pending events into the durable outbox
		// as part of the same write that persists the workflow record, so
		// a failed Save leaves no outbox row behind either.
		return nil, fmt.Errorf("persist workflow: %w", err)
	}

	// Best-effort inline publish. The durable at-least-once guarantee comes
	// from the outbox rows the repository adapter wrote alongside the
	// workflow record; the background OutboxProcessor is the backstop if
	// this inline publish fails or the process dies before reaching here.
	for _, evt := range saved.GetUncommittedEvents() {
		if pubErr := s.publisher.Publish(ctx, evt); pubErr != nil {
			s.logger.Warn("inline event publish failed; outbox processor will retry",
				zap.String("workflowId", id.String()),
				zap.String("eventType", evt.GetEventType()),
				zap.Error(pubErr),
			)
		}
	}
	saved.MarkEventsAsCommitted()

	return saved, nil
}

// ExecuteStep validates the workflow is active and the step is not
// terminal, applies the completion, and - if every step is now complete -
// delegates to the saga coordinator to complete the saga.
func (s *WorkflowExecutionService) ExecuteStep(ctx context.Context, id valueobjects.WorkflowID, stepID valueobjects.StepID, result valueobjects.StepResult) (*aggregates.Workflow, error) {
	return s.withWorkflowLock(ctx, id, func(w *aggregates.Workflow) error {
		if w.Status() != valueobjects.WorkflowStatusExecuting {
			return domainerrors.NewInvalidState("executeStep", "workflow not active")
		}
		step, ok := w.Step(stepID)
		if !ok || step.Status().IsTerminal() {
			return domainerrors.NewInvalidState("executeStep", "step not eligible for completion")
		}
		if err := w.ExecuteStep(stepID, result); err != nil {
			return err
		}
		if w.AllStepsCompleted() {
			return s.coordinator.CompleteSaga(w)
		}
		return nil
	})
}

// HandleStepFailure applies a step failure and, per the step's retry
// eligibility and the error's recoverability, either schedules a retry
// (recording the delay in context for the scheduler) or fails the saga.
func (s *WorkflowExecutionService) HandleStepFailure(ctx context.Context, id valueobjects.WorkflowID, stepID valueobjects.StepID, stepErr *domainerrors.WorkflowError) (*aggregates.Workflow, error) {
	return s.withWorkflowLock(ctx, id, func(w *aggregates.Workflow) error {
		if err := w.HandleStepFailure(stepID, stepErr); err != nil {
			return err
		}
		step, ok := w.Step(stepID)
		if !ok {
			return domainerrors.NewInvalidState("handleStepFailure", "unknown step "+stepID.String())
		}
		if step.CanRetry() {
			delay, retried, err := s.coordinator.ForwardRecovery(w, stepID)
			if err != nil {
				return err
			}
			if retried {
				w.UpdateContext(fmt.Sprintf("retryDelayMs:%s", stepID.String()), delay.Milliseconds())
				return nil
			}
		}
		if stepErr.RequiresCompensation() {
			// w.HandleStepFailure above already called the aggregate's
			// internal fail() and transitioned to FAILED whenever the step
			// was not retry-eligible and the error was unrecoverable -
			// exactly this branch's condition for every non-Validation
			// kind. Calling FailSaga (→ w.Fail() → fail() again) here
			// would hit the FAILED→FAILED invalid transition. Drive
			// backward recovery directly in that case instead of
			// re-failing an already-failed workflow.
			if w.Status() == valueobjects.WorkflowStatusFailed {
				return s.coordinator.BackwardRecovery(w)
			}
			return s.coordinator.FailSaga(w, stepErr)
		}
		return nil
	})
}

// ExecuteStepWithTimeout starts a step and, if it is found to have timed
// out, synthesizes a recoverable timeout error and takes the failure path.
func (s *WorkflowExecutionService) ExecuteStepWithTimeout(ctx context.Context, id valueobjects.WorkflowID, stepID valueobjects.StepID, deadline time.Time) (*aggregates.Workflow, error) {
	return s.withWorkflowLock(ctx, id, func(w *aggregates.Workflow) error {
		if err := w.StartStep(stepID); err != nil {
			return err
		}
		step, ok := w.Step(stepID)
		if !ok {
			return domainerrors.NewInvalidState("executeStepWithTimeout", "unknown step "+stepID.String())
		}
		if step.HasTimedOut(deadline) {
			timeoutErr := domainerrors.New(domainerrors.KindTimeout, "STEP_TIMEOUT", "step exceeded its timeout budget", s.clock.Now()).
				WithStep(stepID.String()).
				WithService(step.ServiceName()).
				WithRecoverable(true)
			return w.HandleStepFailure(stepID, timeoutErr)
		}
		return nil
	})
}

// NextStep returns the next step id per the supplied definition's
// dependency graph, or nil if every dependency-satisfied step has already
// executed (§4.6, §9).
func (s *WorkflowExecutionService) NextStep(w *aggregates.Workflow, tmpl definition.Template) *valueobjects.StepID {
	return tmpl.NextStep(w.ExecutedLog())
}

// Pause delegates to the aggregate under the workflow lock.
func (s *WorkflowExecutionService) Pause(ctx context.Context, id valueobjects.WorkflowID, reason string) (*aggregates.Workflow, error) {
	return s.withWorkflowLock(ctx, id, func(w *aggregates.Workflow) error {
		return w.Pause(reason)
	})
}

// Resume delegates to the aggregate under the workflow lock.
func (s *WorkflowExecutionService) Resume(ctx context.Context, id valueobjects.WorkflowID) (*aggregates.Workflow, error) {
	return s.withWorkflowLock(ctx, id, func(w *aggregates.Workflow) error {
		return w.Resume()
	})
}

// Cancel delegates to the aggregate under the workflow lock.
func (s *WorkflowExecutionService) Cancel(ctx context.Context, id valueobjects.WorkflowID, reason string) (*aggregates.Workflow, error) {
	return s.withWorkflowLock(ctx, id, func(w *aggregates.Workflow) error {
		return w.Cancel(reason)
	})
}
