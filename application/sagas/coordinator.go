// Package sagas holds the saga coordinator: the piece that decides between
// forward and backward recovery on step failure (§4.5). Grounded on the
// teacher's Saga.Execute/compensate control flow (reverse iteration over
// completed steps, continue past individual compensation failures), but
// rebuilt so the coordinator never sleeps and never owns parallel state -
// it drives the Workflow aggregate's own state machine and reports
// computed delays back to the caller (§4.4, §5, §9).
package sagas

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
	"github.com/2lar-b2/orchestrator/pkg/observability"
)

// Coordinator is deterministic given workflow state and is free of I/O
// (§4.5), aside from the saga-outcome metric it emits on a terminal
// transition.
type Coordinator struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewCoordinator constructs a Coordinator. metrics may be nil (its methods
// are nil-safe no-ops), matching ProvideMetrics under EnableMetrics=false.
func NewCoordinator(logger *zap.Logger, metrics *observability.Metrics) *Coordinator {
	return &Coordinator{logger: logger, metrics: metrics}
}

// StartSaga stamps a saga transaction id into the workflow's execution
// context and starts it.
func (c *Coordinator) StartSaga(w *aggregates.Workflow, sagaTransactionID string) error {
	w.UpdateContext("sagaTransactionId", sagaTransactionID)
	if err := w.Start(); err != nil {
		return err
	}
	c.logger.Info("saga started",
		zap.String("workflowId", w.ID().String()),
		zap.String("sagaTransactionId", sagaTransactionID),
	)
	return nil
}

// ForwardRecovery reports whether stepID can be retried; on true it invokes
// RetryStep and returns the backoff delay the scheduler should wait before
// re-admitting the workflow. On false, the caller must switch to backward
// recovery.
func (c *Coordinator) ForwardRecovery(w *aggregates.Workflow, stepID valueobjects.StepID) (delay time.Duration, retried bool, err error) {
	s, ok := w.Step(stepID)
	if !ok {
		return 0, false, domainerrors.NewInvalidState("forwardRecovery", "unknown step "+stepID.String())
	}
	if !s.CanRetry() {
		return 0, false, nil
	}
	attempt := s.RetryCount()
	delay = s.RetryPolicy().DelayForAttempt(attempt)
	if err := w.RetryStep(stepID); err != nil {
		return 0, false, err
	}
	c.logger.Debug("forward recovery scheduled",
		zap.String("workflowId", w.ID().String()),
		zap.String("stepId", stepID.String()),
		zap.Duration("delay", delay),
	)
	return delay, true, nil
}

// BackwardRecovery collects the steps requiring compensation in reverse
// executed order; if none remain, it completes compensation immediately,
// otherwise it transitions the workflow to COMPENSATING. It never invokes
// remote compensation RPCs itself - that is the execution service's
// responsibility, per step.
func (c *Coordinator) BackwardRecovery(w *aggregates.Workflow) error {
	pending := w.StepsRequiringCompensation()
	if len(pending) == 0 {
		if err := w.Compensate(); err != nil {
			return err
		}
		if err := w.CompleteCompensation(); err != nil {
			return err
		}
		c.metrics.RecordSagaOutcome(context.Background(), string(w.Type()), "compensated")
		return nil
	}
	return w.Compensate()
}

// CompleteSaga transitions the workflow to its successful terminal state.
func (c *Coordinator) CompleteSaga(w *aggregates.Workflow) error {
	if err := w.Complete(); err != nil {
		return err
	}
	c.metrics.RecordSagaOutcome(context.Background(), string(w.Type()), "completed")
	return nil
}

// FailSaga fails the workflow and, iff the error requires compensation,
// immediately triggers backward recovery.
func (c *Coordinator) FailSaga(w *aggregates.Workflow, workflowErr *domainerrors.WorkflowError) error {
	if err := w.Fail(workflowErr); err != nil {
		return err
	}
	c.metrics.RecordSagaOutcome(context.Background(), string(w.Type()), "failed")
	if workflowErr.RequiresCompensation() {
		return c.BackwardRecovery(w)
	}
	return nil
}

// CheckConsistency returns false if any COMPLETED step lacks a compensation
// descriptor - exposed for the initial admission check (§4.5).
func (c *Coordinator) CheckConsistency(w *aggregates.Workflow) bool {
	for _, s := range w.Steps() {
		if s.Status() == valueobjects.StepStatusCompleted && s.Compensation() == nil {
			return false
		}
	}
	return true
}

// CompensationProgress is |compensated| / |executed|, defined as 100 when
// executed is empty.
func (c *Coordinator) CompensationProgress(w *aggregates.Workflow) float64 {
	executed := len(w.ExecutedLog())
	if executed == 0 {
		return 100
	}
	return float64(len(w.CompensatedLog())) / float64(executed) * 100
}
