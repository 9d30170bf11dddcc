package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	"github.com/2lar-b2/orchestrator/domain/definition"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
	"github.com/2lar-b2/orchestrator/pkg/observability"
)

// defaultStepCallTimeout bounds the remote call when a step never
// configured its own TimeoutMs.
const defaultStepCallTimeout = 30 * time.Second

// StepDispatcher is the scheduler-facing Dispatcher: it starts a step
// under the execution service's lock discipline, then drives the actual
// remote call through the RemoteCall port (§5: "all remote calls happen
// through the RPC port, which is expected to be synchronous-with-timeout
// at the port boundary"), and finally reports the outcome back through
// ExecuteStep/HandleStepFailure. The execution service itself stays free
// of any transport concern; StepDispatcher is the seam where the two
// meet.
type StepDispatcher struct {
	execution *WorkflowExecutionService
	remote    ports.RemoteCall
	clock     ports.Clock
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewStepDispatcher constructs a StepDispatcher. metrics may be nil (its
// methods are nil-safe no-ops), matching ProvideMetrics under
// EnableMetrics=false.
func NewStepDispatcher(execution *WorkflowExecutionService, remote ports.RemoteCall, clock ports.Clock, metrics *observability.Metrics, logger *zap.Logger) *StepDispatcher {
	return &StepDispatcher{execution: execution, remote: remote, clock: clock, metrics: metrics, logger: logger}
}

// NextStep delegates to the wrapped execution service.
func (d *StepDispatcher) NextStep(w *aggregates.Workflow, tmpl definition.Template) *valueobjects.StepID {
	return d.execution.NextStep(w, tmpl)
}

// ExecuteStepWithTimeout starts the step, checks for an already-elapsed
// deadline (§4.6's literal executeStepWithTimeout), and - if the step is
// still live - dispatches the remote call and reports its outcome. The
// returned workflow reflects whichever of these transactions was last
// applied.
func (d *StepDispatcher) ExecuteStepWithTimeout(ctx context.Context, id valueobjects.WorkflowID, stepID valueobjects.StepID, deadline time.Time) (*aggregates.Workflow, error) {
	w, err := d.execution.ExecuteStepWithTimeout(ctx, id, stepID, deadline)
	if err != nil {
		return nil, err
	}

	step, ok := w.Step(stepID)
	if !ok || step.Status() != valueobjects.StepStatusExecuting {
		// Either unknown (shouldn't happen) or already failed out via the
		// timeout path above - nothing left to dispatch.
		return w, nil
	}

	timeout := defaultStepCallTimeout
	if ms := step.TimeoutMs(); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	callStart := d.clock.Now()
	resp, err := d.remote.Call(ctx, step.ServiceName(), step.Operation(), step.Input(), timeout)
	d.metrics.RecordStepExecution(ctx, step.ServiceName(), step.Operation(), d.clock.Now().Sub(callStart), err)
	if err != nil {
		d.logger.Error("remote call port returned an unexpected error",
			zap.String("workflowId", id.String()),
			zap.String("stepId", stepID.String()),
			zap.Error(err),
		)
		return w, fmt.Errorf("remote call %s/%s: %w", step.ServiceName(), step.Operation(), err)
	}

	switch resp.Kind {
	case ports.RemoteCallSuccess:
		return d.execution.ExecuteStep(ctx, id, stepID, valueobjects.NewStepResult(resp.Data, d.clock.Now()))
	case ports.RemoteCallValidation:
		stepErr := domainerrors.New(domainerrors.KindValidation, "STEP_VALIDATION_FAILED", remoteErrMessage(resp), d.clock.Now()).
			WithStep(stepID.String()).
			WithService(step.ServiceName()).
			WithRecoverable(false)
		return d.execution.HandleStepFailure(ctx, id, stepID, stepErr)
	default:
		stepErr := domainerrors.New(remoteKindToWorkflowKind(resp.Kind), "STEP_REMOTE_CALL_FAILED", remoteErrMessage(resp), d.clock.Now()).
			WithStep(stepID.String()).
			WithService(step.ServiceName()).
			WithRecoverable(true)
		return d.execution.HandleStepFailure(ctx, id, stepID, stepErr)
	}
}

func remoteKindToWorkflowKind(kind ports.RemoteCallResultKind) domainerrors.Kind {
	switch kind {
	case ports.RemoteCallTimeout:
		return domainerrors.KindTimeout
	case ports.RemoteCallUnavailable:
		return domainerrors.KindServiceUnavailable
	default:
		return domainerrors.KindNetwork
	}
}

func remoteErrMessage(resp ports.RemoteCallResponse) string {
	if resp.Err != nil {
		return resp.Err.Error()
	}
	return string(resp.Kind)
}
