package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/application/sagas"
	"github.com/2lar-b2/orchestrator/application/services"
	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/entities"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	"github.com/2lar-b2/orchestrator/internal/testutil"
)

// TestStepDispatcher_ExecuteStepWithTimeout_UsesStepsOwnTimeoutBudget pins
// down a regression found during review: the remote call's timeout budget
// must come from the step's own configured TimeoutMs, not from whatever
// "deadline" the scheduler happened to pass in for the separate
// already-elapsed check - those are two different clocks and conflating
// them silently clamped every call to a fixed, too-short budget.
func TestStepDispatcher_ExecuteStepWithTimeout_UsesStepsOwnTimeoutBudget(t *testing.T) {
	repo := testutil.NewFakeWorkflowRepository()
	publisher := testutil.NewFakeEventPublisher()
	lock := testutil.NewFakeLock()
	coordinator := sagas.NewCoordinator(zap.NewNop(), nil)
	execution := services.NewWorkflowExecutionService(repo, publisher, lock, dispatcherClockStub{}, coordinator, time.Second, zap.NewNop())

	var gotTimeout time.Duration
	remote := &testutil.FakeRemoteCall{
		Handler: func(ctx context.Context, serviceName, operation string, request map[string]interface{}, timeout time.Duration) (ports.RemoteCallResponse, error) {
			gotTimeout = timeout
			return ports.RemoteCallResponse{Kind: ports.RemoteCallSuccess, Data: map[string]interface{}{}}, nil
		},
	}
	dispatcher := services.NewStepDispatcher(execution, remote, dispatcherClockStub{}, nil, zap.NewNop())

	stepID, err := valueobjects.NewStepID("pack-order")
	require.NoError(t, err)
	step := entities.NewStep(entities.NewStepParams{
		StepID:      stepID,
		StepName:    "pack-order",
		ServiceName: "packing-service",
		Operation:   "pack",
		TimeoutMs:   45000,
	})

	w := aggregates.NewWorkflow(aggregates.NewWorkflowParams{
		ID:           valueobjects.NewWorkflowID(),
		DefinitionID: "packing-v1",
		Name:         "packing workflow",
		Type:         valueobjects.WorkflowTypePacking,
		Priority:     valueobjects.PriorityNormal,
	})
	require.NoError(t, w.AddStep(step))
	require.NoError(t, w.Start())
	repo.Seed(w)

	// A "deadline" of just time.Now() previously starved the remote call's
	// timeout down to ~0, clamped to a flat 1s, regardless of the step's
	// 45s TimeoutMs.
	_, err = dispatcher.ExecuteStepWithTimeout(context.Background(), w.ID(), stepID, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, gotTimeout, "remote call timeout must reflect the step's own TimeoutMs")
}

type dispatcherClockStub struct{}

func (dispatcherClockStub) Now() time.Time { return time.Now() }
