package services_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/sagas"
	"github.com/2lar-b2/orchestrator/application/services"
	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/entities"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
	"github.com/2lar-b2/orchestrator/internal/testutil"
)

var _ = Describe("WorkflowExecutionService.HandleStepFailure", func() {
	var (
		repo          *testutil.FakeWorkflowRepository
		publisher     *testutil.FakeEventPublisher
		lock          *testutil.FakeLock
		coordinator   *sagas.Coordinator
		svc           *services.WorkflowExecutionService
		w             *aggregates.Workflow
		reserveStepID valueobjects.StepID
		packStepID    valueobjects.StepID
		ctx           context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = testutil.NewFakeWorkflowRepository()
		publisher = testutil.NewFakeEventPublisher()
		lock = testutil.NewFakeLock()
		coordinator = sagas.NewCoordinator(zap.NewNop(), nil)
		svc = services.NewWorkflowExecutionService(repo, publisher, lock, clockStub{}, coordinator, time.Second, zap.NewNop())

		var err error
		reserveStepID, err = valueobjects.NewStepID("reserve-inventory")
		Expect(err).NotTo(HaveOccurred())
		packStepID, err = valueobjects.NewStepID("pack-order")
		Expect(err).NotTo(HaveOccurred())

		// reserve-inventory already completed and carries a compensation
		// descriptor, so backward recovery has something to compensate -
		// this is what distinguishes the S3 "backward recovery" scenario
		// from a bare first-step failure.
		reserveStep := entities.NewStep(entities.NewStepParams{
			StepID:       reserveStepID,
			StepName:     "reserve-inventory",
			ServiceName:  "inventory-service",
			Operation:    "reserve",
			Compensation: &valueobjects.CompensationDescriptor{
				Strategy:      valueobjects.CompensationStrategyReverseOperation,
				TargetService: "inventory-service",
				Operation:     "release",
			},
		})
		packStep := entities.NewStep(entities.NewStepParams{
			StepID:      packStepID,
			StepName:    "pack-order",
			ServiceName: "packing-service",
			Operation:   "pack",
			// MaxRetries=0: the very first failure already exhausts the
			// retry budget, so the aggregate fails itself inside
			// HandleStepFailure before the service's own compensation
			// branch runs - exactly the regression scenario.
			RetryPolicy: valueobjects.RetryPolicy{MaxRetries: 0},
		})

		w = aggregates.NewWorkflow(aggregates.NewWorkflowParams{
			ID:           valueobjects.NewWorkflowID(),
			DefinitionID: "order-fulfillment-v1",
			Name:         "test workflow",
			Type:         valueobjects.WorkflowTypeOrderFulfillment,
			Priority:     valueobjects.PriorityNormal,
			TriggeredBy:  "test-suite",
		})
		Expect(w.AddStep(reserveStep)).To(Succeed())
		Expect(w.AddStep(packStep)).To(Succeed())
		Expect(w.Start()).To(Succeed())
		Expect(w.StartStep(reserveStepID)).To(Succeed())
		Expect(w.ExecuteStep(reserveStepID, valueobjects.NewStepResult(nil, time.Now()))).To(Succeed())
		Expect(w.StartStep(packStepID)).To(Succeed())

		repo.Seed(w)
	})

	When("a step's retry budget is already exhausted and the error requires compensation", func() {
		It("does not attempt to re-fail an already-FAILED workflow, and persists the COMPENSATING transition", func() {
			stepErr := domainerrors.New(domainerrors.KindBusinessRuleViolation, "PACK_STATION_DOWN", "packing station unavailable", time.Now()).
				WithStep(packStepID.String()).
				WithService("packing-service")

			_, err := svc.HandleStepFailure(ctx, w.ID(), packStepID, stepErr)

			// Before the fix this returned an InvalidState error from the
			// second internal fail() call (FAILED -> FAILED is not a legal
			// transition) and withWorkflowLock aborted before persisting
			// anything at all - not even the step's own MarkFailed.
			Expect(err).NotTo(HaveOccurred())

			reloaded, findErr := repo.FindByID(ctx, w.ID())
			Expect(findErr).NotTo(HaveOccurred())
			Expect(reloaded.Status()).To(Equal(valueobjects.WorkflowStatusCompensating))

			step, ok := reloaded.Step(packStepID)
			Expect(ok).To(BeTrue())
			Expect(step.Status()).To(Equal(valueobjects.StepStatusFailed))
		})
	})

	When("a step fails with a validation error (never requires compensation)", func() {
		It("fails the workflow through the ordinary single fail(), without the service calling FailSaga a second time", func() {
			stepErr := domainerrors.New(domainerrors.KindValidation, "BAD_INPUT", "malformed request", time.Now()).
				WithStep(packStepID.String())

			_, err := svc.HandleStepFailure(ctx, w.ID(), packStepID, stepErr)
			Expect(err).NotTo(HaveOccurred())

			reloaded, findErr := repo.FindByID(ctx, w.ID())
			Expect(findErr).NotTo(HaveOccurred())
			// Validation errors are never retry-eligible here (MaxRetries=0)
			// and RequiresCompensation() is false for KindValidation, so the
			// service's compensation branch is never entered - the
			// aggregate's own fail() is the only one that fires.
			Expect(reloaded.Status()).To(Equal(valueobjects.WorkflowStatusFailed))
		})
	})
})

var _ = Describe("WorkflowExecutionService.ExecuteStep", func() {
	It("completes the saga once every step is done", func() {
		repo := testutil.NewFakeWorkflowRepository()
		publisher := testutil.NewFakeEventPublisher()
		lock := testutil.NewFakeLock()
		coordinator := sagas.NewCoordinator(zap.NewNop(), nil)
		svc := services.NewWorkflowExecutionService(repo, publisher, lock, clockStub{}, coordinator, time.Second, zap.NewNop())

		stepID, err := valueobjects.NewStepID("pack-order")
		Expect(err).NotTo(HaveOccurred())
		step := entities.NewStep(entities.NewStepParams{
			StepID:      stepID,
			StepName:    "pack-order",
			ServiceName: "packing-service",
			Operation:   "pack",
		})

		w := aggregates.NewWorkflow(aggregates.NewWorkflowParams{
			ID:           valueobjects.NewWorkflowID(),
			DefinitionID: "packing-v1",
			Name:         "packing workflow",
			Type:         valueobjects.WorkflowTypePacking,
			Priority:     valueobjects.PriorityNormal,
		})
		Expect(w.AddStep(step)).To(Succeed())
		Expect(w.Start()).To(Succeed())
		Expect(w.StartStep(stepID)).To(Succeed())
		repo.Seed(w)

		_, err = svc.ExecuteStep(context.Background(), w.ID(), stepID, valueobjects.NewStepResult(map[string]interface{}{"ok": true}, time.Now()))
		Expect(err).NotTo(HaveOccurred())

		reloaded, findErr := repo.FindByID(context.Background(), w.ID())
		Expect(findErr).NotTo(HaveOccurred())
		Expect(reloaded.Status()).To(Equal(valueobjects.WorkflowStatusCompleted))
	})
})

type clockStub struct{}

func (clockStub) Now() time.Time { return time.Now() }
