package sagas_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/sagas"
	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/entities"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
)

func newCoordinatorTestWorkflow(stepIDs ...string) (*aggregates.Workflow, []valueobjects.StepID) {
	ids := make([]valueobjects.StepID, 0, len(stepIDs))
	w := aggregates.NewWorkflow(aggregates.NewWorkflowParams{
		ID:           valueobjects.NewWorkflowID(),
		DefinitionID: "order-fulfillment-v1",
		Name:         "coordinator test",
		Type:         valueobjects.WorkflowTypeOrderFulfillment,
		Priority:     valueobjects.PriorityNormal,
	})
	for _, name := range stepIDs {
		id, err := valueobjects.NewStepID(name)
		Expect(err).NotTo(HaveOccurred())
		comp := &valueobjects.CompensationDescriptor{Strategy: valueobjects.CompensationStrategyReverseOperation}
		step := entities.NewStep(entities.NewStepParams{
			StepID:       id,
			StepName:     name,
			ServiceName:  "svc",
			Operation:    "op",
			Compensation: comp,
			RetryPolicy:  valueobjects.RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2, Exponential: true},
		})
		Expect(w.AddStep(step)).To(Succeed())
		ids = append(ids, id)
	}
	Expect(w.Start()).To(Succeed())
	return w, ids
}

var _ = Describe("Coordinator.ForwardRecovery", func() {
	It("retries a step that still has retry budget remaining and returns the computed delay", func() {
		w, ids := newCoordinatorTestWorkflow("step-1")
		c := sagas.NewCoordinator(zap.NewNop(), nil)

		Expect(w.StartStep(ids[0])).To(Succeed())
		stepErr := domainerrors.New(domainerrors.KindServiceUnavailable, "UNAVAILABLE", "downstream unavailable", time.Now())
		Expect(w.HandleStepFailure(ids[0], stepErr)).To(Succeed())

		delay, retried, err := c.ForwardRecovery(w, ids[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(retried).To(BeTrue())
		Expect(delay).To(Equal(time.Millisecond))

		step, ok := w.Step(ids[0])
		Expect(ok).To(BeTrue())
		Expect(step.Status()).To(Equal(valueobjects.StepStatusPending))
	})

	It("reports retried=false once the retry budget is exhausted", func() {
		w, ids := newCoordinatorTestWorkflow("step-1")
		c := sagas.NewCoordinator(zap.NewNop(), nil)

		Expect(w.StartStep(ids[0])).To(Succeed())
		stepErr := domainerrors.New(domainerrors.KindServiceUnavailable, "UNAVAILABLE", "downstream unavailable", time.Now())
		for i := 0; i < 2; i++ {
			Expect(w.HandleStepFailure(ids[0], stepErr)).To(Succeed())
			_, retried, err := c.ForwardRecovery(w, ids[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(retried).To(BeTrue())
			Expect(w.StartStep(ids[0])).To(Succeed())
		}

		Expect(w.HandleStepFailure(ids[0], stepErr)).To(Succeed())
		_, retried, err := c.ForwardRecovery(w, ids[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(retried).To(BeFalse())
	})
})

var _ = Describe("Coordinator.BackwardRecovery", func() {
	It("transitions a FAILED workflow with completed, compensable steps into COMPENSATING", func() {
		w, ids := newCoordinatorTestWorkflow("step-1", "step-2")
		c := sagas.NewCoordinator(zap.NewNop(), nil)

		Expect(w.StartStep(ids[0])).To(Succeed())
		Expect(w.ExecuteStep(ids[0], valueobjects.NewStepResult(nil, time.Now()))).To(Succeed())
		Expect(w.StartStep(ids[1])).To(Succeed())

		stepErr := domainerrors.New(domainerrors.KindBusinessRuleViolation, "RULE", "business rule violated", time.Now())
		// step-2 has MaxRetries=2: spend both retries so the third failure
		// leaves no budget and the non-recoverable error fails the workflow.
		for i := 0; i < 2; i++ {
			Expect(w.HandleStepFailure(ids[1], stepErr)).To(Succeed())
			_, retried, err := c.ForwardRecovery(w, ids[1])
			Expect(err).NotTo(HaveOccurred())
			Expect(retried).To(BeTrue())
			Expect(w.StartStep(ids[1])).To(Succeed())
		}
		Expect(w.HandleStepFailure(ids[1], stepErr)).To(Succeed())
		Expect(w.Status()).To(Equal(valueobjects.WorkflowStatusFailed))

		Expect(c.BackwardRecovery(w)).To(Succeed())
		Expect(w.Status()).To(Equal(valueobjects.WorkflowStatusCompensating))
	})
})

var _ = Describe("Coordinator.CompleteSaga", func() {
	It("completes the workflow once every step is done", func() {
		w, ids := newCoordinatorTestWorkflow("step-1")
		c := sagas.NewCoordinator(zap.NewNop(), nil)

		Expect(w.StartStep(ids[0])).To(Succeed())
		Expect(w.ExecuteStep(ids[0], valueobjects.NewStepResult(nil, time.Now()))).To(Succeed())

		Expect(c.CompleteSaga(w)).To(Succeed())
		Expect(w.Status()).To(Equal(valueobjects.WorkflowStatusCompleted))
	})
})

var _ = Describe("Coordinator.CheckConsistency", func() {
	It("reports false when a completed step lacks a compensation descriptor", func() {
		w := aggregates.NewWorkflow(aggregates.NewWorkflowParams{
			ID:           valueobjects.NewWorkflowID(),
			DefinitionID: "order-fulfillment-v1",
			Name:         "consistency test",
			Type:         valueobjects.WorkflowTypeOrderFulfillment,
			Priority:     valueobjects.PriorityNormal,
		})
		id, err := valueobjects.NewStepID("step-1")
		Expect(err).NotTo(HaveOccurred())
		step := entities.NewStep(entities.NewStepParams{StepID: id, StepName: "step-1", ServiceName: "svc", Operation: "op"})
		Expect(w.AddStep(step)).To(Succeed())
		Expect(w.Start()).To(Succeed())
		Expect(w.StartStep(id)).To(Succeed())
		Expect(w.ExecuteStep(id, valueobjects.NewStepResult(nil, time.Now()))).To(Succeed())

		c := sagas.NewCoordinator(zap.NewNop(), nil)
		Expect(c.CheckConsistency(w)).To(BeFalse())
	})
})
