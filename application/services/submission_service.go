package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/entities"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	"github.com/2lar-b2/orchestrator/domain/definition"
)

// SubmissionService constructs and persists new workflow instances from a
// caller-supplied template (§4.6, §9: "the engine does not define workflows
// declaratively" - templates are data the caller loads and passes in).
// Grounded on the teacher's EdgeService shape (constructor-injected ports +
// zap, validate-then-mutate), generalized to aggregate construction instead
// of mutation of an existing one - so it persists directly rather than via
// WorkflowExecutionService's per-workflow lock, since no other caller can
// observe an id before this call returns it.
type SubmissionService struct {
	repo      ports.WorkflowRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(repo ports.WorkflowRepository, publisher ports.EventPublisher, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{repo: repo, publisher: publisher, logger: logger}
}

// SubmitParams bundles the inputs needed to instantiate a workflow from a
// template.
type SubmitParams struct {
	Template      definition.Template
	Name          string
	Priority      valueobjects.Priority
	TriggeredBy   string
	CorrelationID string
	Input         map[string]interface{}
	MaxRetries    int
}

// Submit constructs a new workflow from the template's step graph, starts
// it, and persists it. The returned workflow is already EXECUTING so the
// waveless scheduler or an immediate dispatch can drive its first step.
func (s *SubmissionService) Submit(ctx context.Context, p SubmitParams) (*aggregates.Workflow, error) {
	w := aggregates.NewWorkflow(aggregates.NewWorkflowParams{
		ID:            valueobjects.NewWorkflowID(),
		DefinitionID:  p.Template.ID,
		Name:          p.Name,
		Type:          p.Template.Type,
		Priority:      p.Priority,
		TriggeredBy:   p.TriggeredBy,
		CorrelationID: p.CorrelationID,
		Input:         p.Input,
		MaxRetries:    p.MaxRetries,
	})

	for _, sd := range p.Template.Steps {
		step := entities.NewStep(entities.NewStepParams{
			StepID:         sd.StepID,
			StepName:       sd.StepID.String(),
			StepType:       string(p.Template.Type),
			ServiceName:    sd.ServiceName,
			Operation:      sd.Operation,
			ExecutionOrder: len(w.Steps()),
			Input:          p.Input,
			RetryPolicy:    sd.RetryPolicy,
			Compensation:   sd.Compensation,
			TimeoutMs:      sd.TimeoutMs,
		})
		if err := w.AddStep(step); err != nil {
			return nil, fmt.Errorf("add step %s: %w", sd.StepID.String(), err)
		}
	}

	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("start workflow: %w", err)
	}

	saved, err := s.repo.Save(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("persist workflow: %w", err)
	}

	for _, evt := range saved.GetUncommittedEvents() {
		if pubErr := s.publisher.Publish(ctx, evt); pubErr != nil {
			s.logger.Warn("inline event publish failed; outbox processor will retry",
				zap.String("workflowId", saved.ID().String()),
				zap.String("eventType", evt.GetEventType()),
				zap.Error(pubErr),
			)
		}
	}
	saved.MarkEventsAsCommitted()

	return saved, nil
}
