package dynamodb

import (
	"time"

	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/entities"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
)

const timeFmt = time.RFC3339Nano

func toItem(w *aggregates.Workflow) workflowItem {
	stepOrder := make([]string, 0)
	for _, s := range w.Steps() {
		stepOrder = append(stepOrder, s.StepID().String())
	}

	steps := make([]stepItem, 0, len(stepOrder))
	for _, s := range w.Steps() {
		steps = append(steps, toStepItem(s))
	}

	executedLog := make([]string, 0)
	for _, id := range w.ExecutedLog() {
		executedLog = append(executedLog, id.String())
	}
	compensatedLog := make([]string, 0)
	for _, id := range w.CompensatedLog() {
		compensatedLog = append(compensatedLog, id.String())
	}

	var currentStepID *string
	if cur := w.CurrentStepID(); cur != nil {
		s := cur.String()
		currentStepID = &s
	}

	errorLog := make([]errorItem, 0, len(w.ErrorLog()))
	for _, e := range w.ErrorLog() {
		errorLog = append(errorLog, toErrorItem(e))
	}

	return workflowItem{
		PK:             pk(w.ID()),
		SK:             "METADATA",
		GSI1PK:         "STATUS#" + string(w.Status()),
		GSI1SK:         w.CreatedAt().Format(timeFmt),
		GSI2PK:         "TYPE#" + string(w.Type()),
		ID:             w.ID().String(),
		DefinitionID:   w.DefinitionID(),
		Name:           w.Name(),
		Type:           string(w.Type()),
		Status:         string(w.Status()),
		Priority:       int(w.Priority()),
		StepOrder:      stepOrder,
		Steps:          steps,
		ExecutedLog:    executedLog,
		CompensatedLog: compensatedLog,
		CurrentStepID:  currentStepID,
		TriggeredBy:    w.TriggeredBy(),
		CorrelationID:  w.CorrelationID(),
		Input:          w.Input(),
		Output:         w.Output(),
		Context:        w.Context(),
		ErrorLog:       errorLog,
		RetryCount:     w.RetryCount(),
		MaxRetries:     w.MaxRetries(),
		StartedAt:      formatTimePtr(w.StartedAt()),
		CompletedAt:    formatTimePtr(w.CompletedAt()),
		Version:        w.Version(),
		CreatedAt:      w.CreatedAt().Format(timeFmt),
		UpdatedAt:      time.Now().Format(timeFmt),
	}
}

func toStepItem(s *entities.Step) stepItem {
	var lastErr *errorItem
	if s.LastError() != nil {
		e := toErrorItem(s.LastError())
		lastErr = &e
	}
	var comp *compensationItem
	if c := s.Compensation(); c != nil {
		comp = &compensationItem{
			Strategy:          string(c.Strategy),
			TargetService:     c.TargetService,
			Operation:         c.Operation,
			ParameterMap:      toInterfaceMap(c.ParameterMap),
			Idempotent:        c.Idempotent,
			RetryBound:        c.RetryBound,
			CompensationTTLMs: c.CompensationTTL.Milliseconds(),
		}
	}
	return stepItem{
		StepID:         s.StepID().String(),
		StepName:       s.StepName(),
		StepType:       s.StepType(),
		ServiceName:    s.ServiceName(),
		Operation:      s.Operation(),
		ExecutionOrder: s.ExecutionOrder(),
		Status:         string(s.Status()),
		Input:          s.Input(),
		Output:         s.Output(),
		LastError:      lastErr,
		RetryCount:     s.RetryCount(),
		RetryPolicy: retryPolicyItem{
			MaxRetries:     s.RetryPolicy().MaxRetries,
			InitialDelayMs: s.RetryPolicy().InitialDelay.Milliseconds(),
			MaxDelayMs:     s.RetryPolicy().MaxDelay.Milliseconds(),
			Multiplier:     s.RetryPolicy().Multiplier,
			Exponential:    s.RetryPolicy().Exponential,
		},
		Compensation:  comp,
		TimeoutMs:     s.TimeoutMs(),
		StartedAt:     formatTimePtr(s.StartedAt()),
		CompletedAt:   formatTimePtr(s.CompletedAt()),
		Compensated:   s.Compensated(),
		CompensatedAt: formatTimePtr(s.CompensatedAt()),
	}
}

func toErrorItem(e *domainerrors.WorkflowError) errorItem {
	return errorItem{
		Kind:        string(e.Kind),
		Code:        e.Code,
		Message:     e.Message,
		Service:     e.Service,
		StepID:      e.StepID,
		OccurredAt:  e.OccurredAt.Format(timeFmt),
		Recoverable: e.Recoverable(),
	}
}

func toInterfaceMap(m map[string]string) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toStringMap(m map[string]interface{}) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeFmt)
	return &s
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(timeFmt, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func fromItem(item workflowItem) (*aggregates.Workflow, error) {
	id, err := valueobjects.NewWorkflowIDFromString(item.ID)
	if err != nil {
		return nil, err
	}

	stepOrder := make([]valueobjects.StepID, 0, len(item.StepOrder))
	for _, s := range item.StepOrder {
		sid, err := valueobjects.NewStepID(s)
		if err != nil {
			return nil, err
		}
		stepOrder = append(stepOrder, sid)
	}

	steps := make(map[valueobjects.StepID]*entities.Step, len(item.Steps))
	for _, si := range item.Steps {
		step, err := fromStepItem(si)
		if err != nil {
			return nil, err
		}
		steps[step.StepID()] = step
	}

	executedLog := make([]valueobjects.StepID, 0, len(item.ExecutedLog))
	for _, s := range item.ExecutedLog {
		sid, err := valueobjects.NewStepID(s)
		if err != nil {
			return nil, err
		}
		executedLog = append(executedLog, sid)
	}
	compensatedLog := make([]valueobjects.StepID, 0, len(item.CompensatedLog))
	for _, s := range item.CompensatedLog {
		sid, err := valueobjects.NewStepID(s)
		if err != nil {
			return nil, err
		}
		compensatedLog = append(compensatedLog, sid)
	}

	var currentStepID *valueobjects.StepID
	if item.CurrentStepID != nil {
		sid, err := valueobjects.NewStepID(*item.CurrentStepID)
		if err != nil {
			return nil, err
		}
		currentStepID = &sid
	}

	errorLog := make([]*domainerrors.WorkflowError, 0, len(item.ErrorLog))
	for _, e := range item.ErrorLog {
		errorLog = append(errorLog, fromErrorItem(e))
	}

	startedAt, err := parseTimePtr(item.StartedAt)
	if err != nil {
		return nil, err
	}
	completedAt, err := parseTimePtr(item.CompletedAt)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(timeFmt, item.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(timeFmt, item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return aggregates.ReconstructWorkflow(
		id,
		item.DefinitionID, item.Name,
		valueobjects.WorkflowType(item.Type),
		valueobjects.WorkflowStatus(item.Status),
		valueobjects.Priority(item.Priority),
		stepOrder,
		steps,
		executedLog, compensatedLog,
		currentStepID,
		item.TriggeredBy, item.CorrelationID,
		item.Input, item.Output, item.Context,
		errorLog,
		item.RetryCount, item.MaxRetries,
		startedAt, completedAt,
		item.Version,
		createdAt, updatedAt,
	), nil
}

func fromStepItem(si stepItem) (*entities.Step, error) {
	stepID, err := valueobjects.NewStepID(si.StepID)
	if err != nil {
		return nil, err
	}
	var comp *valueobjects.CompensationDescriptor
	if si.Compensation != nil {
		comp = &valueobjects.CompensationDescriptor{
			Strategy:        valueobjects.CompensationStrategy(si.Compensation.Strategy),
			TargetService:   si.Compensation.TargetService,
			Operation:       si.Compensation.Operation,
			ParameterMap:    toStringMap(si.Compensation.ParameterMap),
			Idempotent:      si.Compensation.Idempotent,
			RetryBound:      si.Compensation.RetryBound,
			CompensationTTL: time.Duration(si.Compensation.CompensationTTLMs) * time.Millisecond,
		}
	}
	step := entities.NewStep(entities.NewStepParams{
		StepID:         stepID,
		StepName:       si.StepName,
		StepType:       si.StepType,
		ServiceName:    si.ServiceName,
		Operation:      si.Operation,
		ExecutionOrder: si.ExecutionOrder,
		Input:          si.Input,
		RetryPolicy: valueobjects.RetryPolicy{
			MaxRetries:   si.RetryPolicy.MaxRetries,
			InitialDelay: time.Duration(si.RetryPolicy.InitialDelayMs) * time.Millisecond,
			MaxDelay:     time.Duration(si.RetryPolicy.MaxDelayMs) * time.Millisecond,
			Multiplier:   si.RetryPolicy.Multiplier,
			Exponential:  si.RetryPolicy.Exponential,
		},
		Compensation: comp,
		TimeoutMs:    si.TimeoutMs,
	})
	startedAt, err := parseTimePtr(si.StartedAt)
	if err != nil {
		return nil, err
	}
	completedAt, err := parseTimePtr(si.CompletedAt)
	if err != nil {
		return nil, err
	}
	compensatedAt, err := parseTimePtr(si.CompensatedAt)
	if err != nil {
		return nil, err
	}
	return entities.RehydrateStep(step, valueobjects.StepStatus(si.Status), si.Output, si.RetryCount,
		fromErrorItemPtr(si.LastError), si.Compensated, startedAt, completedAt, compensatedAt), nil
}

func fromErrorItem(e errorItem) *domainerrors.WorkflowError {
	return domainerrors.New(domainerrors.Kind(e.Kind), e.Code, e.Message, mustParseTime(e.OccurredAt)).
		WithService(e.Service).
		WithStep(e.StepID).
		WithRecoverable(e.Recoverable)
}

func fromErrorItemPtr(e *errorItem) *domainerrors.WorkflowError {
	if e == nil {
		return nil
	}
	return fromErrorItem(*e)
}

func mustParseTime(s string) time.Time {
	t, err := time.Parse(timeFmt, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
