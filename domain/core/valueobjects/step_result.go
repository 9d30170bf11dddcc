package valueobjects

import "time"

// StepResult is the outcome recorded on a step when it completes
// successfully.
type StepResult struct {
	Success    bool
	Output     map[string]interface{}
	OccurredAt time.Time
}

// NewStepResult builds a successful step result.
func NewStepResult(output map[string]interface{}, occurredAt time.Time) StepResult {
	return StepResult{
		Success:    true,
		Output:     output,
		OccurredAt: occurredAt,
	}
}
