package valueobjects

import "time"

// CompensationStrategy names how a step's effect is undone during backward
// recovery.
type CompensationStrategy string

const (
	CompensationStrategyReverseOperation CompensationStrategy = "reverse-operation"
	CompensationStrategyDeleteCreated    CompensationStrategy = "delete-created"
	CompensationStrategyRestoreState     CompensationStrategy = "restore-state"
	CompensationStrategyCustom           CompensationStrategy = "custom"
)

// CompensationDescriptor describes how to undo a completed step. A step
// "requires compensation" iff it is COMPLETED and carries a non-nil
// descriptor (§3).
type CompensationDescriptor struct {
	Strategy        CompensationStrategy
	TargetService   string
	Operation       string
	ParameterMap    map[string]string
	Idempotent      bool
	RetryBound      int
	CompensationTTL time.Duration
}
