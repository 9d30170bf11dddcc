// Package definition holds the data-supplied workflow templates that
// nextStep (§4.6) walks. The engine does not define workflows declaratively
// (Non-goal): definitions are plain data the caller loads and passes in.
package definition

import (
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
)

// StepDefinition describes one step's place in the dependency graph.
type StepDefinition struct {
	StepID       valueobjects.StepID
	DependsOn    []valueobjects.StepID
	ServiceName  string
	Operation    string
	RetryPolicy  valueobjects.RetryPolicy
	Compensation *valueobjects.CompensationDescriptor
	TimeoutMs    int64
}

// Template is the full step-dependency graph for one workflow type.
type Template struct {
	ID    string
	Type  valueobjects.WorkflowType
	Steps []StepDefinition
}

// NextStep returns the id of the next step whose dependencies are all
// present in executedLog, walking Steps in declared order, or nil if none
// qualifies yet (§4.6, §9: "next=empty is a signal to check
// allStepsCompleted").
func (t Template) NextStep(executedLog []valueobjects.StepID) *valueobjects.StepID {
	executed := make(map[valueobjects.StepID]bool, len(executedLog))
	for _, id := range executedLog {
		executed[id] = true
	}
	for _, s := range t.Steps {
		if executed[s.StepID] {
			continue
		}
		ready := true
		for _, dep := range s.DependsOn {
			if !executed[dep] {
				ready = false
				break
			}
		}
		if ready {
			id := s.StepID
			return &id
		}
	}
	return nil
}
