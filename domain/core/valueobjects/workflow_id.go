package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// WorkflowID is a value object representing a unique workflow identifier.
// Value objects are immutable and have no identity beyond their value.
type WorkflowID struct {
	value string
}

// NewWorkflowID creates a new random WorkflowID.
func NewWorkflowID() WorkflowID {
	return WorkflowID{value: uuid.New().String()}
}

// NewWorkflowIDFromString creates a WorkflowID from an existing string.
func NewWorkflowIDFromString(id string) (WorkflowID, error) {
	if id == "" {
		return WorkflowID{}, errors.New("workflow ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return WorkflowID{}, errors.New("workflow ID must be a valid UUID")
	}
	return WorkflowID{value: id}, nil
}

func (id WorkflowID) String() string {
	return id.value
}

func (id WorkflowID) Equals(other WorkflowID) bool {
	return id.value == other.value
}

func (id WorkflowID) IsZero() bool {
	return id.value == ""
}

func (id WorkflowID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

func (id *WorkflowID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("WorkflowID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}

// StepID identifies a step within a workflow. Unlike WorkflowID it is not a
// UUID - it is the identifier declared in the workflow definition (e.g.
// "reserve-inventory") so compensation and dependency lookups stay
// human-readable.
type StepID struct {
	value string
}

func NewStepID(id string) (StepID, error) {
	if id == "" {
		return StepID{}, errors.New("step ID cannot be empty")
	}
	return StepID{value: id}, nil
}

func (id StepID) String() string {
	return id.value
}

func (id StepID) Equals(other StepID) bool {
	return id.value == other.value
}

func (id StepID) IsZero() bool {
	return id.value == ""
}

func (id StepID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

func (id *StepID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("StepID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
