// Package errors defines the in-core WorkflowError taxonomy (§3, §7). It
// carries no transport or HTTP concerns; pkg/errors maps these to AppError
// only at the interface boundary.
package errors

import "time"

// Kind is the enumerated set of WorkflowError kinds (§3/§7).
type Kind string

const (
	KindValidation             Kind = "VALIDATION"
	KindServiceUnavailable     Kind = "SERVICE_UNAVAILABLE"
	KindTimeout                Kind = "TIMEOUT"
	KindBusinessRuleViolation  Kind = "BUSINESS_RULE_VIOLATION"
	KindDataIntegrity          Kind = "DATA_INTEGRITY"
	KindNetwork                Kind = "NETWORK"
	KindPermissionDenied       Kind = "PERMISSION_DENIED"
	KindResourceNotFound       Kind = "RESOURCE_NOT_FOUND"
	KindInternal               Kind = "INTERNAL"
	KindCompensationFailed     Kind = "COMPENSATION_FAILED"
)

// recoverableByDefault lists kinds that are recoverable unless the caller
// explicitly overrides Recoverable on construction (e.g. a synthesized
// step timeout is always recoverable; an RPC port Timeout/Unavailable
// result is recoverable per §6).
var recoverableByDefault = map[Kind]bool{
	KindServiceUnavailable: true,
	KindTimeout:            true,
	KindNetwork:            true,
}

// WorkflowError is the in-core tagged error value (design note: "exceptions
// as control flow" - every domain failure is a tagged value, not a panic).
type WorkflowError struct {
	Kind        Kind
	Code        string
	Message     string
	Service     string
	StepID      string
	OccurredAt  time.Time
	recoverable bool
}

// New constructs a WorkflowError, defaulting Recoverable per kind.
func New(kind Kind, code, message string, occurredAt time.Time) *WorkflowError {
	return &WorkflowError{
		Kind:        kind,
		Code:        code,
		Message:     message,
		OccurredAt:  occurredAt,
		recoverable: recoverableByDefault[kind],
	}
}

// WithService sets the target service name.
func (e *WorkflowError) WithService(service string) *WorkflowError {
	e.Service = service
	return e
}

// WithStep sets the originating step id.
func (e *WorkflowError) WithStep(stepID string) *WorkflowError {
	e.StepID = stepID
	return e
}

// WithRecoverable overrides the default recoverability (used e.g. when a
// RemoteCall port result explicitly marks itself Timeout/Unavailable with
// recoverable=true, or a synthesized step timeout per §6/§9).
func (e *WorkflowError) WithRecoverable(recoverable bool) *WorkflowError {
	e.recoverable = recoverable
	return e
}

// Recoverable reports whether forward recovery (retry) applies to this
// error.
func (e *WorkflowError) Recoverable() bool {
	return e.recoverable
}

// RequiresCompensation reports "not recoverable and not validation" (§3).
func (e *WorkflowError) RequiresCompensation() bool {
	return !e.recoverable && e.Kind != KindValidation
}

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	if e.StepID != "" {
		return string(e.Kind) + " in step " + e.StepID + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}
