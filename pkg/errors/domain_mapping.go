package errors

import (
	"errors"

	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
)

// FromDomain maps the domain error taxonomy (§7) onto the HTTP-boundary
// AppError so handlers never inspect domain types directly.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}

	var versionConflict *domainerrors.VersionConflictError
	if errors.As(err, &versionConflict) {
		return NewVersionConflictError(versionConflict.WorkflowID, versionConflict.ExpectedVersion, versionConflict.ActualVersion)
	}

	var invalidState *domainerrors.InvalidStateError
	if errors.As(err, &invalidState) {
		return NewInvalidStateError(invalidState.Operation, invalidState.Reason)
	}

	var workflowErr *domainerrors.WorkflowError
	if errors.As(err, &workflowErr) {
		switch workflowErr.Kind {
		case domainerrors.KindValidation:
			return NewValidationError(workflowErr.Message)
		case domainerrors.KindResourceNotFound:
			return NewNotFoundError(workflowErr.Message)
		case domainerrors.KindPermissionDenied:
			return NewForbiddenError(workflowErr.Message)
		case domainerrors.KindCompensationFailed:
			return NewCompensationFailedError(workflowErr.StepID, workflowErr)
		case domainerrors.KindDataIntegrity:
			return &AppError{Type: ErrorTypeDataIntegrity, Message: workflowErr.Message, HTTPStatus: 500, Cause: workflowErr}
		case domainerrors.KindBusinessRuleViolation:
			return NewBusinessRuleViolationError(workflowErr.Message)
		case domainerrors.KindTimeout:
			return NewTimeoutError(workflowErr.Message)
		case domainerrors.KindServiceUnavailable:
			return NewUnavailableError(workflowErr.Service)
		case domainerrors.KindNetwork:
			return NewNetworkError(workflowErr.Message, workflowErr)
		default:
			return NewInternalError(workflowErr.Message).WithCause(workflowErr)
		}
	}

	return NewInternalError(err.Error()).WithCause(err)
}
