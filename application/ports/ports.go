// Package ports declares the interfaces the core requires from external
// collaborators (§6). Modeled on the teacher's interface-per-concern,
// context-first repository layer.
package ports

import (
	"context"
	"time"

	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	"github.com/2lar-b2/orchestrator/domain/events"
)

// WorkflowRepository is the persistent-store port (§6). save() fails with
// *domainerrors.VersionConflictError if the currently stored version
// differs from the version the caller last read.
type WorkflowRepository interface {
	Save(ctx context.Context, w *aggregates.Workflow) (*aggregates.Workflow, error)
	FindByID(ctx context.Context, id valueobjects.WorkflowID) (*aggregates.Workflow, error)
	FindByStatus(ctx context.Context, status valueobjects.WorkflowStatus, limit int) ([]*aggregates.Workflow, error)
	FindByType(ctx context.Context, t valueobjects.WorkflowType, limit int) ([]*aggregates.Workflow, error)
	FindByCorrelationID(ctx context.Context, correlationID string) ([]*aggregates.Workflow, error)
	FindActive(ctx context.Context, limit int) ([]*aggregates.Workflow, error)
	FindPending(ctx context.Context, limit int) ([]*aggregates.Workflow, error)
	FindForRetry(ctx context.Context, limit int) ([]*aggregates.Workflow, error)
	FindForWavelessProcessing(ctx context.Context, limit int) ([]*aggregates.Workflow, error)
	FindByCreatedAtBetween(ctx context.Context, from, to time.Time, limit int) ([]*aggregates.Workflow, error)
	CountByStatus(ctx context.Context, status valueobjects.WorkflowStatus) (int64, error)
	ExistsByID(ctx context.Context, id valueobjects.WorkflowID) (bool, error)
	DeleteByID(ctx context.Context, id valueobjects.WorkflowID) error
	// UpdateStatus is an idempotent admin path that bypasses the normal
	// load-mutate-persist cycle; it does not touch the event outbox.
	UpdateStatus(ctx context.Context, id valueobjects.WorkflowID, status valueobjects.WorkflowStatus) error
}

// EventPublisher is the event-bus port (§6). At-least-once semantics;
// consumers must tolerate duplicates since each event carries an immutable
// event id.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishToTopic(ctx context.Context, topic string, event events.DomainEvent) error
}

// RemoteCallResultKind enumerates the outcomes the RemoteCall port may
// return, per §6.
type RemoteCallResultKind string

const (
	RemoteCallSuccess     RemoteCallResultKind = "SUCCESS"
	RemoteCallTimeout     RemoteCallResultKind = "TIMEOUT"
	RemoteCallUnavailable RemoteCallResultKind = "UNAVAILABLE"
	RemoteCallRemoteError RemoteCallResultKind = "REMOTE_ERROR"
	RemoteCallValidation  RemoteCallResultKind = "VALIDATION"
)

// RemoteCallResponse is the RemoteCall port's result envelope.
type RemoteCallResponse struct {
	Kind RemoteCallResultKind
	Data map[string]interface{}
	Err  error
}

// RemoteCall is the downstream-service transport port (§6): synchronous
// with timeout and retry handled at the port boundary. The core treats
// Timeout/Unavailable/RemoteError as recoverable and Validation as
// non-recoverable.
type RemoteCall interface {
	Call(ctx context.Context, serviceName, operation string, request map[string]interface{}, timeout time.Duration) (RemoteCallResponse, error)
}

// Lock is the mutual-exclusion port (§6). A released lock is released
// exactly once; an acquired lock is either released by the caller, expired
// by TTL, or transferred via Extend.
type Lock interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Release(ctx context.Context, key, token string) error
	Extend(ctx context.Context, key, token string, ttl time.Duration) error
	IsHeld(ctx context.Context, key string) (bool, error)
	TTLRemaining(ctx context.Context, key string) (time.Duration, error)
}

// Clock is the injectable time source (§6), letting tests be deterministic.
type Clock interface {
	Now() time.Time
}
