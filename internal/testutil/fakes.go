// Package testutil holds fake in-memory adapters for the application and
// domain ports, used by tests across packages in place of the real
// DynamoDB/Redis/EventBridge adapters (grounded on the teacher's in-memory
// repository test doubles under backend/tests).
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
	"github.com/2lar-b2/orchestrator/domain/events"
)

// FakeWorkflowRepository is an in-memory ports.WorkflowRepository. Save
// stores whatever pointer it is given; FindByID returns that same pointer,
// so callers observe each other's in-place mutations exactly like the
// execution service's load-mutate-persist cycle expects.
type FakeWorkflowRepository struct {
	mu        sync.Mutex
	workflows map[string]*aggregates.Workflow
	SaveErr   error
	FindErr   error
}

// NewFakeWorkflowRepository constructs an empty repository.
func NewFakeWorkflowRepository() *FakeWorkflowRepository {
	return &FakeWorkflowRepository{workflows: make(map[string]*aggregates.Workflow)}
}

// Seed inserts a workflow directly, bypassing Save, for test setup.
func (r *FakeWorkflowRepository) Seed(w *aggregates.Workflow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows[w.ID().String()] = w
}

func (r *FakeWorkflowRepository) Save(ctx context.Context, w *aggregates.Workflow) (*aggregates.Workflow, error) {
	if r.SaveErr != nil {
		return nil, r.SaveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows[w.ID().String()] = w
	return w, nil
}

func (r *FakeWorkflowRepository) FindByID(ctx context.Context, id valueobjects.WorkflowID) (*aggregates.Workflow, error) {
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workflows[id.String()]
	if !ok {
		return nil, domainerrors.NewInvalidState("findByID", "workflow not found "+id.String())
	}
	return w, nil
}

func (r *FakeWorkflowRepository) FindByStatus(ctx context.Context, status valueobjects.WorkflowStatus, limit int) ([]*aggregates.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*aggregates.Workflow, 0)
	for _, w := range r.workflows {
		if w.Status() == status {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *FakeWorkflowRepository) FindByType(ctx context.Context, t valueobjects.WorkflowType, limit int) ([]*aggregates.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*aggregates.Workflow, 0)
	for _, w := range r.workflows {
		if w.Type() == t {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *FakeWorkflowRepository) FindByCorrelationID(ctx context.Context, correlationID string) ([]*aggregates.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*aggregates.Workflow, 0)
	for _, w := range r.workflows {
		if w.CorrelationID() == correlationID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *FakeWorkflowRepository) FindActive(ctx context.Context, limit int) ([]*aggregates.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*aggregates.Workflow, 0)
	for _, w := range r.workflows {
		if !w.Status().IsTerminal() {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *FakeWorkflowRepository) FindPending(ctx context.Context, limit int) ([]*aggregates.Workflow, error) {
	return r.FindByStatus(ctx, valueobjects.WorkflowStatusPending, limit)
}

func (r *FakeWorkflowRepository) FindForRetry(ctx context.Context, limit int) ([]*aggregates.Workflow, error) {
	return r.FindByStatus(ctx, valueobjects.WorkflowStatusFailed, limit)
}

func (r *FakeWorkflowRepository) FindForWavelessProcessing(ctx context.Context, limit int) ([]*aggregates.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*aggregates.Workflow, 0)
	for _, w := range r.workflows {
		if w.CanTransitionToWaveless() {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *FakeWorkflowRepository) FindByCreatedAtBetween(ctx context.Context, from, to time.Time, limit int) ([]*aggregates.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*aggregates.Workflow, 0)
	for _, w := range r.workflows {
		if !w.CreatedAt().Before(from) && !w.CreatedAt().After(to) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *FakeWorkflowRepository) CountByStatus(ctx context.Context, status valueobjects.WorkflowStatus) (int64, error) {
	ws, _ := r.FindByStatus(ctx, status, 0)
	return int64(len(ws)), nil
}

func (r *FakeWorkflowRepository) ExistsByID(ctx context.Context, id valueobjects.WorkflowID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.workflows[id.String()]
	return ok, nil
}

func (r *FakeWorkflowRepository) DeleteByID(ctx context.Context, id valueobjects.WorkflowID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workflows, id.String())
	return nil
}

func (r *FakeWorkflowRepository) UpdateStatus(ctx context.Context, id valueobjects.WorkflowID, status valueobjects.WorkflowStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workflows[id.String()]
	if !ok {
		return domainerrors.NewInvalidState("updateStatus", "workflow not found "+id.String())
	}
	_ = w
	return nil
}

var _ ports.WorkflowRepository = (*FakeWorkflowRepository)(nil)

// FakeEventPublisher records every published event in memory instead of
// calling out to EventBridge.
type FakeEventPublisher struct {
	mu         sync.Mutex
	Published  []events.DomainEvent
	PublishErr error
}

func NewFakeEventPublisher() *FakeEventPublisher {
	return &FakeEventPublisher{}
}

func (p *FakeEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if p.PublishErr != nil {
		return p.PublishErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Published = append(p.Published, event)
	return nil
}

func (p *FakeEventPublisher) PublishToTopic(ctx context.Context, topic string, event events.DomainEvent) error {
	return p.Publish(ctx, event)
}

func (p *FakeEventPublisher) Events() []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.DomainEvent, len(p.Published))
	copy(out, p.Published)
	return out
}

var _ ports.EventPublisher = (*FakeEventPublisher)(nil)

// FakeLock is an in-memory ports.Lock: every TryAcquire succeeds unless the
// key is already held, matching redislock's single-owner-at-a-time
// contract without needing a real Redis instance.
type FakeLock struct {
	mu   sync.Mutex
	held map[string]string
}

func NewFakeLock() *FakeLock {
	return &FakeLock{held: make(map[string]string)}
}

func (l *FakeLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := key + ":token"
	l.held[key] = token
	return token, true, nil
}

func (l *FakeLock) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return nil
	}
	delete(l.held, key)
	return nil
}

func (l *FakeLock) Extend(ctx context.Context, key, token string, ttl time.Duration) error {
	return nil
}

func (l *FakeLock) IsHeld(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok, nil
}

func (l *FakeLock) TTLRemaining(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

var _ ports.Lock = (*FakeLock)(nil)

// FakeRemoteCall is an in-memory ports.RemoteCall: the test supplies a
// handler function instead of going over the wire.
type FakeRemoteCall struct {
	Handler func(ctx context.Context, serviceName, operation string, request map[string]interface{}, timeout time.Duration) (ports.RemoteCallResponse, error)
}

func (f *FakeRemoteCall) Call(ctx context.Context, serviceName, operation string, request map[string]interface{}, timeout time.Duration) (ports.RemoteCallResponse, error) {
	if f.Handler != nil {
		return f.Handler(ctx, serviceName, operation, request, timeout)
	}
	return ports.RemoteCallResponse{Kind: ports.RemoteCallSuccess, Data: map[string]interface{}{}}, nil
}

var _ ports.RemoteCall = (*FakeRemoteCall)(nil)
