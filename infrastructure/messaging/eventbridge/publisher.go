// Package eventbridge implements the EventPublisher port over AWS
// EventBridge. Grounded on the teacher's EventBridgePublisher (batch of 10,
// JSON detail, DetailType=event type, Resources carries the aggregate arn);
// generalized to the workflow domain's events.DomainEvent and split into
// Publish (single, inline best-effort call) and PublishToTopic (routes to
// a specific detail-type/bus target for subscribers scoped to one saga
// lifecycle event, e.g. compensation alerts).
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/domain/events"
)

const eventSource = "orchestrator.workflow"

// Publisher is the ports.EventPublisher implementation over EventBridge.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher constructs a Publisher.
func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, eventBusName: eventBusName, logger: logger}
}

// Publish sends one event to the configured bus.
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.publish(ctx, p.eventBusName, event)
}

// PublishToTopic sends one event to a named bus/topic, used when a
// subscriber needs isolation from the default workflow-lifecycle stream
// (e.g. a dedicated compensation-alerts bus).
func (p *Publisher) PublishToTopic(ctx context.Context, topic string, event events.DomainEvent) error {
	return p.publish(ctx, topic, event)
}

func (p *Publisher) publish(ctx context.Context, busName string, event events.DomainEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.GetEventType(), err)
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(busName),
		Source:       aws.String(eventSource),
		DetailType:   aws.String(event.GetEventType()),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(event.GetTimestamp()),
		Resources: []string{
			fmt.Sprintf("orchestrator:workflow:%s", event.GetAggregateID()),
		},
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("publish event %s to %s: %w", event.GetEventType(), busName, err)
	}
	if result.FailedEntryCount > 0 && len(result.Entries) > 0 {
		p.logger.Error("event publish rejected by EventBridge",
			zap.String("eventType", event.GetEventType()),
			zap.String("errorCode", aws.ToString(result.Entries[0].ErrorCode)),
			zap.String("errorMessage", aws.ToString(result.Entries[0].ErrorMessage)),
		)
		return fmt.Errorf("event %s rejected: %s", event.GetEventType(), aws.ToString(result.Entries[0].ErrorMessage))
	}

	p.logger.Debug("event published",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateId", event.GetAggregateID()),
		zap.String("bus", busName),
	)
	return nil
}

// PublishRaw re-sends an already-serialized outbox payload verbatim,
// without requiring the caller to reconstruct a concrete events.DomainEvent.
// Used exclusively by the outbox backstop processor (OutboxProcessor),
// which reads durable rows rather than in-memory aggregate state.
func (p *Publisher) PublishRaw(ctx context.Context, detailType, aggregateID string, payload []byte, occurredAt time.Time) error {
	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBusName),
		Source:       aws.String(eventSource),
		DetailType:   aws.String(detailType),
		Detail:       aws.String(string(payload)),
		Time:         aws.Time(occurredAt),
		Resources:    []string{fmt.Sprintf("orchestrator:workflow:%s", aggregateID)},
	}
	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("publish raw event %s: %w", detailType, err)
	}
	if result.FailedEntryCount > 0 && len(result.Entries) > 0 {
		return fmt.Errorf("raw event %s rejected: %s", detailType, aws.ToString(result.Entries[0].ErrorMessage))
	}
	return nil
}
