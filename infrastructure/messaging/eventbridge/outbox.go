package eventbridge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/infrastructure/persistence/dynamodb"
)

// OutboxStore is the narrow slice of WorkflowRepository the processor
// needs: read the undelivered backlog, flag a row delivered. Adapted from
// the teacher's outbox_processor.go, which polled its own EventStore in the
// same shape; here it polls the outbox rows written alongside the workflow
// record by WorkflowRepository.Save (§4.6, §9).
type OutboxStore interface {
	FindUnpublishedOutboxEvents(ctx context.Context, limit int) ([]dynamodb.OutboxRecord, error)
	MarkOutboxPublished(ctx context.Context, workflowID, eventID string) error
}

// OutboxProcessor is the background delivery guarantee backstop: even if a
// publish attempt made inline during the request path is lost (process
// crash between persist and publish), this loop eventually delivers every
// durably-written event (§4.6: "if persistence fails, events must not be
// published" — the converse also holds, every successful persist is
// eventually published).
type OutboxProcessor struct {
	store     OutboxStore
	publisher *Publisher
	batchSize int
	interval  time.Duration
	logger    *zap.Logger

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewOutboxProcessor constructs a processor polling at the given interval,
// publishing up to batchSize events per tick.
func NewOutboxProcessor(store OutboxStore, publisher *Publisher, batchSize int, interval time.Duration, logger *zap.Logger) *OutboxProcessor {
	return &OutboxProcessor{
		store:       store,
		publisher:   publisher,
		batchSize:   batchSize,
		interval:    interval,
		logger:      logger,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins the polling loop.
func (p *OutboxProcessor) Start(ctx context.Context) {
	p.logger.Info("starting outbox processor", zap.Duration("interval", p.interval))
	go p.processLoop(ctx)
}

// Stop gracefully stops the loop, waiting for the in-flight tick to finish.
func (p *OutboxProcessor) Stop() {
	close(p.stopChan)
	<-p.stoppedChan
	p.logger.Info("outbox processor stopped")
}

func (p *OutboxProcessor) processLoop(ctx context.Context) {
	defer close(p.stoppedChan)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *OutboxProcessor) tick(ctx context.Context) {
	records, err := p.store.FindUnpublishedOutboxEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to scan outbox backlog", zap.Error(err))
		return
	}
	for _, rec := range records {
		if err := p.publisher.PublishRaw(ctx, rec.EventType, rec.AggregateID, rec.Payload, rec.OccurredAt); err != nil {
			p.logger.Warn("outbox redelivery failed, will retry next tick",
				zap.String("eventId", rec.EventID),
				zap.String("eventType", rec.EventType),
				zap.Error(err),
			)
			continue
		}
		if err := p.store.MarkOutboxPublished(ctx, rec.WorkflowID, rec.EventID); err != nil {
			p.logger.Error("published event but failed to mark outbox row delivered; it will be redelivered",
				zap.String("eventId", rec.EventID),
				zap.Error(err),
			)
		}
	}
}
