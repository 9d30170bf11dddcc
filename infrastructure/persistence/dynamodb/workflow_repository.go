// Package dynamodb implements the WorkflowRepository port over a
// single-table DynamoDB design. Grounded on the teacher's conditional-write
// discipline (distributed_lock.go's PutItem+ConditionExpression pattern,
// translated here into version-guarded Save) and outbox_processor.go's
// EventRecord shape, generalized to carry a workflow's pending events
// instead of node/graph events.
package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	domainerrors "github.com/2lar-b2/orchestrator/domain/errors"
)

// WorkflowRepository is the DynamoDB-backed ports.WorkflowRepository
// implementation. It writes the workflow record and its outbox rows in one
// TransactWriteItems call so outbox delivery is guaranteed durable whenever
// Save succeeds (§4.6, §9).
type WorkflowRepository struct {
	client    *dynamodb.Client
	tableName string
	gsi1Name  string
	gsi2Name  string
	logger    *zap.Logger
}

// NewWorkflowRepository constructs the repository. gsi1Name indexes
// GSI1PK/GSI1SK (status-keyed); gsi2Name indexes GSI2PK (type-keyed) —
// distinct indexes, per SPEC_FULL.md §6's GSI1/GSI2 split.
func NewWorkflowRepository(client *dynamodb.Client, tableName, gsi1Name, gsi2Name string, logger *zap.Logger) *WorkflowRepository {
	return &WorkflowRepository{client: client, tableName: tableName, gsi1Name: gsi1Name, gsi2Name: gsi2Name, logger: logger}
}

// workflowItem is the persisted representation (SPEC_FULL.md §3 "persisted
// representation"). A single item holds the whole aggregate; steps are
// stored as a nested list rather than split across items, since the
// aggregate is always loaded and saved as a unit (no partial loads).
type workflowItem struct {
	PK            string                 `dynamodbav:"PK"` // WORKFLOW#<id>
	SK            string                 `dynamodbav:"SK"` // METADATA
	GSI1PK        string                 `dynamodbav:"GSI1PK"` // STATUS#<status>
	GSI1SK        string                 `dynamodbav:"GSI1SK"` // <createdAt RFC3339>
	GSI2PK        string                 `dynamodbav:"GSI2PK"` // TYPE#<type>
	ID            string                 `dynamodbav:"Id"`
	DefinitionID  string                 `dynamodbav:"DefinitionId"`
	Name          string                 `dynamodbav:"Name"`
	Type          string                 `dynamodbav:"Type"`
	Status        string                 `dynamodbav:"Status"`
	Priority      int                    `dynamodbav:"Priority"`
	StepOrder     []string               `dynamodbav:"StepOrder"`
	Steps         []stepItem             `dynamodbav:"Steps"`
	ExecutedLog   []string               `dynamodbav:"ExecutedLog"`
	CompensatedLog []string              `dynamodbav:"CompensatedLog"`
	CurrentStepID *string                `dynamodbav:"CurrentStepId,omitempty"`
	TriggeredBy   string                 `dynamodbav:"TriggeredBy"`
	CorrelationID string                 `dynamodbav:"CorrelationId"`
	Input         map[string]interface{} `dynamodbav:"Input,omitempty"`
	Output        map[string]interface{} `dynamodbav:"Output,omitempty"`
	Context       map[string]interface{} `dynamodbav:"Context,omitempty"`
	ErrorLog      []errorItem            `dynamodbav:"ErrorLog,omitempty"`
	RetryCount    int                    `dynamodbav:"RetryCount"`
	MaxRetries    int                    `dynamodbav:"MaxRetries"`
	StartedAt     *string                `dynamodbav:"StartedAt,omitempty"`
	CompletedAt   *string                `dynamodbav:"CompletedAt,omitempty"`
	Version       int                    `dynamodbav:"Version"`
	CreatedAt     string                 `dynamodbav:"CreatedAt"`
	UpdatedAt     string                 `dynamodbav:"UpdatedAt"`
}

type stepItem struct {
	StepID         string                 `dynamodbav:"StepId"`
	StepName       string                 `dynamodbav:"StepName"`
	StepType       string                 `dynamodbav:"StepType"`
	ServiceName    string                 `dynamodbav:"ServiceName"`
	Operation      string                 `dynamodbav:"Operation"`
	ExecutionOrder int                    `dynamodbav:"ExecutionOrder"`
	Status         string                 `dynamodbav:"Status"`
	Input          map[string]interface{} `dynamodbav:"Input,omitempty"`
	Output         map[string]interface{} `dynamodbav:"Output,omitempty"`
	LastError      *errorItem             `dynamodbav:"LastError,omitempty"`
	RetryCount     int                    `dynamodbav:"RetryCount"`
	RetryPolicy    retryPolicyItem        `dynamodbav:"RetryPolicy"`
	Compensation   *compensationItem      `dynamodbav:"Compensation,omitempty"`
	TimeoutMs      int64                  `dynamodbav:"TimeoutMs"`
	StartedAt      *string                `dynamodbav:"StartedAt,omitempty"`
	CompletedAt    *string                `dynamodbav:"CompletedAt,omitempty"`
	Compensated    bool                   `dynamodbav:"Compensated"`
	CompensatedAt  *string                `dynamodbav:"CompensatedAt,omitempty"`
}

type retryPolicyItem struct {
	MaxRetries   int     `dynamodbav:"MaxRetries"`
	InitialDelayMs int64 `dynamodbav:"InitialDelayMs"`
	MaxDelayMs   int64   `dynamodbav:"MaxDelayMs"`
	Multiplier   float64 `dynamodbav:"Multiplier"`
	Exponential  bool    `dynamodbav:"Exponential"`
}

type compensationItem struct {
	Strategy       string                 `dynamodbav:"Strategy"`
	TargetService  string                 `dynamodbav:"TargetService"`
	Operation      string                 `dynamodbav:"Operation"`
	ParameterMap   map[string]interface{} `dynamodbav:"ParameterMap,omitempty"`
	Idempotent     bool                   `dynamodbav:"Idempotent"`
	RetryBound     int                    `dynamodbav:"RetryBound"`
	CompensationTTLMs int64               `dynamodbav:"CompensationTTLMs"`
}

type errorItem struct {
	Kind       string `dynamodbav:"Kind"`
	Code       string `dynamodbav:"Code"`
	Message    string `dynamodbav:"Message"`
	Service    string `dynamodbav:"Service,omitempty"`
	StepID     string `dynamodbav:"StepId,omitempty"`
	OccurredAt string `dynamodbav:"OccurredAt"`
	Recoverable bool  `dynamodbav:"Recoverable"`
}

// outboxItem is a durable, at-least-once-delivery record written in the
// same transaction as the workflow record (design note: "transactional
// outbox", §9).
type outboxItem struct {
	PK          string `dynamodbav:"PK"` // OUTBOX#<workflowId>
	SK          string `dynamodbav:"SK"` // EVENT#<eventId>
	EventID     string `dynamodbav:"EventId"`
	AggregateID string `dynamodbav:"AggregateId"`
	EventType   string `dynamodbav:"EventType"`
	Version     int    `dynamodbav:"Version"`
	OccurredAt  string `dynamodbav:"OccurredAt"`
	Published   bool   `dynamodbav:"Published"`
	Payload     string `dynamodbav:"Payload"` // JSON-marshaled domain event, re-sent verbatim by the outbox processor
}

// OutboxRecord is the outbox-processor-facing view of an outboxItem: just
// enough to republish without importing the domain events package into
// the persistence layer's DTOs.
type OutboxRecord struct {
	WorkflowID  string
	EventID     string
	AggregateID string
	EventType   string
	OccurredAt  time.Time
	Payload     []byte
}

func pk(id valueobjects.WorkflowID) string { return "WORKFLOW#" + id.String() }

// Save persists the workflow with optimistic concurrency: the write is
// conditioned on the item's currently stored Version matching the version
// the in-memory aggregate was loaded at. A mismatch surfaces as
// *domainerrors.VersionConflictError (§7), never as a workflow-terminal
// failure.
func (r *WorkflowRepository) Save(ctx context.Context, w *aggregates.Workflow) (*aggregates.Workflow, error) {
	item := toItem(w)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("marshal workflow item: %w", err)
	}

	put := &types.Put{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	expectedVersion := item.Version - 1
	if expectedVersion <= 0 {
		put.ConditionExpression = aws.String("attribute_not_exists(PK)")
	} else {
		cond, _ := expression.NewBuilder().
			WithCondition(expression.Name("Version").Equal(expression.Value(expectedVersion))).
			Build()
		put.ConditionExpression = cond.Condition()
		put.ExpressionAttributeNames = cond.Names()
		put.ExpressionAttributeValues = cond.Values()
	}

	transactItems := []types.TransactWriteItem{{Put: put}}
	for _, evt := range w.GetUncommittedEvents() {
		payload, err := json.Marshal(evt)
		if err != nil {
			return nil, fmt.Errorf("marshal event payload %s: %w", evt.GetEventType(), err)
		}
		outboxAV, err := attributevalue.MarshalMap(outboxItem{
			PK:          pk(w.ID()),
			SK:          "EVENT#" + evt.GetEventID(),
			EventID:     evt.GetEventID(),
			AggregateID: evt.GetAggregateID(),
			EventType:   evt.GetEventType(),
			Version:     evt.GetVersion(),
			OccurredAt:  evt.GetTimestamp().Format(time.RFC3339Nano),
			Published:   false,
			Payload:     string(payload),
		})
		if err != nil {
			return nil, fmt.Errorf("marshal outbox item: %w", err)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{TableName: aws.String(r.tableName), Item: outboxAV},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			current, getErr := r.FindByID(ctx, w.ID())
			if getErr == nil {
				return nil, domainerrors.NewVersionConflict(w.ID().String(), expectedVersion, current.Version())
			}
			return nil, domainerrors.NewVersionConflict(w.ID().String(), expectedVersion, -1)
		}
		return nil, fmt.Errorf("save workflow: %w", err)
	}

	r.logger.Debug("workflow saved",
		zap.String("workflowId", w.ID().String()),
		zap.Int("version", item.Version),
	)
	return w, nil
}

// FindByID loads a single workflow by id.
func (r *WorkflowRepository) FindByID(ctx context.Context, id valueobjects.WorkflowID) (*aggregates.Workflow, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	if out.Item == nil {
		return nil, domainerrors.New(domainerrors.KindResourceNotFound, "WORKFLOW_NOT_FOUND", "workflow "+id.String()+" not found", time.Now())
	}
	var item workflowItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal workflow item: %w", err)
	}
	return fromItem(item)
}

// FindByStatus queries the GSI partitioned by status.
func (r *WorkflowRepository) FindByStatus(ctx context.Context, status valueobjects.WorkflowStatus, limit int) ([]*aggregates.Workflow, error) {
	return r.queryGSI1(ctx, "STATUS#"+string(status), limit)
}

// FindByType queries the GSI partitioned by workflow type.
func (r *WorkflowRepository) FindByType(ctx context.Context, t valueobjects.WorkflowType, limit int) ([]*aggregates.Workflow, error) {
	return r.queryGSI2(ctx, "TYPE#"+string(t), limit)
}

// FindByCorrelationID scans for workflows sharing a correlation id.
// Correlation lookups are rare (debugging/tracing) relative to the
// status/type hot paths, so a filtered scan is acceptable here without a
// dedicated GSI.
func (r *WorkflowRepository) FindByCorrelationID(ctx context.Context, correlationID string) ([]*aggregates.Workflow, error) {
	filt := expression.Name("CorrelationId").Equal(expression.Value(correlationID))
	expr, err := expression.NewBuilder().WithFilter(filt).Build()
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("scan by correlation id: %w", err)
	}
	return itemsToWorkflows(out.Items)
}

// FindActive returns workflows in EXECUTING, PAUSED, or COMPENSATING (§6):
// three GSI1 queries merged.
func (r *WorkflowRepository) FindActive(ctx context.Context, limit int) ([]*aggregates.Workflow, error) {
	var active []*aggregates.Workflow
	for _, status := range []valueobjects.WorkflowStatus{
		valueobjects.WorkflowStatusExecuting,
		valueobjects.WorkflowStatusPaused,
		valueobjects.WorkflowStatusCompensating,
	} {
		ws, err := r.FindByStatus(ctx, status, limit)
		if err != nil {
			return nil, err
		}
		active = append(active, ws...)
	}
	return active, nil
}

// FindPending returns PENDING workflows.
func (r *WorkflowRepository) FindPending(ctx context.Context, limit int) ([]*aggregates.Workflow, error) {
	return r.FindByStatus(ctx, valueobjects.WorkflowStatusPending, limit)
}

// FindForRetry returns FAILED workflows whose retry count is still below
// their maximum (candidates for the scheduler's forward-recovery admission
// path).
func (r *WorkflowRepository) FindForRetry(ctx context.Context, limit int) ([]*aggregates.Workflow, error) {
	failed, err := r.FindByStatus(ctx, valueobjects.WorkflowStatusFailed, limit)
	if err != nil {
		return nil, err
	}
	retryable := make([]*aggregates.Workflow, 0, len(failed))
	for _, w := range failed {
		if w.RetryCount() < w.MaxRetries() {
			retryable = append(retryable, w)
		}
	}
	return retryable, nil
}

// FindForWavelessProcessing returns every workflow eligible for admission
// (PENDING and FAILED-but-retryable); the scheduler itself applies priority
// and age partitioning (§4.7).
func (r *WorkflowRepository) FindForWavelessProcessing(ctx context.Context, limit int) ([]*aggregates.Workflow, error) {
	pending, err := r.FindPending(ctx, limit)
	if err != nil {
		return nil, err
	}
	retry, err := r.FindForRetry(ctx, limit)
	if err != nil {
		return nil, err
	}
	return append(pending, retry...), nil
}

// FindByCreatedAtBetween scans for workflows created within a window.
func (r *WorkflowRepository) FindByCreatedAtBetween(ctx context.Context, from, to time.Time, limit int) ([]*aggregates.Workflow, error) {
	filt := expression.Name("CreatedAt").Between(
		expression.Value(from.Format(time.RFC3339Nano)),
		expression.Value(to.Format(time.RFC3339Nano)),
	)
	expr, err := expression.NewBuilder().WithFilter(filt).Build()
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("scan by created-at window: %w", err)
	}
	return itemsToWorkflows(out.Items)
}

// CountByStatus counts workflows in a given status via the GSI.
func (r *WorkflowRepository) CountByStatus(ctx context.Context, status valueobjects.WorkflowStatus) (int64, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value("STATUS#" + string(status)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return 0, fmt.Errorf("build key condition: %w", err)
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Select:                    types.SelectCount,
	})
	if err != nil {
		return 0, fmt.Errorf("count by status: %w", err)
	}
	return int64(out.Count), nil
}

// ExistsByID reports whether a workflow record exists.
func (r *WorkflowRepository) ExistsByID(ctx context.Context, id valueobjects.WorkflowID) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.tableName),
		Key:                  map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: pk(id)}, "SK": &types.AttributeValueMemberS{Value: "METADATA"}},
		ProjectionExpression: aws.String("PK"),
	})
	if err != nil {
		return false, fmt.Errorf("get workflow existence: %w", err)
	}
	return out.Item != nil, nil
}

// DeleteByID removes a workflow record.
func (r *WorkflowRepository) DeleteByID(ctx context.Context, id valueobjects.WorkflowID) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: pk(id)}, "SK": &types.AttributeValueMemberS{Value: "METADATA"}},
	})
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	return nil
}

// UpdateStatus is an idempotent admin path bypassing the event outbox
// (§6: "does not touch the event outbox").
func (r *WorkflowRepository) UpdateStatus(ctx context.Context, id valueobjects.WorkflowID, status valueobjects.WorkflowStatus) error {
	update, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("Status"), expression.Value(string(status)))).
		Build()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: pk(id)}, "SK": &types.AttributeValueMemberS{Value: "METADATA"}},
		UpdateExpression:          update.Update(),
		ExpressionAttributeNames:  update.Names(),
		ExpressionAttributeValues: update.Values(),
	})
	if err != nil {
		return fmt.Errorf("update workflow status: %w", err)
	}
	return nil
}

// FindUnpublishedOutboxEvents scans for outbox rows not yet delivered. A
// filtered scan is acceptable here: the outbox processor runs on a slow
// background tick and the table partitions by workflow, not by publish
// state, so there is no hot-path GSI to build this against (§9).
func (r *WorkflowRepository) FindUnpublishedOutboxEvents(ctx context.Context, limit int) ([]OutboxRecord, error) {
	filt := expression.Name("Published").Equal(expression.Value(false)).
		And(expression.Name("SK").BeginsWith("EVENT#"))
	expr, err := expression.NewBuilder().WithFilter(filt).Build()
	if err != nil {
		return nil, fmt.Errorf("build outbox filter: %w", err)
	}
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("scan unpublished outbox events: %w", err)
	}

	records := make([]OutboxRecord, 0, len(out.Items))
	for _, raw := range out.Items {
		var item outboxItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal outbox item: %w", err)
		}
		occurredAt, err := time.Parse(time.RFC3339Nano, item.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse outbox occurredAt: %w", err)
		}
		records = append(records, OutboxRecord{
			WorkflowID:  item.AggregateID,
			EventID:     item.EventID,
			AggregateID: item.AggregateID,
			EventType:   item.EventType,
			OccurredAt:  occurredAt,
			Payload:     []byte(item.Payload),
		})
	}
	return records, nil
}

// MarkOutboxPublished flags one outbox row as delivered, making the scan in
// FindUnpublishedOutboxEvents skip it on the processor's next tick.
func (r *WorkflowRepository) MarkOutboxPublished(ctx context.Context, workflowID, eventID string) error {
	update, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("Published"), expression.Value(true))).
		Build()
	if err != nil {
		return fmt.Errorf("build outbox update: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "WORKFLOW#" + workflowID},
			"SK": &types.AttributeValueMemberS{Value: "EVENT#" + eventID},
		},
		UpdateExpression:          update.Update(),
		ExpressionAttributeNames:  update.Names(),
		ExpressionAttributeValues: update.Values(),
	})
	if err != nil {
		return fmt.Errorf("mark outbox event published: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) queryGSI1(ctx context.Context, gsi1pk string, limit int) ([]*aggregates.Workflow, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(gsi1pk))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	return itemsToWorkflows(out.Items)
}

func (r *WorkflowRepository) queryGSI2(ctx context.Context, gsi2pk string, limit int) ([]*aggregates.Workflow, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(gsi2pk))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.gsi2Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query by type: %w", err)
	}
	return itemsToWorkflows(out.Items)
}

func itemsToWorkflows(rawItems []map[string]types.AttributeValue) ([]*aggregates.Workflow, error) {
	workflows := make([]*aggregates.Workflow, 0, len(rawItems))
	for _, raw := range rawItems {
		var item workflowItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal workflow item: %w", err)
		}
		w, err := fromItem(item)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, nil
}
