package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics emits workflow/step/saga execution metrics to CloudWatch.
// Ported from the sibling example repo's pkg/observability/metrics.go
// (same namespace+client shape, same "skip if no client configured"
// defensiveness), retargeted from generic command execution to step
// dispatch and saga outcomes since this engine has no command bus.
type Metrics struct {
	namespace string
	client    *cloudwatch.Client
}

// NewMetrics constructs a Metrics emitter.
func NewMetrics(namespace string, client *cloudwatch.Client) *Metrics {
	return &Metrics{namespace: namespace, client: client}
}

// RecordStepExecution records one step dispatch's duration and outcome,
// dimensioned by serviceName and status.
func (m *Metrics) RecordStepExecution(ctx context.Context, serviceName, operation string, duration time.Duration, err error) {
	if m == nil || m.client == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}

	metricData := []types.MetricDatum{
		{
			MetricName: aws.String("StepExecutionLatency"),
			Dimensions: []types.Dimension{
				{Name: aws.String("ServiceName"), Value: aws.String(serviceName)},
				{Name: aws.String("Operation"), Value: aws.String(operation)},
				{Name: aws.String("Status"), Value: aws.String(status)},
			},
			Value:     aws.Float64(float64(duration.Milliseconds())),
			Unit:      types.StandardUnitMilliseconds,
			Timestamp: aws.Time(time.Now()),
		},
		{
			MetricName: aws.String("StepExecutionCount"),
			Dimensions: []types.Dimension{
				{Name: aws.String("ServiceName"), Value: aws.String(serviceName)},
				{Name: aws.String("Status"), Value: aws.String(status)},
			},
			Value:     aws.Float64(1),
			Unit:      types.StandardUnitCount,
			Timestamp: aws.Time(time.Now()),
		},
	}

	m.putMetricData(ctx, metricData)
}

// RecordSagaOutcome records a saga reaching a terminal state (completed,
// failed, compensated), dimensioned by workflow type.
func (m *Metrics) RecordSagaOutcome(ctx context.Context, workflowType, outcome string) {
	if m == nil || m.client == nil {
		return
	}

	metricData := []types.MetricDatum{
		{
			MetricName: aws.String("SagaOutcome"),
			Dimensions: []types.Dimension{
				{Name: aws.String("WorkflowType"), Value: aws.String(workflowType)},
				{Name: aws.String("Outcome"), Value: aws.String(outcome)},
			},
			Value:     aws.Float64(1),
			Unit:      types.StandardUnitCount,
			Timestamp: aws.Time(time.Now()),
		},
	}

	m.putMetricData(ctx, metricData)
}

// RecordLoadScore records a tracked downstream service's current load
// score, fed by the load controller on each recorded snapshot.
func (m *Metrics) RecordLoadScore(ctx context.Context, serviceID string, score float64) {
	if m == nil || m.client == nil {
		return
	}

	metricData := []types.MetricDatum{
		{
			MetricName: aws.String("DownstreamLoadScore"),
			Dimensions: []types.Dimension{
				{Name: aws.String("ServiceID"), Value: aws.String(serviceID)},
			},
			Value:     aws.Float64(score),
			Unit:      types.StandardUnitNone,
			Timestamp: aws.Time(time.Now()),
		},
	}

	m.putMetricData(ctx, metricData)
}

func (m *Metrics) putMetricData(ctx context.Context, metricData []types.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: metricData,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		fmt.Printf("failed to send metrics: %v\n", err)
	}
}
