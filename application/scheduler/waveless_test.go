package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/entities"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
)

func reconstructMinimalWorkflow(t *testing.T, priority valueobjects.Priority, createdAt time.Time) *aggregates.Workflow {
	t.Helper()
	return aggregates.ReconstructWorkflow(
		valueobjects.NewWorkflowID(),
		"def-1", "test workflow",
		valueobjects.WorkflowTypeOrderFulfillment,
		valueobjects.WorkflowStatusPending,
		priority,
		nil, make(map[valueobjects.StepID]*entities.Step),
		nil, nil, nil, "", "", nil, nil, nil, nil, 0, 3,
		nil, nil, 0, createdAt, createdAt,
	)
}

func TestAdaptiveBatchSize(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  int
	}{
		{name: "critical load shrinks batch to a quarter", score: 96, want: 2},
		{name: "elevated load halves the batch", score: 90, want: 5},
		{name: "low load doubles the batch", score: 20, want: 20},
		{name: "nominal load uses the default", score: 70, want: 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, adaptiveBatchSize(tc.score))
		})
	}
}

func TestAdaptiveTickInterval(t *testing.T) {
	tests := []struct {
		name       string
		queueDepth int
		want       time.Duration
	}{
		{name: "deep queue ticks fast", queueDepth: 150, want: 500 * time.Millisecond},
		{name: "moderate queue ticks at default-ish rate", queueDepth: 60, want: time.Second},
		{name: "shallow queue ticks slow", queueDepth: 5, want: 2 * time.Second},
		{name: "mid-range queue uses the default", queueDepth: 30, want: time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, adaptiveTickInterval(tc.queueDepth))
		})
	}
}

func TestSortByPriorityThenAge(t *testing.T) {
	now := time.Now()
	older := now.Add(-time.Hour)

	wHighYoung := reconstructMinimalWorkflow(t, valueobjects.PriorityHigh, now)
	wHighOld := reconstructMinimalWorkflow(t, valueobjects.PriorityHigh, older)
	wLow := reconstructMinimalWorkflow(t, valueobjects.PriorityLow, now)

	workflows := []*aggregates.Workflow{wLow, wHighYoung, wHighOld}
	sortByPriorityThenAge(workflows)

	require.Len(t, workflows, 3)
	assert.Equal(t, wHighOld.ID(), workflows[0].ID(), "same priority ties break on createdAt ascending")
	assert.Equal(t, wHighYoung.ID(), workflows[1].ID())
	assert.Equal(t, wLow.ID(), workflows[2].ID())
}

func TestScheduler_PartitionImmediate(t *testing.T) {
	now := time.Now()
	stale := now.Add(-2 * time.Hour)

	highPriority := reconstructMinimalWorkflow(t, valueobjects.PriorityHigh, now)
	staleNormal := reconstructMinimalWorkflow(t, valueobjects.PriorityNormal, stale)
	freshNormal := reconstructMinimalWorkflow(t, valueobjects.PriorityNormal, now)

	s := &Scheduler{}
	immediate, batchable := s.partitionImmediate([]*aggregates.Workflow{highPriority, staleNormal, freshNormal})

	assert.Len(t, immediate, 2, "HIGH priority and stale workflows both bypass batching")
	assert.Len(t, batchable, 1)
	assert.Equal(t, freshNormal.ID(), batchable[0].ID())
}
