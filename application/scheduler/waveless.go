// Package scheduler implements the waveless batch scheduler (§4.7): a
// background loop that continuously admits pending workflows in
// priority-ordered batches whose size and tick interval adapt to load,
// rather than running discrete wave batches. No teacher equivalent exists
// for this component; it is grounded on the ticker+stopChan+stoppedChan
// background-loop shape of outbox_processor.go's Start/Stop/processLoop.
package scheduler

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/loadcontrol"
	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/application/services"
	"github.com/2lar-b2/orchestrator/domain/core/aggregates"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	"github.com/2lar-b2/orchestrator/domain/definition"
)

const defaultBatchSize = 10

// immediateBypassAge is the createdAt age beyond which a pending workflow
// skips batching and is dispatched at once (§4.7).
const immediateBypassAge = 60 * time.Second

// TemplateLookup resolves the dependency-graph template for a workflow
// type; templates are supplied as data by the caller (Non-goal: the engine
// does not define workflows declaratively).
type TemplateLookup func(t valueobjects.WorkflowType) (definition.Template, bool)

// Dispatcher is the narrow surface the scheduler needs from the execution
// service to advance one workflow's next step.
type Dispatcher interface {
	NextStep(w *aggregates.Workflow, tmpl definition.Template) *valueobjects.StepID
	ExecuteStepWithTimeout(ctx context.Context, id valueobjects.WorkflowID, stepID valueobjects.StepID, deadline time.Time) (*aggregates.Workflow, error)
}

var _ Dispatcher = (*services.StepDispatcher)(nil)

// Scheduler is the waveless admission loop.
type Scheduler struct {
	repo       ports.WorkflowRepository
	dispatcher Dispatcher
	loadCtrl   *loadcontrol.Controller
	templates  TemplateLookup
	logger     *zap.Logger

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewScheduler constructs a Scheduler.
func NewScheduler(repo ports.WorkflowRepository, dispatcher Dispatcher, loadCtrl *loadcontrol.Controller, templates TemplateLookup, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		repo:        repo,
		dispatcher:  dispatcher,
		loadCtrl:    loadCtrl,
		templates:   templates,
		logger:      logger,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins the background admission loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting waveless scheduler")
	go s.loop(ctx)
}

// Stop gracefully stops the loop, waiting for the current tick to finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	<-s.stoppedChan
	s.logger.Info("waveless scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.stoppedChan)

	interval := time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			nextInterval := s.tick(ctx)
			if nextInterval != interval {
				interval = nextInterval
				ticker.Reset(interval)
			}
		}
	}
}

// tick runs one admission cycle and returns the interval the next tick
// should use (§4.7 adaptive tick interval).
func (s *Scheduler) tick(ctx context.Context) time.Duration {
	if s.loadCtrl.PauseWaveless() {
		s.logger.Debug("waveless admission paused: system overloaded")
		return 2 * time.Second
	}

	pending, err := s.repo.FindForWavelessProcessing(ctx, 1000)
	if err != nil {
		s.logger.Error("failed to query admission-eligible workflows", zap.Error(err))
		return time.Second
	}

	immediate, batchable := s.partitionImmediate(pending)
	for _, w := range immediate {
		s.dispatchOne(ctx, w)
	}

	sortByPriorityThenAge(batchable)

	batchSize := adaptiveBatchSize(s.loadCtrl.CurrentScore())
	if batchSize > len(batchable) {
		batchSize = len(batchable)
	}
	for _, w := range batchable[:batchSize] {
		s.dispatchOne(ctx, w)
	}

	return adaptiveTickInterval(len(pending))
}

func (s *Scheduler) partitionImmediate(workflows []*aggregates.Workflow) (immediate, batchable []*aggregates.Workflow) {
	now := time.Now()
	for _, w := range workflows {
		if w.Priority() == valueobjects.PriorityHigh || now.Sub(w.CreatedAt()) > immediateBypassAge {
			immediate = append(immediate, w)
		} else {
			batchable = append(batchable, w)
		}
	}
	return immediate, batchable
}

func (s *Scheduler) dispatchOne(ctx context.Context, w *aggregates.Workflow) {
	tmpl, ok := s.templates(w.Type())
	if !ok {
		s.logger.Warn("no template registered for workflow type", zap.String("type", string(w.Type())))
		return
	}
	stepID := s.dispatcher.NextStep(w, tmpl)
	if stepID == nil {
		return
	}
	if _, err := s.dispatcher.ExecuteStepWithTimeout(ctx, w.ID(), *stepID, time.Now()); err != nil {
		s.logger.Warn("dispatch failed",
			zap.String("workflowId", w.ID().String()),
			zap.String("stepId", stepID.String()),
			zap.Error(err),
		)
	}
}

// sortByPriorityThenAge sorts by priority ascending numeric (HIGH first)
// with createdAt ascending as the tie-break (§4.7, S5).
func sortByPriorityThenAge(workflows []*aggregates.Workflow) {
	sort.SliceStable(workflows, func(i, j int) bool {
		if workflows[i].Priority() != workflows[j].Priority() {
			return workflows[i].Priority() < workflows[j].Priority()
		}
		return workflows[i].CreatedAt().Before(workflows[j].CreatedAt())
	})
}

// adaptiveBatchSize implements §4.7/S6's load-to-batch-size mapping.
func adaptiveBatchSize(score float64) int {
	switch {
	case score >= 95:
		return maxInt(1, defaultBatchSize/4)
	case score >= 85:
		return maxInt(1, defaultBatchSize/2)
	case score < 50:
		return defaultBatchSize * 2
	default:
		return defaultBatchSize
	}
}

// adaptiveTickInterval implements §4.7's queue-depth-to-interval mapping.
func adaptiveTickInterval(queueDepth int) time.Duration {
	switch {
	case queueDepth > 100:
		return 500 * time.Millisecond
	case queueDepth > 50:
		return time.Second
	case queueDepth < 10:
		return 2 * time.Second
	default:
		return time.Second
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
