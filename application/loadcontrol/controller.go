// Package loadcontrol implements the load monitor and target-selection
// logic (§4.8): a background loop that ingests LoadSnapshot measurements
// per downstream service and exposes rebalance/selection/health queries to
// the waveless scheduler and the RPC port. No teacher equivalent exists for
// this component; it is grounded on the same ticker+stopChan+stoppedChan
// background-loop shape as outbox_processor.go's Start/Stop/processLoop,
// and on the spec's explicit "access is guarded by a mutex internal to the
// controller" note on shared mutable state (§5).
package loadcontrol

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
	"github.com/2lar-b2/orchestrator/pkg/observability"
)

// SnapshotSource supplies the latest measurement for every known target
// service on each monitor tick. Production wiring passes a nil source: the
// RPC port pushes its per-call snapshots through Record instead. Tests can
// stub a source directly.
type SnapshotSource func() []valueobjects.LoadSnapshot

// Controller is the process-wide load monitor (§5: "Load snapshots form a
// process-wide map mutated by the load monitor loop and read by the
// selector"). All state is behind mu.
type Controller struct {
	mu         sync.Mutex
	history    map[string]*valueobjects.LoadHistory
	thresholds valueobjects.LoadThresholds

	source  SnapshotSource
	metrics *observability.Metrics
	logger  *zap.Logger

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewController constructs a Controller. source may be nil, in which case
// Start is a no-op and callers drive state purely via Record. metrics may be
// nil (its methods are nil-safe no-ops), matching ProvideMetrics under
// EnableMetrics=false.
func NewController(source SnapshotSource, thresholds valueobjects.LoadThresholds, metrics *observability.Metrics, logger *zap.Logger) *Controller {
	return &Controller{
		history:     make(map[string]*valueobjects.LoadHistory),
		thresholds:  thresholds,
		source:      source,
		metrics:     metrics,
		logger:      logger,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins the background monitor loop on a fixed tick. A no-op if no
// SnapshotSource was supplied.
func (c *Controller) Start(interval time.Duration) {
	if c.source == nil {
		return
	}
	c.logger.Info("starting load monitor", zap.Duration("interval", interval))
	go c.loop(interval)
}

// Stop gracefully stops the monitor loop.
func (c *Controller) Stop() {
	close(c.stopChan)
	<-c.stoppedChan
	c.logger.Info("load monitor stopped")
}

func (c *Controller) loop(interval time.Duration) {
	defer close(c.stoppedChan)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.monitor(c.source())
		}
	}
}

// monitor indexes a batch of snapshots per serviceId (§4.8: "index per
// serviceId, expose to callers").
func (c *Controller) monitor(snapshots []valueobjects.LoadSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range snapshots {
		c.recordLocked(s)
	}
}

// Record ingests a single snapshot, e.g. from an inline RPC-port
// measurement rather than the background loop's batch source.
func (c *Controller) Record(s valueobjects.LoadSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordLocked(s)
}

func (c *Controller) recordLocked(s valueobjects.LoadSnapshot) {
	h, ok := c.history[s.ServiceID]
	if !ok {
		h = valueobjects.NewLoadHistory()
		c.history[s.ServiceID] = h
	}
	h.Record(s)
	c.metrics.RecordLoadScore(context.Background(), s.ServiceID, s.Score())
}

func (c *Controller) latestLocked() map[string]valueobjects.LoadSnapshot {
	out := make(map[string]valueobjects.LoadSnapshot, len(c.history))
	for id, h := range c.history {
		if snap, ok := h.Latest(); ok {
			out[id] = snap
		}
	}
	return out
}

// NeedsRebalance reports true iff any tracked service is overloaded or the
// spread between the highest and lowest score exceeds the configured
// RebalanceSpread (§4.8).
func (c *Controller) NeedsRebalance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	snaps := c.latestLocked()
	if len(snaps) == 0 {
		return false
	}
	var min, max float64
	first := true
	for _, s := range snaps {
		if s.Overloaded(c.thresholds) {
			return true
		}
		score := s.Score()
		if first {
			min, max = score, score
			first = false
			continue
		}
		if score < min {
			min = score
		}
		if score > max {
			max = score
		}
	}
	return max-min > c.thresholds.RebalanceSpread
}

// Strategy computes each tracked service's target load per §4.8's
// piecewise rule. The returned map is keyed by serviceId; actual admission
// routing is applied by the scheduler/selector, not here.
func (c *Controller) Strategy() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	targets := make(map[string]float64, len(c.history))
	targetUtil := c.thresholds.TargetScore
	for id, snap := range c.latestLocked() {
		current := snap.Score()
		switch {
		case current > c.thresholds.CriticalScore:
			targets[id] = 0.8 * targetUtil
		case current > targetUtil:
			targets[id] = targetUtil
		case current < 0.5*targetUtil:
			targets[id] = 0.7 * targetUtil
		default:
			targets[id] = current
		}
	}
	return targets
}

// SelectTarget returns the lowest-scoring service among those that can
// accept work and have errorRate<0.5, or ("", false) if none qualify (the
// scheduler yields admission in that case).
func (c *Controller) SelectTarget() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	best := ""
	bestScore := 0.0
	found := false
	for id, snap := range c.latestLocked() {
		if !snap.CanAcceptWork(c.thresholds) || snap.ErrorRate >= 0.5 {
			continue
		}
		score := snap.Score()
		if !found || score < bestScore {
			best, bestScore, found = id, score, true
		}
	}
	return best, found
}

// CircuitBreakerTrip reports whether the named service's latest snapshot
// meets the trip condition (§4.8: activeRequests>=10 AND errorRate>=0.5).
func (c *Controller) CircuitBreakerTrip(serviceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.history[serviceID]
	if !ok {
		return false
	}
	snap, ok := h.Latest()
	if !ok {
		return false
	}
	return snap.CircuitBreakerTrip()
}

// HealthStatus classifies the named service's latest snapshot, defaulting
// to HEALTHY when nothing has been recorded yet.
func (c *Controller) HealthStatus(serviceID string) valueobjects.Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.history[serviceID]
	if !ok {
		return valueobjects.HealthHealthy
	}
	snap, ok := h.Latest()
	if !ok {
		return valueobjects.HealthHealthy
	}
	return snap.HealthStatus(c.thresholds)
}

// PauseWaveless reports whether the waveless scheduler should yield its
// current tick: any tracked service at or beyond the critical score, or
// with an error rate at or beyond 0.5 (§4.7 admission gate).
func (c *Controller) PauseWaveless() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, snap := range c.latestLocked() {
		if snap.Score() >= c.thresholds.CriticalScore || snap.ErrorRate >= 0.5 {
			return true
		}
	}
	return false
}

// CurrentScore returns the worst (highest) load score among tracked
// services, the figure the waveless scheduler uses to size its admission
// batch (§4.7 S6). Zero if nothing has been recorded yet.
func (c *Controller) CurrentScore() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	worst := 0.0
	for _, snap := range c.latestLocked() {
		if score := snap.Score(); score > worst {
			worst = score
		}
	}
	return worst
}
