package valueobjects

import "time"

// Health is the classification healthStatus() derives from a LoadSnapshot
// (§4.8).
type Health string

const (
	HealthHealthy  Health = "HEALTHY"
	HealthDegraded Health = "DEGRADED"
	HealthCritical Health = "CRITICAL"
	HealthWarning  Health = "WARNING"
)

// LoadThresholds is the immutable configuration backing load-score math
// (design note: "no global singletons for default values" - callers
// construct one at process start and pass it through).
type LoadThresholds struct {
	CriticalScore   float64 // default 95
	TargetScore     float64 // default 85
	TargetErrorRate float64 // used by healthStatus/needsRebalance, default 0.5
	AcceptErrorRate float64 // used by canAcceptWork, default 0.3
	RebalanceSpread float64 // default 30
}

// DefaultLoadThresholds mirrors the defaults named throughout §3/§4.8.
func DefaultLoadThresholds() LoadThresholds {
	return LoadThresholds{
		CriticalScore:   95,
		TargetScore:     85,
		TargetErrorRate: 0.5,
		AcceptErrorRate: 0.3,
		RebalanceSpread: 30,
	}
}

// LoadSnapshot is a single point-in-time measurement for one target service.
type LoadSnapshot struct {
	ServiceID         string
	CPUPercent        float64
	MemoryPercent     float64
	ActiveRequests    int
	QueueDepth        int
	AvgResponseTimeMs float64
	ErrorRate         float64
	Timestamp         time.Time
}

// Score computes the weighted load blend: cpu·0.3 + mem·0.3 + queueScore·0.2
// + errorScore·0.2 (§3).
func (s LoadSnapshot) Score() float64 {
	queueScore := float64(s.QueueDepth) / 1000 * 100
	if queueScore > 100 {
		queueScore = 100
	}
	errorScore := s.ErrorRate * 100
	if errorScore > 100 {
		errorScore = 100
	}
	return s.CPUPercent*0.3 + s.MemoryPercent*0.3 + queueScore*0.2 + errorScore*0.2
}

// Overloaded reports score >= thresholds.CriticalScore.
func (s LoadSnapshot) Overloaded(t LoadThresholds) bool {
	return s.Score() >= t.CriticalScore
}

// NeedsRebalance reports score >= thresholds.TargetScore OR errorRate > 0.5.
func (s LoadSnapshot) NeedsRebalance(t LoadThresholds) bool {
	return s.Score() >= t.TargetScore || s.ErrorRate > t.TargetErrorRate
}

// CanAcceptWork reports score < thresholds.TargetScore AND errorRate < 0.3.
func (s LoadSnapshot) CanAcceptWork(t LoadThresholds) bool {
	return s.Score() < t.TargetScore && s.ErrorRate < t.AcceptErrorRate
}

// CircuitBreakerTrip reports activeRequests >= 10 AND errorRate >= 0.5 (§4.8).
func (s LoadSnapshot) CircuitBreakerTrip() bool {
	return s.ActiveRequests >= 10 && s.ErrorRate >= 0.5
}

// HealthStatus classifies the snapshot per §4.8.
func (s LoadSnapshot) HealthStatus(t LoadThresholds) Health {
	score := s.Score()
	switch {
	case s.ErrorRate > t.TargetErrorRate:
		return HealthDegraded
	case score >= t.CriticalScore:
		return HealthCritical
	case score < t.TargetScore && s.ErrorRate <= t.TargetErrorRate:
		return HealthHealthy
	default:
		return HealthWarning
	}
}

// LoadHistory is a bounded ring buffer of the last 100 snapshots for one
// service (§3: "bounded history (last 100)").
type LoadHistory struct {
	capacity  int
	snapshots []LoadSnapshot
}

// NewLoadHistory constructs a history capped at 100 entries.
func NewLoadHistory() *LoadHistory {
	return &LoadHistory{capacity: 100}
}

// Record appends a snapshot, evicting the oldest entry once at capacity.
func (h *LoadHistory) Record(s LoadSnapshot) {
	h.snapshots = append(h.snapshots, s)
	if len(h.snapshots) > h.capacity {
		h.snapshots = h.snapshots[len(h.snapshots)-h.capacity:]
	}
}

// Latest returns the most recent snapshot and whether one exists.
func (h *LoadHistory) Latest() (LoadSnapshot, bool) {
	if len(h.snapshots) == 0 {
		return LoadSnapshot{}, false
	}
	return h.snapshots[len(h.snapshots)-1], true
}

// All returns a defensive copy of the retained history, oldest first.
func (h *LoadHistory) All() []LoadSnapshot {
	out := make([]LoadSnapshot, len(h.snapshots))
	copy(out, h.snapshots)
	return out
}
