package loadcontrol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/loadcontrol"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
)

func newTestController() *loadcontrol.Controller {
	return loadcontrol.NewController(nil, valueobjects.DefaultLoadThresholds(), nil, zap.NewNop())
}

func TestController_SelectTarget(t *testing.T) {
	tests := []struct {
		name      string
		snapshots []valueobjects.LoadSnapshot
		wantID    string
		wantFound bool
	}{
		{
			name:      "no snapshots recorded",
			snapshots: nil,
			wantFound: false,
		},
		{
			name: "picks the lowest-scoring service among those that can accept work",
			snapshots: []valueobjects.LoadSnapshot{
				{ServiceID: "svc-busy", CPUPercent: 90, MemoryPercent: 90, ErrorRate: 0.1},
				{ServiceID: "svc-idle", CPUPercent: 10, MemoryPercent: 10, ErrorRate: 0.1},
			},
			wantID:    "svc-idle",
			wantFound: true,
		},
		{
			name: "excludes services whose error rate is at or above the accept threshold",
			snapshots: []valueobjects.LoadSnapshot{
				{ServiceID: "svc-errors", CPUPercent: 10, MemoryPercent: 10, ErrorRate: 0.5},
			},
			wantFound: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestController()
			for _, s := range tc.snapshots {
				c.Record(s)
			}
			id, found := c.SelectTarget()
			assert.Equal(t, tc.wantFound, found)
			if tc.wantFound {
				assert.Equal(t, tc.wantID, id)
			}
		})
	}
}

func TestController_NeedsRebalance(t *testing.T) {
	tests := []struct {
		name      string
		snapshots []valueobjects.LoadSnapshot
		want      bool
	}{
		{name: "empty history never needs rebalance", want: false},
		{
			name: "an overloaded service always needs rebalance",
			snapshots: []valueobjects.LoadSnapshot{
				{ServiceID: "svc-1", CPUPercent: 100, MemoryPercent: 100, QueueDepth: 1000, ErrorRate: 1.0},
			},
			want: true,
		},
		{
			name: "spread beyond the configured threshold needs rebalance",
			snapshots: []valueobjects.LoadSnapshot{
				{ServiceID: "svc-low", CPUPercent: 5, MemoryPercent: 5},
				{ServiceID: "svc-high", CPUPercent: 80, MemoryPercent: 80},
			},
			want: true,
		},
		{
			name: "similar scores within spread do not need rebalance",
			snapshots: []valueobjects.LoadSnapshot{
				{ServiceID: "svc-a", CPUPercent: 40, MemoryPercent: 40},
				{ServiceID: "svc-b", CPUPercent: 45, MemoryPercent: 45},
			},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestController()
			for _, s := range tc.snapshots {
				c.Record(s)
			}
			assert.Equal(t, tc.want, c.NeedsRebalance())
		})
	}
}

func TestController_CircuitBreakerTrip(t *testing.T) {
	c := newTestController()
	c.Record(valueobjects.LoadSnapshot{ServiceID: "svc-1", ActiveRequests: 12, ErrorRate: 0.6})
	assert.True(t, c.CircuitBreakerTrip("svc-1"))
	assert.False(t, c.CircuitBreakerTrip("svc-unknown"))
}

func TestController_HealthStatus_DefaultsHealthyWhenUnrecorded(t *testing.T) {
	c := newTestController()
	assert.Equal(t, valueobjects.HealthHealthy, c.HealthStatus("svc-never-seen"))
}

func TestController_PauseWaveless(t *testing.T) {
	tests := []struct {
		name     string
		snapshot valueobjects.LoadSnapshot
		want     bool
	}{
		{
			name:     "below critical score and low error rate does not pause",
			snapshot: valueobjects.LoadSnapshot{ServiceID: "svc-1", CPUPercent: 10, MemoryPercent: 10, ErrorRate: 0.1},
			want:     false,
		},
		{
			name:     "at or beyond critical score pauses",
			snapshot: valueobjects.LoadSnapshot{ServiceID: "svc-1", CPUPercent: 100, MemoryPercent: 100, QueueDepth: 1000, ErrorRate: 1.0},
			want:     true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestController()
			c.Record(tc.snapshot)
			assert.Equal(t, tc.want, c.PauseWaveless())
		})
	}
}

func TestController_StartIsNoOpWithoutSource(t *testing.T) {
	c := loadcontrol.NewController(nil, valueobjects.DefaultLoadThresholds(), nil, zap.NewNop())
	require.NotPanics(t, func() {
		c.Start(0)
	})
}
