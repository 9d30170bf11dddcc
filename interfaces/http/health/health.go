// Package health implements liveness and readiness probes, matching the
// teacher's cmd/api/main.go health/ready split, extended to gate readiness
// on the repository and lock ports actually being reachable; the event bus
// is not probed (§6: "Health & readiness endpoints").
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
)

// Checker probes the ports the engine depends on.
type Checker struct {
	repo    ports.WorkflowRepository
	lock    ports.Lock
	timeout time.Duration
}

// NewChecker constructs a Checker.
func NewChecker(repo ports.WorkflowRepository, lock ports.Lock, timeout time.Duration) *Checker {
	return &Checker{repo: repo, lock: lock, timeout: timeout}
}

// Liveness always reports healthy once the process can serve HTTP - it
// checks nothing external, matching the teacher's /health endpoint.
func (c *Checker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "healthy", nil)
}

// Readiness checks the repository and lock ports are reachable, returning
// 503 if either is not.
func (c *Checker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if _, err := c.repo.CountByStatus(ctx, valueobjects.WorkflowStatusPending); err != nil {
		checks["repository"] = "unreachable: " + err.Error()
		healthy = false
	} else {
		checks["repository"] = "ok"
	}

	if _, err := c.lock.IsHeld(ctx, "healthcheck:probe"); err != nil {
		checks["lock"] = "unreachable: " + err.Error()
		healthy = false
	} else {
		checks["lock"] = "ok"
	}

	if healthy {
		writeStatus(w, http.StatusOK, "ready", checks)
	} else {
		writeStatus(w, http.StatusServiceUnavailable, "not ready", checks)
	}
}

func writeStatus(w http.ResponseWriter, status int, state string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": state,
		"checks": checks,
	})
}
