// Package config holds the orchestrator's business-rule constants: the
// knobs that shape how aggressively steps time out, how many steps a
// workflow may carry, and which optional engine behaviors are on. Kept
// separate from infrastructure/config.Config, which carries transport and
// AWS wiring rather than domain policy.
package config

import (
	"errors"
	"time"
)

var (
	errInvalidTimeout  = errors.New("domain config: step timeouts must be positive")
	errTimeoutOrdering = errors.New("domain config: fast <= standard <= slow timeout tiers must hold")
	errInvalidLimit    = errors.New("domain config: MaxStepsPerWorkflow must be positive and MaxRetriesCeiling must be non-negative")
)

// DomainConfig holds all configurable business rules and constraints for
// the workflow engine.
type DomainConfig struct {
	// Step timeout tiers (§4.3). Templates assign one of these to each
	// StepDefinition.TimeoutMs based on how long that step's remote call is
	// expected to take.
	FastStepTimeoutMs     int64
	StandardStepTimeoutMs int64
	SlowStepTimeoutMs     int64

	// Workflow shape limits.
	MaxStepsPerWorkflow   int
	MaxWorkflowNameLength int
	MaxRetriesCeiling     int

	// Time constraints.
	LockTTL          time.Duration
	TickInterval     time.Duration
	StaleWorkflowAge time.Duration

	// Feature flags (§4.7, §4.8).
	EnableWavelessProcessing  bool
	EnableAutoRetry           bool
	EnableCompensationLogging bool
	EnableLoadBalancing       bool
}

// DefaultDomainConfig returns the default domain configuration.
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		FastStepTimeoutMs:     5000,
		StandardStepTimeoutMs: 30000,
		SlowStepTimeoutMs:     120000,

		MaxStepsPerWorkflow:   50,
		MaxWorkflowNameLength: 200,
		MaxRetriesCeiling:     10,

		LockTTL:          30 * time.Second,
		TickInterval:     time.Second,
		StaleWorkflowAge: time.Hour,

		EnableWavelessProcessing:  true,
		EnableAutoRetry:           true,
		EnableCompensationLogging: true,
		EnableLoadBalancing:       true,
	}
}

// ProductionDomainConfig returns production-specific configuration: tighter
// step budgets and a lower retry ceiling than the defaults, since
// production traffic is expected to be well-behaved and operators want
// early signal on a hung downstream dependency. StaleWorkflowAge keeps its
// default.
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.FastStepTimeoutMs = 3000
	cfg.StandardStepTimeoutMs = 20000
	cfg.SlowStepTimeoutMs = 90000
	cfg.MaxRetriesCeiling = 5
	return cfg
}

// DevelopmentDomainConfig returns development-specific configuration: more
// permissive timeouts so a debugger attached to a downstream service
// doesn't trip the saga's own timeout handling.
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.FastStepTimeoutMs = 30000
	cfg.StandardStepTimeoutMs = 120000
	cfg.SlowStepTimeoutMs = 600000
	cfg.MaxRetriesCeiling = 20
	return cfg
}

// LoadDomainConfig loads domain configuration based on environment.
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate reports whether the configuration's invariants hold.
func (c *DomainConfig) Validate() error {
	if c.FastStepTimeoutMs <= 0 || c.StandardStepTimeoutMs <= 0 || c.SlowStepTimeoutMs <= 0 {
		return errInvalidTimeout
	}
	if c.FastStepTimeoutMs > c.StandardStepTimeoutMs || c.StandardStepTimeoutMs > c.SlowStepTimeoutMs {
		return errTimeoutOrdering
	}
	if c.MaxStepsPerWorkflow <= 0 || c.MaxRetriesCeiling < 0 {
		return errInvalidLimit
	}
	return nil
}
