// Package rpc implements the RemoteCall port (§6): a synchronous,
// timeout-bounded call to a downstream service, with one circuit breaker
// per serviceName and a bounded transport-level retry distinct from the
// engine's own step-retry budget (§4.4/§4.6 compute that separately).
// Grounded on the decorator shape of the teacher's
// circuit_breaker_decorator.go (one breaker guarding one dependency,
// wrapped around the call), reimplemented over sony/gobreaker/v2 rather
// than the teacher's hand-rolled sliding window, and on
// cenkalti/backoff/v5 for the transport retry loop.
package rpc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/2lar-b2/orchestrator/application/ports"
	"github.com/2lar-b2/orchestrator/domain/core/valueobjects"
)

// Transport is the actual wire call a Caller makes once a breaker and its
// retry loop allow it through. Production wiring implements this over
// HTTP (HTTPTransport); tests can stub it directly.
type Transport interface {
	Do(ctx context.Context, serviceName, operation string, request map[string]interface{}) (map[string]interface{}, error)
}

// Config bounds one breaker's trip/reset behavior and the transport retry.
type Config struct {
	FailureThreshold  float64       // TotalFailures/Requests ratio to trip, e.g. 0.5
	MinRequests       uint32        // requests observed before ReadyToTrip evaluates
	OpenTimeout       time.Duration // time the breaker stays open before half-open
	MaxRetries        int           // transport-level retry attempts
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
}

// DefaultConfig mirrors the teacher's DefaultCircuitBreakerConfig defaults,
// adapted to gobreaker's Settings shape.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:  0.5,
		MinRequests:       10,
		OpenTimeout:       30 * time.Second,
		MaxRetries:        3,
		RetryInitialDelay: 50 * time.Millisecond,
		RetryMaxDelay:     2 * time.Second,
	}
}

// Caller is the ports.RemoteCall implementation: one gobreaker instance per
// serviceName, created lazily and guarded by mu (mirrors the load
// controller's "mutex internal to the controller" shared-state discipline,
// §5).
type Caller struct {
	transport Transport
	cfg       Config
	logger    *zap.Logger
	recorder  func(valueobjects.LoadSnapshot)

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[map[string]interface{}]
	stats    map[string]*serviceStats
}

type serviceStats struct {
	active   int
	total    int64
	failures int64
}

var _ ports.RemoteCall = (*Caller)(nil)

// NewCaller constructs a Caller. recorder, if non-nil, is fed a
// LoadSnapshot after every call (§4.8: "production wiring reads this from
// the RPC port's per-call instrumentation") - typically
// loadcontrol.Controller.Record.
func NewCaller(transport Transport, cfg Config, recorder func(valueobjects.LoadSnapshot), logger *zap.Logger) *Caller {
	return &Caller{
		transport: transport,
		cfg:       cfg,
		logger:    logger,
		recorder:  recorder,
		breakers:  make(map[string]*gobreaker.CircuitBreaker[map[string]interface{}]),
		stats:     make(map[string]*serviceStats),
	}
}

func (c *Caller) breakerFor(serviceName string) *gobreaker.CircuitBreaker[map[string]interface{}] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[serviceName]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker[map[string]interface{}](gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     c.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < c.cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= c.cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("circuit breaker state changed",
				zap.String("service", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	c.breakers[serviceName] = b
	return b
}

// Call executes the request through the named service's breaker, retrying
// the transport call per cfg while the breaker is closed/half-open. Maps
// circuit-open and deadline-exceeded to RemoteCallUnavailable/Timeout, per
// §6: "the core treats the first three as recoverable."
func (c *Caller) Call(ctx context.Context, serviceName, operation string, request map[string]interface{}, timeout time.Duration) (ports.RemoteCallResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	breaker := c.breakerFor(serviceName)

	boff := backoff.ExponentialBackOff{
		InitialInterval: c.cfg.RetryInitialDelay,
		MaxInterval:     c.cfg.RetryMaxDelay,
		Multiplier:      2,
	}

	start := time.Now()
	c.beginCall(serviceName)
	data, err := backoff.Retry(callCtx, func() (map[string]interface{}, error) {
		return breaker.Execute(func() (map[string]interface{}, error) {
			return c.transport.Do(callCtx, serviceName, operation, request)
		})
	}, backoff.WithBackOff(&boff), backoff.WithMaxTries(uint(c.cfg.MaxRetries)))
	c.endCall(serviceName, time.Since(start), err)

	switch {
	case err == nil:
		return ports.RemoteCallResponse{Kind: ports.RemoteCallSuccess, Data: data}, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ports.RemoteCallResponse{Kind: ports.RemoteCallUnavailable, Err: err}, nil
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return ports.RemoteCallResponse{Kind: ports.RemoteCallTimeout, Err: err}, nil
	default:
		return ports.RemoteCallResponse{Kind: ports.RemoteCallRemoteError, Err: err}, nil
	}
}

// beginCall/endCall maintain per-service counters and, on completion, feed
// a LoadSnapshot to the recorder so the load controller sees this call's
// contribution to that service's queue depth and error rate (§4.8).
func (c *Caller) beginCall(serviceName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.statsFor(serviceName)
	st.active++
}

func (c *Caller) endCall(serviceName string, elapsed time.Duration, err error) {
	c.mu.Lock()
	st := c.statsFor(serviceName)
	st.active--
	st.total++
	if err != nil {
		st.failures++
	}
	snapshot := valueobjects.LoadSnapshot{
		ServiceID:         serviceName,
		ActiveRequests:    st.active,
		AvgResponseTimeMs: float64(elapsed.Milliseconds()),
		ErrorRate:         float64(st.failures) / float64(st.total),
		Timestamp:         time.Now(),
	}
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder(snapshot)
	}
}

func (c *Caller) statsFor(serviceName string) *serviceStats {
	st, ok := c.stats[serviceName]
	if !ok {
		st = &serviceStats{}
		c.stats[serviceName] = st
	}
	return st
}
