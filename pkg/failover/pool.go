// Package failover implements the Endpoint Failover Pool (spec §4.D): N
// named endpoints wrapping a provider, with circular selection, rate-limit
// cooldowns, and consecutive-failure cooldowns.
package failover

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wikiforge/wikiforge/pkg/config"
)

// ErrAllEndpointsUnavailable is raised when every endpoint in the pool is
// currently rate-limited or in a failure cooldown.
var ErrAllEndpointsUnavailable = errors.New("failover: all endpoints unavailable")

const (
	defaultRateLimitCooldown = 60 * time.Second
	defaultFailureCooldown   = 90 * time.Second
	consecutiveFailureLimit  = 3
)

// endpointState tracks the mutable per-endpoint failure/cooldown bookkeeping
// that spec §3 calls out for the Endpoint entity.
type endpointState struct {
	config.EndpointConfig
	rateLimitedUntil    time.Time
	consecutiveFailures int
}

func (s *endpointState) isAvailable(now time.Time) bool {
	return s.rateLimitedUntil.IsZero() || s.rateLimitedUntil.Before(now)
}

// Client is the subset of a provider client the pool needs in order to
// rebuild a client against a newly selected endpoint.
type Client interface {
	Reinitialize(endpoint config.EndpointConfig) error
}

// Pool selects among N endpoints for a single logical provider, advancing
// circularly and applying cooldowns on failure per spec §4.D.
type Pool struct {
	mu        sync.Mutex
	endpoints []*endpointState
	current   int
	cfg       config.EndpointPoolConfig
	now       func() time.Time
}

// NewPool builds a Pool from a loaded endpoint pool configuration.
func NewPool(cfg config.EndpointPoolConfig) (*Pool, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, errors.New("failover: endpoint pool has no endpoints")
	}

	states := make([]*endpointState, len(cfg.Endpoints))
	for i, ep := range cfg.Endpoints {
		states[i] = &endpointState{EndpointConfig: ep}
	}

	return &Pool{endpoints: states, cfg: cfg, now: time.Now}, nil
}

// Len returns the number of endpoints in the pool (N, for the 2N retry budget).
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}

// Select scans forward circularly from the current index and returns the
// first available endpoint. Returns ErrAllEndpointsUnavailable if none are.
func (p *Pool) Select() (config.EndpointConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	n := len(p.endpoints)
	for i := 0; i < n; i++ {
		idx := (p.current + i) % n
		if p.endpoints[idx].isAvailable(now) {
			p.current = idx
			return p.endpoints[idx].EndpointConfig, nil
		}
	}
	return config.EndpointConfig{}, ErrAllEndpointsUnavailable
}

// ReportRateLimit marks the current endpoint unavailable until now +
// retryAfter (defaulting to 60s), and advances selection to the next one.
func (p *Pool) ReportRateLimit(name string, retryAfter time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = p.cfg.DefaultCooldown
		if retryAfter <= 0 {
			retryAfter = defaultRateLimitCooldown
		}
	}

	for i, ep := range p.endpoints {
		if ep.Name == name {
			ep.rateLimitedUntil = p.now().Add(retryAfter)
			ep.consecutiveFailures = 0
			p.current = (i + 1) % len(p.endpoints)
			return
		}
	}
}

// ReportSuccess clears an endpoint's consecutive-failure count.
func (p *Pool) ReportSuccess(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ep := range p.endpoints {
		if ep.Name == name {
			ep.consecutiveFailures = 0
			return
		}
	}
}

// ReportFailure records a non-rate-limit failure; after 3 consecutive
// failures the endpoint is placed in a 90s cooldown.
func (p *Pool) ReportFailure(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	limit := p.cfg.ConsecutiveFailureLimit
	if limit <= 0 {
		limit = consecutiveFailureLimit
	}
	cooldown := p.cfg.FailureCooldown
	if cooldown <= 0 {
		cooldown = defaultFailureCooldown
	}

	for i, ep := range p.endpoints {
		if ep.Name == name {
			ep.consecutiveFailures++
			if ep.consecutiveFailures >= limit {
				ep.rateLimitedUntil = p.now().Add(cooldown)
				ep.consecutiveFailures = 0
				p.current = (i + 1) % len(p.endpoints)
			}
			return
		}
	}
}

// Call selects an endpoint, rebuilds client against it, and invokes fn.
// Retry budget is 2N per spec §4.D (two full circuits), reporting
// success/failure/rate-limit back to the pool after each attempt.
func (p *Pool) Call(ctx context.Context, client Client, fn func(ctx context.Context, ep config.EndpointConfig) error) error {
	budget := 2 * p.Len()
	var lastErr error

	for attempt := 0; attempt < budget; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		ep, err := p.Select()
		if err != nil {
			return err
		}

		if err := client.Reinitialize(ep); err != nil {
			return err
		}

		err = fn(ctx, ep)
		if err == nil {
			p.ReportSuccess(ep.Name)
			return nil
		}

		lastErr = err
		if rle, ok := asRateLimitError(err); ok {
			p.ReportRateLimit(ep.Name, rle.RetryAfter)
			continue
		}
		p.ReportFailure(ep.Name)
	}

	return lastErr
}

// RateLimitError lets callers report a retry-after duration alongside the
// underlying error; Call type-asserts for it via asRateLimitError.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string { return e.Err.Error() }
func (e *RateLimitError) Unwrap() error { return e.Err }

func asRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}
