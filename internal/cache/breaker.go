package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrBreakerOpen = errors.New("cache circuit breaker is open")

type BreakerConfig struct {
	MaxFailures       int
	ResetTimeout      time.Duration
	HalfOpenSuccesses int
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:       5,
		ResetTimeout:      30 * time.Second,
		HalfOpenSuccesses: 3,
	}
}

type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker stops calls to a failing backend for ResetTimeout after
// MaxFailures consecutive failures, then lets calls through again and closes
// after HalfOpenSuccesses successes in a row.
type Breaker struct {
	mu                sync.Mutex
	config            BreakerConfig
	state             BreakerState
	failures          int
	halfOpenSuccesses int
	lastFailure       time.Time
	now               func() time.Time
}

func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 1
	}
	if config.HalfOpenSuccesses <= 0 {
		config.HalfOpenSuccesses = 1
	}
	return &Breaker{config: config, now: time.Now}
}

// Allow reports whether a call may go through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.lastFailure) > b.config.ResetTimeout {
		b.state = StateHalfOpen
		b.halfOpenSuccesses = 0
	}
	return b.state != StateOpen
}

// Record feeds the outcome of a call that Allow let through.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		switch b.state {
		case StateHalfOpen:
			b.halfOpenSuccesses++
			if b.halfOpenSuccesses >= b.config.HalfOpenSuccesses {
				b.state = StateClosed
				b.failures = 0
			}
		case StateClosed:
			b.failures = 0
		}
		return
	}

	b.lastFailure = b.now()
	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
	case StateClosed:
		b.failures++
		if b.failures >= b.config.MaxFailures {
			b.state = StateOpen
		}
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Guarded routes every call through a Breaker so an unreachable Redis costs
// one fast error per request instead of a network timeout.
type Guarded struct {
	next    Cache
	breaker *Breaker
}

func WithBreaker(next Cache, breaker *Breaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !g.breaker.Allow() {
		return false, ErrBreakerOpen
	}
	found, err := g.next.Get(ctx, key, dest)
	g.breaker.Record(err)
	return found, err
}

func (g *Guarded) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return g.call(func() error { return g.next.Set(ctx, key, value, ttl) })
}

func (g *Guarded) Delete(ctx context.Context, keys ...string) error {
	return g.call(func() error { return g.next.Delete(ctx, keys...) })
}

func (g *Guarded) Generation(ctx context.Context, key string) (int64, error) {
	if !g.breaker.Allow() {
		return 0, ErrBreakerOpen
	}
	gen, err := g.next.Generation(ctx, key)
	g.breaker.Record(err)
	return gen, err
}

// Bump always reaches the backend. Skipping it while the breaker is open
// would leave values of the old generation readable once it closes.
func (g *Guarded) Bump(ctx context.Context, keys ...string) error {
	err := g.next.Bump(ctx, keys...)
	g.breaker.Record(err)
	return err
}

// Ping always reaches the backend so readiness reflects Redis itself.
func (g *Guarded) Ping(ctx context.Context) error {
	err := g.next.Ping(ctx)
	g.breaker.Record(err)
	return err
}

func (g *Guarded) call(fn func() error) error {
	if !g.breaker.Allow() {
		return ErrBreakerOpen
	}
	err := fn()
	g.breaker.Record(err)
	return err
}
