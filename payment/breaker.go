package payment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// BreakerGateway wraps a Gateway with a circuit breaker so a struggling
// gateway fails checkouts fast instead of tying up request handlers on
// timeouts. A tripped breaker surfaces as ErrGatewayUnavailable like any
// other gateway failure.
type BreakerGateway struct {
	inner        Gateway
	maxFailures  int
	resetTimeout time.Duration

	mu              sync.Mutex
	failureCount    int
	lastFailureTime time.Time
	state           breakerState
}

func NewBreakerGateway(inner Gateway, maxFailures int, resetTimeout time.Duration) *BreakerGateway {
	return &BreakerGateway{
		inner:        inner,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        stateClosed,
	}
}

func (b *BreakerGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*Intent, error) {
	if err := b.before(); err != nil {
		return nil, err
	}
	intent, err := b.inner.CreateIntent(ctx, amount, currency, receipt)
	b.after(err)
	return intent, err
}

func (b *BreakerGateway) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateOpen {
		if time.Since(b.lastFailureTime) > b.resetTimeout {
			b.state = stateHalfOpen
			b.failureCount = 0
		} else {
			return fmt.Errorf("%w: circuit breaker is open", ErrGatewayUnavailable)
		}
	}
	return nil
}

func (b *BreakerGateway) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failureCount++
		b.lastFailureTime = time.Now()
		if b.failureCount >= b.maxFailures || b.state == stateHalfOpen {
			b.state = stateOpen
		}
		return
	}

	b.state = stateClosed
	b.failureCount = 0
}
