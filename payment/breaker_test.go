package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type flakyGateway struct {
	err   error
	calls int
}

func (g *flakyGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*Intent, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &Intent{GatewayOrderID: "gw_1", Amount: amount, Currency: currency}, nil
}

func TestBreakerGateway_OpensAfterMaxFailures(t *testing.T) {
	inner := &flakyGateway{err: errors.New("connection refused")}
	breaker := NewBreakerGateway(inner, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := breaker.CreateIntent(context.Background(), 50000, "INR", "r"); err == nil {
			t.Fatalf("Expected failure on call %d", i+1)
		}
	}
	if inner.calls != 3 {
		t.Fatalf("Expected 3 calls before opening, got %d", inner.calls)
	}

	_, err := breaker.CreateIntent(context.Background(), 50000, "INR", "r")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("Expected ErrGatewayUnavailable from open breaker, got %v", err)
	}
	if !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Errorf("Expected open-breaker error, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("Open breaker must not call the gateway, got %d calls", inner.calls)
	}
}

func TestBreakerGateway_RecoversAfterReset(t *testing.T) {
	inner := &flakyGateway{err: errors.New("connection refused")}
	breaker := NewBreakerGateway(inner, 1, 10*time.Millisecond)

	breaker.CreateIntent(context.Background(), 50000, "INR", "r")
	if _, err := breaker.CreateIntent(context.Background(), 50000, "INR", "r"); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("Expected open breaker, got %v", err)
	}

	inner.err = nil
	time.Sleep(20 * time.Millisecond)

	intent, err := breaker.CreateIntent(context.Background(), 50000, "INR", "r")
	if err != nil {
		t.Fatalf("Expected half-open probe to succeed, got %v", err)
	}
	if intent.GatewayOrderID != "gw_1" {
		t.Errorf("Expected gw_1, got %s", intent.GatewayOrderID)
	}

	if _, err := breaker.CreateIntent(context.Background(), 50000, "INR", "r"); err != nil {
		t.Errorf("Expected closed breaker after success, got %v", err)
	}
}
