package control

import (
	"testing"
	"time"
)

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	c := NewCircuitBreaker(2, 100*time.Millisecond)
	now := time.Now()

	if c.State() != CircuitClosed {
		t.Fatalf("expected closed, got %s", c.State())
	}

	c.RecordFailure(ClassModelAPI, now)
	if c.State() != CircuitClosed {
		t.Fatalf("expected closed after first failure, got %s", c.State())
	}

	c.RecordFailure(ClassModelAPI, now)
	if c.State() != CircuitOpen {
		t.Fatalf("expected open after threshold failures, got %s", c.State())
	}

	if c.Allow(now.Add(10 * time.Millisecond)) {
		t.Fatal("expected deny while cooldown not elapsed")
	}
	if !c.Allow(now.Add(120 * time.Millisecond)) {
		t.Fatal("expected allow after cooldown")
	}
	if c.State() != CircuitHalfOpen {
		t.Fatalf("expected half_open, got %s", c.State())
	}

	c.RecordSuccess()
	if c.State() != CircuitClosed {
		t.Fatalf("expected closed after probe success, got %s", c.State())
	}
}

func TestCircuitBreaker_FailuresAccumulatePerClass(t *testing.T) {
	c := NewCircuitBreaker(2, time.Second)
	now := time.Now()

	c.RecordFailure(ClassModelAPI, now)
	c.RecordFailure(ClassStorage, now)
	if c.State() != CircuitClosed {
		t.Fatalf("expected closed, mixed classes below threshold, got %s", c.State())
	}

	c.RecordFailure(ClassStorage, now)
	if c.State() != CircuitOpen {
		t.Fatalf("expected open after storage threshold, got %s", c.State())
	}
	if c.OpenedClass() != ClassStorage {
		t.Fatalf("expected opened class storage, got %s", c.OpenedClass())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	c := NewCircuitBreaker(1, 50*time.Millisecond)
	now := time.Now()

	c.RecordFailure(ClassTransportAPI, now)
	if !c.Allow(now.Add(60 * time.Millisecond)) {
		t.Fatal("expected probe allowed after cooldown")
	}
	c.RecordFailure(ClassTransportAPI, now.Add(60*time.Millisecond))
	if c.State() != CircuitOpen {
		t.Fatalf("expected reopen after failed probe, got %s", c.State())
	}
	if c.Allow(now.Add(70 * time.Millisecond)) {
		t.Fatal("expected deny right after reopening")
	}
}
