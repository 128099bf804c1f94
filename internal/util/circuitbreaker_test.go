package util

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("hololive", 2, time.Minute, zap.NewNop())
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	if !cb.CanExecute() {
		t.Fatalf("expected closed circuit after one failure")
	}
	cb.RecordFailure()
	if cb.CanExecute() {
		t.Fatalf("expected open circuit after threshold")
	}
	if st := cb.Status(); st.NextRetryTime == nil || !st.NextRetryTime.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected status: %+v", st)
	}

	now = now.Add(time.Minute)
	if got := cb.State(); got != CircuitStateHalfOpen {
		t.Fatalf("expected half-open, got %s", got)
	}

	cb.RecordFailure()
	if got := cb.State(); got != CircuitStateOpen {
		t.Fatalf("failure in half-open should reopen, got %s", got)
	}

	now = now.Add(time.Minute)
	cb.State()
	cb.RecordSuccess()
	if got := cb.State(); got != CircuitStateClosed {
		t.Fatalf("expected closed after a successful trial call, got %s", got)
	}
}
