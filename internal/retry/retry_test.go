package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type statusErr struct{ code int }

func (e statusErr) Error() string      { return "status" }
func (e statusErr) GetStatusCode() int { return e.code }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func fastConfig(attempts int) Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func TestWithRetry_RetriesRetryableStatus(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(2), func() error {
		calls++
		if calls == 1 {
			return statusErr{code: 503}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestWithRetry_DoesNotRetryNotFound(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(3), func() error {
		calls++
		return statusErr{code: 404}
	})

	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestWithRetry_RetriesTimeouts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(3), func() error {
		calls++
		return timeoutErr{}
	})

	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}

	var te timeoutErr
	if !errors.As(err, &te) {
		t.Errorf("Expected wrapped timeout error, got %v", err)
	}
}

func TestWithRetry_Permanent(t *testing.T) {
	sentinel := errors.New("stop")
	calls := 0
	err := WithRetry(context.Background(), fastConfig(3), func() error {
		calls++
		return Permanent(sentinel)
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("Expected sentinel error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestWithRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_ = WithRetry(ctx, fastConfig(5), func() error {
		calls++
		return timeoutErr{}
	})

	if calls != 1 {
		t.Errorf("Expected 1 call after cancellation, got %d", calls)
	}
}

func TestCalculateBackoff_Capped(t *testing.T) {
	cfg := Config{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, Multiplier: 2}

	if got := calculateBackoff(0, cfg); got != time.Second {
		t.Errorf("attempt 0: got %s", got)
	}
	if got := calculateBackoff(1, cfg); got != 2*time.Second {
		t.Errorf("attempt 1: got %s", got)
	}
	if got := calculateBackoff(5, cfg); got != 3*time.Second {
		t.Errorf("attempt 5: got %s", got)
	}
}

func TestWithRetry_WrapsWhenExhausted(t *testing.T) {
	err := WithRetry(context.Background(), fastConfig(2), func() error {
		return statusErr{code: 429}
	})

	if err == nil || !strings.Contains(err.Error(), "gave up after 2 attempts") {
		t.Errorf("Expected exhaustion error, got %v", err)
	}
	var se statusErr
	if !errors.As(err, &se) || se.code != 429 {
		t.Errorf("Expected the last status error to be wrapped, got %v", err)
	}
}

func TestTransient_Cancelled(t *testing.T) {
	if DefaultConfig().transient(context.Canceled) {
		t.Error("Cancellation must not be retried")
	}
	if !DefaultConfig().transient(context.DeadlineExceeded) {
		t.Error("Deadline errors should be retried")
	}
}
