package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryInitialBackoff = time.Millisecond
	cfg.RetryMaxBackoff = 2 * time.Millisecond
	return cfg
}

func retryableClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func permanentClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	executor := NewExecutor(fastConfig())

	attempts := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("flaky")
		}
		return nil
	}, retryableClassifier)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestExecuteStopsAtMaxAttempts(t *testing.T) {
	executor := NewExecutor(fastConfig())

	attempts := 0
	boom := errors.New("always failing")
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return boom
	}, retryableClassifier)
	if !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want %v", err, boom)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentErrors(t *testing.T) {
	executor := NewExecutor(fastConfig())

	attempts := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errors.New("permanent")
	}, permanentClassifier)
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestNoRetryConfigIssuesSingleAttempt(t *testing.T) {
	executor := NewExecutor(NoRetryConfig())

	attempts := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errors.New("failing")
	}, retryableClassifier)
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	executor := NewExecutor(fastConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := executor.Execute(ctx, "op", func(context.Context) error {
		called = true
		return nil
	}, retryableClassifier)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if called {
		t.Fatal("callback must not run after cancellation")
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerMinRequests = 3
	cfg.BreakerFailureRatio = 0.5
	executor := NewExecutor(cfg)

	boom := errors.New("down")
	for i := 0; i < 5; i++ {
		_ = executor.Execute(context.Background(), "op", func(context.Context) error {
			return boom
		}, retryableClassifier)
	}

	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatal("callback must not run when the circuit is open")
		return nil
	}, retryableClassifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestBreakerIgnoresUnrecordedFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerMinRequests = 3
	executor := NewExecutor(cfg)

	noRecord := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	for i := 0; i < 10; i++ {
		_ = executor.Execute(context.Background(), "op", func(context.Context) error {
			return errors.New("client error")
		}, noRecord)
	}

	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		return nil
	}, noRecord)
	if err != nil {
		t.Fatalf("circuit must stay closed for unrecorded failures, got %v", err)
	}
}

func TestBreakersAreIsolatedPerOperation(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerMinRequests = 3
	executor := NewExecutor(cfg)

	for i := 0; i < 5; i++ {
		_ = executor.Execute(context.Background(), "failing-op", func(context.Context) error {
			return errors.New("down")
		}, retryableClassifier)
	}

	err := executor.Execute(context.Background(), "healthy-op", func(context.Context) error {
		return nil
	}, retryableClassifier)
	if err != nil {
		t.Fatalf("unrelated operation must not share the open circuit, got %v", err)
	}
}

func TestExecuteNilCallback(t *testing.T) {
	executor := NewExecutor(DefaultConfig())
	if err := executor.Execute(context.Background(), "op", nil, nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
}
