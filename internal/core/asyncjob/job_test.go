package asyncjob

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func failingOp(calls *int) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		*calls++
		return 0, fmt.Errorf("attempt %d failed", *calls)
	}
}

func TestIndependentAttemptCounts(t *testing.T) {
	tests := []struct {
		maxRetries int
		expect     int
	}{
		{maxRetries: 0, expect: 1},
		{maxRetries: 1, expect: 2},
		{maxRetries: 5, expect: 6},
	}

	for _, tt := range tests {
		calls := 0
		job := NewIndependent(failingOp(&calls), RetryOptions{MaxRetries: tt.maxRetries})

		err := job.Run(context.Background())
		if err == nil {
			t.Fatalf("maxRetries=%d: expected failure", tt.maxRetries)
		}
		if calls != tt.expect {
			t.Errorf("maxRetries=%d: %d attempts, want %d", tt.maxRetries, calls, tt.expect)
		}

		var exhausted *ExhaustedError
		if !errors.As(err, &exhausted) {
			t.Fatalf("maxRetries=%d: error %T, want *ExhaustedError", tt.maxRetries, err)
		}
		if exhausted.Attempts != tt.expect {
			t.Errorf("maxRetries=%d: Attempts=%d, want %d", tt.maxRetries, exhausted.Attempts, tt.expect)
		}
	}
}

func TestIndependentCarriesLastCause(t *testing.T) {
	calls := 0
	job := NewIndependent(failingOp(&calls), RetryOptions{MaxRetries: 2})

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error %T, want *ExhaustedError", err)
	}
	if exhausted.Cause.Error() != "attempt 3 failed" {
		t.Errorf("cause = %q, want last attempt's error", exhausted.Cause)
	}
}

func TestIndependentSucceedsMidway(t *testing.T) {
	tests := []struct {
		maxRetries int
		succeedOn  int
	}{
		{maxRetries: 5, succeedOn: 1},
		{maxRetries: 5, succeedOn: 3},
		{maxRetries: 2, succeedOn: 3},
	}

	for _, tt := range tests {
		calls := 0
		job := NewIndependent(func(ctx context.Context) (string, error) {
			calls++
			if calls == tt.succeedOn {
				return "done", nil
			}
			return "", errors.New("transient")
		}, RetryOptions{MaxRetries: tt.maxRetries})

		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("succeedOn=%d: unexpected error: %v", tt.succeedOn, err)
		}
		if calls != tt.succeedOn {
			t.Errorf("succeedOn=%d: %d attempts, want %d", tt.succeedOn, calls, tt.succeedOn)
		}
		if job.Result() != "done" {
			t.Errorf("Result() = %q, want %q", job.Result(), "done")
		}
	}
}

func TestIndependentStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	job := NewIndependent(failingOp(&calls), RetryOptions{MaxRetries: 5})

	err := job.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("%d attempts after cancel, want 0", calls)
	}
}

func TestSequenceRunsInOrder(t *testing.T) {
	var order []string
	mk := func(name string) Job {
		return NewIndependent(func(ctx context.Context) (struct{}, error) {
			order = append(order, name)
			return struct{}{}, nil
		}, RetryOptions{})
	}

	seq := NewSequence([]Job{mk("a"), mk("b"), mk("c")}, RetryOptions{})
	if err := seq.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ran %v, want %v", order, want)
		}
	}
}

func TestSequenceRetriesWholeSequence(t *testing.T) {
	var order []string

	first := NewIndependent(func(ctx context.Context) (struct{}, error) {
		order = append(order, "first")
		return struct{}{}, nil
	}, RetryOptions{})

	second := NewIndependent(func(ctx context.Context) (struct{}, error) {
		order = append(order, "second")
		return struct{}{}, errors.New("always fails")
	}, RetryOptions{MaxRetries: 1})

	seq := NewSequence([]Job{first, second}, RetryOptions{MaxRetries: 1})

	err := seq.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}

	// Two full passes: first runs twice, and each pass makes the second
	// child's own 2 attempts.
	want := []string{"first", "second", "second", "first", "second", "second"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ran %v, want %v", order, want)
		}
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error %T, want the triggering child's *ExhaustedError", err)
	}
}

func TestEmptySequenceSucceeds(t *testing.T) {
	seq := NewSequence(nil, RetryOptions{MaxRetries: 3})
	if err := seq.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSequenceNesting(t *testing.T) {
	var order []string
	innerCalls := 0

	inner := NewSequence([]Job{
		NewIndependent(func(ctx context.Context) (struct{}, error) {
			innerCalls++
			order = append(order, "inner")
			if innerCalls < 2 {
				return struct{}{}, errors.New("flaky")
			}
			return struct{}{}, nil
		}, RetryOptions{}),
	}, RetryOptions{MaxRetries: 2})

	outer := NewSequence([]Job{
		NewIndependent(func(ctx context.Context) (struct{}, error) {
			order = append(order, "before")
			return struct{}{}, nil
		}, RetryOptions{}),
		inner,
		NewIndependent(func(ctx context.Context) (struct{}, error) {
			order = append(order, "after")
			return struct{}{}, nil
		}, RetryOptions{}),
	}, RetryOptions{})

	if err := outer.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The inner sequence recovers using its own retry policy without
	// restarting the outer one.
	want := []string{"before", "inner", "inner", "after"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ran %v, want %v", order, want)
		}
	}
}
