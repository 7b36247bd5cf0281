// Package asyncjob provides small retryable units of work.
//
// A Job is executed once per top-level Run; retries happen inside the call
// and are invisible to the caller until they are exhausted. Jobs compose:
// a Sequence is itself a Job, so sequences can nest.
package asyncjob

import (
	"context"
	"fmt"
)

// RetryOptions governs how many additional attempts are made after an
// initial failure. MaxRetries = 0 means a single attempt.
type RetryOptions struct {
	MaxRetries int
}

// DefaultRetryOptions matches the policy used by the price-fetch pipeline.
var DefaultRetryOptions = RetryOptions{MaxRetries: 5}

func (o RetryOptions) attempts() int {
	if o.MaxRetries < 0 {
		return 1
	}
	return o.MaxRetries + 1
}

// Job is a unit of retryable work.
type Job interface {
	// Run executes the job to completion. Retries are internal; a non-nil
	// return means every permitted attempt failed (or the context ended).
	Run(ctx context.Context) error
}

// ExhaustedError reports that all permitted attempts of a job failed.
// It wraps the last underlying failure.
type ExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// Independent wraps a single zero-argument operation with automatic retry.
// The operation is re-executed in full on every attempt, so it must be
// retry-safe; that is the caller's responsibility, not enforced here.
type Independent[T any] struct {
	op     func(context.Context) (T, error)
	opts   RetryOptions
	result T
}

// NewIndependent creates a job around op with the given retry policy.
func NewIndependent[T any](op func(context.Context) (T, error), opts RetryOptions) *Independent[T] {
	return &Independent[T]{op: op, opts: opts}
}

// Run invokes the operation, retrying immediately and sequentially on
// failure until it succeeds or the policy is exhausted.
func (j *Independent[T]) Run(ctx context.Context) error {
	attempts := j.opts.attempts()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := j.op(ctx)
		if err == nil {
			j.result = result
			return nil
		}
		lastErr = err
	}

	return &ExhaustedError{Attempts: attempts, Cause: lastErr}
}

// Result returns the value produced by the successful attempt. It is only
// meaningful after Run returned nil.
func (j *Independent[T]) Result() T {
	return j.result
}

// Sequence runs an ordered list of jobs one after another, with its own
// retry envelope around the whole list. If a child exhausts its retries,
// the sequence restarts from its first job, up to MaxRetries extra passes.
type Sequence struct {
	jobs []Job
	opts RetryOptions
}

// NewSequence creates a sequence over jobs. Insertion order is execution
// order. An empty sequence succeeds trivially.
func NewSequence(jobs []Job, opts RetryOptions) *Sequence {
	return &Sequence{jobs: append([]Job(nil), jobs...), opts: opts}
}

// Len returns the number of child jobs.
func (s *Sequence) Len() int {
	return len(s.jobs)
}

// Run executes the children strictly in order; each child runs to its own
// success or exhausted-retry failure before the next one starts. The error
// returned after the last pass is the triggering child's error.
func (s *Sequence) Run(ctx context.Context) error {
	passes := s.opts.attempts()

	var lastErr error
	for pass := 0; pass < passes; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.runOnce(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return lastErr
}

func (s *Sequence) runOnce(ctx context.Context) error {
	for _, job := range s.jobs {
		if err := job.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}
