// Package retry implements the bounded retry harness wrapped around every
// LLM producer that must yield structured or minimum-length content.
//
// The harness re-issues the producer unchanged on failure; variance comes
// from model nondeterminism, not prompt mutation. Validation failures and
// transient provider errors both count as failed attempts. Exhaustion is
// fatal to the run.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fluxion-eng/fluxion/core/providers"
)

const (
	// DefaultMaxAttempts bounds heavyweight structured producers.
	DefaultMaxAttempts = 10
	// LightMaxAttempts bounds lightweight producers.
	LightMaxAttempts = 3
)

// ErrExhausted is returned when a producer failed on every attempt.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Attempt records the outcome of a single producer invocation.
type Attempt struct {
	Number int           `json:"number"`
	Err    string        `json:"error,omitempty"`
	Took   time.Duration `json:"took"`
}

// Harness drives a producer/validator pair up to MaxAttempts times.
type Harness struct {
	MaxAttempts int
	// Delay inserted between attempts (exponential growth, capped).
	Delay    time.Duration
	MaxDelay time.Duration
	Logger   *slog.Logger
}

// New returns a harness with the default attempt bound.
func New() *Harness {
	return &Harness{MaxAttempts: DefaultMaxAttempts, Delay: time.Second, MaxDelay: 30 * time.Second}
}

// Light returns a harness for lightweight producers.
func Light() *Harness {
	return &Harness{MaxAttempts: LightMaxAttempts, Delay: time.Second, MaxDelay: 30 * time.Second}
}

func (h *Harness) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Harness) attempts() int {
	if h.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return h.MaxAttempts
}

// Result carries the produced reply plus the attempt log.
type Result struct {
	Reply    *providers.Reply
	Attempts []Attempt
}

// Failed returns the number of failed attempts preceding success.
func (r *Result) Failed() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Err != "" {
			n++
		}
	}
	return n
}

// Do invokes produce until validate accepts the reply or attempts run out.
// A PermanentError from the producer aborts immediately. On exhaustion the
// returned error wraps ErrExhausted and the last failure reason.
func (h *Harness) Do(
	ctx context.Context,
	name string,
	produce func(ctx context.Context) (*providers.Reply, error),
	validate func(reply *providers.Reply) error,
) (*Result, error) {
	result := &Result{}
	max := h.attempts()
	var lastErr error

	for attempt := 1; attempt <= max; attempt++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start := time.Now()
		reply, err := produce(ctx)
		if err == nil && validate != nil {
			err = validate(reply)
		}
		took := time.Since(start)

		rec := Attempt{Number: attempt, Took: took}
		if err != nil {
			rec.Err = err.Error()
		}
		result.Attempts = append(result.Attempts, rec)

		if err == nil {
			result.Reply = reply
			return result, nil
		}

		lastErr = err
		if providers.IsPermanent(err) {
			h.logger().Error("producer failed permanently",
				"producer", name, "attempt", attempt, "error", err)
			return result, err
		}
		h.logger().Warn("producer attempt failed",
			"producer", name, "attempt", attempt, "max_attempts", max, "error", err)

		if attempt < max && h.Delay > 0 {
			select {
			case <-time.After(h.backoff(attempt)):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	return result, fmt.Errorf("%w: %s after %d attempts: %w", ErrExhausted, name, max, lastErr)
}

// backoff computes min(Delay << (attempt-1), MaxDelay).
func (h *Harness) backoff(attempt int) time.Duration {
	d := h.Delay << (attempt - 1)
	if h.MaxDelay > 0 && (d > h.MaxDelay || d <= 0) {
		return h.MaxDelay
	}
	return d
}
