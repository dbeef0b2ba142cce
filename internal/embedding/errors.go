package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for embedding operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTransient marks failures worth retrying with backoff: timeouts,
	// rate limits, 5xx-class provider errors.
	ErrTransient = errors.New("transient embedding failure")

	// ErrTokenLimit marks a per-request token ceiling rejection. Not
	// retried as-is: the batcher halves the batch until it fits or a
	// single chunk remains.
	ErrTokenLimit = errors.New("embedding token limit exceeded")

	// ErrFatal marks failures retrying cannot fix: bad credentials,
	// exhausted quota. Surfaced urgently; the job fails.
	ErrFatal = errors.New("fatal embedding failure")
)

// classify wraps a provider error with the matching sentinel. Providers
// do not share an error taxonomy, so this falls back to message sniffing;
// unknown errors default to transient so a flaky provider gets its
// retries before the batch is written off.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrFatal) || errors.Is(err, ErrTokenLimit) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "api key", "unauthorized", "forbidden", "invalid authentication",
		"billing", "quota", "account", "401", "403"):
		return fmt.Errorf("%w: %v", ErrFatal, err)
	case containsAny(msg, "maximum context length", "token limit", "too many tokens",
		"input is too long", "request too large"):
		return fmt.Errorf("%w: %v", ErrTokenLimit, err)
	case containsAny(msg, "rate limit", "429", "timeout", "deadline", "overloaded",
		"unavailable", "500", "502", "503", "504", "connection refused", "connection reset"):
		return fmt.Errorf("%w: %v", ErrTransient, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
