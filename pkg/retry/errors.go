package retry

import (
	"fmt"

	"github.com/rohmanhakim/seo-crawler/pkg/failure"
)

type RetryErrorCause string

const (
	ErrZeroAttempt       = "zero attempt"
	ErrExhaustedAttempts = "exhausted attempt"
)

type RetryError struct {
	Message   string
	Retryable bool
	Cause     RetryErrorCause
	// LastErr is the error returned by the final attempt, preserved so
	// callers can errors.As/errors.Is through the retry wrapper down to
	// the original cause (e.g. a *fetcher.FetchError).
	LastErr error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry error: %s, %s", e.Cause, e.Message)
}

// Unwrap exposes the last underlying error so errors.As/errors.Is can walk
// through an exhausted-retry result to the original failure.
func (e *RetryError) Unwrap() error {
	return e.LastErr
}

func (e *RetryError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *RetryError) IsRetryable() bool {
	return e.Retryable
}

// Is allows errors.Is to match RetryError types
func (e *RetryError) Is(target error) bool {
	_, ok := target.(*RetryError)
	return ok
}
