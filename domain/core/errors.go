package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions.
// This is a closed taxonomy: every failure the engine can surface maps to
// exactly one of these sentinels. Classification ambiguity is not an error;
// it is a low-confidence result the caller resolves manually.
var (
	// Malformed input errors
	ErrMalformedInput   = errors.New("malformed input")
	ErrEmptyDataset     = fmt.Errorf("%w: dataset has no rows", ErrMalformedInput)
	ErrMissingHeaders   = fmt.Errorf("%w: dataset has no headers", ErrMalformedInput)
	ErrDuplicateHeader  = fmt.Errorf("%w: duplicate header", ErrMalformedInput)
	ErrInvalidEstimator = fmt.Errorf("%w: unknown estimator", ErrMalformedInput)
	ErrInvalidOption    = fmt.Errorf("%w: invalid analysis option", ErrMalformedInput)

	// External backend errors
	ErrBackendUnavailable = errors.New("analytics backend unavailable")
	ErrBackendRejected    = errors.New("analytics backend rejected request")

	// Persistence errors - non-fatal to the in-memory workflow
	ErrPersistence = errors.New("persistence failure")

	// Workflow errors
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrNotFound          = errors.New("resource not found")
)

// Error constructors with context
func NewDuplicateHeaderError(header string) error {
	return fmt.Errorf("%w: %q appears more than once", ErrDuplicateHeader, header)
}

func NewBackendUnavailableError(cause error) error {
	return fmt.Errorf("%w: %v (check that the statistics service is running and ANALYTICS_URL points at it, then retry)", ErrBackendUnavailable, cause)
}

func NewBackendRejectedError(diagnostic string) error {
	return fmt.Errorf("%w: %s", ErrBackendRejected, diagnostic)
}

func NewPersistenceError(op string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, cause)
}

func NewTransitionError(from, to, reason string) error {
	if from == "" {
		from = "(none)"
	}
	if to == "" {
		to = "(none)"
	}
	return fmt.Errorf("%w: cannot move from %s to %s: %s", ErrInvalidTransition, from, to, reason)
}

// Error checking helpers
func IsMalformedInput(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

func IsBackendRejected(err error) bool {
	return errors.Is(err, ErrBackendRejected)
}

func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsRetryable reports whether the caller may retry the same operation after
// fixing the environment. Backend rejections are never retried automatically.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrPersistence)
}
