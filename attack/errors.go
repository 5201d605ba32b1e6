package attack

import (
	"errors"
	"fmt"
)

var (
	// ErrNilOracle is returned when an attack is run without an oracle.
	ErrNilOracle = errors.New("oracle must not be nil")

	// ErrEmptySample is returned when an attack is run on a zero-length
	// sample.
	ErrEmptySample = errors.New("sample must not be empty")

	// ErrMissingTarget is returned when a targeted attack is run with a
	// goal that carries no target label.
	ErrMissingTarget = errors.New("targeted attack requires a target label")

	// ErrUnexpectedTarget is returned when an untargeted attack is run
	// with a goal that carries a target label.
	ErrUnexpectedTarget = errors.New("untargeted attack cannot take a target label")
)

// ErrInitializationFailed indicates no adversarial starting point was
// found within the configured number of random draws. The attack
// recovers per sample: the result carries the unmodified input.
type ErrInitializationFailed struct {
	Attempts int // Number of random draws tried
}

// Error implements the error interface.
func (e *ErrInitializationFailed) Error() string {
	return fmt.Sprintf("initialization failed: no adversarial point in %d random draws", e.Attempts)
}

// ErrInvariantViolation indicates a search precondition no longer held,
// such as a boundary-search endpoint that stopped being adversarial.
// It aborts only the affected sample.
type ErrInvariantViolation struct {
	Reason string
}

// Error implements the error interface.
func (e *ErrInvariantViolation) Error() string {
	return fmt.Sprintf("search invariant violated: %s", e.Reason)
}

// ErrDimensionMismatch indicates a sample's dimensionality does not
// match the batch's configured dimension.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error implements the error interface.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrTrivialTarget indicates a targeted attack whose target equals the
// sample's current label. There is nothing to search for; the sample is
// rejected rather than reported as a zero-perturbation success.
type ErrTrivialTarget struct {
	Label int // The offending target label
}

// Error implements the error interface.
func (e *ErrTrivialTarget) Error() string {
	return fmt.Sprintf("trivial target: sample already classified as %d", e.Label)
}
