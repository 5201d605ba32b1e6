package advgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/advgo/oracle"
)

var (
	// ErrNilAttack is returned when a Generator is built without an attack.
	ErrNilAttack = errors.New("attack must not be nil")

	// ErrNoSamples is returned when a batch operation receives no samples.
	ErrNoSamples = errors.New("no samples")

	// ErrOracleViolation is returned when the oracle breaks the prediction
	// contract, for example by returning the wrong number of labels.
	ErrOracleViolation = errors.New("oracle violated the prediction contract")
)

// ErrLabelCountMismatch indicates a batch where the supplied labels do not
// line up with the samples.
type ErrLabelCountMismatch struct {
	Samples int
	Labels  int
}

func (e *ErrLabelCountMismatch) Error() string {
	return fmt.Sprintf("label count mismatch: %d samples, %d labels", e.Samples, e.Labels)
}

// ErrTargetCountMismatch indicates a targeted batch where the supplied
// targets do not line up with the samples.
type ErrTargetCountMismatch struct {
	Samples int
	Targets int
}

func (e *ErrTargetCountMismatch) Error() string {
	return fmt.Sprintf("target count mismatch: %d samples, %d targets", e.Samples, e.Targets)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var lc *oracle.ErrLabelCount
	if errors.As(err, &lc) {
		return fmt.Errorf("%w: %w", ErrOracleViolation, err)
	}

	return err
}
