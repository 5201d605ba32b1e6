package oracle

import (
	"context"
	"fmt"
)

// Oracle is the only view an attack has of the model under test: batched
// hard-label prediction. Implementations must return exactly one label
// per input vector, in input order.
type Oracle interface {
	Predict(ctx context.Context, batch [][]float64) ([]int, error)
}

// Func adapts an ordinary function to the Oracle interface.
type Func func(ctx context.Context, batch [][]float64) ([]int, error)

// Predict implements the Oracle interface.
func (f Func) Predict(ctx context.Context, batch [][]float64) ([]int, error) {
	return f(ctx, batch)
}

// FromLabeler lifts a pointwise labeler into an Oracle. The labeler is
// called once per vector; cancellation is checked between vectors.
func FromLabeler(label func([]float64) int) Oracle {
	return Func(func(ctx context.Context, batch [][]float64) ([]int, error) {
		labels := make([]int, len(batch))
		for i, v := range batch {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			labels[i] = label(v)
		}

		return labels, nil
	})
}

// One queries the label of a single vector.
func One(ctx context.Context, o Oracle, v []float64) (int, error) {
	labels, err := o.Predict(ctx, [][]float64{v})
	if err != nil {
		return 0, err
	}

	if len(labels) != 1 {
		return 0, &ErrLabelCount{Want: 1, Got: len(labels)}
	}

	return labels[0], nil
}

// ErrLabelCount indicates an Oracle implementation returned a label
// slice whose length does not match the batch it was given.
type ErrLabelCount struct {
	Want int // Expected number of labels
	Got  int // Actual number of labels
}

// Error implements the error interface.
func (e *ErrLabelCount) Error() string {
	return fmt.Sprintf("oracle returned %d labels for a batch of %d", e.Got, e.Want)
}

// Validated wraps an Oracle and rejects responses whose label count does
// not match the batch, turning a silent contract breach into an error.
type Validated struct {
	inner Oracle
}

// Compile-time check
var _ Oracle = (*Validated)(nil)

// NewValidated creates a new Validated oracle.
func NewValidated(inner Oracle) *Validated {
	return &Validated{inner: inner}
}

// Predict implements the Oracle interface.
func (v *Validated) Predict(ctx context.Context, batch [][]float64) ([]int, error) {
	labels, err := v.inner.Predict(ctx, batch)
	if err != nil {
		return nil, err
	}

	if len(labels) != len(batch) {
		return nil, &ErrLabelCount{Want: len(batch), Got: len(labels)}
	}

	return labels, nil
}
