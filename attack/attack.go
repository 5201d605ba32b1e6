package attack

import (
	"context"
	"fmt"

	"github.com/hupe1980/advgo/oracle"
)

// Goal describes what counts as success for one sample's attack.
type Goal struct {
	// OriginalLabel is the label the model assigns to the unmodified
	// sample. The attack trusts the caller to have resolved it.
	OriginalLabel int

	// Target, when non-nil, makes the attack targeted: success means the
	// model assigns exactly this label. When nil, success means any
	// label other than OriginalLabel.
	Target *int

	// Seed, when non-nil, seeds the sample's private random source so
	// the run is reproducible. When nil, the attack self-seeds.
	Seed *int64
}

// Satisfied reports whether a predicted label meets the goal.
func (g Goal) Satisfied(label int) bool {
	if g.Target != nil {
		return label == *g.Target
	}

	return label != g.OriginalLabel
}

// Status describes how a sample's search ended.
type Status int

const (
	// StatusCompleted means the search ran its full iteration budget.
	StatusCompleted Status = iota

	// StatusBudgetExhausted means the query budget ran out; the result
	// holds the best candidate found before that.
	StatusBudgetExhausted

	// StatusStalled means the step controller found no improving step
	// and the search stopped early with the best candidate so far.
	StatusStalled

	// StatusFailed means the sample's attack hit an error; see Result.Err.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "Completed"
	case StatusBudgetExhausted:
		return "BudgetExhausted"
	case StatusStalled:
		return "Stalled"
	case StatusFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Result holds the outcome of one sample's attack.
type Result struct {
	// Index is the sample's position in the submitted batch.
	Index int

	// Input is the unmodified sample.
	Input []float64

	// Candidate is the best adversarial point found. When Success is
	// false it equals Input.
	Candidate []float64

	// OriginalLabel is the model's label for Input.
	OriginalLabel int

	// FinalLabel is the model's label for Candidate. Equals
	// OriginalLabel when no adversarial point was found.
	FinalLabel int

	// Success reports whether Candidate is oracle-confirmed adversarial.
	Success bool

	// Distance is the perturbation size under the attack's norm.
	// Meaningful only when Success is true.
	Distance float64

	// Queries is the number of oracle queries this sample consumed.
	Queries int

	// Iterations is the number of completed search iterations.
	Iterations int

	// Trace holds the candidate distance after each completed iteration.
	// It is non-increasing.
	Trace []float64

	// Status describes how the search ended.
	Status Status

	// Err carries the sample's error when Status is StatusFailed.
	Err error
}

// Attack is a decision-based attack on a single sample. Implementations
// must be safe for concurrent Run calls.
type Attack interface {
	// Name identifies the attack in logs and reports.
	Name() string

	// Run searches for an adversarial example for sample. It always
	// returns a usable Result; a non-nil error means the sample failed
	// (the same error is recorded in Result.Err) and never concerns
	// other samples of a batch.
	Run(ctx context.Context, o oracle.Oracle, sample []float64, goal Goal) (*Result, error)
}
