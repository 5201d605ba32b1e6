package hopskipjump

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/advgo/attack"
	"github.com/hupe1980/advgo/internal/floats"
	"github.com/hupe1980/advgo/norm"
	"github.com/hupe1980/advgo/oracle"
)

const (
	// DefaultMaxIter is the default number of search iterations.
	DefaultMaxIter = 50

	// DefaultMaxEval is the default ceiling on probes per direction
	// estimate, and MaxEval*MaxIter is the per-sample query budget.
	DefaultMaxEval = 10000

	// DefaultInitEval is the default probe count of the first direction
	// estimate; later iterations grow from it.
	DefaultInitEval = 100

	// DefaultInitSize is the default number of random draws allowed when
	// searching for an adversarial starting point.
	DefaultInitSize = 100

	// DefaultTheta is the default boundary precision knob. The working
	// precision is Theta scaled down by the sample's dimensionality, so
	// the default suits high-dimensional inputs; lower it for toy
	// dimensions.
	DefaultTheta = 1.0
)

// Compile-time check
var _ attack.Attack = (*HopSkipJump)(nil)

// Options represents the options for configuring HopSkipJump.
type Options struct {
	// Targeted makes the attack search for a specific label instead of
	// any label change. Goals must then carry a target.
	Targeted bool

	// Norm is the perturbation metric to minimize.
	Norm norm.Norm

	// MaxIter is the iteration budget per sample.
	MaxIter int

	// MaxEval caps the probe count of a single direction estimate.
	MaxEval int

	// InitEval is the probe count of the first direction estimate and
	// the oracle batch size used while drawing starting points.
	InitEval int

	// InitSize is the maximum number of random draws when searching for
	// an adversarial starting point.
	InitSize int

	// Theta is the boundary precision knob, normalized internally by
	// the sample's dimensionality.
	Theta float64

	// ClipMin and ClipMax bound the valid input range, used for random
	// starting points and for clipping every probe and step.
	ClipMin float64
	ClipMax float64

	// RandomSeed seeds runs whose goal carries no seed of its own.
	// Nil means self-seeding, non-reproducible runs.
	RandomSeed *int64
}

var DefaultOptions = Options{
	Norm:     norm.L2,
	MaxIter:  DefaultMaxIter,
	MaxEval:  DefaultMaxEval,
	InitEval: DefaultInitEval,
	InitSize: DefaultInitSize,
	Theta:    DefaultTheta,
	ClipMin:  0,
	ClipMax:  1,
}

// HopSkipJump holds the attack configuration. It carries no per-run
// state; Run calls may share one instance concurrently.
type HopSkipJump struct {
	opts   Options
	distFn norm.Func
}

// New creates a new HopSkipJump instance.
func New(optFns ...func(o *Options)) (*HopSkipJump, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxIter <= 0 {
		return nil, fmt.Errorf("max iter must be positive, got %d", opts.MaxIter)
	}
	if opts.InitEval <= 0 {
		return nil, fmt.Errorf("init eval must be positive, got %d", opts.InitEval)
	}
	if opts.MaxEval < opts.InitEval {
		return nil, fmt.Errorf("max eval (%d) must be at least init eval (%d)", opts.MaxEval, opts.InitEval)
	}
	if opts.InitSize <= 0 {
		return nil, fmt.Errorf("init size must be positive, got %d", opts.InitSize)
	}
	if opts.Theta <= 0 {
		return nil, fmt.Errorf("theta must be positive, got %v", opts.Theta)
	}
	if opts.ClipMax <= opts.ClipMin {
		return nil, fmt.Errorf("clip range [%v, %v] is empty", opts.ClipMin, opts.ClipMax)
	}

	distFn, err := norm.Provider(opts.Norm)
	if err != nil {
		return nil, err
	}

	return &HopSkipJump{
		opts:   opts,
		distFn: distFn,
	}, nil
}

// Name identifies the attack.
func (*HopSkipJump) Name() string { return "HopSkipJump" }

// Options returns a copy of the attack's configuration.
func (h *HopSkipJump) Options() Options { return h.opts }

// thetaFor returns the working boundary precision for dimension dim.
// The user-facing Theta shrinks with dimensionality so bisection digs
// proportionally deeper on larger inputs.
func (h *HopSkipJump) thetaFor(dim int) float64 {
	d := float64(dim)
	if h.opts.Norm == norm.LInf {
		return h.opts.Theta / (d * d)
	}

	return h.opts.Theta / (d * math.Sqrt(d))
}

// Run implements the attack.Attack interface.
func (h *HopSkipJump) Run(ctx context.Context, o oracle.Oracle, sample []float64, goal attack.Goal) (*attack.Result, error) {
	res := &attack.Result{
		Input:         sample,
		Candidate:     floats.Clone(sample),
		OriginalLabel: goal.OriginalLabel,
		FinalLabel:    goal.OriginalLabel,
		Status:        attack.StatusFailed,
	}

	fail := func(st *state, err error) (*attack.Result, error) {
		if st != nil {
			res.Queries = st.queries
			res.Iterations = len(st.trace)
			res.Trace = st.trace
		}
		res.Err = err
		res.Status = attack.StatusFailed

		return res, err
	}

	if o == nil {
		return fail(nil, attack.ErrNilOracle)
	}
	if len(sample) == 0 {
		return fail(nil, attack.ErrEmptySample)
	}
	if h.opts.Targeted && goal.Target == nil {
		return fail(nil, attack.ErrMissingTarget)
	}
	if !h.opts.Targeted && goal.Target != nil {
		return fail(nil, attack.ErrUnexpectedTarget)
	}
	if goal.Target != nil && *goal.Target == goal.OriginalLabel {
		return fail(nil, &attack.ErrTrivialTarget{Label: *goal.Target})
	}

	o = oracle.NewValidated(o)

	if goal.Seed == nil {
		goal.Seed = h.opts.RandomSeed
	}

	st := newState(goal, h.opts.MaxEval*h.opts.MaxIter)

	finish := func(status attack.Status) (*attack.Result, error) {
		res.Queries = st.queries
		res.Iterations = len(st.trace)
		res.Trace = st.trace
		res.Status = status
		if st.best != nil {
			res.Candidate = st.best
			res.FinalLabel = st.bestLabel
			res.Distance = st.dist
			res.Success = true
		}

		return res, nil
	}

	// Phase 0: find any point on the adversarial side.
	cand, _, err := h.initialize(ctx, o, st, sample, goal)
	if err != nil {
		return fail(st, err)
	}
	if cand == nil {
		// Budget ran out before a starting point turned up.
		return finish(attack.StatusBudgetExhausted)
	}

	// dCand is the distance of the latest pre-projection candidate. Step
	// acceptance compares against it: boundary projection shrinks the
	// distance, so a decayed step beats dCand long before it beats the
	// projected distance.
	dCand := h.distFn(sample, cand)

	status := attack.StatusCompleted

	for iter := 0; iter < h.opts.MaxIter; iter++ {
		st.iter = iter

		// Pull the candidate onto the boundary.
		bp, bpLabel, err := h.boundarySearch(ctx, o, st, sample, cand, goal)
		if err != nil {
			return fail(st, err)
		}

		if d := h.distFn(sample, bp); d < st.dist {
			st.best, st.bestLabel, st.dist = bp, bpLabel, d
		}
		st.trace = append(st.trace, st.dist)

		if st.exhausted() {
			status = attack.StatusBudgetExhausted
			break
		}

		dir, err := h.estimateDirection(ctx, o, st, sample, bp, goal, iter)
		if err != nil {
			return fail(st, err)
		}

		if st.exhausted() {
			status = attack.StatusBudgetExhausted
			break
		}

		moved, ok, err := h.stepFrom(ctx, o, st, sample, bp, dir, goal, iter, dCand)
		if err != nil {
			return fail(st, err)
		}
		if !ok {
			// No step both adversarial and closer; the best boundary
			// point found so far stands.
			status = attack.StatusStalled
			break
		}

		cand = moved
		dCand = h.distFn(sample, moved)

		if st.exhausted() {
			status = attack.StatusBudgetExhausted
			break
		}
	}

	return finish(status)
}

// initialize draws uniform random points over the valid range until one
// satisfies the goal, querying the oracle in batches of InitEval and
// spending at most InitSize draws. A nil point with a nil error means
// the query budget ran out mid-search.
func (h *HopSkipJump) initialize(ctx context.Context, o oracle.Oracle, st *state, sample []float64, goal attack.Goal) ([]float64, int, error) {
	dim := len(sample)
	span := h.opts.ClipMax - h.opts.ClipMin
	drawn := 0

	for drawn < h.opts.InitSize {
		if st.exhausted() {
			return nil, 0, nil
		}

		chunk := h.opts.InitEval
		if rest := h.opts.InitSize - drawn; chunk > rest {
			chunk = rest
		}

		batch := make([][]float64, chunk)
		for i := range batch {
			v := make([]float64, dim)
			for j := range v {
				v[j] = h.opts.ClipMin + st.rng.Float64()*span
			}
			batch[i] = v
		}

		labels, err := st.predict(ctx, o, batch)
		if err != nil {
			return nil, 0, err
		}

		drawn += chunk

		for i, label := range labels {
			if goal.Satisfied(label) {
				return batch[i], label, nil
			}
		}
	}

	return nil, 0, &attack.ErrInitializationFailed{Attempts: h.opts.InitSize}
}
