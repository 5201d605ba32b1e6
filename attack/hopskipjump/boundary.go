package hopskipjump

import (
	"context"
	"math"

	"github.com/hupe1980/advgo/attack"
	"github.com/hupe1980/advgo/internal/floats"
	"github.com/hupe1980/advgo/norm"
	"github.com/hupe1980/advgo/oracle"
)

// boundarySearch bisects between the sample and an adversarial outside
// point until the bracket is within the working precision, and returns
// the adversarial end of the bracket. Every returned point has been
// oracle-confirmed, either as the verified outside endpoint or as a
// midpoint probed during bisection.
//
// Under L2 the bisection parameter is the blend factor in [0, 1]; under
// LInf it is the box radius in [0, maxAbsDiff], which clamps coordinates
// toward the sample instead of blending them.
func (h *HopSkipJump) boundarySearch(ctx context.Context, o oracle.Oracle, st *state, sample, outside []float64, goal attack.Goal) ([]float64, int, error) {
	// The bisection trusts its outside endpoint; verify before narrowing.
	label, err := st.predictOne(ctx, o, outside)
	if err != nil {
		return nil, 0, err
	}
	if !goal.Satisfied(label) {
		return nil, 0, &attack.ErrInvariantViolation{Reason: "boundary search endpoint is not adversarial"}
	}

	theta := h.thetaFor(len(sample))

	var lo, hi float64
	if h.opts.Norm == norm.LInf {
		lo, hi = 0, floats.MaxAbsDiff(sample, outside)
	} else {
		lo, hi = 0, 1
	}

	hiLabel := label

	for hi-lo > h.bisectThreshold(hi, theta) {
		mid := (lo + hi) / 2
		point := norm.Interpolate(h.opts.Norm, sample, outside, mid)

		midLabel, err := st.predictOne(ctx, o, point)
		if err != nil {
			return nil, 0, err
		}

		if goal.Satisfied(midLabel) {
			hi, hiLabel = mid, midLabel
		} else {
			lo = mid
		}
	}

	return norm.Interpolate(h.opts.Norm, sample, outside, hi), hiLabel, nil
}

// bisectThreshold returns the stop width for the current bracket. LInf
// tightens with the shrinking radius so small boxes are resolved finely.
func (h *HopSkipJump) bisectThreshold(hi, theta float64) float64 {
	if h.opts.Norm == norm.LInf {
		return math.Min(hi*theta, theta)
	}

	return theta
}
