package hopskipjump

import (
	"context"
	"math"

	"github.com/hupe1980/advgo/attack"
	"github.com/hupe1980/advgo/internal/floats"
	"github.com/hupe1980/advgo/norm"
	"github.com/hupe1980/advgo/oracle"
)

// stepFloorRatio bounds the geometric decay: once the step size falls
// below this fraction of the current distance, the search gives up on
// the iteration. Roughly 20 halvings from the initial step.
const stepFloorRatio = 1e-6

// stepFrom walks from the boundary point along the estimated direction
// with a geometrically decaying step. The first step both adversarial
// and strictly closer to the sample than prevDist wins. prevDist is the
// distance of the previous pre-projection candidate; the projected
// distance would undervalue every step, since stepping off the boundary
// moves outward before the next projection pulls back in.
//
// ok is false when the decay bottoms out without an acceptable step.
func (h *HopSkipJump) stepFrom(ctx context.Context, o oracle.Oracle, st *state, sample, from, dir []float64, goal attack.Goal, iter int, prevDist float64) ([]float64, bool, error) {
	fromDist := h.distFn(sample, from)
	eps := fromDist / math.Sqrt(float64(iter+1))
	floor := fromDist * stepFloorRatio

	for eps > floor {
		moved := h.displace(from, dir, eps)

		label, err := st.predictOne(ctx, o, moved)
		if err != nil {
			return nil, false, err
		}

		if goal.Satisfied(label) && h.distFn(sample, moved) < prevDist {
			st.lastEps = eps

			return moved, true, nil
		}

		eps /= 2
	}

	return nil, false, nil
}

// displace moves from by eps along dir and clips into the valid range.
// L2 steps along the direction vector; LInf steps a uniform eps per
// coordinate in the direction's sign, staying inside the norm ball that
// is being minimized.
func (h *HopSkipJump) displace(from, dir []float64, eps float64) []float64 {
	moved := make([]float64, len(from))

	if h.opts.Norm == norm.LInf {
		for i := range moved {
			switch {
			case dir[i] > 0:
				moved[i] = from[i] + eps
			case dir[i] < 0:
				moved[i] = from[i] - eps
			default:
				moved[i] = from[i]
			}
		}
	} else {
		for i := range moved {
			moved[i] = from[i] + eps*dir[i]
		}
	}

	floats.ClampInPlace(moved, h.opts.ClipMin, h.opts.ClipMax)

	return moved
}
