package hopskipjump

import (
	"context"
	"math"
	"math/rand"

	"github.com/hupe1980/advgo/attack"
	"github.com/hupe1980/advgo/internal/floats"
	"github.com/hupe1980/advgo/norm"
	"github.com/hupe1980/advgo/oracle"
)

// evalCount returns the probe count for the given iteration, growing
// with sqrt(iter+1) from InitEval and capped at MaxEval.
func (h *HopSkipJump) evalCount(iter int) int {
	n := int(float64(h.opts.InitEval) * math.Sqrt(float64(iter+1)))
	if n > h.opts.MaxEval {
		n = h.opts.MaxEval
	}
	if n < 1 {
		n = 1
	}

	return n
}

// probeRadius returns the perturbation radius for direction estimation.
// The first iteration probes at a fixed fraction of the input range;
// afterwards the radius tracks the candidate distance, scaled by the
// working precision and dimensionality.
func (h *HopSkipJump) probeRadius(iter, dim int, dist float64) float64 {
	if iter == 0 {
		return 0.1 * (h.opts.ClipMax - h.opts.ClipMin)
	}

	d := float64(dim)
	if h.opts.Norm == norm.LInf {
		return d * h.thetaFor(dim) * dist
	}

	return math.Sqrt(d) * h.thetaFor(dim) * dist
}

// estimateDirection estimates the boundary normal at center by labeling
// a batch of randomly perturbed probes. Probes landing adversarial pull
// the estimate toward their perturbation, the rest push away from
// theirs. The result always has unit L2 norm.
func (h *HopSkipJump) estimateDirection(ctx context.Context, o oracle.Oracle, st *state, sample, center []float64, goal attack.Goal, iter int) ([]float64, error) {
	dim := len(center)
	n := h.evalCount(iter)
	delta := h.probeRadius(iter, dim, st.dist)

	perturbs := make([][]float64, n)
	probes := make([][]float64, n)

	for i := range perturbs {
		p := h.samplePerturbation(st.rng, dim)

		probe := make([]float64, dim)
		for j := range probe {
			probe[j] = center[j] + delta*p[j]
		}
		floats.ClampInPlace(probe, h.opts.ClipMin, h.opts.ClipMax)

		// Clipping may have shortened the probe; accumulate what was
		// actually applied, not what was drawn.
		for j := range p {
			p[j] = (probe[j] - center[j]) / delta
		}

		perturbs[i] = p
		probes[i] = probe
	}

	labels, err := st.predict(ctx, o, probes)
	if err != nil {
		return nil, err
	}

	dir := make([]float64, dim)
	successes := 0

	for i, label := range labels {
		if goal.Satisfied(label) {
			successes++
			floats.AddScaledInPlace(dir, 1, perturbs[i])
		} else {
			floats.AddScaledInPlace(dir, -1, perturbs[i])
		}
	}

	// Unanimous probes carry no contrast, and exact cancellation leaves
	// nothing to normalize. Fall back to the outward direction, which is
	// the one direction guaranteed to cross the boundary.
	if successes == 0 || successes == n || !floats.NormalizeInPlace(dir) {
		fallback := floats.Sub(center, sample)
		if !floats.NormalizeInPlace(fallback) {
			return nil, &attack.ErrInvariantViolation{Reason: "candidate collapsed onto the original sample"}
		}

		return fallback, nil
	}

	return dir, nil
}

// samplePerturbation draws a unit-L2 direction: isotropic Gaussian under
// L2, Rademacher signs under LInf.
func (h *HopSkipJump) samplePerturbation(rng *rand.Rand, dim int) []float64 {
	p := make([]float64, dim)

	if h.opts.Norm == norm.LInf {
		for j := range p {
			if rng.Int63()&1 == 0 {
				p[j] = -1
			} else {
				p[j] = 1
			}
		}
	} else {
		for j := range p {
			p[j] = rng.NormFloat64()
		}
	}

	if !floats.NormalizeInPlace(p) {
		p[0] = 1 // measure-zero draw; keep the probe well-defined
	}

	return p
}
