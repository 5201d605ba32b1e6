package hopskipjump

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/hupe1980/advgo/attack"
	"github.com/hupe1980/advgo/internal/floats"
	"github.com/hupe1980/advgo/norm"
	"github.com/hupe1980/advgo/oracle"
	"github.com/hupe1980/advgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalCount(t *testing.T) {
	h, err := New(func(o *Options) {
		o.InitEval = 100
		o.MaxEval = 1000
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		iter     int
		expected int
	}{
		{"First iteration", 0, 100},
		{"Fourth iteration", 3, 200},
		{"Capped at max eval", 1000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, h.evalCount(tt.iter))
		})
	}
}

func TestProbeRadius(t *testing.T) {
	t.Run("First iteration is range-relative", func(t *testing.T) {
		h, err := New()
		require.NoError(t, err)

		assert.InDelta(t, 0.1, h.probeRadius(0, 8, 123.0), 1e-12)
	})

	t.Run("L2 tracks distance", func(t *testing.T) {
		h, err := New(func(o *Options) { o.Theta = 1 })
		require.NoError(t, err)

		// sqrt(d) * theta/(d*sqrt(d)) * dist = dist/d.
		assert.InDelta(t, 0.5, h.probeRadius(1, 4, 2.0), 1e-12)
	})

	t.Run("LInf tracks distance", func(t *testing.T) {
		h, err := New(func(o *Options) {
			o.Norm = norm.LInf
			o.Theta = 1
		})
		require.NoError(t, err)

		// d * theta/d^2 * dist = dist/d.
		assert.InDelta(t, 0.5, h.probeRadius(1, 4, 2.0), 1e-12)
	})
}

func TestEstimateDirection_PointsAcrossBoundary(t *testing.T) {
	h, err := New(func(o *Options) {
		o.InitEval = 500
		o.MaxEval = 1000
	})
	require.NoError(t, err)

	goal := attack.Goal{OriginalLabel: 0}
	st := newState(goal, 1<<20)
	st.rng = rand.New(rand.NewSource(5))

	sample := []float64{0, 0}
	center := []float64{0.5, 0.5}

	dir, err := h.estimateDirection(context.Background(), halfspaceOracle(), st, sample, center, goal, 0)
	require.NoError(t, err)

	assert.InDelta(t, 1, floats.Norm(dir), 1e-9)

	// The true boundary normal is (1, 1)/sqrt(2); a 500-probe estimate
	// on a linear boundary lines up closely.
	want := []float64{math.Sqrt2 / 2, math.Sqrt2 / 2}
	assert.Greater(t, floats.Dot(dir, want), 0.7)

	assert.Equal(t, 500, st.queries)
}

func TestEstimateDirection_UnanimousFallsBackOutward(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	goal := attack.Goal{OriginalLabel: 0}
	st := newState(goal, 1<<20)
	st.rng = rand.New(rand.NewSource(9))

	// Every probe satisfies the goal, so the probes carry no contrast.
	unanimous := oracle.FromLabeler(testutil.ConstantLabeler(1))

	sample := []float64{0.5, 0.5}
	center := []float64{0.6, 0.8}

	dir, err := h.estimateDirection(context.Background(), unanimous, st, sample, center, goal, 0)
	require.NoError(t, err)

	// Fallback is the normalized outward direction center-sample.
	n := math.Sqrt(0.1)
	assert.InDelta(t, 0.1/n, dir[0], 1e-9)
	assert.InDelta(t, 0.3/n, dir[1], 1e-9)
}

func TestEstimateDirection_CollapsedCandidate(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	goal := attack.Goal{OriginalLabel: 0}
	st := newState(goal, 1<<20)
	st.rng = rand.New(rand.NewSource(9))

	unanimous := oracle.FromLabeler(testutil.ConstantLabeler(1))

	// Center equals the sample, so no outward direction exists.
	point := []float64{0.5, 0.5}

	_, err = h.estimateDirection(context.Background(), unanimous, st, point, point, goal, 0)

	var iv *attack.ErrInvariantViolation
	require.ErrorAs(t, err, &iv)
}

func TestSamplePerturbation(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	t.Run("L2 is unit length", func(t *testing.T) {
		h, err := New()
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			p := h.samplePerturbation(rng, 16)
			assert.InDelta(t, 1, floats.Norm(p), 1e-9)
		}
	})

	t.Run("LInf has uniform magnitudes", func(t *testing.T) {
		h, err := New(func(o *Options) { o.Norm = norm.LInf })
		require.NoError(t, err)

		p := h.samplePerturbation(rng, 16)
		assert.InDelta(t, 1, floats.Norm(p), 1e-9)

		want := 1 / math.Sqrt(16)
		for _, v := range p {
			assert.InDelta(t, want, math.Abs(v), 1e-9)
		}
	})
}
