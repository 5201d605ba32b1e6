package hopskipjump

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/advgo/attack"
	"github.com/hupe1980/advgo/norm"
	"github.com/hupe1980/advgo/oracle"
	"github.com/hupe1980/advgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

// halfspaceOracle labels 1 above the line x0+x1 = 1 and 0 below it.
func halfspaceOracle() oracle.Oracle {
	return oracle.FromLabeler(testutil.HalfspaceLabeler([]float64{1, 1}, -1))
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		fn   func(o *Options)
	}{
		{"Zero max iter", func(o *Options) { o.MaxIter = 0 }},
		{"Negative init eval", func(o *Options) { o.InitEval = -1 }},
		{"Max eval below init eval", func(o *Options) { o.MaxEval = 10; o.InitEval = 20 }},
		{"Zero init size", func(o *Options) { o.InitSize = 0 }},
		{"Zero theta", func(o *Options) { o.Theta = 0 }},
		{"Empty clip range", func(o *Options) { o.ClipMin = 1; o.ClipMax = 1 }},
		{"Unknown norm", func(o *Options) { o.Norm = norm.Norm(99) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fn)
			require.Error(t, err)
		})
	}

	t.Run("Defaults are valid", func(t *testing.T) {
		h, err := New()
		require.NoError(t, err)
		assert.Equal(t, "HopSkipJump", h.Name())
		assert.Equal(t, DefaultMaxIter, h.Options().MaxIter)
	})
}

func TestRun_LinearBoundaryL2(t *testing.T) {
	h, err := New(func(o *Options) {
		o.MaxIter = 20
		o.MaxEval = 500
		o.InitEval = 30
		o.InitSize = 50
		o.Theta = 0.01
	})
	require.NoError(t, err)

	res, err := h.Run(context.Background(), halfspaceOracle(), []float64{0, 0}, attack.Goal{
		OriginalLabel: 0,
		Seed:          int64Ptr(42),
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.FinalLabel)
	assert.Equal(t, attack.StatusCompleted, res.Status)

	// The closest point across x0+x1=1 from the origin sits at
	// (0.5, 0.5), L2 distance 1/sqrt(2).
	assert.InDelta(t, math.Sqrt2/2, res.Distance, 0.05)
	assert.InDelta(t, res.Distance, norm.L2Distance(res.Input, res.Candidate), 1e-9)

	// The candidate really is on the adversarial side.
	label, err := oracle.One(context.Background(), halfspaceOracle(), res.Candidate)
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	assert.Greater(t, res.Queries, 0)
	assert.LessOrEqual(t, res.Queries, 500*20)
	assert.Equal(t, len(res.Trace), res.Iterations)
}

func TestRun_LinearBoundaryLInf(t *testing.T) {
	h, err := New(func(o *Options) {
		o.Norm = norm.LInf
		o.MaxIter = 25
		o.MaxEval = 800
		o.InitEval = 40
		o.InitSize = 50
		o.Theta = 0.01
	})
	require.NoError(t, err)

	res, err := h.Run(context.Background(), halfspaceOracle(), []float64{0, 0}, attack.Goal{
		OriginalLabel: 0,
		Seed:          int64Ptr(7),
	})
	require.NoError(t, err)

	require.True(t, res.Success)

	// Under LInf the cheapest crossing of x0+x1=1 perturbs both
	// coordinates equally by 0.5.
	assert.InDelta(t, 0.5, res.Distance, 0.05)
	assert.InDelta(t, res.Candidate[0], res.Candidate[1], 0.1)
}

func TestRun_TraceIsMonotone(t *testing.T) {
	h, err := New(func(o *Options) {
		o.MaxIter = 15
		o.MaxEval = 400
		o.InitEval = 25
		o.InitSize = 50
		o.Theta = 0.01
	})
	require.NoError(t, err)

	res, err := h.Run(context.Background(), halfspaceOracle(), []float64{0.1, 0}, attack.Goal{
		OriginalLabel: 0,
		Seed:          int64Ptr(3),
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotEmpty(t, res.Trace)

	for i := 1; i < len(res.Trace); i++ {
		assert.LessOrEqual(t, res.Trace[i], res.Trace[i-1])
	}

	assert.InDelta(t, res.Trace[len(res.Trace)-1], res.Distance, 1e-9)
}

func TestRun_Targeted(t *testing.T) {
	centroids := [][]float64{{0.2, 0.2}, {0.8, 0.8}}
	model := oracle.FromLabeler(testutil.NearestCentroidLabeler(centroids))

	h, err := New(func(o *Options) {
		o.Targeted = true
		o.MaxIter = 20
		o.MaxEval = 500
		o.InitEval = 30
		o.InitSize = 100
		o.Theta = 0.01
	})
	require.NoError(t, err)

	res, err := h.Run(context.Background(), model, []float64{0.2, 0.2}, attack.Goal{
		OriginalLabel: 0,
		Target:        intPtr(1),
		Seed:          int64Ptr(11),
	})
	require.NoError(t, err)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.FinalLabel)

	// The class boundary is the perpendicular bisector through
	// (0.5, 0.5); the nearest crossing from (0.2, 0.2) lies sqrt(0.18)
	// away along the diagonal.
	assert.InDelta(t, math.Sqrt(0.18), res.Distance, 0.05)
}

func TestRun_TrivialTargetRejected(t *testing.T) {
	h, err := New(func(o *Options) {
		o.Targeted = true
	})
	require.NoError(t, err)

	res, err := h.Run(context.Background(), halfspaceOracle(), []float64{0, 0}, attack.Goal{
		OriginalLabel: 0,
		Target:        intPtr(0),
	})

	var tt *attack.ErrTrivialTarget
	require.ErrorAs(t, err, &tt)
	assert.Equal(t, 0, tt.Label)

	assert.False(t, res.Success)
	assert.Equal(t, attack.StatusFailed, res.Status)
	assert.Equal(t, []float64{0, 0}, res.Candidate)
	assert.Equal(t, 0.0, res.Distance)
	assert.Equal(t, 0, res.Queries)
}

func TestRun_InitializationFailure(t *testing.T) {
	// A constant model never disagrees with the original label, so no
	// random draw can succeed.
	counting := oracle.NewCounting(oracle.FromLabeler(testutil.ConstantLabeler(7)))

	h, err := New(func(o *Options) {
		o.MaxIter = 5
		o.MaxEval = 100
		o.InitEval = 25
		o.InitSize = 60
	})
	require.NoError(t, err)

	res, err := h.Run(context.Background(), counting, []float64{0.5, 0.5}, attack.Goal{
		OriginalLabel: 7,
		Seed:          int64Ptr(1),
	})

	var initErr *attack.ErrInitializationFailed
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, 60, initErr.Attempts)

	assert.False(t, res.Success)
	assert.Equal(t, []float64{0.5, 0.5}, res.Candidate)

	// Labels were supplied, so the draws are the only queries: exactly
	// InitSize of them.
	assert.Equal(t, 60, res.Queries)
	assert.Equal(t, int64(60), counting.Queries())
}

func TestRun_BudgetExhaustedDuringInitialization(t *testing.T) {
	h, err := New(func(o *Options) {
		o.MaxIter = 1
		o.MaxEval = 25
		o.InitEval = 25
		o.InitSize = 200
	})
	require.NoError(t, err)

	res, err := h.Run(context.Background(), oracle.FromLabeler(testutil.ConstantLabeler(0)), []float64{0.5}, attack.Goal{
		OriginalLabel: 0,
		Seed:          int64Ptr(1),
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, attack.StatusBudgetExhausted, res.Status)
	assert.Equal(t, 25, res.Queries)
	assert.Equal(t, []float64{0.5}, res.Candidate)
}

func TestRun_Reproducible(t *testing.T) {
	newAttack := func() *HopSkipJump {
		h, err := New(func(o *Options) {
			o.MaxIter = 10
			o.MaxEval = 200
			o.InitEval = 20
			o.InitSize = 50
			o.Theta = 0.01
		})
		require.NoError(t, err)
		return h
	}

	goal := attack.Goal{OriginalLabel: 0, Seed: int64Ptr(1234)}

	first, err := newAttack().Run(context.Background(), halfspaceOracle(), []float64{0, 0}, goal)
	require.NoError(t, err)
	second, err := newAttack().Run(context.Background(), halfspaceOracle(), []float64{0, 0}, goal)
	require.NoError(t, err)

	assert.Equal(t, first.Candidate, second.Candidate)
	assert.Equal(t, first.Queries, second.Queries)
	assert.Equal(t, first.Distance, second.Distance)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_GoalValidation(t *testing.T) {
	t.Run("Missing target", func(t *testing.T) {
		h, err := New(func(o *Options) { o.Targeted = true })
		require.NoError(t, err)

		_, err = h.Run(context.Background(), halfspaceOracle(), []float64{0, 0}, attack.Goal{OriginalLabel: 0})
		assert.ErrorIs(t, err, attack.ErrMissingTarget)
	})

	t.Run("Unexpected target", func(t *testing.T) {
		h, err := New()
		require.NoError(t, err)

		_, err = h.Run(context.Background(), halfspaceOracle(), []float64{0, 0}, attack.Goal{OriginalLabel: 0, Target: intPtr(1)})
		assert.ErrorIs(t, err, attack.ErrUnexpectedTarget)
	})

	t.Run("Nil oracle", func(t *testing.T) {
		h, err := New()
		require.NoError(t, err)

		_, err = h.Run(context.Background(), nil, []float64{0, 0}, attack.Goal{})
		assert.ErrorIs(t, err, attack.ErrNilOracle)
	})

	t.Run("Empty sample", func(t *testing.T) {
		h, err := New()
		require.NoError(t, err)

		_, err = h.Run(context.Background(), halfspaceOracle(), nil, attack.Goal{})
		assert.ErrorIs(t, err, attack.ErrEmptySample)
	})
}

func TestRun_OracleErrorPropagates(t *testing.T) {
	boom := errors.New("model unavailable")
	failing := oracle.Func(func(ctx context.Context, batch [][]float64) ([]int, error) {
		return nil, boom
	})

	h, err := New()
	require.NoError(t, err)

	res, err := h.Run(context.Background(), failing, []float64{0, 0}, attack.Goal{
		OriginalLabel: 0,
		Seed:          int64Ptr(1),
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, attack.StatusFailed, res.Status)
	assert.False(t, res.Success)
}

func TestRun_Cancellation(t *testing.T) {
	h, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.Run(ctx, halfspaceOracle(), []float64{0, 0}, attack.Goal{
		OriginalLabel: 0,
		Seed:          int64Ptr(1),
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Success)
}
