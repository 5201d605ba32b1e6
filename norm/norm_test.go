package norm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL2Distance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Simple", []float64{0, 0}, []float64{3, 4}, 5},
		{"Identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"Unit diagonal", []float64{0, 0}, []float64{1, 1}, math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := L2Distance(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestLInfDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Simple", []float64{0, 0, 0}, []float64{0.1, -0.7, 0.3}, 0.7},
		{"Identical", []float64{1, 2}, []float64{1, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LInfDistance(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		expected Norm
		wantErr  bool
	}{
		{"l2", L2, false},
		{"L2", L2, false},
		{"linf", LInf, false},
		{"inf", LInf, false},
		{"l1", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTextRoundTrip(t *testing.T) {
	for _, n := range []Norm{L2, LInf} {
		text, err := n.MarshalText()
		require.NoError(t, err)

		var back Norm
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, n, back)
	}
}

func TestProvider(t *testing.T) {
	t.Run("L2", func(t *testing.T) {
		fn, err := Provider(L2)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, fn([]float64{0, 0}, []float64{3, 4}), 1e-12)
	})

	t.Run("LInf", func(t *testing.T) {
		fn, err := Provider(LInf)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, fn([]float64{0, 0}, []float64{3, 4}), 1e-12)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := Provider(Norm(99))
		require.Error(t, err)
	})
}

func TestInterpolate(t *testing.T) {
	t.Run("L2 straight line", func(t *testing.T) {
		original := []float64{0, 0}
		candidate := []float64{2, 4}

		mid := Interpolate(L2, original, candidate, 0.5)
		assert.Equal(t, []float64{1, 2}, mid)

		assert.Equal(t, original, Interpolate(L2, original, candidate, 0))
		assert.Equal(t, candidate, Interpolate(L2, original, candidate, 1))
	})

	t.Run("LInf box clamp", func(t *testing.T) {
		original := []float64{0, 0, 0}
		candidate := []float64{0.05, -0.8, 0.3}

		out := Interpolate(LInf, original, candidate, 0.1)
		assert.InDelta(t, 0.05, out[0], 1e-12) // inside the box, untouched
		assert.InDelta(t, -0.1, out[1], 1e-12)
		assert.InDelta(t, 0.1, out[2], 1e-12)
	})

	t.Run("LInf zero radius collapses onto original", func(t *testing.T) {
		original := []float64{0.4, 0.6}
		candidate := []float64{1, 0}

		out := Interpolate(LInf, original, candidate, 0)
		assert.Equal(t, original, out)
	})

	t.Run("Inputs stay untouched", func(t *testing.T) {
		original := []float64{0, 0}
		candidate := []float64{1, 1}
		_ = Interpolate(L2, original, candidate, 0.5)
		_ = Interpolate(LInf, original, candidate, 0.5)
		assert.Equal(t, []float64{0, 0}, original)
		assert.Equal(t, []float64{1, 1}, candidate)
	})
}
