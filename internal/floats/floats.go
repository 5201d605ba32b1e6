// Package floats provides float64 vector kernels shared by the attack
// packages. This is an internal package - external users should use the
// norm package.
package floats

import "math"

// Dot calculates the dot product of two vectors.
func Dot(a, b []float64) float64 {
	var ret float64
	for i := range a {
		ret += a[i] * b[i]
	}

	return ret
}

// SquaredL2 calculates the squared L2 distance.
func SquaredL2(a, b []float64) float64 {
	var distance float64
	for i := range a {
		d := a[i] - b[i]
		distance += d * d
	}

	return distance
}

// Norm calculates the Euclidean length of a.
func Norm(a []float64) float64 {
	var sum float64
	for _, v := range a {
		sum += v * v
	}

	return math.Sqrt(sum)
}

// MaxAbsDiff calculates the Chebyshev (max absolute difference) distance.
func MaxAbsDiff(a, b []float64) float64 {
	var ret float64
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > ret {
			ret = d
		}
	}

	return ret
}

// ScaleInPlace multiplies all elements of a by scalar.
func ScaleInPlace(a []float64, scalar float64) {
	for i := range a {
		a[i] *= scalar
	}
}

// AddScaledInPlace adds scalar*b to a, element-wise. Slices must have
// equal length.
func AddScaledInPlace(a []float64, scalar float64, b []float64) {
	for i := range a {
		a[i] += scalar * b[i]
	}
}

// Lerp returns a + t*(b-a) as a fresh slice.
func Lerp(a, b []float64, t float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + t*(b[i]-a[i])
	}

	return out
}

// ClampInPlace restricts every element of a to [lo, hi].
func ClampInPlace(a []float64, lo, hi float64) {
	for i := range a {
		switch {
		case a[i] < lo:
			a[i] = lo
		case a[i] > hi:
			a[i] = hi
		}
	}
}

// NormalizeInPlace scales a to unit Euclidean length. It reports false
// and leaves a untouched when the input has zero length.
func NormalizeInPlace(a []float64) bool {
	n := Norm(a)
	if n == 0 {
		return false
	}

	ScaleInPlace(a, 1/n)

	return true
}

// Sub returns a-b as a fresh slice.
func Sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}

	return out
}

// Clone returns a copy of a.
func Clone(a []float64) []float64 {
	out := make([]float64, len(a))
	copy(out, a)

	return out
}
