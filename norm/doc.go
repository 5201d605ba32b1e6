// Package norm provides the perturbation metrics used by decision-based
// attacks.
//
// # Supported Norms
//
//   - L2: Euclidean distance (default)
//   - LInf: Chebyshev (max absolute difference) distance
//
// Beyond plain distances the package carries the geometric operations an
// attack performs under a given norm: blending a candidate toward the
// original point and clamping perturbations into the valid input range.
//
// # Usage
//
//	dist := norm.L2Distance(a, b)
//	mid := norm.Interpolate(norm.L2, original, candidate, 0.5)
package norm
