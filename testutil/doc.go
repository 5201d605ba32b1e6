// Package testutil provides testing utilities for advgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seedable thread-safe random source, generators for
// attack inputs, and closed-form toy classifiers that stand in for a
// real model.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float64, 128)
//	rng.FillUniform(vec)             // uniform [0, 1)
//	probes := rng.GaussianVectors(64, 128)
//
// # Toy Classifiers
//
//	label := testutil.HalfspaceLabeler([]float64{1, 1}, -1)
//	label([]float64{0, 0}) // 0, below the line x0+x1=1
//	label([]float64{1, 1}) // 1, above it
package testutil
