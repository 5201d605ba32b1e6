// Package attack provides the shared contracts for decision-based
// adversarial attacks: the Attack interface, per-sample goals and
// results, and the error types all implementations raise.
//
// Concrete attacks live in subpackages (currently attack/hopskipjump).
// The root advgo package wraps an Attack with batching, concurrency
// limits, logging and metrics.
package attack
