// Package oracle defines the hard-label interface between an attack and
// the model under test, plus composable adapters around it.
//
// An attack sees the model through a single capability: batched label
// prediction. No gradients, no scores. Implementations are expected to
// be deterministic for identical inputs within one run; the Cached
// adapter gives callers a way to enforce that for flaky backends.
//
// # Usage
//
//	model := oracle.FromLabeler(func(v []float64) int {
//		if v[0]+v[1] > 1 {
//			return 1
//		}
//		return 0
//	})
//
//	counted := oracle.NewCounting(model)
//	labels, err := counted.Predict(ctx, batch)
//
// Adapters compose: Chunked(RateLimited(Counting(model))) yields a
// batching, throttled, metered oracle.
package oracle
