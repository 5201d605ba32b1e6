package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float64 in a loop).
func (r *RNG) FillUniform(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float64()
	}
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float64, minVal, maxVal float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float64()*span
	}
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		vectors[i] = vec
	}

	return vectors
}

// GaussianVectors generates random vectors with values from a standard
// normal distribution.
func (r *RNG) GaussianVectors(num int, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.NormFloat64()
		}
		vectors[i] = vec
	}

	return vectors
}

// RademacherVectors generates random vectors whose coordinates are
// drawn uniformly from {-1, +1}.
func (r *RNG) RademacherVectors(num int, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			if r.rand.Int63()&1 == 0 {
				vec[j] = -1
			} else {
				vec[j] = 1
			}
		}
		vectors[i] = vec
	}

	return vectors
}

// UnitVector generates a single L2-normalized random vector.
// Uses Gaussian draws for uniform distribution on the hypersphere.
func (r *RNG) UnitVector(dimensions int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vec := make([]float64, dimensions)
	var norm float64
	for j := range vec {
		v := r.rand.NormFloat64()
		vec[j] = v
		norm += v * v
	}

	if norm == 0 {
		norm = 1 // Avoid division by zero, though unlikely with floats
	}

	invNorm := 1.0 / math.Sqrt(norm)
	for j := range vec {
		vec[j] *= invNorm
	}
	return vec
}

// LabeledClusters generates a toy classification dataset: num vectors
// spread over the given centroids with Gaussian noise, labeled by the
// index of their centroid. Useful together with NearestCentroidLabeler
// as a self-consistent model plus dataset.
func (r *RNG) LabeledClusters(num int, centroids [][]float64, spread float64) ([][]float64, []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dim := len(centroids[0])
	data := make([]float64, num*dim)
	vectors := make([][]float64, num)
	labels := make([]int, num)

	for i := range num {
		c := i % len(centroids)
		vec := data[i*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = centroids[c][j] + r.rand.NormFloat64()*spread
		}
		vectors[i] = vec
		labels[i] = c
	}

	return vectors, labels
}

// HalfspaceLabeler returns a pointwise two-class labeler that reports 1
// when dot(weights, v)+bias > 0 and 0 otherwise. The decision boundary
// is the hyperplane dot(weights, v) = -bias.
func HalfspaceLabeler(weights []float64, bias float64) func([]float64) int {
	return func(v []float64) int {
		var sum float64
		for i := range weights {
			sum += weights[i] * v[i]
		}
		if sum+bias > 0 {
			return 1
		}
		return 0
	}
}

// ConstantLabeler returns a pointwise labeler that reports the same
// label for every input. A model like this has no decision boundary,
// so initialization against it can never succeed.
func ConstantLabeler(label int) func([]float64) int {
	return func([]float64) int {
		return label
	}
}

// NearestCentroidLabeler returns a pointwise labeler that reports the
// index of the closest centroid under squared L2.
func NearestCentroidLabeler(centroids [][]float64) func([]float64) int {
	return func(v []float64) int {
		best := 0
		bestDist := math.Inf(1)
		for c, centroid := range centroids {
			var d float64
			for i := range centroid {
				diff := centroid[i] - v[i]
				d += diff * diff
			}
			if d < bestDist {
				bestDist = d
				best = c
			}
		}
		return best
	}
}
