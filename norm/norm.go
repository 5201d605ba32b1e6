package norm

import (
	"fmt"
	"math"

	"github.com/hupe1980/advgo/internal/floats"
)

// Norm identifies the perturbation metric an attack minimizes.
type Norm int

const (
	L2 Norm = iota
	LInf
)

func (n Norm) String() string {
	switch n {
	case L2:
		return "L2"
	case LInf:
		return "LInf"
	default:
		return fmt.Sprintf("Unknown(%d)", int(n))
	}
}

// Parse converts a textual norm name ("l2", "linf") into a Norm.
func Parse(s string) (Norm, error) {
	switch s {
	case "l2", "L2":
		return L2, nil
	case "linf", "LInf", "Linf", "inf":
		return LInf, nil
	default:
		return 0, fmt.Errorf("unsupported norm: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler so norms round-trip
// through YAML and JSON configuration.
func (n Norm) MarshalText() ([]byte, error) {
	switch n {
	case L2:
		return []byte("l2"), nil
	case LInf:
		return []byte("linf"), nil
	default:
		return nil, fmt.Errorf("unsupported norm: %d", int(n))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Norm) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*n = parsed

	return nil
}

// L2Distance calculates the Euclidean distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func L2Distance(a, b []float64) float64 {
	return math.Sqrt(floats.SquaredL2(a, b))
}

// LInfDistance calculates the Chebyshev distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func LInfDistance(a, b []float64) float64 {
	return floats.MaxAbsDiff(a, b)
}

// Func is a function type for distance calculation.
type Func func(a, b []float64) float64

// Provider returns the distance function for the given norm.
func Provider(n Norm) (Func, error) {
	switch n {
	case L2:
		return L2Distance, nil
	case LInf:
		return LInfDistance, nil
	default:
		return nil, fmt.Errorf("unsupported norm: %v", n)
	}
}

// Interpolate blends candidate toward original according to the norm's
// geometry and returns a fresh slice. Under L2 the blend is the straight
// line original + t*(candidate-original) with t in [0,1]. Under LInf each
// coordinate of the candidate is clamped into the box of radius t around
// the original, which keeps untouched coordinates untouched and shrinks
// only the ones exceeding the radius.
func Interpolate(n Norm, original, candidate []float64, t float64) []float64 {
	switch n {
	case LInf:
		out := make([]float64, len(candidate))
		for i := range candidate {
			lo, hi := original[i]-t, original[i]+t
			switch {
			case candidate[i] < lo:
				out[i] = lo
			case candidate[i] > hi:
				out[i] = hi
			default:
				out[i] = candidate[i]
			}
		}

		return out
	default:
		return floats.Lerp(original, candidate, t)
	}
}
