package artifact

import (
	"github.com/hupe1980/advgo/attack"
	"github.com/hupe1980/advgo/eval"
)

// Snapshot bundles a batch report with the raw vectors behind it. The
// report alone is enough for statistics; the vectors make a run auditable
// and let the adversarial examples be replayed against a model.
type Snapshot struct {
	Report  *eval.Report    `json:"report"`
	Vectors []SampleVectors `json:"vectors"`
}

// SampleVectors carries one sample's unmodified input and the adversarial
// candidate found for it.
type SampleVectors struct {
	Index     int       `json:"index"`
	Input     []float64 `json:"input"`
	Candidate []float64 `json:"candidate"`

	// Trace holds the candidate distance after each completed iteration.
	Trace []float64 `json:"trace,omitempty"`
}

// NewSnapshot aggregates a finished batch into a saveable snapshot.
func NewSnapshot(attackName string, results []*attack.Result) *Snapshot {
	snap := &Snapshot{
		Report: eval.NewReport(attackName, results),
	}

	for _, res := range results {
		if res == nil {
			continue
		}

		snap.Vectors = append(snap.Vectors, SampleVectors{
			Index:     res.Index,
			Input:     res.Input,
			Candidate: res.Candidate,
			Trace:     res.Trace,
		})
	}

	return snap
}
