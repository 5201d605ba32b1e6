// Package eval aggregates batches of attack results into robustness
// reports: success rates, perturbation-size statistics, query totals and
// bitmap slices over the batch for ad-hoc analysis.
package eval

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/advgo/attack"
)

// Record is the serializable outcome of a single sample. It carries
// everything from attack.Result except the raw vectors, which artifact
// snapshots store separately.
type Record struct {
	Index         int     `json:"index"`
	OriginalLabel int     `json:"original_label"`
	FinalLabel    int     `json:"final_label"`
	Success       bool    `json:"success"`
	Status        string  `json:"status"`
	Distance      float64 `json:"distance"`
	Queries       int     `json:"queries"`
	Iterations    int     `json:"iterations"`
	Error         string  `json:"error,omitempty"`
}

// Report is the aggregated, JSON-marshalable view of a finished batch.
//
// Distance statistics cover successful samples only, since Distance is
// meaningless without an oracle-confirmed candidate. Query statistics
// cover the whole batch, failed samples included.
type Report struct {
	RunID     uuid.UUID `json:"run_id"`
	Attack    string    `json:"attack"`
	CreatedAt time.Time `json:"created_at"`

	Samples     int     `json:"samples"`
	Succeeded   int     `json:"succeeded"`
	Errored     int     `json:"errored"`
	SuccessRate float64 `json:"success_rate"`

	MeanDistance   float64 `json:"mean_distance"`
	MedianDistance float64 `json:"median_distance"`
	TotalQueries   int     `json:"total_queries"`
	MeanQueries    float64 `json:"mean_queries"`

	Records []Record `json:"records"`
}

// NewReport aggregates a finished batch under a fresh RunID. Nil entries
// are skipped.
func NewReport(attackName string, results []*attack.Result) *Report {
	r := &Report{
		RunID:     uuid.New(),
		Attack:    attackName,
		CreatedAt: time.Now().UTC(),
		Records:   make([]Record, 0, len(results)),
	}

	var distances []float64

	for _, res := range results {
		if res == nil {
			continue
		}

		rec := Record{
			Index:         res.Index,
			OriginalLabel: res.OriginalLabel,
			FinalLabel:    res.FinalLabel,
			Success:       res.Success,
			Status:        res.Status.String(),
			Distance:      res.Distance,
			Queries:       res.Queries,
			Iterations:    res.Iterations,
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}

		r.Records = append(r.Records, rec)
		r.Samples++
		r.TotalQueries += res.Queries

		if res.Success {
			r.Succeeded++
			distances = append(distances, res.Distance)
		}

		if res.Status == attack.StatusFailed {
			r.Errored++
		}
	}

	if r.Samples > 0 {
		r.SuccessRate = float64(r.Succeeded) / float64(r.Samples)
		r.MeanQueries = float64(r.TotalQueries) / float64(r.Samples)
	}

	if len(distances) > 0 {
		r.MeanDistance = mean(distances)
		r.MedianDistance = median(distances)
	}

	return r
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}

	return sum / float64(len(xs))
}

// median sorts xs in place.
func median(xs []float64) float64 {
	slices.Sort(xs)

	mid := len(xs) / 2
	if len(xs)%2 == 1 {
		return xs[mid]
	}

	return (xs[mid-1] + xs[mid]) / 2
}
