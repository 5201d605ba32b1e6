package eval

import (
	"github.com/hupe1980/advgo/attack"
)

// Breakdown slices a finished batch into bitmap sets keyed by outcome.
//
// Sets are keyed by Result.Index, so the batch's indexes must be
// non-negative (results produced by a Generator always are). The accessors
// return copies; callers can combine them with And/Or/AndNot freely.
type Breakdown struct {
	succeeded  *Set
	byStatus   map[attack.Status]*Set
	byOriginal map[int]*Set
	byFinal    map[int]*Set
}

// NewBreakdown indexes a batch of results. Nil entries are skipped.
func NewBreakdown(results []*attack.Result) *Breakdown {
	b := &Breakdown{
		succeeded:  NewSet(),
		byStatus:   make(map[attack.Status]*Set),
		byOriginal: make(map[int]*Set),
		byFinal:    make(map[int]*Set),
	}

	for _, res := range results {
		if res == nil {
			continue
		}

		if res.Success {
			b.succeeded.Add(res.Index)
		}

		addTo(b.byStatus, res.Status, res.Index)
		addTo(b.byOriginal, res.OriginalLabel, res.Index)
		addTo(b.byFinal, res.FinalLabel, res.Index)
	}

	return b
}

func addTo[K comparable](m map[K]*Set, key K, index int) {
	s, ok := m[key]
	if !ok {
		s = NewSet()
		m[key] = s
	}

	s.Add(index)
}

// Succeeded returns the samples whose candidate is oracle-confirmed
// adversarial.
func (b *Breakdown) Succeeded() *Set {
	return b.succeeded.Clone()
}

// Status returns the samples whose search ended with the given status.
func (b *Breakdown) Status(status attack.Status) *Set {
	return cloneOrEmpty(b.byStatus[status])
}

// OriginalLabel returns the samples the model originally labeled with label.
func (b *Breakdown) OriginalLabel(label int) *Set {
	return cloneOrEmpty(b.byOriginal[label])
}

// FinalLabel returns the samples whose candidate the model labels with label.
func (b *Breakdown) FinalLabel(label int) *Set {
	return cloneOrEmpty(b.byFinal[label])
}

func cloneOrEmpty(s *Set) *Set {
	if s == nil {
		return NewSet()
	}

	return s.Clone()
}
