package eval

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Set is a compressed bitmap over batch sample indexes.
// It wraps the official roaring implementation.
type Set struct {
	rb *roaring.Bitmap
}

// NewSet creates a new empty sample set.
func NewSet() *Set {
	return &Set{
		rb: roaring.New(),
	}
}

// Add adds a sample index to the set. Indexes must be non-negative.
func (s *Set) Add(index int) {
	s.rb.Add(uint32(index))
}

// Contains checks if a sample index is in the set.
func (s *Set) Contains(index int) bool {
	return s.rb.Contains(uint32(index))
}

// IsEmpty returns true if the set is empty.
func (s *Set) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of samples in the set.
func (s *Set) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	return &Set{
		rb: s.rb.Clone(),
	}
}

// Iterator returns an iterator over the set in ascending index order.
func (s *Set) Iterator() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// And computes the intersection of two sets in place.
func (s *Set) And(other *Set) {
	s.rb.And(other.rb)
}

// Or computes the union of two sets in place.
func (s *Set) Or(other *Set) {
	s.rb.Or(other.rb)
}

// AndNot removes all samples of other from the set in place.
func (s *Set) AndNot(other *Set) {
	s.rb.AndNot(other.rb)
}
