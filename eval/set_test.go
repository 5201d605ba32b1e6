package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/advgo/eval"
)

func TestSet(t *testing.T) {
	s := eval.NewSet()
	require.True(t, s.IsEmpty())

	s.Add(3)
	s.Add(1)
	s.Add(3)

	assert.False(t, s.IsEmpty())
	assert.Equal(t, uint64(2), s.Cardinality())
	assert.True(t, s.Contains(1))
	assert.False(t, s.Contains(2))
}

func TestSet_Algebra(t *testing.T) {
	a := eval.NewSet()
	a.Add(1)
	a.Add(2)
	a.Add(3)

	b := eval.NewSet()
	b.Add(2)
	b.Add(4)

	union := a.Clone()
	union.Or(b)
	assert.Equal(t, uint64(4), union.Cardinality())

	inter := a.Clone()
	inter.And(b)
	assert.Equal(t, uint64(1), inter.Cardinality())
	assert.True(t, inter.Contains(2))

	diff := a.Clone()
	diff.AndNot(b)
	assert.Equal(t, uint64(2), diff.Cardinality())
	assert.False(t, diff.Contains(2))
}

func TestSet_Iterator(t *testing.T) {
	s := eval.NewSet()
	for _, i := range []int{5, 0, 9, 2} {
		s.Add(i)
	}

	var got []int
	for i := range s.Iterator() {
		got = append(got, i)
	}

	assert.Equal(t, []int{0, 2, 5, 9}, got)

	var first []int
	for i := range s.Iterator() {
		first = append(first, i)
		break
	}

	assert.Equal(t, []int{0}, first)
}

func TestSet_CloneIsIndependent(t *testing.T) {
	a := eval.NewSet()
	a.Add(7)

	b := a.Clone()
	b.Add(8)

	assert.Equal(t, uint64(1), a.Cardinality())
	assert.Equal(t, uint64(2), b.Cardinality())
}
