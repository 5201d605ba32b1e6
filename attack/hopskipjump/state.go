package hopskipjump

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/hupe1980/advgo/attack"
	"github.com/hupe1980/advgo/oracle"
)

// state tracks one sample's search. It is owned by exactly one goroutine
// for the duration of a Run call, so nothing here is synchronized.
type state struct {
	best      []float64 // best oracle-confirmed boundary point so far
	bestLabel int
	dist      float64 // distance(best, sample) under the attack norm
	iter      int
	queries   int
	budget    int
	lastEps   float64
	rng       *rand.Rand
	trace     []float64
}

func newState(goal attack.Goal, budget int) *state {
	var rng *rand.Rand
	if goal.Seed != nil {
		rng = rand.New(rand.NewSource(*goal.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &state{
		dist:   math.Inf(1),
		budget: budget,
		rng:    rng,
	}
}

// exhausted reports whether the query budget is spent. Phases check it
// on entry and run to completion once started, so the recorded query
// count may end slightly above the budget.
func (st *state) exhausted() bool {
	return st.queries >= st.budget
}

// predict charges the batch against the budget and queries the oracle.
func (st *state) predict(ctx context.Context, o oracle.Oracle, batch [][]float64) ([]int, error) {
	st.queries += len(batch)

	return o.Predict(ctx, batch)
}

// predictOne charges a single query.
func (st *state) predictOne(ctx context.Context, o oracle.Oracle, v []float64) (int, error) {
	st.queries++

	return oracle.One(ctx, o, v)
}
