package review

import (
	"math/rand"
	"sync"

	"github.com/aslema/aslema-api/internal/domain"
)

// newItemBudget is the single formula deciding how many new items a user may
// start today. Both TodaySession and Stats go through it; any drift between
// the two surfaces as a bug here, not in two copies.
//
// startedToday counts reviews created since the start of the current day,
// so items the user started and already answered still consume budget.
// The learning backlog caps the budget as well: a user drowning in
// not-yet-learned items gets no new ones pushed on top.
func newItemBudget(newLimit, startedToday, learningCount int) int {
	remaining := newLimit - startedToday
	if capped := newLimit - learningCount; capped < remaining {
		remaining = capped
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// shuffler wraps a rand.Rand behind a mutex so concurrent session requests
// can share one seeded source. Tests inject a fixed seed for deterministic
// session ordering.
type shuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newShuffler(rng *rand.Rand) *shuffler {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &shuffler{rng: rng}
}

// pick shuffles the candidate pool and truncates it to limit. Pools are
// fetched oversized and ordered by difficulty ascending, so the shuffle
// varies which of the easiest candidates surface without ever pulling in
// harder items from beyond the pool.
func (s *shuffler) pick(pool []domain.StudyItem, limit int) []domain.StudyItem {
	s.mu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.mu.Unlock()

	if limit >= 0 && len(pool) > limit {
		pool = pool[:limit]
	}
	return pool
}
