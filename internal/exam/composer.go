package exam

import (
	"math/rand"
	"sort"
	"sync"
)

// Composer draws questions and answer orders from a shared random source.
// It is safe for concurrent use.
type Composer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewComposer(src rand.Source) *Composer {
	return &Composer{rng: rand.New(src)}
}

// Sample draws size questions from pool uniformly without replacement. The
// pool is ordered by id first so a seeded source gives reproducible draws
// regardless of the order storage returned it in. pool is not modified.
func (c *Composer) Sample(pool []Question, size int) []Question {
	if size > len(pool) {
		size = len(pool)
	}
	if size <= 0 {
		return []Question{}
	}
	cand := make([]Question, len(pool))
	copy(cand, pool)
	sort.Slice(cand, func(i, j int) bool { return cand[i].ID < cand[j].ID })

	c.mu.Lock()
	defer c.mu.Unlock()
	// partial Fisher-Yates: the first size slots end up uniformly drawn
	for i := 0; i < size; i++ {
		j := i + c.rng.Intn(len(cand)-i)
		cand[i], cand[j] = cand[j], cand[i]
	}
	return cand[:size]
}

// AnswerOrder returns a uniformly random permutation of the selection indices.
func (c *Composer) AnswerOrder() [4]int {
	c.mu.Lock()
	perm := c.rng.Perm(NumSelections)
	c.mu.Unlock()
	var out [4]int
	copy(out[:], perm)
	return out
}
