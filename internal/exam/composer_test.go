package exam_test

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/exam"
)

func questionPool(n int) []exam.Question {
	out := make([]exam.Question, n)
	for i := range out {
		out[i] = exam.Question{ID: "q" + strconv.Itoa(i)}
	}
	return out
}

func TestComposerSample(t *testing.T) {
	c := exam.NewComposer(rand.NewSource(1))
	p := questionPool(10)

	got := c.Sample(p, 4)
	require.Len(t, got, 4)
	seen := map[string]bool{}
	for _, q := range got {
		assert.False(t, seen[q.ID], "duplicate %s", q.ID)
		seen[q.ID] = true
		assert.Contains(t, p, q)
	}
	assert.Equal(t, questionPool(10), p, "pool must not be modified")

	assert.Len(t, c.Sample(p, 10), 10)
	assert.Len(t, c.Sample(p, 20), 10)
	assert.Empty(t, c.Sample(p, 0))
	assert.Empty(t, c.Sample(nil, 3))
}

func TestComposerSample_IndependentOfPoolOrder(t *testing.T) {
	p := questionPool(12)
	reversed := make([]exam.Question, len(p))
	for i, q := range p {
		reversed[len(p)-1-i] = q
	}

	a := exam.NewComposer(rand.NewSource(42)).Sample(p, 5)
	b := exam.NewComposer(rand.NewSource(42)).Sample(reversed, 5)
	assert.Equal(t, a, b)
}

func TestComposerSample_ReachesEveryQuestion(t *testing.T) {
	c := exam.NewComposer(rand.NewSource(3))
	p := questionPool(5)
	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		counts[c.Sample(p, 1)[0].ID]++
	}
	require.Len(t, counts, 5)
	for id, n := range counts {
		// expected 200 each
		assert.InDelta(t, 200, n, 80, "question %s drawn %d times", id, n)
	}
}

func TestComposerAnswerOrder(t *testing.T) {
	c := exam.NewComposer(rand.NewSource(5))
	perms := map[[4]int]bool{}
	for i := 0; i < 2000; i++ {
		o := c.AnswerOrder()
		require.True(t, exam.IsAnswerOrder(o), "not a permutation: %v", o)
		perms[o] = true
	}
	assert.Len(t, perms, 24)
}
