package exam_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/exam"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

var testNow = time.UnixMilli(1700000000000)

func newTestService(t *testing.T, seed int64) (*exam.Service, *exam.SQLStore) {
	t.Helper()
	st := newTestStore(t)
	svc := exam.NewService(st,
		exam.WithRandSource(rand.NewSource(seed)),
		exam.WithClock(func() time.Time { return testNow }),
	)
	return svc, st
}

func seedUntagged(t *testing.T, st exam.Store, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = createQuestion(t, st, questionInput(int64(i+1)))
	}
	return ids
}

func TestCompose_ScoresCorrectAndWrongAnswers(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, 1)
	seedUntagged(t, st, 2)

	e, err := svc.Compose(ctx, exam.ComposeRequest{Name: "T", Parts: []exam.PartRequest{{Size: 2}}})
	require.NoError(t, err)
	require.Len(t, e.Examparts, 1)

	score, err := svc.ComputeScore(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, grading.Score{Max: 2, Examinee: 0}, score.Sum)

	// every seeded question has answer 1, so [1, 0] is one right and one wrong
	require.NoError(t, svc.SubmitAnswers(ctx, e.ID, []int{1, 0}))

	score, err = svc.ComputeScore(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, grading.ExaminationScore{
		Sum:   grading.Score{Max: 2, Examinee: 1},
		Parts: []grading.PartScore{{ID: e.Examparts[0].ID, Max: 2, Examinee: 1}},
	}, score)
}

func TestCompose_SelectsWholeUntaggedPool(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, 2)
	pool := seedUntagged(t, st, 5)

	e, err := svc.Compose(ctx, exam.ComposeRequest{Name: "T", TagsExcluded: []string{}, Parts: []exam.PartRequest{{Tags: []string{}, Size: 5}}})
	require.NoError(t, err)
	assert.Equal(t, 5, e.Examparts[0].Size)

	eqs, questions, err := svc.GetExamquestions(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, eqs, 5)
	assert.Len(t, questions, 5)

	picked := make([]string, len(eqs))
	for i, eq := range eqs {
		assert.Equal(t, i, eq.Index)
		assert.Equal(t, e.Examparts[0].ID, eq.Exampart)
		assert.True(t, exam.IsAnswerOrder(eq.AnswerOrder), "answer order %v", eq.AnswerOrder)
		assert.Nil(t, eq.ExamineeAnswer)
		picked[i] = eq.Question
	}
	assert.ElementsMatch(t, pool, picked)
}

func TestCompose_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, 3)
	tg := seedTags(t, st, "A", "B", "C")
	for i := 0; i < 3; i++ {
		createQuestion(t, st, questionInput(int64(i+1), tg["A"]))
	}
	createQuestion(t, st, questionInput(10, tg["A"], tg["B"]))
	createQuestion(t, st, questionInput(11, tg["A"], tg["B"]))
	createQuestion(t, st, questionInput(12, tg["A"], tg["C"]))

	req := exam.ComposeRequest{
		Name:         "Midterm",
		TagsExcluded: []string{tg["C"]},
		Parts: []exam.PartRequest{
			{Tags: []string{tg["A"]}, Size: 3},
			{Tags: []string{tg["B"], tg["A"]}, Size: 2},
		},
	}
	e, err := svc.Compose(ctx, req)
	require.NoError(t, err)

	got, err := svc.GetExamination(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
	assert.Equal(t, "Midterm", got.Name)
	assert.Equal(t, []string{tg["C"]}, got.ExcludedTags)
	assert.Nil(t, got.AnsweredAt)
	require.Len(t, got.Examparts, 2)
	assert.Equal(t, []string{tg["A"]}, got.Examparts[0].Tags)
	assert.ElementsMatch(t, []string{tg["A"], tg["B"]}, got.Examparts[1].Tags)
	assert.Equal(t, 3, got.Examparts[0].Size)
	assert.Equal(t, 2, got.Examparts[1].Size)

	eqs, _, err := svc.GetExamquestions(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, eqs, 5)
	for pi, part := range got.Examparts {
		pool, err := svc.SearchQuestions(ctx, part.Tags, got.ExcludedTags)
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, eq := range eqs {
			if eq.Exampart != part.ID {
				continue
			}
			assert.False(t, seen[eq.Question], "part %d repeats question %s", pi, eq.Question)
			seen[eq.Question] = true
			assert.Contains(t, questionIDs(pool), eq.Question)
		}
		assert.Len(t, seen, part.Size)
	}
}

func TestCompose_SameSeedSameDraw(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUntagged(t, st, 8)

	draw := func() []exam.Examquestion {
		svc := exam.NewService(st, exam.WithRandSource(rand.NewSource(99)))
		e, err := svc.Compose(ctx, exam.ComposeRequest{Name: "T", Parts: []exam.PartRequest{{Size: 4}}})
		require.NoError(t, err)
		eqs, _, err := svc.GetExamquestions(ctx, e.ID)
		require.NoError(t, err)
		return eqs
	}
	a, b := draw(), draw()
	require.Len(t, a, 4)
	require.Len(t, b, 4)
	for i := range a {
		assert.Equal(t, a[i].Question, b[i].Question)
		assert.Equal(t, a[i].AnswerOrder, b[i].AnswerOrder)
	}
}

func TestCompose_InsufficientQuestionsPersistsNothing(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, 4)
	tg := seedTags(t, st, "A")
	seedUntagged(t, st, 3)
	createQuestion(t, st, questionInput(10, tg["A"]))

	cases := []struct {
		name  string
		parts []exam.PartRequest
		want  exam.InsufficientQuestionsError
	}{
		{"larger than pool", []exam.PartRequest{{Size: 4}}, exam.InsufficientQuestionsError{Part: 0, Requested: 4, Available: 3}},
		{"second part fails", []exam.PartRequest{{Size: 2}, {Tags: []string{tg["A"]}, Size: 2}}, exam.InsufficientQuestionsError{Part: 1, Requested: 2, Available: 1}},
		{"zero size", []exam.PartRequest{{Size: 0}}, exam.InsufficientQuestionsError{Part: 0, Requested: 0, Available: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Compose(ctx, exam.ComposeRequest{Name: "T", Parts: tc.parts})
			require.ErrorIs(t, err, exam.ErrInsufficientQuestions)
			var ie *exam.InsufficientQuestionsError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tc.want, *ie)

			list, err := svc.ListExaminations(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestCompose_Invalid(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, 5)
	tg := seedTags(t, st, "A")
	seedUntagged(t, st, 2)

	cases := []struct {
		name string
		req  exam.ComposeRequest
		want error
	}{
		{"missing name", exam.ComposeRequest{Parts: []exam.PartRequest{{Size: 1}}}, exam.ErrValidation},
		{"no parts", exam.ComposeRequest{Name: "T"}, exam.ErrValidation},
		{"unknown part tag", exam.ComposeRequest{Name: "T", Parts: []exam.PartRequest{{Tags: []string{"missing"}, Size: 1}}}, exam.ErrNotFound},
		{"unknown excluded tag", exam.ComposeRequest{Name: "T", TagsExcluded: []string{"missing"}, Parts: []exam.PartRequest{{Tags: []string{tg["A"]}, Size: 1}}}, exam.ErrNotFound},
		{"exclusion on untagged part", exam.ComposeRequest{Name: "T", TagsExcluded: []string{tg["A"]}, Parts: []exam.PartRequest{{Size: 1}}}, exam.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Compose(ctx, tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}

	list, err := svc.ListExaminations(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitAnswers(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, 6)
	seedUntagged(t, st, 2)
	e, err := svc.Compose(ctx, exam.ComposeRequest{Name: "T", Parts: []exam.PartRequest{{Size: 2}}})
	require.NoError(t, err)

	t.Run("length mismatch", func(t *testing.T) {
		require.ErrorIs(t, svc.SubmitAnswers(ctx, e.ID, []int{1}), exam.ErrValidation)
		require.ErrorIs(t, svc.SubmitAnswers(ctx, e.ID, []int{1, 1, 1}), exam.ErrValidation)
		got, err := svc.GetExamination(ctx, e.ID)
		require.NoError(t, err)
		assert.Nil(t, got.AnsweredAt)
	})

	t.Run("answer out of range", func(t *testing.T) {
		require.ErrorIs(t, svc.SubmitAnswers(ctx, e.ID, []int{1, 4}), exam.ErrValidation)
		eqs, _, err := svc.GetExamquestions(ctx, e.ID)
		require.NoError(t, err)
		for _, eq := range eqs {
			assert.Nil(t, eq.ExamineeAnswer)
		}
	})

	t.Run("unknown examination", func(t *testing.T) {
		require.ErrorIs(t, svc.SubmitAnswers(ctx, "missing", []int{1, 1}), exam.ErrNotFound)
	})

	t.Run("records answers once", func(t *testing.T) {
		require.NoError(t, svc.SubmitAnswers(ctx, e.ID, []int{3, 2}))

		got, err := svc.GetExamination(ctx, e.ID)
		require.NoError(t, err)
		require.NotNil(t, got.AnsweredAt)
		assert.Equal(t, testNow.UnixMilli(), *got.AnsweredAt)

		eqs, _, err := svc.GetExamquestions(ctx, e.ID)
		require.NoError(t, err)
		require.NotNil(t, eqs[0].ExamineeAnswer)
		require.NotNil(t, eqs[1].ExamineeAnswer)
		assert.Equal(t, 3, *eqs[0].ExamineeAnswer)
		assert.Equal(t, 2, *eqs[1].ExamineeAnswer)

		require.ErrorIs(t, svc.SubmitAnswers(ctx, e.ID, []int{1, 1}), exam.ErrIllegalState)
		eqs, _, err = svc.GetExamquestions(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, *eqs[0].ExamineeAnswer)
	})
}

func TestListExaminations_AnsweredFirst(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUntagged(t, st, 1)

	now := testNow
	next := 0
	svc := exam.NewService(st,
		exam.WithRandSource(rand.NewSource(7)),
		exam.WithClock(func() time.Time { return now }),
		exam.WithIDGenerator(func() string {
			next++
			return fmt.Sprintf("id-%02d", next)
		}),
	)

	var composed []string
	for i := 0; i < 3; i++ {
		e, err := svc.Compose(ctx, exam.ComposeRequest{Name: "T", Parts: []exam.PartRequest{{Size: 1}}})
		require.NoError(t, err)
		composed = append(composed, e.ID)
	}

	require.NoError(t, svc.SubmitAnswers(ctx, composed[1], []int{0}))
	now = now.Add(time.Minute)
	require.NoError(t, svc.SubmitAnswers(ctx, composed[0], []int{1}))

	list, err := svc.ListExaminations(ctx)
	require.NoError(t, err)
	got := make([]string, len(list))
	for i, e := range list {
		got[i] = e.ID
	}
	assert.Equal(t, []string{composed[1], composed[0], composed[2]}, got)
}

func TestDeleteExamination(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, 8)
	tg := seedTags(t, st, "A", "B")
	q := createQuestion(t, st, questionInput(1, tg["A"]))

	e, err := svc.Compose(ctx, exam.ComposeRequest{
		Name:         "T",
		TagsExcluded: []string{tg["B"]},
		Parts:        []exam.PartRequest{{Tags: []string{tg["A"]}, Size: 1}},
	})
	require.NoError(t, err)

	// B is only referenced by the examination
	err = svc.ReplaceTags(ctx, []exam.TagInput{{Index: 0, ID: tg["A"], Name: "A"}})
	require.ErrorIs(t, err, exam.ErrValidation)

	require.NoError(t, svc.DeleteExamination(ctx, e.ID))
	_, err = svc.GetExamination(ctx, e.ID)
	require.ErrorIs(t, err, exam.ErrNotFound)
	_, err = svc.ComputeScore(ctx, e.ID)
	require.ErrorIs(t, err, exam.ErrNotFound)

	_, err = svc.GetQuestion(ctx, q)
	require.NoError(t, err)
	require.NoError(t, svc.ReplaceTags(ctx, []exam.TagInput{{Index: 0, ID: tg["A"], Name: "A"}}))
	require.ErrorIs(t, svc.DeleteExamination(ctx, e.ID), exam.ErrNotFound)
}
