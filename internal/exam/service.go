package exam

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

// Service composes, takes and scores examinations on top of a Store. Every
// write runs inside a single Store transaction.
type Service struct {
	store    Store
	composer *Composer
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

// WithRandSource seeds question sampling and answer orders.
func WithRandSource(src rand.Source) Option {
	return func(s *Service) { s.composer = NewComposer(src) }
}

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithIDGenerator(fn func() string) Option { return func(s *Service) { s.newID = fn } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.composer == nil {
		s.composer = NewComposer(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

func (s *Service) ListTags(ctx context.Context) ([]Tag, error) { return s.store.ListTags(ctx) }

func (s *Service) ReplaceTags(ctx context.Context, tags []TagInput) error {
	return s.store.ReplaceTags(ctx, tags)
}

func (s *Service) CountQuestionsForTag(ctx context.Context, tagID string) (int, error) {
	return s.store.CountQuestionsForTag(ctx, tagID)
}

func (s *Service) GetQuestion(ctx context.Context, id string) (Question, error) {
	return s.store.GetQuestion(ctx, id)
}

func (s *Service) ListQuestions(ctx context.Context) ([]Question, error) {
	return s.store.ListQuestions(ctx)
}

func (s *Service) SearchQuestions(ctx context.Context, included, excluded []string) ([]Question, error) {
	return s.store.SearchQuestions(ctx, included, excluded)
}

func (s *Service) CreateQuestion(ctx context.Context, q QuestionInput) (string, error) {
	return s.store.CreateQuestion(ctx, q)
}

func (s *Service) UpdateQuestion(ctx context.Context, q Question) error {
	return s.store.UpdateQuestion(ctx, q)
}

func (s *Service) GetExamination(ctx context.Context, id string) (Examination, error) {
	return s.store.GetExamination(ctx, id)
}

func (s *Service) ListExaminations(ctx context.Context) ([]Examination, error) {
	return s.store.ListExaminations(ctx)
}

func (s *Service) GetExamquestions(ctx context.Context, id string) ([]Examquestion, []Question, error) {
	return s.store.GetExamquestions(ctx, id)
}

func (s *Service) DeleteExamination(ctx context.Context, id string) error {
	return s.store.DeleteExamination(ctx, id)
}

// Compose samples every part from its own candidate pool and persists the
// examination graph. Pools are computed per part, so a question matching two
// parts may be drawn by both. Nothing is persisted when any part fails.
func (s *Service) Compose(ctx context.Context, req ComposeRequest) (Examination, error) {
	if err := req.Validate(); err != nil {
		return Examination{}, invalid(err)
	}
	excluded := uniqueIDs(req.TagsExcluded)

	var out Examination
	err := s.store.InTx(ctx, func(st Store) error {
		referenced := append([]string{}, excluded...)
		for _, p := range req.Parts {
			referenced = append(referenced, p.Tags...)
		}
		if err := st.EnsureTags(ctx, referenced); err != nil {
			return err
		}

		e := Examination{
			ID:           s.newID(),
			Name:         req.Name,
			ExcludedTags: excluded,
			Examparts:    make([]Exampart, 0, len(req.Parts)),
		}
		var questions []Examquestion
		for i, p := range req.Parts {
			tags := uniqueIDs(p.Tags)
			pool, err := st.SearchQuestions(ctx, tags, excluded)
			if err != nil {
				return err
			}
			if p.Size < 1 || p.Size > len(pool) {
				return &InsufficientQuestionsError{Part: i, Requested: p.Size, Available: len(pool)}
			}
			part := Exampart{ID: s.newID(), Tags: tags, Size: p.Size}
			for _, q := range s.composer.Sample(pool, p.Size) {
				questions = append(questions, Examquestion{
					Exampart:    part.ID,
					Question:    q.ID,
					Index:       len(questions),
					AnswerOrder: s.composer.AnswerOrder(),
				})
			}
			e.Examparts = append(e.Examparts, part)
		}

		if err := st.InsertExamination(ctx, e, questions); err != nil {
			return err
		}
		var err error
		out, err = st.GetExamination(ctx, e.ID)
		return err
	})
	if err != nil {
		return Examination{}, err
	}
	return out, nil
}

// SubmitAnswers records one answer per examquestion, in sequence order, and
// marks the examination answered. Answers are indices into the original
// selections, not presentation positions.
func (s *Service) SubmitAnswers(ctx context.Context, examinationID string, answers []int) error {
	for i, a := range answers {
		if a < 0 || a >= NumSelections {
			return invalidf("answer %d is %d, want 0..%d", i, a, NumSelections-1)
		}
	}
	return s.store.InTx(ctx, func(st Store) error {
		e, err := st.GetExamination(ctx, examinationID)
		if err != nil {
			return err
		}
		if e.Answered() {
			return illegalState("examination %q was already answered", examinationID)
		}
		eqs, _, err := st.GetExamquestions(ctx, examinationID)
		if err != nil {
			return err
		}
		if len(answers) != len(eqs) {
			return invalidf("got %d answers for %d questions", len(answers), len(eqs))
		}
		return st.SetExaminationAnswers(ctx, examinationID, answers, s.now().UnixMilli())
	})
}

// ComputeScore aggregates points per part in exampart order.
func (s *Service) ComputeScore(ctx context.Context, examinationID string) (grading.ExaminationScore, error) {
	var out grading.ExaminationScore
	err := s.store.InTx(ctx, func(st Store) error {
		e, err := st.GetExamination(ctx, examinationID)
		if err != nil {
			return err
		}
		rows, err := st.ScoreRows(ctx, examinationID)
		if err != nil {
			return err
		}
		partIDs := make([]string, len(e.Examparts))
		for i, p := range e.Examparts {
			partIDs[i] = p.ID
		}
		out, err = grading.Aggregate(partIDs, rows)
		if err != nil {
			return inconsistent("%v", err)
		}
		return nil
	})
	return out, err
}
