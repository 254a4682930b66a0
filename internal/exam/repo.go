package exam

import (
	"context"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

type Store interface {
	ListTags(ctx context.Context) ([]Tag, error)
	ReplaceTags(ctx context.Context, tags []TagInput) error
	CountQuestionsForTag(ctx context.Context, tagID string) (int, error)
	// EnsureTags fails with ErrNotFound unless every id names a stored tag.
	EnsureTags(ctx context.Context, ids []string) error

	GetQuestion(ctx context.Context, id string) (Question, error)
	ListQuestions(ctx context.Context) ([]Question, error)
	SearchQuestions(ctx context.Context, included, excluded []string) ([]Question, error)
	CreateQuestion(ctx context.Context, q QuestionInput) (string, error)
	UpdateQuestion(ctx context.Context, q Question) error

	InsertExamination(ctx context.Context, e Examination, questions []Examquestion) error
	GetExamination(ctx context.Context, id string) (Examination, error)
	ListExaminations(ctx context.Context) ([]Examination, error)
	// GetExamquestions returns examquestions in sequence order plus every referenced question.
	GetExamquestions(ctx context.Context, examinationID string) ([]Examquestion, []Question, error)
	SetExaminationAnswers(ctx context.Context, examinationID string, answers []int, answeredAt int64) error
	ScoreRows(ctx context.Context, examinationID string) ([]grading.Row, error)
	DeleteExamination(ctx context.Context, id string) error

	// InTx runs fn against a Store bound to a single transaction. Nested calls
	// join the outer transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}
