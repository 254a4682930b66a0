package exam

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NumSelections is the fixed number of answer choices per question.
const NumSelections = 4

type Tag struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Name  string `json:"name"`
}

// TagInput is one entry of a full tag-set replacement. ID is empty for tags
// that should be created.
type TagInput struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
}

func (t TagInput) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 100)),
	)
}

type Question struct {
	ID         string   `json:"id"`
	Tags       []string `json:"tags"`
	Statement  string   `json:"statement"`
	Selections []string `json:"selections"`
	Answer     int      `json:"answer"`
	Point      int      `json:"point"`
	Figure     *string  `json:"figure"`
	CreatedAt  int64    `json:"createdAt"` // unix ms
}

// QuestionInput is a question that has not been assigned an ID yet.
type QuestionInput struct {
	Tags       []string `json:"tags"`
	Statement  string   `json:"statement"`
	Selections []string `json:"selections"`
	Answer     int      `json:"answer"`
	Point      int      `json:"point"`
	Figure     *string  `json:"figure"`
	CreatedAt  int64    `json:"createdAt"`
}

func (q QuestionInput) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Tags, validation.Each(validation.Required)),
		validation.Field(&q.Selections, validation.Required, validation.Length(NumSelections, NumSelections)),
		validation.Field(&q.Answer, validation.Min(0), validation.Max(NumSelections-1)),
		validation.Field(&q.Point, validation.Required, validation.Min(1)),
		validation.Field(&q.CreatedAt, validation.Required, validation.Min(int64(1))),
	)
}

func (q Question) input() QuestionInput {
	return QuestionInput{
		Tags:       q.Tags,
		Statement:  q.Statement,
		Selections: q.Selections,
		Answer:     q.Answer,
		Point:      q.Point,
		Figure:     q.Figure,
		CreatedAt:  q.CreatedAt,
	}
}

type Examination struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ExcludedTags []string   `json:"excludedTags"`
	Examparts    []Exampart `json:"examparts"`
	AnsweredAt   *int64     `json:"answeredAt"` // unix ms; nil until answers are submitted
}

// Answered reports whether answers were already submitted.
func (e Examination) Answered() bool { return e.AnsweredAt != nil }

type Exampart struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags"`
	Size int      `json:"size"` // number of examquestions owned by the part
}

type Examquestion struct {
	Exampart       string `json:"exampart"`
	Question       string `json:"question"`
	Index          int    `json:"index"`       // sequence across the whole examination
	AnswerOrder    [4]int `json:"answerOrder"` // presentation order of the original selections
	ExamineeAnswer *int   `json:"examineeAnswer"`
}

// PartRequest asks for Size questions drawn from the pool matching Tags.
// Size is checked against the pool during composition.
type PartRequest struct {
	Tags []string `json:"tags"`
	Size int      `json:"size"`
}

func (p PartRequest) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Tags, validation.Each(validation.Required)),
	)
}

type ComposeRequest struct {
	Name         string        `json:"name"`
	TagsExcluded []string      `json:"tagsExcluded"`
	Parts        []PartRequest `json:"parts"`
}

func (r ComposeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.TagsExcluded, validation.Each(validation.Required)),
		validation.Field(&r.Parts, validation.Required),
	)
}
