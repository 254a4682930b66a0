package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-quiz/internal/db"
)

const questionColumns = `q.id, q.statement, q.selections, q.answer, q.point, q.figure, q.created_at`

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	list, err := s.queryQuestions(ctx, `SELECT `+questionColumns+` FROM question q WHERE q.id=$1`, id)
	if err != nil {
		return Question{}, err
	}
	if len(list) == 0 {
		return Question{}, notFound("question", id)
	}
	return list[0], nil
}

func (s *SQLStore) ListQuestions(ctx context.Context) ([]Question, error) {
	return s.queryQuestions(ctx, `SELECT `+questionColumns+` FROM question q ORDER BY q.created_at, q.id`)
}

// SearchQuestions returns the questions carrying every included tag and none
// of the excluded ones. With no included tags it returns the untagged
// questions, and excluded must be empty.
func (s *SQLStore) SearchQuestions(ctx context.Context, included, excluded []string) ([]Question, error) {
	included, excluded = uniqueIDs(included), uniqueIDs(excluded)
	if len(included) == 0 {
		if len(excluded) > 0 {
			return nil, invalidf("excluded tags require at least one included tag")
		}
		return s.queryQuestions(ctx, `SELECT `+questionColumns+` FROM question q
			WHERE NOT EXISTS (SELECT 1 FROM question_tag qt WHERE qt.question_id = q.id)
			ORDER BY q.created_at, q.id`)
	}

	args := make([]any, 0, len(included)+len(excluded)+1)
	for _, id := range included {
		args = append(args, id)
	}
	args = append(args, len(included))

	var b strings.Builder
	b.WriteString(`SELECT ` + questionColumns + ` FROM question q
		WHERE EXISTS (
			SELECT qt.question_id FROM question_tag qt
			WHERE qt.question_id = q.id AND qt.tag_id IN (` + db.Placeholders(1, len(included)) + `)
			GROUP BY qt.question_id
			HAVING COUNT(qt.question_id) = $` + strconv.Itoa(len(included)+1) + `
		)`)
	if len(excluded) > 0 {
		for _, id := range excluded {
			args = append(args, id)
		}
		b.WriteString(`
		AND NOT EXISTS (
			SELECT 1 FROM question_tag qt
			WHERE qt.question_id = q.id AND qt.tag_id IN (` + db.Placeholders(len(included)+2, len(excluded)) + `)
		)`)
	}
	b.WriteString(` ORDER BY q.created_at, q.id`)
	return s.queryQuestions(ctx, b.String(), args...)
}

func (s *SQLStore) CreateQuestion(ctx context.Context, in QuestionInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", invalid(err)
	}
	id := s.newID()
	err := s.InTx(ctx, func(st Store) error {
		tx := st.(*SQLStore)
		if err := tx.EnsureTags(ctx, in.Tags); err != nil {
			return err
		}
		sel, err := json.Marshal(in.Selections)
		if err != nil {
			return err
		}
		if _, err := tx.q.ExecContext(ctx, `INSERT INTO question (id,statement,selections,answer,point,figure,created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			id, in.Statement, string(sel), in.Answer, in.Point, in.Figure, in.CreatedAt); err != nil {
			return err
		}
		return tx.setQuestionTags(ctx, id, in.Tags)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateQuestion replaces content and the whole tag set. created_at is kept.
func (s *SQLStore) UpdateQuestion(ctx context.Context, q Question) error {
	if q.ID == "" {
		return invalidf("question id required")
	}
	if err := q.input().Validate(); err != nil {
		return invalid(err)
	}
	return s.InTx(ctx, func(st Store) error {
		tx := st.(*SQLStore)
		if err := tx.EnsureTags(ctx, q.Tags); err != nil {
			return err
		}
		sel, err := json.Marshal(q.Selections)
		if err != nil {
			return err
		}
		res, err := tx.q.ExecContext(ctx, `UPDATE question SET statement=$1, selections=$2, answer=$3, point=$4, figure=$5
			WHERE id=$6`,
			q.Statement, string(sel), q.Answer, q.Point, q.Figure, q.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return notFound("question", q.ID)
		}
		return tx.setQuestionTags(ctx, q.ID, q.Tags)
	})
}

func (s *SQLStore) setQuestionTags(ctx context.Context, questionID string, tags []string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM question_tag WHERE question_id=$1`, questionID); err != nil {
		return err
	}
	for _, tagID := range uniqueIDs(tags) {
		if _, err := s.q.ExecContext(ctx, `INSERT INTO question_tag (question_id,tag_id) VALUES ($1,$2)`, questionID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) questionsByID(ctx context.Context, ids []string) ([]Question, error) {
	if len(ids) == 0 {
		return []Question{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	list, err := s.queryQuestions(ctx, `SELECT `+questionColumns+` FROM question q
		WHERE q.id IN (`+db.Placeholders(1, len(ids))+`) ORDER BY q.created_at, q.id`, args...)
	if err != nil {
		return nil, err
	}
	if len(list) != len(ids) {
		return nil, inconsistent("expected %d questions, found %d", len(ids), len(list))
	}
	return list, nil
}

// queryQuestions runs a query selecting questionColumns and attaches tags.
func (s *SQLStore) queryQuestions(ctx context.Context, query string, args ...any) ([]Question, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, q)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func scanQuestion(rows *sql.Rows) (Question, error) {
	var q Question
	var sel string
	var figure sql.NullString
	if err := rows.Scan(&q.ID, &q.Statement, &sel, &q.Answer, &q.Point, &figure, &q.CreatedAt); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(sel), &q.Selections); err != nil {
		return Question{}, inconsistent("selections of question %q: %v", q.ID, err)
	}
	if len(q.Selections) != NumSelections {
		return Question{}, inconsistent("question %q has %d selections", q.ID, len(q.Selections))
	}
	if figure.Valid {
		f := figure.String
		q.Figure = &f
	}
	q.Tags = []string{}
	return q, nil
}

func (s *SQLStore) attachTags(ctx context.Context, questions []Question) error {
	if len(questions) == 0 {
		return nil
	}
	pos := make(map[string]int, len(questions))
	args := make([]any, len(questions))
	for i, q := range questions {
		pos[q.ID] = i
		args[i] = q.ID
	}
	rows, err := s.q.QueryContext(ctx, `SELECT qt.question_id, qt.tag_id FROM question_tag qt
		JOIN tag t ON t.id = qt.tag_id
		WHERE qt.question_id IN (`+db.Placeholders(1, len(questions))+`) ORDER BY t.idx`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var qid, tid string
		if err := rows.Scan(&qid, &tid); err != nil {
			return err
		}
		i, ok := pos[qid]
		if !ok {
			return errors.New("question tag row for unexpected question " + qid)
		}
		questions[i].Tags = append(questions[i].Tags, tid)
	}
	return rows.Err()
}
