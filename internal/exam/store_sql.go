package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

// SQLStore implements Store over database/sql. Queries use $N placeholders,
// which both drivers (pgx, modernc sqlite) accept.
//
// Rows are always drained and closed before the next statement is issued:
// SQLite runs on a single pooled connection.
type SQLStore struct {
	sqldb *sql.DB
	q     db.Querier
	inTx  bool
	newID func() string
}

func NewSQLStore(dbh *sql.DB) *SQLStore {
	return &SQLStore{sqldb: dbh, q: dbh, newID: uuid.NewString}
}

func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return db.WithTx(ctx, s.sqldb, func(tx *sql.Tx) error {
		return fn(&SQLStore{sqldb: s.sqldb, q: tx, inTx: true, newID: s.newID})
	})
}

func (s *SQLStore) InsertExamination(ctx context.Context, e Examination, questions []Examquestion) error {
	return s.InTx(ctx, func(st Store) error {
		q := st.(*SQLStore).q
		if _, err := q.ExecContext(ctx, `INSERT INTO examination (id,name,answered_at) VALUES ($1,$2,$3)`,
			e.ID, e.Name, e.AnsweredAt); err != nil {
			return err
		}
		for _, tagID := range e.ExcludedTags {
			if _, err := q.ExecContext(ctx, `INSERT INTO examination_excluded_tag (examination_id,tag_id) VALUES ($1,$2)`,
				e.ID, tagID); err != nil {
				return err
			}
		}
		for i, part := range e.Examparts {
			if _, err := q.ExecContext(ctx, `INSERT INTO exampart (id,examination_id,idx) VALUES ($1,$2,$3)`,
				part.ID, e.ID, i); err != nil {
				return err
			}
			for _, tagID := range part.Tags {
				if _, err := q.ExecContext(ctx, `INSERT INTO exampart_tag (exampart_id,tag_id) VALUES ($1,$2)`,
					part.ID, tagID); err != nil {
					return err
				}
			}
		}
		for _, eq := range questions {
			order, err := json.Marshal(eq.AnswerOrder)
			if err != nil {
				return err
			}
			if _, err := q.ExecContext(ctx, `INSERT INTO examquestion (exampart_id,question_id,idx,answer_order,examinee_answer)
				VALUES ($1,$2,$3,$4,$5)`,
				eq.Exampart, eq.Question, eq.Index, string(order), eq.ExamineeAnswer); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) GetExamination(ctx context.Context, id string) (Examination, error) {
	var e Examination
	var answeredAt sql.NullInt64
	err := s.q.QueryRowContext(ctx, `SELECT id,name,answered_at FROM examination WHERE id=$1`, id).
		Scan(&e.ID, &e.Name, &answeredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Examination{}, notFound("examination", id)
	}
	if err != nil {
		return Examination{}, err
	}
	if answeredAt.Valid {
		v := answeredAt.Int64
		e.AnsweredAt = &v
	}

	if e.ExcludedTags, err = s.queryIDs(ctx, `SELECT x.tag_id FROM examination_excluded_tag x
		JOIN tag t ON t.id = x.tag_id WHERE x.examination_id=$1 ORDER BY t.idx`, id); err != nil {
		return Examination{}, err
	}

	partIDs, err := s.queryIDs(ctx, `SELECT id FROM exampart WHERE examination_id=$1 ORDER BY idx`, id)
	if err != nil {
		return Examination{}, err
	}
	if len(partIDs) == 0 {
		return Examination{}, inconsistent("examination %q has no parts", id)
	}
	sizes, err := s.partSizes(ctx, id)
	if err != nil {
		return Examination{}, err
	}
	e.Examparts = make([]Exampart, 0, len(partIDs))
	for _, pid := range partIDs {
		tags, err := s.queryIDs(ctx, `SELECT pt.tag_id FROM exampart_tag pt
			JOIN tag t ON t.id = pt.tag_id WHERE pt.exampart_id=$1 ORDER BY t.idx`, pid)
		if err != nil {
			return Examination{}, err
		}
		e.Examparts = append(e.Examparts, Exampart{ID: pid, Tags: tags, Size: sizes[pid]})
	}
	return e, nil
}

func (s *SQLStore) partSizes(ctx context.Context, examinationID string) (map[string]int, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT eq.exampart_id, COUNT(*) FROM examquestion eq
		JOIN exampart p ON p.id = eq.exampart_id
		WHERE p.examination_id=$1 GROUP BY eq.exampart_id`, examinationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (s *SQLStore) ListExaminations(ctx context.Context) ([]Examination, error) {
	ids, err := s.queryIDs(ctx, `SELECT id FROM examination`)
	if err != nil {
		return nil, err
	}
	out := make([]Examination, 0, len(ids))
	for _, id := range ids {
		e, err := s.GetExamination(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	SortExaminations(out)
	return out, nil
}

// SortExaminations orders answered examinations by answeredAt ascending,
// then unanswered ones; ties break on id.
func SortExaminations(list []Examination) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch {
		case a.AnsweredAt == nil && b.AnsweredAt == nil:
			return a.ID < b.ID
		case a.AnsweredAt == nil:
			return false
		case b.AnsweredAt == nil:
			return true
		case *a.AnsweredAt != *b.AnsweredAt:
			return *a.AnsweredAt < *b.AnsweredAt
		default:
			return a.ID < b.ID
		}
	})
}

func (s *SQLStore) GetExamquestions(ctx context.Context, examinationID string) ([]Examquestion, []Question, error) {
	if err := s.ensureExamination(ctx, examinationID); err != nil {
		return nil, nil, err
	}
	rows, err := s.q.QueryContext(ctx, `SELECT eq.exampart_id, eq.question_id, eq.idx, eq.answer_order, eq.examinee_answer
		FROM examquestion eq JOIN exampart p ON p.id = eq.exampart_id
		WHERE p.examination_id=$1 ORDER BY eq.idx`, examinationID)
	if err != nil {
		return nil, nil, err
	}
	var eqs []Examquestion
	for rows.Next() {
		var eq Examquestion
		var order string
		var answer sql.NullInt64
		if err := rows.Scan(&eq.Exampart, &eq.Question, &eq.Index, &order, &answer); err != nil {
			rows.Close()
			return nil, nil, err
		}
		if err := json.Unmarshal([]byte(order), &eq.AnswerOrder); err != nil {
			rows.Close()
			return nil, nil, inconsistent("answer order of examquestion %d: %v", eq.Index, err)
		}
		if !IsAnswerOrder(eq.AnswerOrder) {
			rows.Close()
			return nil, nil, inconsistent("answer order %v of examquestion %d is not a permutation", eq.AnswerOrder, eq.Index)
		}
		if answer.Valid {
			v := int(answer.Int64)
			eq.ExamineeAnswer = &v
		}
		eqs = append(eqs, eq)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, nil, err
	}
	for i, eq := range eqs {
		if eq.Index != i {
			return nil, nil, inconsistent("examination %q has a gap at sequence index %d", examinationID, i)
		}
	}

	seen := map[string]bool{}
	ids := make([]string, 0, len(eqs))
	for _, eq := range eqs {
		if !seen[eq.Question] {
			seen[eq.Question] = true
			ids = append(ids, eq.Question)
		}
	}
	questions, err := s.questionsByID(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return eqs, questions, nil
}

func (s *SQLStore) SetExaminationAnswers(ctx context.Context, examinationID string, answers []int, answeredAt int64) error {
	return s.InTx(ctx, func(st Store) error {
		q := st.(*SQLStore).q
		for i, a := range answers {
			res, err := q.ExecContext(ctx, `UPDATE examquestion SET examinee_answer=$1
				WHERE idx=$2 AND exampart_id IN (SELECT id FROM exampart WHERE examination_id=$3)`,
				a, i, examinationID)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err == nil && n != 1 {
				return inconsistent("examination %q: sequence index %d matched %d examquestions", examinationID, i, n)
			}
		}
		res, err := q.ExecContext(ctx, `UPDATE examination SET answered_at=$1 WHERE id=$2`, answeredAt, examinationID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return notFound("examination", examinationID)
		}
		return nil
	})
}

func (s *SQLStore) ScoreRows(ctx context.Context, examinationID string) ([]grading.Row, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT p.id, q.answer, q.point, eq.examinee_answer
		FROM examquestion eq
		JOIN exampart p ON p.id = eq.exampart_id
		JOIN question q ON q.id = eq.question_id
		WHERE p.examination_id=$1 ORDER BY eq.idx`, examinationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []grading.Row
	for rows.Next() {
		var r grading.Row
		var answer sql.NullInt64
		if err := rows.Scan(&r.Part, &r.Answer, &r.Point, &answer); err != nil {
			return nil, err
		}
		if answer.Valid {
			v := int(answer.Int64)
			r.ExamineeAnswer = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteExamination(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM examination WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("examination", id)
	}
	return nil
}

func (s *SQLStore) ensureExamination(ctx context.Context, id string) error {
	var exist int
	err := s.q.QueryRowContext(ctx, `SELECT 1 FROM examination WHERE id=$1`, id).Scan(&exist)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("examination", id)
	}
	return err
}

// queryIDs collects the first column of every row as a string.
func (s *SQLStore) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// IsAnswerOrder reports whether o is a permutation of [0,1,2,3].
func IsAnswerOrder(o [4]int) bool {
	var seen [NumSelections]bool
	for _, v := range o {
		if v < 0 || v >= NumSelections || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
