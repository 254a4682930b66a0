package exam

import (
	"context"

	"github.com/mind-engage/mindengage-quiz/internal/db"
)

func (s *SQLStore) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT idx,id,name FROM tag ORDER BY idx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.Index, &t.ID, &t.Name); err != nil {
			return nil, err
		}
		if t.Index != len(out) {
			return nil, inconsistent("tag %q has index %d, expected %d", t.ID, t.Index, len(out))
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReplaceTags replaces the whole tag set. Stored tags missing from tags are
// deleted, entries without an ID are created and the rest are updated in place.
func (s *SQLStore) ReplaceTags(ctx context.Context, tags []TagInput) error {
	ids := map[string]bool{}
	for i, t := range tags {
		if t.Index != i {
			return invalidf("tag %q has index %d at position %d", t.Name, t.Index, i)
		}
		if err := t.Validate(); err != nil {
			return invalidf("tag %d: %v", i, err)
		}
		if t.ID == "" {
			continue
		}
		if ids[t.ID] {
			return invalidf("tag %q listed twice", t.ID)
		}
		ids[t.ID] = true
	}

	return s.InTx(ctx, func(st Store) error {
		tx := st.(*SQLStore)
		current, err := tx.ListTags(ctx)
		if err != nil {
			return err
		}
		stored := make(map[string]bool, len(current))
		for _, t := range current {
			stored[t.ID] = true
		}
		for id := range ids {
			if !stored[id] {
				return notFound("tag", id)
			}
		}

		for _, t := range current {
			if ids[t.ID] {
				continue
			}
			refs, err := tx.tagReferences(ctx, t.ID)
			if err != nil {
				return err
			}
			if refs > 0 {
				return invalidf("tag %q is still referenced %d times", t.Name, refs)
			}
			if _, err := tx.q.ExecContext(ctx, `DELETE FROM tag WHERE id=$1`, t.ID); err != nil {
				return err
			}
		}

		for _, t := range tags {
			if t.ID != "" {
				if _, err := tx.q.ExecContext(ctx, `UPDATE tag SET idx=$1, name=$2 WHERE id=$3`, t.Index, t.Name, t.ID); err != nil {
					return err
				}
				continue
			}
			if _, err := tx.q.ExecContext(ctx, `INSERT INTO tag (id,idx,name) VALUES ($1,$2,$3)`, tx.newID(), t.Index, t.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) tagReferences(ctx context.Context, tagID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM question_tag WHERE tag_id=$1) +
		(SELECT COUNT(*) FROM exampart_tag WHERE tag_id=$1) +
		(SELECT COUNT(*) FROM examination_excluded_tag WHERE tag_id=$1)`, tagID).Scan(&n)
	return n, err
}

func (s *SQLStore) CountQuestionsForTag(ctx context.Context, tagID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM question_tag WHERE tag_id=$1`, tagID).Scan(&n)
	return n, err
}

func (s *SQLStore) EnsureTags(ctx context.Context, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	found, err := s.queryIDs(ctx, `SELECT id FROM tag WHERE id IN (`+db.Placeholders(1, len(ids))+`)`, args...)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	for _, id := range ids {
		if !have[id] {
			return notFound("tag", id)
		}
	}
	return nil
}
