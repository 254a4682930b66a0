package grading

import "fmt"

// Row is one examquestion joined with the ground truth of its question.
type Row struct {
	Part           string
	Answer         int
	Point          int
	ExamineeAnswer *int // nil until the examination is answered
}

// Result is the outcome of grading a single response.
type Result struct {
	AutoPoints int
	MaxPoints  int
}

// GradeChoice grades a single-answer multiple-choice response. An absent
// response never matches.
func GradeChoice(answer, point int, response *int) Result {
	res := Result{MaxPoints: point}
	if response != nil && *response == answer {
		res.AutoPoints = point
	}
	return res
}

type Score struct {
	Max      int `json:"max"`
	Examinee int `json:"examinee"`
}

type PartScore struct {
	ID       string `json:"id"`
	Max      int    `json:"max"`
	Examinee int    `json:"examinee"`
}

type ExaminationScore struct {
	Sum   Score       `json:"sum"`
	Parts []PartScore `json:"parts"`
}

// Aggregate sums rows per part. Parts are reported in the order of partIDs;
// a part with no rows scores 0/0. A row naming an unknown part is an error.
func Aggregate(partIDs []string, rows []Row) (ExaminationScore, error) {
	out := ExaminationScore{Parts: make([]PartScore, len(partIDs))}
	pos := make(map[string]int, len(partIDs))
	for i, id := range partIDs {
		out.Parts[i].ID = id
		pos[id] = i
	}
	for _, r := range rows {
		i, ok := pos[r.Part]
		if !ok {
			return ExaminationScore{}, fmt.Errorf("grading: row references unknown part %q", r.Part)
		}
		res := GradeChoice(r.Answer, r.Point, r.ExamineeAnswer)
		out.Parts[i].Max += res.MaxPoints
		out.Parts[i].Examinee += res.AutoPoints
	}
	for _, p := range out.Parts {
		out.Sum.Max += p.Max
		out.Sum.Examinee += p.Examinee
	}
	return out, nil
}
