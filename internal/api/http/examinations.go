package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/exam"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

type scoredExamination struct {
	Examination exam.Examination         `json:"examination"`
	Score       grading.ExaminationScore `json:"score"`
	Percentages grading.Percentages      `json:"percentages"`
	Colors      grading.Colors           `json:"colors"`
}

func scoreExamination(ctx context.Context, svc *exam.Service, e exam.Examination) (scoredExamination, error) {
	score, err := svc.ComputeScore(ctx, e.ID)
	if err != nil {
		return scoredExamination{}, err
	}
	pct := grading.ToPercentages(score)
	return scoredExamination{Examination: e, Score: score, Percentages: pct, Colors: grading.ToColors(pct)}, nil
}

// GET /examination lists every examination with its score, answered ones first.
func ListExaminationsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListExaminations(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]scoredExamination, 0, len(list))
		for _, e := range list {
			se, err := scoreExamination(r.Context(), svc, e)
			if err != nil {
				writeError(w, r, err)
				return
			}
			out = append(out, se)
		}
		writeJSON(w, http.StatusOK, map[string]any{"examinations": out})
	}
}

// GET /examination/{examinationID} returns everything needed to take or review one examination.
func GetExaminationHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examinationID")
		e, err := svc.GetExamination(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		eqs, questions, err := svc.GetExamquestions(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		se, err := scoreExamination(r.Context(), svc, e)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			scoredExamination
			Examquestions []exam.Examquestion `json:"examquestions"`
			Questions     []exam.Question     `json:"questions"`
		}{se, eqs, questions})
	}
}

func CreateExaminationHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exam.ComposeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		e, err := svc.Compose(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": e.ID})
	}
}

// POST /examination/take {"examinationId":"...","examineeAnswers":[0,3,...]}
func TakeExaminationHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExaminationID   string `json:"examinationId"`
			ExamineeAnswers []int  `json:"examineeAnswers"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.SubmitAnswers(r.Context(), req.ExaminationID, req.ExamineeAnswers); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, struct{}{})
	}
}

func DeleteExaminationHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteExamination(r.Context(), chi.URLParam(r, "examinationID")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// MountExamRoutes registers the tag, question and examination surfaces.
func MountExamRoutes(r chi.Router, svc *exam.Service) {
	r.Route("/tag", func(tr chi.Router) {
		tr.Get("/", ListTagsHandler(svc))
		tr.Post("/", ReplaceTagsHandler(svc))
		tr.Get("/{tagID}/count", CountTagQuestionsHandler(svc))
	})
	r.Route("/question", func(qr chi.Router) {
		qr.Get("/", ListQuestionsHandler(svc))
		qr.Post("/", CreateQuestionHandler(svc))
		qr.Put("/", UpdateQuestionHandler(svc))
		qr.Post("/search", SearchQuestionsHandler(svc))
		qr.Get("/{questionID}", GetQuestionHandler(svc))
	})
	r.Route("/examination", func(er chi.Router) {
		er.Get("/", ListExaminationsHandler(svc))
		er.Post("/", CreateExaminationHandler(svc))
		er.Post("/take", TakeExaminationHandler(svc))
		er.Get("/{examinationID}", GetExaminationHandler(svc))
		er.Delete("/{examinationID}", DeleteExaminationHandler(svc))
	})
}
