package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/exam"
)

func ListQuestionsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListQuestions(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": list})
	}
}

func GetQuestionHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.GetQuestion(r.Context(), chi.URLParam(r, "questionID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"question": q})
	}
}

func CreateQuestionHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question exam.QuestionInput `json:"question"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		id, err := svc.CreateQuestion(r.Context(), req.Question)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

func UpdateQuestionHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question exam.Question `json:"question"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.UpdateQuestion(r.Context(), req.Question); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, struct{}{})
	}
}

func SearchQuestionsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TagsIncluded []string `json:"tagsIncluded"`
			TagsExcluded []string `json:"tagsExcluded"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		list, err := svc.SearchQuestions(r.Context(), req.TagsIncluded, req.TagsExcluded)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": list})
	}
}
