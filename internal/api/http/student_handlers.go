package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// GET /api/quizzes/{quizID}/data?session_token=...
func GetQuizDataHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := chi.URLParam(r, "quizID")
		token := r.URL.Query().Get("session_token")
		data, err := svc.GetQuizData(r.Context(), callerFrom(r), quizID, token)
		if err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		respondJSON(w, http.StatusOK, data)
	}
}

// POST /api/quizzes/verify-answer
func VerifyAnswerHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quiz.VerifyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			badRequest(w, "bad json")
			return
		}
		v, err := svc.VerifyAnswer(r.Context(), callerFrom(r).UserID, req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}

// POST /api/quizzes/{quizID}/attempts
func SubmitAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quiz.SubmitRequest
		if err := decodeJSON(w, r, &req); err != nil {
			badRequest(w, "bad json")
			return
		}
		sum, err := svc.SubmitAttempt(r.Context(), callerFrom(r).UserID, chi.URLParam(r, "quizID"), req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, sum)
	}
}
