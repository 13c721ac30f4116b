package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// GET /api/quizzes/{quizID}/attempts
// Always scoped to the caller; staff review goes through the leaderboard.
func ListAttemptsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAttempts(r.Context(), callerFrom(r).UserID, chi.URLParam(r, "quizID"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"attempts": list})
	}
}
