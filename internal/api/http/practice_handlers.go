package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// GET /api/quizzes/{quizID}/practice-pool?kind=mistakes|bookmarks
func PracticePoolHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := quiz.ParsePoolKind(r.URL.Query().Get("kind"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		entries, err := svc.PracticePool(r.Context(), callerFrom(r), chi.URLParam(r, "quizID"), kind)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"kind": kind, "entries": entries})
	}
}

// POST /api/quizzes/{quizID}/practice-sessions  {"kind":"mistakes"}
func StartPracticeHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Kind string `json:"kind"`
		}
		if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(w, "bad json")
			return
		}
		kind, err := quiz.ParsePoolKind(req.Kind)
		if err != nil {
			respondError(w, r, err)
			return
		}
		data, err := svc.StartPractice(r.Context(), callerFrom(r), chi.URLParam(r, "quizID"), kind)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, data)
	}
}
