package http

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/report"
)

// GET /api/quizzes/{quizID}/leaderboard?limit=20
func LeaderboardHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 0)
		lb, err := svc.Leaderboard(r.Context(), callerFrom(r), chi.URLParam(r, "quizID"), limit)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if lb.Entries == nil {
			lb.Entries = []quiz.LeaderboardEntry{}
		}
		respondJSON(w, http.StatusOK, lb)
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/quizzes/{quizID}/leaderboard/export
func ExportLeaderboardHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, entries, err := svc.ExportLeaderboard(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		var buf bytes.Buffer
		if err := report.WriteLeaderboard(&buf, q, entries); err != nil {
			respondError(w, r, err)
			return
		}
		name := q.ID + "-ranking.xlsx"
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
		http.ServeContent(w, r, name, time.Now(), bytes.NewReader(buf.Bytes()))
	}
}
