package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// MountQuizRoutes registers the quiz API on an authenticated router. The
// caller installs the JWT and role middleware.
func MountQuizRoutes(pr chi.Router, svc *quiz.Service) {
	pr.Route("/api/quizzes", func(qr chi.Router) {
		qr.With(rbac.Require(rbac.PermQuizVerify)).
			Post("/verify-answer", VerifyAnswerHandler(svc))

		qr.Route("/{quizID}", func(r chi.Router) {
			r.With(rbac.Require(rbac.PermQuizTake)).
				Get("/data", GetQuizDataHandler(svc))

			r.With(rbac.Require(rbac.PermAttemptSubmit)).
				Post("/attempts", SubmitAttemptHandler(svc))
			r.With(rbac.Require(rbac.PermAttemptViewOwn)).
				Get("/attempts", ListAttemptsHandler(svc))

			r.With(rbac.RequireAny(rbac.PermLeaderboardView, rbac.PermLeaderboardExport)).
				Get("/leaderboard", LeaderboardHandler(svc))
			r.With(rbac.Require(rbac.PermLeaderboardExport)).
				Get("/leaderboard/export", ExportLeaderboardHandler(svc))

			r.With(rbac.Require(rbac.PermPoolView)).
				Get("/practice-pool", PracticePoolHandler(svc))
			r.With(rbac.Require(rbac.PermPracticeStart)).
				Post("/practice-sessions", StartPracticeHandler(svc))
		})
	})
}
