package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var (
	// Counter for issued sessions; fresh=false means a refetch reused one
	sessionsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_sessions_issued_total",
			Help: "Quiz data fetches by session kind and freshness",
		},
		[]string{"kind", "fresh"},
	)

	answersVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_verified_total",
			Help: "Per-question verifications by outcome",
		},
		[]string{"correct"},
	)

	attemptsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_recorded_total",
			Help: "Attempts successfully recorded",
		},
	)

	submissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_rejected_total",
			Help: "Rejected submissions by error kind",
		},
		[]string{"reason"},
	)

	submitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_submit_duration_seconds",
			Help:    "Time spent scoring and recording an attempt",
			Buckets: prometheus.DefBuckets,
		},
	)

	attemptScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_attempt_score",
			Help:    "Distribution of recorded attempt scores",
			Buckets: []float64{-10, 0, 5, 10, 20, 40, 60, 80, 100, 150, 200},
		},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_http_request_duration_seconds",
			Help:    "HTTP latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Observer feeds quiz.Service events into the package counters.
type Observer struct{}

var _ quiz.Observer = Observer{}

func (Observer) SessionIssued(kind quiz.SessionKind, fresh bool) {
	sessionsIssued.WithLabelValues(string(kind), strconv.FormatBool(fresh)).Inc()
}

func (Observer) AnswerVerified(correct bool) {
	answersVerified.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (Observer) AttemptRecorded(score float64, elapsed time.Duration) {
	attemptsRecorded.Inc()
	attemptScores.Observe(score)
	submitDuration.Observe(elapsed.Seconds())
}

func (Observer) SubmissionRejected(reason string) {
	submissionsRejected.WithLabelValues(reason).Inc()
}

// Middleware records latency under the chi route pattern so path
// parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func Handler() http.Handler { return promhttp.Handler() }
