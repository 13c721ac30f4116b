package quiz

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

// Observer receives domain counters. internal/metrics provides the
// Prometheus implementation.
type Observer interface {
	SessionIssued(kind SessionKind, fresh bool)
	AnswerVerified(correct bool)
	AttemptRecorded(score float64, elapsed time.Duration)
	SubmissionRejected(reason string)
}

type nopObserver struct{}

func (nopObserver) SessionIssued(SessionKind, bool)        {}
func (nopObserver) AnswerVerified(bool)                    {}
func (nopObserver) AttemptRecorded(float64, time.Duration) {}
func (nopObserver) SubmissionRejected(string)              {}

type Options struct {
	SessionTTL  time.Duration
	SubmitGrace time.Duration
	// PracticeVerify enables per-question feedback on NORMAL quizzes and
	// practice sessions. LIVE quizzes never get it.
	PracticeVerify  bool
	ScoreFloorZero  bool
	LeaderboardSize int
	ExportSize      int
	PoolLimit       int
}

func (o *Options) normalize() {
	if o.SessionTTL <= 0 {
		o.SessionTTL = 10 * time.Minute
	}
	if o.SubmitGrace < 0 {
		o.SubmitGrace = 0
	}
	if o.LeaderboardSize <= 0 {
		o.LeaderboardSize = 20
	}
	if o.ExportSize <= 0 {
		o.ExportSize = 100
	}
	if o.PoolLimit <= 0 {
		o.PoolLimit = 100
	}
}

type Deps struct {
	Content   ContentStore
	Access    Entitlements
	Sessions  SessionStore
	Attempts  AttemptStore
	Publisher syncx.Publisher
	Observer  Observer
}

type Service struct {
	content  ContentStore
	access   Entitlements
	sessions SessionStore
	attempts AttemptStore
	pub      syncx.Publisher
	obs      Observer

	mat      *Materializer
	opts     Options
	now      func() time.Time
	newToken func() (string, error)
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }

func WithMaterializer(m *Materializer) ServiceOption { return func(s *Service) { s.mat = m } }

func WithTokenSource(f func() (string, error)) ServiceOption {
	return func(s *Service) { s.newToken = f }
}

func NewService(d Deps, opts Options, extra ...ServiceOption) *Service {
	opts.normalize()
	s := &Service{
		content:  d.Content,
		access:   d.Access,
		sessions: d.Sessions,
		attempts: d.Attempts,
		pub:      d.Publisher,
		obs:      d.Observer,
		mat:      NewMaterializer(nil),
		opts:     opts,
		now:      time.Now,
		newToken: NewSessionToken,
	}
	if s.pub == nil {
		s.pub = syncx.NopPublisher{}
	}
	if s.obs == nil {
		s.obs = nopObserver{}
	}
	for _, o := range extra {
		o(s)
	}
	return s
}

func (s *Service) Options() Options { return s.opts }

// NewSessionToken returns 128 random bits, hex encoded.
func NewSessionToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// Caller is the authenticated identity. Privileged callers (teachers,
// admins) skip the entitlement check.
type Caller struct {
	UserID     string
	Privileged bool
}

// QuizData is the student-safe payload for one session.
type QuizData struct {
	SessionToken    string         `json:"session_token"`
	IsFresh         bool           `json:"is_fresh"`
	Kind            SessionKind    `json:"kind"`
	QuizID          string         `json:"quiz_id"`
	Title           string         `json:"title"`
	Questions       []SafeQuestion `json:"questions"`
	TimeLimitSec    int            `json:"time_limit_sec"`
	NegativeMarking float64        `json:"negative_marking"`
	Mode            Mode           `json:"mode"`
	ServerTime      time.Time      `json:"server_time"`
	ExpiresAt       time.Time      `json:"expires_at"`
}

func (s *Service) clock() time.Time { return s.now().UTC().Truncate(time.Second) }

func (s *Service) authorize(ctx context.Context, c Caller, q Quiz) error {
	if c.UserID == "" {
		return ErrUnauthorized
	}
	if c.Privileged {
		return nil
	}
	ok, err := s.access.HasAccess(ctx, c.UserID, q.CollectionID)
	if err != nil {
		return fmt.Errorf("%w: entitlement lookup: %v", ErrInternal, err)
	}
	if !ok {
		return fmt.Errorf("%w: no entitlement for collection %s", ErrAccessDenied, q.CollectionID)
	}
	return nil
}

func (s *Service) checkWindow(q Quiz, now time.Time) error {
	if q.Mode != ModeLive {
		return nil
	}
	if q.StartTime != nil && now.Before(*q.StartTime) {
		return fmt.Errorf("%w: quiz has not started", ErrAccessDenied)
	}
	if q.EndTime != nil && now.After(*q.EndTime) {
		return fmt.Errorf("%w: quiz has ended", ErrAccessDenied)
	}
	return nil
}

// liveOpen reports whether a LIVE quiz can still be taken by someone, so
// its answers must stay hidden. A LIVE quiz without an end never reopens.
func (s *Service) liveOpen(q Quiz, now time.Time) bool {
	return q.Mode == ModeLive && (q.EndTime == nil || !now.After(*q.EndTime))
}

// lookup returns the caller's session for token. Sessions owned by someone
// else, or older than window, read as not found.
func (s *Service) lookup(ctx context.Context, token, userID string, window time.Duration) (Session, error) {
	if token == "" {
		return Session{}, fmt.Errorf("%w: session token required", ErrNotFound)
	}
	sess, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if sess.UserID != userID {
		return Session{}, fmt.Errorf("%w: session", ErrNotFound)
	}
	if s.clock().Sub(sess.CreatedAt) > window {
		return Session{}, fmt.Errorf("%w: session expired", ErrNotFound)
	}
	return sess, nil
}

// GetQuizData returns the frozen question set for token when it is still
// live for this user and quiz; otherwise it materializes a fresh session.
func (s *Service) GetQuizData(ctx context.Context, c Caller, quizID, token string) (QuizData, error) {
	q, err := s.content.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizData{}, err
	}
	if err := s.authorize(ctx, c, q); err != nil {
		return QuizData{}, err
	}
	now := s.clock()
	if err := s.checkWindow(q, now); err != nil {
		return QuizData{}, err
	}

	if token != "" {
		sess, err := s.lookup(ctx, token, c.UserID, s.opts.SessionTTL)
		switch {
		case err == nil && sess.QuizID == quizID && sess.Kind == KindQuiz && sess.SubmittedAt == nil:
			s.obs.SessionIssued(KindQuiz, false)
			return s.quizData(q, sess, false), nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return QuizData{}, err
		}
	}

	sess := Session{
		UserID:          c.UserID,
		QuizID:          quizID,
		Kind:            KindQuiz,
		Questions:       s.mat.Materialize(q.Questions, q.Category),
		CreatedAt:       now,
		NegativeMarking: q.NegativeMarking,
		TimeLimitSec:    q.TimeLimitSec,
	}
	if err := s.store(ctx, &sess); err != nil {
		return QuizData{}, err
	}
	log.Debug().Str("user_id", c.UserID).Str("quiz_id", quizID).Msg("quiz session materialized")
	s.obs.SessionIssued(KindQuiz, true)
	return s.quizData(q, sess, true), nil
}

func (s *Service) store(ctx context.Context, sess *Session) error {
	tok, err := s.newToken()
	if err != nil {
		return fmt.Errorf("%w: token: %v", ErrInternal, err)
	}
	sess.Token = tok
	return s.sessions.PutSession(ctx, *sess)
}

func (s *Service) quizData(q Quiz, sess Session, fresh bool) QuizData {
	return QuizData{
		SessionToken:    sess.Token,
		IsFresh:         fresh,
		Kind:            sess.Kind,
		QuizID:          q.ID,
		Title:           q.Title,
		Questions:       SafeView(sess.Questions),
		TimeLimitSec:    sess.TimeLimitSec,
		NegativeMarking: sess.NegativeMarking,
		Mode:            q.Mode,
		ServerTime:      s.clock(),
		ExpiresAt:       sess.CreatedAt.Add(s.opts.SessionTTL),
	}
}

// ---- verify ----

type VerifyRequest struct {
	SessionToken   string `json:"session_token"`
	QuestionIndex  int    `json:"question_index"`
	SelectedOption int    `json:"selected_option"`
}

type Verdict struct {
	IsCorrect     bool    `json:"is_correct"`
	CorrectOption int     `json:"correct_option"`
	Explanation   string  `json:"explanation"`
	Marks         float64 `json:"marks"`
}

// VerifyAnswer checks one answer against the frozen session. Nothing is
// persisted; repeated calls reveal the answer, so it is limited to practice
// use.
func (s *Service) VerifyAnswer(ctx context.Context, userID string, req VerifyRequest) (Verdict, error) {
	if userID == "" {
		return Verdict{}, ErrUnauthorized
	}
	if !s.opts.PracticeVerify {
		return Verdict{}, fmt.Errorf("%w: answer verification is disabled", ErrAccessDenied)
	}
	sess, err := s.lookup(ctx, req.SessionToken, userID, s.opts.SessionTTL)
	if err != nil {
		return Verdict{}, err
	}
	q, err := s.content.GetQuiz(ctx, sess.QuizID)
	if err != nil {
		return Verdict{}, err
	}
	if q.Mode == ModeLive && (sess.Kind == KindQuiz || s.liveOpen(q, s.clock())) {
		return Verdict{}, fmt.Errorf("%w: no answer feedback during live quizzes", ErrAccessDenied)
	}
	if req.QuestionIndex < 0 || req.QuestionIndex >= len(sess.Questions) {
		return Verdict{}, fmt.Errorf("%w: question index %d out of range", ErrInvalidInput, req.QuestionIndex)
	}
	fq := sess.Questions[req.QuestionIndex]
	res, err := grading.NewGrader().Grade(gradingQ(fq), req.SelectedOption)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	correct := res.Outcome == grading.OutcomeCorrect
	s.obs.AnswerVerified(correct)
	return Verdict{
		IsCorrect:     correct,
		CorrectOption: fq.CorrectOption,
		Explanation:   fq.Explanation,
		Marks:         fq.Marks,
	}, nil
}

func gradingQ(fq FrozenQuestion) grading.Q {
	return grading.Q{CorrectOption: fq.CorrectOption, OptionCount: len(fq.Options), Marks: fq.Marks}
}

// ---- submit ----

type SubmitRequest struct {
	QuizID       string     `json:"quiz_id,omitempty"`
	SessionToken string     `json:"session_token"`
	Responses    []Response `json:"responses"`
}

// SubmitAttempt scores responses against the frozen session and records the
// attempt. The session must still be within max(TTL, time limit + grace).
func (s *Service) SubmitAttempt(ctx context.Context, userID, quizID string, req SubmitRequest) (AttemptSummary, error) {
	start := time.Now()
	sum, err := s.submit(ctx, userID, quizID, req)
	if err != nil {
		s.obs.SubmissionRejected(ErrorKind(err))
		return AttemptSummary{}, err
	}
	s.obs.AttemptRecorded(sum.Score, time.Since(start))
	return sum, nil
}

func (s *Service) submit(ctx context.Context, userID, quizID string, req SubmitRequest) (AttemptSummary, error) {
	if userID == "" {
		return AttemptSummary{}, ErrUnauthorized
	}
	if req.QuizID != "" && req.QuizID != quizID {
		return AttemptSummary{}, fmt.Errorf("%w: quiz_id does not match path", ErrInvalidInput)
	}
	if req.SessionToken == "" {
		return AttemptSummary{}, fmt.Errorf("%w: session_token required", ErrInvalidInput)
	}

	sess, err := s.sessions.GetSession(ctx, req.SessionToken)
	if err != nil {
		return AttemptSummary{}, err
	}
	if sess.UserID != userID || sess.QuizID != quizID {
		return AttemptSummary{}, fmt.Errorf("%w: session", ErrNotFound)
	}
	if sess.Kind != KindQuiz {
		return AttemptSummary{}, fmt.Errorf("%w: practice sessions are not recorded", ErrInvalidInput)
	}
	if sess.SubmittedAt != nil {
		return AttemptSummary{}, fmt.Errorf("%w: session already submitted", ErrConflict)
	}
	now := s.clock()
	if now.Sub(sess.CreatedAt) > s.submitWindow(sess) {
		return AttemptSummary{}, fmt.Errorf("%w: session expired", ErrNotFound)
	}

	rec, err := s.score(sess, req.Responses)
	if err != nil {
		return AttemptSummary{}, err
	}
	rec.Summary.ID = uuid.NewString()
	rec.Summary.UserID = userID
	rec.Summary.QuizID = quizID
	rec.Summary.SessionToken = sess.Token
	rec.Summary.CreatedAt = now

	sum, err := s.attempts.RecordAttempt(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return AttemptSummary{}, err
		}
		log.Error().Err(err).Str("user_id", userID).Str("quiz_id", quizID).Msg("record attempt")
		return AttemptSummary{}, fmt.Errorf("%w: could not record attempt", ErrInternal)
	}

	if err := s.sessions.MarkSubmitted(ctx, sess.Token, now); err != nil {
		log.Warn().Err(err).Str("attempt_id", sum.ID).Msg("mark session submitted")
	}
	s.publish(ctx, sum)

	log.Info().Str("attempt_id", sum.ID).Str("user_id", userID).Str("quiz_id", quizID).
		Int("attempt_number", sum.AttemptNumber).Float64("score", sum.Score).Msg("attempt recorded")
	return sum, nil
}

func (s *Service) submitWindow(sess Session) time.Duration {
	w := time.Duration(sess.TimeLimitSec)*time.Second + s.opts.SubmitGrace
	if w < s.opts.SessionTTL {
		w = s.opts.SessionTTL
	}
	return w
}

// score grades every frozen question. Questions without a response count as
// skipped; details are kept only for submitted responses.
func (s *Service) score(sess Session, responses []Response) (AttemptRecord, error) {
	byIndex := make(map[int]Response, len(responses))
	for _, r := range responses {
		if r.QuestionIndex < 0 || r.QuestionIndex >= len(sess.Questions) {
			return AttemptRecord{}, fmt.Errorf("%w: question index %d out of range", ErrInvalidInput, r.QuestionIndex)
		}
		if _, dup := byIndex[r.QuestionIndex]; dup {
			return AttemptRecord{}, fmt.Errorf("%w: duplicate response for question %d", ErrInvalidInput, r.QuestionIndex)
		}
		if r.TimeSpent < 0 {
			return AttemptRecord{}, fmt.Errorf("%w: negative time_spent for question %d", ErrInvalidInput, r.QuestionIndex)
		}
		byIndex[r.QuestionIndex] = r
	}

	g := grading.NewGrader(grading.WithNegativeMarking(sess.NegativeMarking))
	var (
		tally grading.Tally
		rec   AttemptRecord
		total int
	)
	analytics := Analytics{ByCategory: map[string]Breakdown{}, ByChapter: map[string]Breakdown{}}
	details := make([]AttemptDetail, 0, len(byIndex))

	for i, fq := range sess.Questions {
		r, answered := byIndex[i]
		selected := grading.Skipped
		if answered {
			selected = r.SelectedOption
		}
		res, err := g.Grade(gradingQ(fq), selected)
		if err != nil {
			return AttemptRecord{}, fmt.Errorf("%w: question %d: %v", ErrInvalidInput, i, err)
		}
		tally.Add(res)
		addBreakdown(analytics.ByCategory, fq.Category, res)
		addBreakdown(analytics.ByChapter, fq.Chapter, res)

		if res.Outcome == grading.OutcomeIncorrect {
			rec.Mistakes = append(rec.Mistakes, fq.OriginalIndex)
		}
		if !answered {
			continue
		}
		if r.Bookmarked {
			rec.Bookmarks = append(rec.Bookmarks, fq.OriginalIndex)
		}
		total += r.TimeSpent
		if selected < 0 {
			selected = grading.Skipped
		}
		details = append(details, AttemptDetail{
			QuestionIndex:  i,
			OriginalIndex:  fq.OriginalIndex,
			QuestionID:     fq.ID,
			SelectedOption: selected,
			Bookmarked:     r.Bookmarked,
			IsCorrect:      res.Outcome == grading.OutcomeCorrect,
			Skipped:        res.Outcome == grading.OutcomeSkipped,
			TimeSpent:      r.TimeSpent,
			Delta:          round(res.Delta),
		})
	}
	sort.Slice(details, func(a, b int) bool { return details[a].QuestionIndex < details[b].QuestionIndex })

	score := round(tally.Score)
	if s.opts.ScoreFloorZero && score < 0 {
		score = 0
	}
	rec.Summary = AttemptSummary{
		Score:          score,
		TotalQuestions: len(sess.Questions),
		CorrectCount:   tally.Correct,
		IncorrectCount: tally.Incorrect,
		SkippedCount:   tally.Skipped,
		TotalTimeSec:   total,
		Responses:      details,
		Analytics:      analytics,
	}
	return rec, nil
}

func addBreakdown(m map[string]Breakdown, key string, r grading.Result) {
	if key == "" {
		key = "uncategorized"
	}
	b := m[key]
	switch r.Outcome {
	case grading.OutcomeCorrect:
		b.Correct++
	case grading.OutcomeIncorrect:
		b.Incorrect++
	default:
		b.Skipped++
	}
	b.Score = round(b.Score + r.Delta)
	m[key] = b
}

// round keeps scores at four decimals so float sums compare cleanly.
func round(f float64) float64 { return math.Round(f*1e4) / 1e4 }

func (s *Service) publish(ctx context.Context, sum AttemptSummary) {
	payload, err := json.Marshal(submittedEvent(sum))
	if err != nil {
		log.Error().Err(err).Msg("encode attempt event")
		return
	}
	e := syncx.Event{Type: syncx.TypeAttemptSubmitted, Key: sum.ID, DataJSON: string(payload), CreatedAt: sum.CreatedAt.Unix()}
	if err := s.pub.Publish(ctx, e); err != nil {
		// the outbox row already committed; quizctl replay-events can resend
		log.Warn().Err(err).Str("attempt_id", sum.ID).Msg("publish attempt event")
	}
}

// ---- leaderboard ----

// Leaderboard returns the top first attempts and, when the caller is ranked
// outside that slice, the caller's own entry. Only callers entitled to the
// quiz's collection may read it.
func (s *Service) Leaderboard(ctx context.Context, c Caller, quizID string, limit int) (Leaderboard, error) {
	if limit <= 0 {
		limit = s.opts.LeaderboardSize
	}
	if limit > s.opts.ExportSize {
		limit = s.opts.ExportSize
	}
	q, err := s.content.GetQuiz(ctx, quizID)
	if err != nil {
		return Leaderboard{}, err
	}
	if err := s.authorize(ctx, c, q); err != nil {
		return Leaderboard{}, err
	}
	userID := c.UserID
	entries, err := s.attempts.TopAttempts(ctx, quizID, limit)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("%w: leaderboard: %v", ErrInternal, err)
	}
	lb := Leaderboard{Entries: entries}
	for i := range lb.Entries {
		if lb.Entries[i].UserID == userID {
			lb.Entries[i].Self = true
			return lb, nil
		}
	}
	self, err := s.attempts.RankOf(ctx, quizID, userID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return Leaderboard{}, fmt.Errorf("%w: rank: %v", ErrInternal, err)
	default:
		self.Self = true
		lb.Self = &self
	}
	return lb, nil
}

// ExportLeaderboard returns the larger ranking used for downloads.
func (s *Service) ExportLeaderboard(ctx context.Context, quizID string) (Quiz, []LeaderboardEntry, error) {
	q, err := s.content.GetQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, nil, err
	}
	entries, err := s.attempts.TopAttempts(ctx, quizID, s.opts.ExportSize)
	if err != nil {
		return Quiz{}, nil, fmt.Errorf("%w: leaderboard: %v", ErrInternal, err)
	}
	return q, entries, nil
}

// ---- attempts & practice ----

func (s *Service) ListAttempts(ctx context.Context, userID, quizID string) ([]AttemptSummary, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if _, err := s.content.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	list, err := s.attempts.ListAttempts(ctx, userID, quizID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("quiz_id", quizID).Msg("list attempts")
		return nil, fmt.Errorf("%w: attempts: %v", ErrInternal, err)
	}
	return list, nil
}

func ParsePoolKind(v string) (PoolKind, error) {
	switch PoolKind(v) {
	case PoolMistakes, PoolBookmarks:
		return PoolKind(v), nil
	case "":
		return PoolMistakes, nil
	}
	return "", fmt.Errorf("%w: unknown pool kind %q", ErrInvalidInput, v)
}

// PracticePool lists the caller's mistake or bookmark entries with the
// questions attached (answers stripped).
func (s *Service) PracticePool(ctx context.Context, c Caller, quizID string, kind PoolKind) ([]PoolEntry, error) {
	q, entries, err := s.pool(ctx, c, quizID, kind)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if idx := entries[i].QuestionIndex; idx >= 0 && idx < len(q.Questions) {
			sq := safeQuestion(idx, q.Questions[idx])
			entries[i].Question = &sq
		}
	}
	return entries, nil
}

func (s *Service) pool(ctx context.Context, c Caller, quizID string, kind PoolKind) (Quiz, []PoolEntry, error) {
	q, err := s.content.GetQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, nil, err
	}
	if err := s.authorize(ctx, c, q); err != nil {
		return Quiz{}, nil, err
	}
	entries, err := s.attempts.Pool(ctx, kind, c.UserID, quizID, s.opts.PoolLimit)
	if err != nil {
		return Quiz{}, nil, err
	}
	return q, entries, nil
}

// StartPractice freezes the caller's pool questions into a practice session.
// Practice sessions support verify but are never recorded as attempts.
func (s *Service) StartPractice(ctx context.Context, c Caller, quizID string, kind PoolKind) (QuizData, error) {
	q, entries, err := s.pool(ctx, c, quizID, kind)
	if err != nil {
		return QuizData{}, err
	}
	if s.liveOpen(q, s.clock()) {
		return QuizData{}, fmt.Errorf("%w: practice opens after the live window ends", ErrAccessDenied)
	}
	picked := make([]FrozenQuestion, 0, len(entries))
	for _, e := range entries {
		if e.QuestionIndex >= 0 && e.QuestionIndex < len(q.Questions) {
			picked = append(picked, FrozenQuestion{Question: q.Questions[e.QuestionIndex], OriginalIndex: e.QuestionIndex})
		}
	}
	if len(picked) == 0 {
		return QuizData{}, fmt.Errorf("%w: %s pool is empty", ErrNotFound, kind)
	}
	sess := Session{
		UserID:          c.UserID,
		QuizID:          quizID,
		Kind:            KindPractice,
		Questions:       s.mat.MaterializeSubset(picked),
		CreatedAt:       s.clock(),
		NegativeMarking: q.NegativeMarking,
	}
	if err := s.store(ctx, &sess); err != nil {
		return QuizData{}, err
	}
	s.obs.SessionIssued(KindPractice, true)
	return s.quizData(q, sess, true), nil
}

// SweepSessions deletes sessions created before now-retention.
func (s *Service) SweepSessions(ctx context.Context, retention time.Duration) (int64, error) {
	if retention < s.opts.SessionTTL {
		retention = s.opts.SessionTTL
	}
	return s.sessions.DeleteSessionsBefore(ctx, s.clock().Add(-retention))
}

// ErrorKind names the sentinel an error wraps, for metrics and responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
