package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []syncx.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e syncx.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type testEnv struct {
	t     *testing.T
	ctx   context.Context
	dbh   *sql.DB
	store *SQLStore
	svc   *Service
	pub   *recordingPublisher
	now   time.Time
}

func newEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, fmt.Sprintf("file:quiz_%d?mode=memory&cache=shared", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	env := &testEnv{
		t:     t,
		ctx:   ctx,
		dbh:   dbh,
		store: NewSQLStore(dbh),
		pub:   &recordingPublisher{},
		now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(Deps{
		Content:   env.store,
		Access:    env.store,
		Sessions:  env.store,
		Attempts:  env.store,
		Publisher: env.pub,
	}, opts, WithClock(func() time.Time { return env.now }))

	require.NoError(t, env.store.PutCollection(ctx, "c1", "Physics", ""))
	require.NoError(t, env.store.PutQuiz(ctx, Quiz{
		ID:              "qz1",
		CollectionID:    "c1",
		Title:           "Kinematics",
		TimeLimitSec:    600,
		NegativeMarking: 0.25,
		Mode:            ModeNormal,
		Questions: []Question{
			{ID: "a", Text: "one", Options: []string{"w", "x", "y", "z"}, CorrectOption: 1, Marks: 1, Category: "mech", Chapter: "ch1", Explanation: "x it is"},
			{ID: "b", Text: "two", Options: []string{"p", "q", "r"}, CorrectOption: 2, Marks: 2, Category: "mech", Chapter: "ch2", Explanation: "r it is"},
		},
	}))
	for _, u := range []string{"u1", "u2", "u3", "u4"} {
		require.NoError(t, env.store.GrantAccess(ctx, u, "c1", nil))
	}
	return env
}

func defaultOpts() Options {
	return Options{SessionTTL: 10 * time.Minute, SubmitGrace: 2 * time.Minute, PracticeVerify: true}
}

func (e *testEnv) open(user string) QuizData {
	e.t.Helper()
	d, err := e.svc.GetQuizData(e.ctx, Caller{UserID: user}, "qz1", "")
	require.NoError(e.t, err)
	return d
}

const (
	right = "right"
	wrong = "wrong"
	skip  = "skip"
)

// answers builds responses keyed by original question index.
func (e *testEnv) answers(token string, pick map[int]string, secs int) []Response {
	e.t.Helper()
	sess, err := e.store.GetSession(e.ctx, token)
	require.NoError(e.t, err)
	var out []Response
	for i, fq := range sess.Questions {
		choice, ok := pick[fq.OriginalIndex]
		if !ok {
			continue
		}
		r := Response{QuestionIndex: i, TimeSpent: secs}
		switch choice {
		case right:
			r.SelectedOption = fq.CorrectOption
		case wrong:
			r.SelectedOption = (fq.CorrectOption + 1) % len(fq.Options)
		default:
			r.SelectedOption = -1
		}
		out = append(out, r)
	}
	return out
}

func (e *testEnv) submit(user string, pick map[int]string, secs int) AttemptSummary {
	e.t.Helper()
	d := e.open(user)
	sum, err := e.svc.SubmitAttempt(e.ctx, user, "qz1", SubmitRequest{
		SessionToken: d.SessionToken,
		Responses:    e.answers(d.SessionToken, pick, secs),
	})
	require.NoError(e.t, err)
	return sum
}

// ---- quiz data ----

func TestGetQuizDataRefetchWithinTTLIsIdentical(t *testing.T) {
	env := newEnv(t, defaultOpts())
	first := env.open("u1")
	assert.True(t, first.IsFresh)
	assert.Len(t, first.SessionToken, 32)

	env.now = env.now.Add(5 * time.Minute)
	again, err := env.svc.GetQuizData(env.ctx, Caller{UserID: "u1"}, "qz1", first.SessionToken)
	require.NoError(t, err)
	assert.False(t, again.IsFresh)
	assert.Equal(t, first.SessionToken, again.SessionToken)

	a, _ := json.Marshal(first.Questions)
	b, _ := json.Marshal(again.Questions)
	assert.Equal(t, string(a), string(b))
}

func TestGetQuizDataAfterTTLMintsNewSession(t *testing.T) {
	env := newEnv(t, defaultOpts())
	first := env.open("u1")

	env.now = env.now.Add(11 * time.Minute)
	next, err := env.svc.GetQuizData(env.ctx, Caller{UserID: "u1"}, "qz1", first.SessionToken)
	require.NoError(t, err)
	assert.True(t, next.IsFresh)
	assert.NotEqual(t, first.SessionToken, next.SessionToken)
}

func TestGetQuizDataIgnoresForeignToken(t *testing.T) {
	env := newEnv(t, defaultOpts())
	mine := env.open("u1")
	theirs, err := env.svc.GetQuizData(env.ctx, Caller{UserID: "u2"}, "qz1", mine.SessionToken)
	require.NoError(t, err)
	assert.True(t, theirs.IsFresh)
	assert.NotEqual(t, mine.SessionToken, theirs.SessionToken)
}

func TestGetQuizDataNeverLeaksAnswers(t *testing.T) {
	env := newEnv(t, defaultOpts())
	raw, err := json.Marshal(env.open("u1"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct_option")
	assert.NotContains(t, string(raw), "explanation")
	assert.NotContains(t, string(raw), "it is")
}

func TestGetQuizDataRequiresEntitlement(t *testing.T) {
	env := newEnv(t, defaultOpts())
	_, err := env.svc.GetQuizData(env.ctx, Caller{UserID: "stranger"}, "qz1", "")
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = env.svc.GetQuizData(env.ctx, Caller{UserID: "teacher", Privileged: true}, "qz1", "")
	assert.NoError(t, err)

	_, err = env.svc.GetQuizData(env.ctx, Caller{}, "qz1", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestExpiredEntitlementIsDenied(t *testing.T) {
	env := newEnv(t, defaultOpts())
	past := time.Now().Add(-time.Hour)
	require.NoError(t, env.store.GrantAccess(env.ctx, "late", "c1", &past))
	_, err := env.svc.GetQuizData(env.ctx, Caller{UserID: "late"}, "qz1", "")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetQuizDataUnknownQuiz(t *testing.T) {
	env := newEnv(t, defaultOpts())
	_, err := env.svc.GetQuizData(env.ctx, Caller{UserID: "u1"}, "nope", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLiveQuizWindow(t *testing.T) {
	env := newEnv(t, defaultOpts())
	start := env.now.Add(time.Hour)
	end := start.Add(time.Hour)
	q, err := env.store.GetQuiz(env.ctx, "qz1")
	require.NoError(t, err)
	q.Mode, q.StartTime, q.EndTime = ModeLive, &start, &end
	require.NoError(t, env.store.PutQuiz(env.ctx, q))

	_, err = env.svc.GetQuizData(env.ctx, Caller{UserID: "u1"}, "qz1", "")
	assert.ErrorIs(t, err, ErrAccessDenied)

	env.now = start.Add(time.Minute)
	d, err := env.svc.GetQuizData(env.ctx, Caller{UserID: "u1"}, "qz1", "")
	require.NoError(t, err)
	assert.Equal(t, ModeLive, d.Mode)

	// no per-question feedback while live
	_, err = env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{SessionToken: d.SessionToken})
	assert.ErrorIs(t, err, ErrAccessDenied)

	env.now = end.Add(time.Second)
	_, err = env.svc.GetQuizData(env.ctx, Caller{UserID: "u1"}, "qz1", "")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestLiveQuizPracticeWaitsForWindowEnd(t *testing.T) {
	env := newEnv(t, defaultOpts())
	start := env.now
	end := start.Add(time.Hour)
	q, err := env.store.GetQuiz(env.ctx, "qz1")
	require.NoError(t, err)
	q.Mode, q.StartTime, q.EndTime = ModeLive, &start, &end
	require.NoError(t, env.store.PutQuiz(env.ctx, q))

	env.now = start.Add(time.Minute)
	env.submit("u1", map[int]string{0: wrong, 1: wrong}, 5)

	// a practice session minted directly still gets no feedback while live
	practice := Session{Token: "pt1", UserID: "u1", QuizID: "qz1", Kind: KindPractice, CreatedAt: env.now,
		Questions: []FrozenQuestion{{Question: q.Questions[0], OriginalIndex: 0}}}
	require.NoError(t, env.store.PutSession(env.ctx, practice))
	_, err = env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{SessionToken: "pt1"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = env.svc.StartPractice(env.ctx, Caller{UserID: "u1"}, "qz1", PoolMistakes)
	assert.ErrorIs(t, err, ErrAccessDenied)

	env.now = end.Add(time.Minute)
	d, err := env.svc.StartPractice(env.ctx, Caller{UserID: "u1"}, "qz1", PoolMistakes)
	require.NoError(t, err)
	require.Len(t, d.Questions, 2)
	sess, err := env.store.GetSession(env.ctx, d.SessionToken)
	require.NoError(t, err)
	v, err := env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{
		SessionToken: d.SessionToken, SelectedOption: sess.Questions[0].CorrectOption,
	})
	require.NoError(t, err)
	assert.True(t, v.IsCorrect)

	// a LIVE quiz with no end keeps its answers hidden
	q.EndTime = nil
	require.NoError(t, env.store.PutQuiz(env.ctx, q))
	_, err = env.svc.StartPractice(env.ctx, Caller{UserID: "u1"}, "qz1", PoolMistakes)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

// ---- verify ----

func TestVerifyAnswerUsesFrozenSession(t *testing.T) {
	env := newEnv(t, defaultOpts())
	d := env.open("u1")
	sess, err := env.store.GetSession(env.ctx, d.SessionToken)
	require.NoError(t, err)

	for i, fq := range sess.Questions {
		v, err := env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{
			SessionToken: d.SessionToken, QuestionIndex: i, SelectedOption: fq.CorrectOption,
		})
		require.NoError(t, err)
		assert.True(t, v.IsCorrect)
		assert.Equal(t, fq.CorrectOption, v.CorrectOption)
		assert.Equal(t, fq.Explanation, v.Explanation)
		assert.Equal(t, fq.Marks, v.Marks)

		v, err = env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{
			SessionToken: d.SessionToken, QuestionIndex: i, SelectedOption: -1,
		})
		require.NoError(t, err)
		assert.False(t, v.IsCorrect)
	}

	// editing the live quiz does not change verification
	q, err := env.store.GetQuiz(env.ctx, "qz1")
	require.NoError(t, err)
	for i := range q.Questions {
		q.Questions[i].CorrectOption = 0
	}
	require.NoError(t, env.store.PutQuiz(env.ctx, q))
	v, err := env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{
		SessionToken: d.SessionToken, QuestionIndex: 0, SelectedOption: sess.Questions[0].CorrectOption,
	})
	require.NoError(t, err)
	assert.True(t, v.IsCorrect)
}

func TestVerifyAnswerErrors(t *testing.T) {
	env := newEnv(t, defaultOpts())
	d := env.open("u1")

	_, err := env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{SessionToken: d.SessionToken, QuestionIndex: 2})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{SessionToken: d.SessionToken, QuestionIndex: 0, SelectedOption: 9})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{SessionToken: "deadbeef"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.VerifyAnswer(env.ctx, "u2", VerifyRequest{SessionToken: d.SessionToken})
	assert.ErrorIs(t, err, ErrNotFound)

	env.now = env.now.Add(11 * time.Minute)
	_, err = env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{SessionToken: d.SessionToken})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyAnswerDisabled(t *testing.T) {
	opts := defaultOpts()
	opts.PracticeVerify = false
	env := newEnv(t, opts)
	d := env.open("u1")
	_, err := env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{SessionToken: d.SessionToken})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

// ---- submit ----

func TestSubmitScoresWithNegativeMarking(t *testing.T) {
	env := newEnv(t, defaultOpts())
	d := env.open("u1")
	resp := env.answers(d.SessionToken, map[int]string{0: right, 1: wrong}, 30)
	for i := range resp {
		resp[i].Bookmarked = true
	}

	sum, err := env.svc.SubmitAttempt(env.ctx, "u1", "qz1", SubmitRequest{SessionToken: d.SessionToken, Responses: resp})
	require.NoError(t, err)
	assert.Equal(t, 0.5, sum.Score)
	assert.Equal(t, 1, sum.AttemptNumber)
	assert.Equal(t, 2, sum.TotalQuestions)
	assert.Equal(t, 1, sum.CorrectCount)
	assert.Equal(t, 1, sum.IncorrectCount)
	assert.Equal(t, 0, sum.SkippedCount)
	assert.Equal(t, 60, sum.TotalTimeSec)
	require.Len(t, sum.Responses, 2)
	assert.Equal(t, Breakdown{Correct: 1, Incorrect: 1, Score: 0.5}, sum.Analytics.ByCategory["mech"])
	assert.Equal(t, Breakdown{Incorrect: 1, Score: -0.5}, sum.Analytics.ByChapter["ch2"])

	mistakes, err := env.store.Pool(env.ctx, PoolMistakes, "u1", "qz1", 10)
	require.NoError(t, err)
	require.Len(t, mistakes, 1)
	assert.Equal(t, 1, mistakes[0].QuestionIndex)
	assert.Equal(t, 1, mistakes[0].IncorrectCount)

	bookmarks, err := env.store.Pool(env.ctx, PoolBookmarks, "u1", "qz1", 10)
	require.NoError(t, err)
	assert.Len(t, bookmarks, 2)

	var details int
	require.NoError(t, env.dbh.QueryRow(`SELECT COUNT(*) FROM attempt_details WHERE attempt_id=$1`, sum.ID).Scan(&details))
	assert.Equal(t, 2, details)
}

func TestSubmitUnansweredIsSkipped(t *testing.T) {
	env := newEnv(t, defaultOpts())
	sum := env.submit("u1", map[int]string{1: right}, 10)
	assert.Equal(t, 2.0, sum.Score)
	assert.Equal(t, 1, sum.SkippedCount)
	assert.Len(t, sum.Responses, 1)

	sum = env.submit("u1", map[int]string{0: skip, 1: wrong}, 10)
	assert.Equal(t, -0.5, sum.Score)
	assert.Equal(t, 1, sum.SkippedCount)
	assert.True(t, sum.Responses[0].Skipped || sum.Responses[1].Skipped)
}

func TestSubmitScoreFloor(t *testing.T) {
	opts := defaultOpts()
	opts.ScoreFloorZero = true
	env := newEnv(t, opts)
	sum := env.submit("u1", map[int]string{0: wrong, 1: wrong}, 10)
	assert.Equal(t, 0.0, sum.Score)
}

func TestSubmitTwiceConflicts(t *testing.T) {
	env := newEnv(t, defaultOpts())
	d := env.open("u1")
	req := SubmitRequest{SessionToken: d.SessionToken, Responses: env.answers(d.SessionToken, map[int]string{0: right}, 5)}
	_, err := env.svc.SubmitAttempt(env.ctx, "u1", "qz1", req)
	require.NoError(t, err)

	_, err = env.svc.SubmitAttempt(env.ctx, "u1", "qz1", req)
	assert.ErrorIs(t, err, ErrConflict)

	// the submitted session is not reused
	next, err := env.svc.GetQuizData(env.ctx, Caller{UserID: "u1"}, "qz1", d.SessionToken)
	require.NoError(t, err)
	assert.NotEqual(t, d.SessionToken, next.SessionToken)
}

func TestRecordAttemptRejectsReusedSessionToken(t *testing.T) {
	env := newEnv(t, defaultOpts())
	rec := AttemptRecord{Summary: AttemptSummary{
		UserID: "u1", QuizID: "qz1", SessionToken: "tok", CreatedAt: env.now,
	}}
	_, err := env.store.RecordAttempt(env.ctx, rec)
	require.NoError(t, err)
	_, err = env.store.RecordAttempt(env.ctx, rec)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSubmitValidatesResponses(t *testing.T) {
	env := newEnv(t, defaultOpts())
	d := env.open("u1")
	cases := map[string][]Response{
		"index out of range": {{QuestionIndex: 5, SelectedOption: 0}},
		"negative index":     {{QuestionIndex: -1, SelectedOption: 0}},
		"duplicate":          {{QuestionIndex: 0, SelectedOption: 0}, {QuestionIndex: 0, SelectedOption: 1}},
		"option too large":   {{QuestionIndex: 0, SelectedOption: 10}},
		"negative time":      {{QuestionIndex: 0, SelectedOption: 0, TimeSpent: -3}},
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.svc.SubmitAttempt(env.ctx, "u1", "qz1", SubmitRequest{SessionToken: d.SessionToken, Responses: resp})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := env.svc.SubmitAttempt(env.ctx, "u1", "qz1", SubmitRequest{QuizID: "other", SessionToken: d.SessionToken})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.svc.SubmitAttempt(env.ctx, "u1", "qz1", SubmitRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubmitNeedsLiveSession(t *testing.T) {
	env := newEnv(t, defaultOpts())
	d := env.open("u1")

	_, err := env.svc.SubmitAttempt(env.ctx, "u1", "qz1", SubmitRequest{SessionToken: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.SubmitAttempt(env.ctx, "u2", "qz1", SubmitRequest{SessionToken: d.SessionToken})
	assert.ErrorIs(t, err, ErrNotFound)

	// time limit 10m + grace 2m outlasts the TTL
	env.now = env.now.Add(11 * time.Minute)
	_, err = env.svc.SubmitAttempt(env.ctx, "u1", "qz1", SubmitRequest{SessionToken: d.SessionToken})
	require.NoError(t, err)

	d = env.open("u1")
	env.now = env.now.Add(13 * time.Minute)
	_, err = env.svc.SubmitAttempt(env.ctx, "u1", "qz1", SubmitRequest{SessionToken: d.SessionToken})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMistakePoolCountsRepeatedErrors(t *testing.T) {
	env := newEnv(t, defaultOpts())
	env.submit("u1", map[int]string{0: wrong}, 5)
	env.now = env.now.Add(time.Minute)
	env.submit("u1", map[int]string{0: wrong}, 5)
	env.submit("u1", map[int]string{0: right}, 5)

	var rows, count int
	require.NoError(t, env.dbh.QueryRow(
		`SELECT COUNT(*), MAX(incorrect_count) FROM mistake_pool WHERE user_id='u1' AND quiz_id='qz1'`).Scan(&rows, &count))
	assert.Equal(t, 1, rows)
	assert.Equal(t, 2, count)
}

func TestBookmarkPoolKeepsOneRowAcrossAttempts(t *testing.T) {
	env := newEnv(t, defaultOpts())
	for i := 0; i < 2; i++ {
		d := env.open("u1")
		resp := env.answers(d.SessionToken, map[int]string{0: right, 1: skip}, 5)
		for j := range resp {
			resp[j].Bookmarked = true
		}
		_, err := env.svc.SubmitAttempt(env.ctx, "u1", "qz1", SubmitRequest{SessionToken: d.SessionToken, Responses: resp})
		require.NoError(t, err)
		env.now = env.now.Add(time.Minute)
	}

	var rows int
	require.NoError(t, env.dbh.QueryRow(
		`SELECT COUNT(*) FROM bookmark_pool WHERE user_id='u1' AND quiz_id='qz1' AND question_index=0`).Scan(&rows))
	assert.Equal(t, 1, rows)

	bookmarks, err := env.store.Pool(env.ctx, PoolBookmarks, "u1", "qz1", 10)
	require.NoError(t, err)
	assert.Len(t, bookmarks, 2)
}

func TestAttemptNumbersAndHistory(t *testing.T) {
	env := newEnv(t, defaultOpts())
	for i := 1; i <= 3; i++ {
		sum := env.submit("u1", map[int]string{0: right}, 5)
		assert.Equal(t, i, sum.AttemptNumber)
	}
	list, err := env.svc.ListAttempts(env.ctx, "u1", "qz1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 3, list[0].AttemptNumber)
	assert.Equal(t, 1.0, list[2].Score)
	assert.Equal(t, 1.0, list[2].Analytics.ByCategory["mech"].Score)

	none, err := env.svc.ListAttempts(env.ctx, "u2", "qz1")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSubmitWritesOutboxAndPublishes(t *testing.T) {
	env := newEnv(t, defaultOpts())
	sum := env.submit("u1", map[int]string{0: right, 1: right}, 5)

	events, err := syncx.NewEventRepo(env.dbh, "").Since(env.ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, syncx.TypeAttemptSubmitted, events[0].Type)
	assert.Equal(t, sum.ID, events[0].Key)

	var payload AttemptSubmittedEvent
	require.NoError(t, json.Unmarshal([]byte(events[0].DataJSON), &payload))
	assert.Equal(t, 3.0, payload.Score)
	assert.Equal(t, "u1", payload.UserID)

	require.Len(t, env.pub.events, 1)
	assert.Equal(t, sum.ID, env.pub.events[0].Key)
}

// ---- leaderboard ----

func TestLeaderboardOrdering(t *testing.T) {
	env := newEnv(t, defaultOpts())
	env.submit("u1", map[int]string{0: right}, 20)           // 1, 20s
	env.submit("u2", map[int]string{0: right, 1: right}, 30) // 3, 60s
	env.submit("u3", map[int]string{0: right}, 10)           // 1, 10s
	env.submit("u4", map[int]string{0: right}, 10)           // 1, 10s
	// second attempts never count
	env.submit("u1", map[int]string{0: right, 1: right}, 1)

	lb, err := env.svc.Leaderboard(env.ctx, Caller{UserID: "t1", Privileged: true}, "qz1", 0)
	require.NoError(t, err)
	require.Len(t, lb.Entries, 4)
	assert.Equal(t, "u2", lb.Entries[0].UserID)
	assert.Equal(t, "u1", lb.Entries[3].UserID)
	assert.Equal(t, 1.0, lb.Entries[3].Score)

	ranks := []int{lb.Entries[0].Rank, lb.Entries[1].Rank, lb.Entries[2].Rank, lb.Entries[3].Rank}
	assert.Equal(t, []int{1, 2, 2, 4}, ranks)

	for i := 1; i < len(lb.Entries); i++ {
		a, b := lb.Entries[i-1], lb.Entries[i]
		assert.True(t, a.Score > b.Score || (a.Score == b.Score && a.TotalTimeSec <= b.TotalTimeSec))
	}
	assert.Nil(t, lb.Self)
}

func TestLeaderboardSelfOutsideTop(t *testing.T) {
	env := newEnv(t, defaultOpts())
	env.submit("u1", map[int]string{0: right, 1: right}, 5)
	env.submit("u2", map[int]string{0: right}, 5)
	env.submit("u3", map[int]string{0: wrong}, 5)

	lb, err := env.svc.Leaderboard(env.ctx, Caller{UserID: "u3"}, "qz1", 1)
	require.NoError(t, err)
	require.Len(t, lb.Entries, 1)
	require.NotNil(t, lb.Self)
	assert.Equal(t, 3, lb.Self.Rank)
	assert.True(t, lb.Self.Self)
	assert.Equal(t, "u3", lb.Self.UserID)

	lb, err = env.svc.Leaderboard(env.ctx, Caller{UserID: "u1"}, "qz1", 1)
	require.NoError(t, err)
	assert.Nil(t, lb.Self)
	assert.True(t, lb.Entries[0].Self)

	lb, err = env.svc.Leaderboard(env.ctx, Caller{UserID: "nobody", Privileged: true}, "qz1", 5)
	require.NoError(t, err)
	assert.Nil(t, lb.Self)

	_, err = env.svc.Leaderboard(env.ctx, Caller{UserID: "u1"}, "missing", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaderboardRequiresEntitlement(t *testing.T) {
	env := newEnv(t, defaultOpts())
	env.submit("u1", map[int]string{0: right}, 5)

	_, err := env.svc.Leaderboard(env.ctx, Caller{UserID: "stranger"}, "qz1", 5)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = env.svc.Leaderboard(env.ctx, Caller{}, "qz1", 5)
	assert.ErrorIs(t, err, ErrUnauthorized)

	lb, err := env.svc.Leaderboard(env.ctx, Caller{UserID: "u2"}, "qz1", 5)
	require.NoError(t, err)
	assert.Len(t, lb.Entries, 1)
}

func TestLeaderboardUsesUsernames(t *testing.T) {
	env := newEnv(t, defaultOpts())
	_, err := env.dbh.Exec(`INSERT INTO users (id,username,created_at) VALUES ('u1','ada',0)`)
	require.NoError(t, err)
	env.submit("u1", map[int]string{0: right}, 5)
	env.submit("u2", map[int]string{0: right}, 9)

	_, entries, err := env.svc.ExportLeaderboard(env.ctx, "qz1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ada", entries[0].Username)
	assert.Equal(t, "u2", entries[1].Username)
}

// ---- practice ----

func TestPracticePoolAndSession(t *testing.T) {
	env := newEnv(t, defaultOpts())

	_, err := env.svc.StartPractice(env.ctx, Caller{UserID: "u1"}, "qz1", PoolMistakes)
	assert.ErrorIs(t, err, ErrNotFound)

	env.submit("u1", map[int]string{0: right, 1: wrong}, 5)

	pool, err := env.svc.PracticePool(env.ctx, Caller{UserID: "u1"}, "qz1", PoolMistakes)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	require.NotNil(t, pool[0].Question)
	assert.Equal(t, "two", pool[0].Question.Text)

	d, err := env.svc.StartPractice(env.ctx, Caller{UserID: "u1"}, "qz1", PoolMistakes)
	require.NoError(t, err)
	assert.Equal(t, KindPractice, d.Kind)
	require.Len(t, d.Questions, 1)

	sess, err := env.store.GetSession(env.ctx, d.SessionToken)
	require.NoError(t, err)
	v, err := env.svc.VerifyAnswer(env.ctx, "u1", VerifyRequest{
		SessionToken: d.SessionToken, QuestionIndex: 0, SelectedOption: sess.Questions[0].CorrectOption,
	})
	require.NoError(t, err)
	assert.True(t, v.IsCorrect)
	assert.Equal(t, 1, sess.Questions[0].OriginalIndex)

	_, err = env.svc.SubmitAttempt(env.ctx, "u1", "qz1", SubmitRequest{SessionToken: d.SessionToken})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// a practice token never resumes a quiz session
	next, err := env.svc.GetQuizData(env.ctx, Caller{UserID: "u1"}, "qz1", d.SessionToken)
	require.NoError(t, err)
	assert.True(t, next.IsFresh)
	assert.Len(t, next.Questions, 2)

	_, err = env.svc.PracticePool(env.ctx, Caller{UserID: "stranger"}, "qz1", PoolBookmarks)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestParsePoolKind(t *testing.T) {
	k, err := ParsePoolKind("")
	require.NoError(t, err)
	assert.Equal(t, PoolMistakes, k)
	k, err = ParsePoolKind("bookmarks")
	require.NoError(t, err)
	assert.Equal(t, PoolBookmarks, k)
	_, err = ParsePoolKind("other")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSweepSessions(t *testing.T) {
	env := newEnv(t, defaultOpts())
	old := env.open("u1")
	env.now = env.now.Add(25 * time.Hour)
	fresh := env.open("u1")

	n, err := env.svc.SweepSessions(env.ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = env.store.GetSession(env.ctx, old.SessionToken)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.store.GetSession(env.ctx, fresh.SessionToken)
	assert.NoError(t, err)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "conflict", ErrorKind(fmt.Errorf("%w: x", ErrConflict)))
	assert.Equal(t, "not_found", ErrorKind(ErrNotFound))
	assert.Equal(t, "internal", ErrorKind(fmt.Errorf("boom")))
}
