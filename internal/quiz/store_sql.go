package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

// attempt-number races are resolved by the unique constraint and a retry
const maxRecordRetries = 5

type SQLStore struct {
	db     *sql.DB
	events *syncx.EventRepo
}

func NewSQLStore(dbh *sql.DB) *SQLStore {
	return &SQLStore{db: dbh, events: syncx.NewEventRepo(dbh, "")}
}

// ---- content ----

func (s *SQLStore) PutCollection(ctx context.Context, id, title, category string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO collections (id,title,category) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, category=EXCLUDED.category`,
		id, title, category)
	return err
}

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	mode := q.Mode
	if mode == "" {
		mode = ModeNormal
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes
		(id,collection_id,title,time_limit_sec,negative_marking,mode,start_at,end_at,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			collection_id=EXCLUDED.collection_id,
			title=EXCLUDED.title,
			time_limit_sec=EXCLUDED.time_limit_sec,
			negative_marking=EXCLUDED.negative_marking,
			mode=EXCLUDED.mode,
			start_at=EXCLUDED.start_at,
			end_at=EXCLUDED.end_at,
			questions_json=EXCLUDED.questions_json`,
		q.ID, q.CollectionID, q.Title, q.TimeLimitSec, q.NegativeMarking, string(mode),
		unixOrNull(q.StartTime), unixOrNull(q.EndTime), string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT q.id, q.collection_id, c.category, q.title, q.time_limit_sec, q.negative_marking,
		       q.mode, q.start_at, q.end_at, q.questions_json
		  FROM quizzes q
		  JOIN collections c ON c.id = q.collection_id
		 WHERE q.id=$1`, id)
	var (
		q          Quiz
		mode       string
		start, end sql.NullInt64
		qjson      string
	)
	if err := row.Scan(&q.ID, &q.CollectionID, &q.Category, &q.Title, &q.TimeLimitSec, &q.NegativeMarking,
		&mode, &start, &end, &qjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, fmt.Errorf("%w: quiz %s", ErrNotFound, id)
		}
		return Quiz{}, err
	}
	q.Mode = Mode(mode)
	q.StartTime = timeOrNil(start)
	q.EndTime = timeOrNil(end)
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, fmt.Errorf("decode questions of quiz %s: %w", id, err)
	}
	return q, nil
}

// ---- entitlements ----

func (s *SQLStore) GrantAccess(ctx context.Context, userID, collectionID string, expiresAt *time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO entitlements (user_id,collection_id,expires_at) VALUES ($1,$2,$3)
		ON CONFLICT (user_id,collection_id) DO UPDATE SET expires_at=EXCLUDED.expires_at`,
		userID, collectionID, unixOrNull(expiresAt))
	return err
}

func (s *SQLStore) HasAccess(ctx context.Context, userID, collectionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM entitlements
		WHERE user_id=$1 AND collection_id=$2 AND (expires_at IS NULL OR expires_at > $3)`,
		userID, collectionID, time.Now().Unix()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ---- sessions ----

func (s *SQLStore) PutSession(ctx context.Context, sess Session) error {
	qj, err := json.Marshal(sess.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quiz_sessions
		(token,user_id,quiz_id,kind,negative_marking,time_limit_sec,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		sess.Token, sess.UserID, sess.QuizID, string(sess.Kind), sess.NegativeMarking, sess.TimeLimitSec,
		string(qj), sess.CreatedAt.Unix())
	return err
}

func (s *SQLStore) GetSession(ctx context.Context, token string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT token,user_id,quiz_id,kind,negative_marking,time_limit_sec,
		questions_json,created_at,submitted_at
		FROM quiz_sessions WHERE token=$1`, token)
	var (
		sess      Session
		kind      string
		qjson     string
		created   int64
		submitted sql.NullInt64
	)
	if err := row.Scan(&sess.Token, &sess.UserID, &sess.QuizID, &kind, &sess.NegativeMarking, &sess.TimeLimitSec,
		&qjson, &created, &submitted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, fmt.Errorf("%w: session", ErrNotFound)
		}
		return Session{}, err
	}
	sess.Kind = SessionKind(kind)
	sess.CreatedAt = time.Unix(created, 0).UTC()
	sess.SubmittedAt = timeOrNil(submitted)
	if err := json.Unmarshal([]byte(qjson), &sess.Questions); err != nil {
		return Session{}, fmt.Errorf("decode session questions: %w", err)
	}
	return sess, nil
}

func (s *SQLStore) MarkSubmitted(ctx context.Context, token string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE quiz_sessions SET submitted_at=$1 WHERE token=$2`, at.Unix(), token)
	return err
}

func (s *SQLStore) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quiz_sessions WHERE created_at < $1`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- attempts ----

func (s *SQLStore) RecordAttempt(ctx context.Context, rec AttemptRecord) (AttemptSummary, error) {
	if rec.Summary.ID == "" {
		rec.Summary.ID = uuid.NewString()
	}
	respJSON, err := json.Marshal(rec.Summary.Responses)
	if err != nil {
		return AttemptSummary{}, err
	}
	analyticsJSON, err := json.Marshal(rec.Summary.Analytics)
	if err != nil {
		return AttemptSummary{}, err
	}

	return retryAttempt(rec, func() (AttemptSummary, error) {
		return s.recordOnce(ctx, rec, string(respJSON), string(analyticsJSON))
	})
}

// retryAttempt runs once until it stops failing on the attempt-number
// constraint. A duplicate session token is final.
func retryAttempt(rec AttemptRecord, once func() (AttemptSummary, error)) (AttemptSummary, error) {
	for try := 1; try <= maxRecordRetries; try++ {
		sum, err := once()
		if err == nil {
			return sum, nil
		}
		desc, unique := db.UniqueViolation(err)
		if !unique {
			return AttemptSummary{}, err
		}
		if strings.Contains(desc, "session_token") {
			return AttemptSummary{}, fmt.Errorf("%w: session already submitted", ErrConflict)
		}
		log.Warn().Str("user_id", rec.Summary.UserID).Str("quiz_id", rec.Summary.QuizID).
			Int("try", try).Msg("attempt number collision, retrying")
	}
	return AttemptSummary{}, fmt.Errorf("%w: concurrent submissions for this quiz", ErrConflict)
}

func (s *SQLStore) recordOnce(ctx context.Context, rec AttemptRecord, respJSON, analyticsJSON string) (AttemptSummary, error) {
	sum := rec.Summary
	at := sum.CreatedAt.Unix()

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(attempt_number),0)+1 FROM attempts WHERE user_id=$1 AND quiz_id=$2`,
			sum.UserID, sum.QuizID).Scan(&sum.AttemptNumber); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO attempts
			(id,user_id,quiz_id,session_token,attempt_number,score,total_questions,correct_count,incorrect_count,
			 skipped_count,total_time_sec,responses_json,analytics_json,created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			sum.ID, sum.UserID, sum.QuizID, sum.SessionToken, sum.AttemptNumber, sum.Score, sum.TotalQuestions,
			sum.CorrectCount, sum.IncorrectCount, sum.SkippedCount, sum.TotalTimeSec, respJSON, analyticsJSON, at); err != nil {
			return err
		}

		for _, d := range sum.Responses {
			if _, err := tx.ExecContext(ctx, `INSERT INTO attempt_details
				(attempt_id,question_index,original_index,selected_option,bookmarked,is_correct,time_spent)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				sum.ID, d.QuestionIndex, d.OriginalIndex, d.SelectedOption, d.Bookmarked, d.IsCorrect, d.TimeSpent); err != nil {
				return err
			}
		}

		for _, idx := range rec.Mistakes {
			if _, err := tx.ExecContext(ctx, `INSERT INTO mistake_pool (user_id,quiz_id,question_index,incorrect_count,last_attempted)
				VALUES ($1,$2,$3,1,$4)
				ON CONFLICT (user_id,quiz_id,question_index)
				DO UPDATE SET incorrect_count=mistake_pool.incorrect_count+1, last_attempted=EXCLUDED.last_attempted`,
				sum.UserID, sum.QuizID, idx, at); err != nil {
				return err
			}
		}
		for _, idx := range rec.Bookmarks {
			if _, err := tx.ExecContext(ctx, `INSERT INTO bookmark_pool (user_id,quiz_id,question_index,created_at)
				VALUES ($1,$2,$3,$4)
				ON CONFLICT (user_id,quiz_id,question_index) DO NOTHING`,
				sum.UserID, sum.QuizID, idx, at); err != nil {
				return err
			}
		}

		payload, err := json.Marshal(submittedEvent(sum))
		if err != nil {
			return err
		}
		return s.events.AppendTx(ctx, tx, syncx.Event{
			Type:      syncx.TypeAttemptSubmitted,
			Key:       sum.ID,
			DataJSON:  string(payload),
			CreatedAt: at,
		})
	})
	if err != nil {
		return AttemptSummary{}, err
	}
	return sum, nil
}

// AttemptSubmittedEvent is the outbox payload for a recorded attempt.
type AttemptSubmittedEvent struct {
	AttemptID     string  `json:"attempt_id"`
	UserID        string  `json:"user_id"`
	QuizID        string  `json:"quiz_id"`
	AttemptNumber int     `json:"attempt_number"`
	Score         float64 `json:"score"`
	Total         int     `json:"total_questions"`
	Correct       int     `json:"correct_count"`
	TotalTimeSec  int     `json:"total_time_sec"`
	SubmittedAt   int64   `json:"submitted_at"`
}

func submittedEvent(s AttemptSummary) AttemptSubmittedEvent {
	return AttemptSubmittedEvent{
		AttemptID:     s.ID,
		UserID:        s.UserID,
		QuizID:        s.QuizID,
		AttemptNumber: s.AttemptNumber,
		Score:         s.Score,
		Total:         s.TotalQuestions,
		Correct:       s.CorrectCount,
		TotalTimeSec:  s.TotalTimeSec,
		SubmittedAt:   s.CreatedAt.Unix(),
	}
}

func (s *SQLStore) ListAttempts(ctx context.Context, userID, quizID string) ([]AttemptSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id,user_id,quiz_id,attempt_number,score,total_questions,correct_count,incorrect_count,
		       skipped_count,total_time_sec,responses_json,analytics_json,created_at
		  FROM attempts
		 WHERE user_id=$1 AND quiz_id=$2
		 ORDER BY attempt_number DESC`, userID, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AttemptSummary{}
	for rows.Next() {
		var (
			a             AttemptSummary
			rjson, ajson  string
			createdAtUnix int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &a.AttemptNumber, &a.Score, &a.TotalQuestions,
			&a.CorrectCount, &a.IncorrectCount, &a.SkippedCount, &a.TotalTimeSec, &rjson, &ajson, &createdAtUnix); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rjson), &a.Responses); err != nil {
			return nil, fmt.Errorf("decode attempt %s responses: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(ajson), &a.Analytics); err != nil {
			return nil, fmt.Errorf("decode attempt %s analytics: %w", a.ID, err)
		}
		a.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// ---- leaderboard ----

const leaderboardColumns = `a.id, a.user_id, COALESCE(u.username, a.user_id), a.score, a.total_time_sec, a.correct_count, a.created_at`

func scanEntry(sc interface{ Scan(...any) error }) (LeaderboardEntry, error) {
	var (
		e       LeaderboardEntry
		created int64
	)
	if err := sc.Scan(&e.AttemptID, &e.UserID, &e.Username, &e.Score, &e.TotalTimeSec, &e.CorrectCount, &created); err != nil {
		return LeaderboardEntry{}, err
	}
	e.SubmittedAt = time.Unix(created, 0).UTC()
	return e, nil
}

// TopAttempts ranks first attempts by score desc, then total time asc.
// Entries tied on both share a rank.
func (s *SQLStore) TopAttempts(ctx context.Context, quizID string, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+leaderboardColumns+`
		  FROM attempts a
		  LEFT JOIN users u ON u.id = a.user_id
		 WHERE a.quiz_id=$1 AND a.attempt_number=1
		 ORDER BY a.score DESC, a.total_time_sec ASC, a.created_at ASC, a.id ASC
		 LIMIT $2`, quizID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LeaderboardEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		e.Rank = len(out) + 1
		if n := len(out); n > 0 && out[n-1].Score == e.Score && out[n-1].TotalTimeSec == e.TotalTimeSec {
			e.Rank = out[n-1].Rank
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) RankOf(ctx context.Context, quizID, userID string) (LeaderboardEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, `
		SELECT `+leaderboardColumns+`
		  FROM attempts a
		  LEFT JOIN users u ON u.id = a.user_id
		 WHERE a.quiz_id=$1 AND a.user_id=$2 AND a.attempt_number=1`, quizID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaderboardEntry{}, fmt.Errorf("%w: no ranked attempt", ErrNotFound)
		}
		return LeaderboardEntry{}, err
	}
	var better int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attempts
		 WHERE quiz_id=$1 AND attempt_number=1
		   AND (score > $2 OR (score = $2 AND total_time_sec < $3))`,
		quizID, e.Score, e.TotalTimeSec).Scan(&better); err != nil {
		return LeaderboardEntry{}, err
	}
	e.Rank = better + 1
	return e, nil
}

// ---- pools ----

func (s *SQLStore) Pool(ctx context.Context, kind PoolKind, userID, quizID string, limit int) ([]PoolEntry, error) {
	var q string
	switch kind {
	case PoolMistakes:
		q = `SELECT question_index, incorrect_count, last_attempted FROM mistake_pool
			  WHERE user_id=$1 AND quiz_id=$2
			  ORDER BY incorrect_count DESC, last_attempted ASC, question_index ASC
			  LIMIT $3`
	case PoolBookmarks:
		q = `SELECT question_index, 0, created_at FROM bookmark_pool
			  WHERE user_id=$1 AND quiz_id=$2
			  ORDER BY created_at ASC, question_index ASC
			  LIMIT $3`
	default:
		return nil, fmt.Errorf("%w: unknown pool %q", ErrInvalidInput, kind)
	}
	rows, err := s.db.QueryContext(ctx, q, userID, quizID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PoolEntry{}
	for rows.Next() {
		var (
			e  PoolEntry
			ts int64
		)
		if err := rows.Scan(&e.QuestionIndex, &e.IncorrectCount, &ts); err != nil {
			return nil, err
		}
		e.LastAttempted = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---- helpers ----

func unixOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
