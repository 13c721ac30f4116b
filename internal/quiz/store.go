package quiz

import (
	"context"
	"time"
)

// ContentStore is read access to quiz definitions owned by the content side.
// PutQuiz exists for imports and tests.
type ContentStore interface {
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	PutQuiz(ctx context.Context, q Quiz) error
}

// Entitlements answers whether a user may take quizzes in a collection.
type Entitlements interface {
	HasAccess(ctx context.Context, userID, collectionID string) (bool, error)
}

// SessionStore persists frozen sessions. Get returns ErrNotFound for unknown
// tokens; expiry is decided by the caller.
type SessionStore interface {
	GetSession(ctx context.Context, token string) (Session, error)
	PutSession(ctx context.Context, s Session) error
	MarkSubmitted(ctx context.Context, token string, at time.Time) error
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AttemptRecord is everything RecordAttempt writes in one transaction.
type AttemptRecord struct {
	Summary   AttemptSummary
	Mistakes  []int // original question indexes answered wrong
	Bookmarks []int // original question indexes flagged
}

type AttemptStore interface {
	// RecordAttempt assigns the attempt number and writes the summary,
	// details, pool upserts and outbox event atomically.
	RecordAttempt(ctx context.Context, rec AttemptRecord) (AttemptSummary, error)
	ListAttempts(ctx context.Context, userID, quizID string) ([]AttemptSummary, error)

	TopAttempts(ctx context.Context, quizID string, limit int) ([]LeaderboardEntry, error)
	// RankOf returns the user's first-attempt entry with its exact rank, or
	// ErrNotFound when the user has no attempt on the quiz.
	RankOf(ctx context.Context, quizID, userID string) (LeaderboardEntry, error)

	Pool(ctx context.Context, kind PoolKind, userID, quizID string, limit int) ([]PoolEntry, error)
}
