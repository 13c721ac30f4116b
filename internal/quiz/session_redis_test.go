package quiz

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx).Err())

	store := NewRedisSessionStore(rdb, time.Minute)
	tok, err := NewSessionToken()
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Del(context.Background(), sessionKey(tok)) })

	sess := Session{
		Token:           tok,
		UserID:          "u1",
		QuizID:          "qz1",
		Kind:            KindQuiz,
		Questions:       NewMaterializer(seeded(1)).Materialize(sampleQuestions(3), ""),
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
		NegativeMarking: 0.25,
		TimeLimitSec:    300,
	}
	require.NoError(t, store.PutSession(ctx, sess))
	assert.ErrorIs(t, store.PutSession(ctx, sess), ErrConflict)

	got, err := store.GetSession(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, sess.Questions, got.Questions)
	assert.Nil(t, got.SubmittedAt)

	require.NoError(t, store.MarkSubmitted(ctx, tok, time.Now()))
	got, err = store.GetSession(ctx, tok)
	require.NoError(t, err)
	assert.NotNil(t, got.SubmittedAt)

	ttl, err := rdb.TTL(ctx, sessionKey(tok)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = store.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.MarkSubmitted(ctx, "missing", time.Now()), ErrNotFound)
}
