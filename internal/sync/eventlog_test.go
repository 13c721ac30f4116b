package syncx_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

func TestEventRepoAppendAndSince(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, fmt.Sprintf("file:events_%d?mode=memory&cache=shared", time.Now().UnixNano()))
	require.NoError(t, err)
	defer dbh.Close()

	repo := syncx.NewEventRepo(dbh, "")
	require.NoError(t, repo.Append(ctx, syncx.Event{Type: syncx.TypeAttemptSubmitted, Key: "a1", DataJSON: `{"id":"a1"}`}))
	require.NoError(t, repo.Append(ctx, syncx.Event{Type: syncx.TypeAttemptSubmitted, Key: "a2", DataJSON: `{"id":"a2"}`}))

	all, err := repo.Since(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a1", all[0].Key)
	assert.Equal(t, "local", all[0].SiteID)
	assert.NotZero(t, all[0].CreatedAt)

	rest, err := repo.Since(ctx, all[0].Seq, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "a2", rest[0].Key)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "quiz.attempt_submitted", syncx.RoutingKey("AttemptSubmitted"))
	assert.Equal(t, "quiz.x", syncx.RoutingKey("X"))
}
