package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/report"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

// quizFile is the JSON import format.
type quizFile struct {
	Collection struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Category string `json:"category"`
	} `json:"collection"`
	Quiz quiz.Quiz `json:"quiz"`
}

// loadQuizFile reads a JSON quiz file, or an .xlsx question sheet with the
// quiz metadata taken from meta.
func loadQuizFile(path string, meta quizFile) (quizFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return quizFile{}, err
	}
	defer f.Close()

	out := meta
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		qs, err := report.ReadQuestions(f)
		if err != nil {
			return quizFile{}, fmt.Errorf("read %s: %w", path, err)
		}
		out.Quiz.Questions = qs
	} else {
		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&out); err != nil {
			return quizFile{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if out.Quiz.CollectionID == "" {
		out.Quiz.CollectionID = out.Collection.ID
	}
	if out.Collection.ID == "" {
		out.Collection.ID = out.Quiz.CollectionID
	}
	if out.Collection.Title == "" {
		out.Collection.Title = out.Collection.ID
	}
	if out.Quiz.Category != "" && out.Collection.Category == "" {
		out.Collection.Category = out.Quiz.Category
	}
	return out, out.Quiz.Validate()
}

func importQuiz(ctx context.Context, e *env, args []string) error {
	fs := newFlags("import-quiz")
	var meta quizFile
	var mode string
	fs.StringVar(&meta.Collection.ID, "collection", "", "collection id (xlsx)")
	fs.StringVar(&meta.Collection.Title, "collection-title", "", "collection title (xlsx)")
	fs.StringVar(&meta.Collection.Category, "category", "", "collection category, e.g. IOE (xlsx)")
	fs.StringVar(&meta.Quiz.ID, "id", "", "quiz id (xlsx)")
	fs.StringVar(&meta.Quiz.Title, "title", "", "quiz title (xlsx)")
	fs.IntVar(&meta.Quiz.TimeLimitSec, "time-limit", 0, "time limit in seconds (xlsx)")
	fs.Float64Var(&meta.Quiz.NegativeMarking, "negative", 0, "negative marking factor (xlsx)")
	fs.StringVar(&mode, "mode", string(quiz.ModeNormal), "NORMAL or LIVE (xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("import-quiz takes exactly one file")
	}
	meta.Quiz.Mode = quiz.Mode(strings.ToUpper(mode))

	qf, err := loadQuizFile(fs.Arg(0), meta)
	if err != nil {
		return err
	}
	dbh, err := openDB(ctx, e)
	if err != nil {
		return err
	}
	store := quiz.NewSQLStore(dbh)
	if err := store.PutCollection(ctx, qf.Collection.ID, qf.Collection.Title, qf.Collection.Category); err != nil {
		return err
	}
	if err := store.PutQuiz(ctx, qf.Quiz); err != nil {
		return err
	}
	log.Info().Str("quiz_id", qf.Quiz.ID).Str("collection_id", qf.Collection.ID).
		Int("questions", len(qf.Quiz.Questions)).Msg("quiz imported")
	return nil
}

func addUser(ctx context.Context, e *env, args []string) error {
	fs := newFlags("add-user")
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "password; empty keeps the current one")
	role := fs.String("role", "student", "student|teacher|admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("-username is required")
	}
	dbh, err := openDB(ctx, e)
	if err != nil {
		return err
	}
	u, err := auth.NewUserStore(dbh).Upsert(ctx, *username, *password, *role)
	if err != nil {
		return err
	}
	fmt.Println(u.ID)
	return nil
}

func grant(ctx context.Context, e *env, args []string) error {
	fs := newFlags("grant")
	user := fs.String("user", "", "user id")
	coll := fs.String("collection", "", "collection id")
	days := fs.Int("days", 0, "days until the grant expires; 0 never expires")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *coll == "" {
		return errors.New("-user and -collection are required")
	}
	var expires *time.Time
	if *days > 0 {
		t := time.Now().UTC().AddDate(0, 0, *days)
		expires = &t
	}
	dbh, err := openDB(ctx, e)
	if err != nil {
		return err
	}
	return quiz.NewSQLStore(dbh).GrantAccess(ctx, *user, *coll, expires)
}

func hashPassword(_ context.Context, _ *env, args []string) error {
	if len(args) != 1 {
		return errors.New("hash-password takes the password as its only argument")
	}
	h, err := auth.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Println(h)
	return nil
}

func gcSessions(ctx context.Context, e *env, args []string) error {
	fs := newFlags("gc-sessions")
	retention := fs.Duration("retention", e.cfg.SessionRetention, "keep sessions younger than this")
	if err := fs.Parse(args); err != nil {
		return err
	}
	dbh, err := openDB(ctx, e)
	if err != nil {
		return err
	}
	store := quiz.NewSQLStore(dbh)
	svc := quiz.NewService(quiz.Deps{Content: store, Access: store, Sessions: store, Attempts: store},
		quiz.Options{SessionTTL: e.cfg.SessionTTL})
	n, err := svc.SweepSessions(ctx, *retention)
	if err != nil {
		return err
	}
	log.Info().Int64("deleted", n).Dur("retention", *retention).Msg("sessions swept")
	return nil
}

func replayEvents(ctx context.Context, e *env, args []string) error {
	fs := newFlags("replay-events")
	after := fs.Int64("after", 0, "replay events with seq greater than this")
	batch := fs.Int("batch", 500, "rows per read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if e.cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is not set")
	}
	dbh, err := openDB(ctx, e)
	if err != nil {
		return err
	}
	pub, err := syncx.NewAMQPPublisher(e.cfg.AMQPURL, e.cfg.AMQPExchange)
	if err != nil {
		return err
	}
	defer pub.Close()

	sent, cursor, err := replay(ctx, syncx.NewEventRepo(dbh, ""), pub, *after, *batch)
	if err != nil {
		return err
	}
	log.Info().Int("published", sent).Int64("last_seq", cursor).Msg("events replayed")
	return nil
}

// replay publishes every event after the cursor in batches of at most
// syncx.MaxBatch and returns the count sent and the last seq.
func replay(ctx context.Context, repo *syncx.EventRepo, pub syncx.Publisher, after int64, batch int) (int, int64, error) {
	if batch <= 0 || batch > syncx.MaxBatch {
		batch = syncx.MaxBatch
	}
	cursor, sent := after, 0
	for {
		evs, err := repo.Since(ctx, cursor, batch)
		if err != nil {
			return sent, cursor, err
		}
		for _, ev := range evs {
			if err := pub.Publish(ctx, ev); err != nil {
				return sent, cursor, fmt.Errorf("publish seq %d: %w", ev.Seq, err)
			}
			cursor = ev.Seq
			sent++
		}
		if len(evs) < batch {
			return sent, cursor, nil
		}
	}
}
