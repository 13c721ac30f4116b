// Command quizctl runs operator tasks against the quiz database: content
// import, users, entitlements, session cleanup and event replay.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
)

const usage = `usage: quizctl <command> [flags]

commands:
  import-quiz    load a quiz from JSON or an .xlsx question sheet
  add-user       create or update a local user
  grant          grant a user access to a collection
  hash-password  print a bcrypt hash for ADMIN_PASS_HASH
  gc-sessions    delete sessions older than the retention window
  replay-events  republish event_log rows to the broker
`

type command func(ctx context.Context, env *env, args []string) error

var commands = map[string]command{
	"import-quiz":   importQuiz,
	"add-user":      addUser,
	"grant":         grant,
	"hash-password": hashPassword,
	"gc-sessions":   gcSessions,
	"replay-events": replayEvents,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "console")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	e := &env{cfg: cfg}
	defer e.close()
	if err := cmd(ctx, e, os.Args[2:]); err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("failed")
		os.Exit(1)
	}
}

// env opens the database lazily so hash-password needs no DSN.
type env struct {
	cfg config.Config
	dbh *sql.DB
}

func (e *env) close() {
	if e.dbh != nil {
		_ = e.dbh.Close()
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func openDB(ctx context.Context, e *env) (*sql.DB, error) {
	dbh, err := db.Open(ctx, db.Driver(e.cfg.DBDriver), e.cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	e.dbh = dbh
	return dbh, nil
}
