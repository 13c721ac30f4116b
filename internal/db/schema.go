package db

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'student',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS collections (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS entitlements (
  user_id TEXT NOT NULL,
  collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  expires_at INTEGER,
  PRIMARY KEY (user_id, collection_id)
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  time_limit_sec INTEGER NOT NULL,
  negative_marking REAL NOT NULL DEFAULT 0,
  mode TEXT NOT NULL DEFAULT 'NORMAL',
  start_at INTEGER,
  end_at INTEGER,
  questions_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_sessions (
  token TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  quiz_id TEXT NOT NULL,
  kind TEXT NOT NULL DEFAULT 'quiz',
  negative_marking REAL NOT NULL DEFAULT 0,
  time_limit_sec INTEGER NOT NULL DEFAULT 0,
  questions_json TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  submitted_at INTEGER
);
CREATE INDEX IF NOT EXISTS quiz_sessions_created_idx ON quiz_sessions (created_at);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  quiz_id TEXT NOT NULL,
  session_token TEXT NOT NULL UNIQUE,
  attempt_number INTEGER NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  total_questions INTEGER NOT NULL,
  correct_count INTEGER NOT NULL,
  incorrect_count INTEGER NOT NULL,
  skipped_count INTEGER NOT NULL,
  total_time_sec INTEGER NOT NULL DEFAULT 0,
  responses_json TEXT NOT NULL,
  analytics_json TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  UNIQUE (user_id, quiz_id, attempt_number)
);
CREATE INDEX IF NOT EXISTS attempts_rank_idx ON attempts (quiz_id, attempt_number, score, total_time_sec);

CREATE TABLE IF NOT EXISTS attempt_details (
  attempt_id TEXT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  question_index INTEGER NOT NULL,
  original_index INTEGER NOT NULL,
  selected_option INTEGER NOT NULL,
  bookmarked INTEGER NOT NULL DEFAULT 0,
  is_correct INTEGER NOT NULL DEFAULT 0,
  time_spent INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (attempt_id, question_index)
);

CREATE TABLE IF NOT EXISTS mistake_pool (
  user_id TEXT NOT NULL,
  quiz_id TEXT NOT NULL,
  question_index INTEGER NOT NULL,
  incorrect_count INTEGER NOT NULL DEFAULT 1,
  last_attempted INTEGER NOT NULL,
  PRIMARY KEY (user_id, quiz_id, question_index)
);

CREATE TABLE IF NOT EXISTS bookmark_pool (
  user_id TEXT NOT NULL,
  quiz_id TEXT NOT NULL,
  question_index INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  PRIMARY KEY (user_id, quiz_id, question_index)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'student',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS collections (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS entitlements (
  user_id TEXT NOT NULL,
  collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  expires_at BIGINT,
  PRIMARY KEY (user_id, collection_id)
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  time_limit_sec INTEGER NOT NULL,
  negative_marking DOUBLE PRECISION NOT NULL DEFAULT 0,
  mode TEXT NOT NULL DEFAULT 'NORMAL',
  start_at BIGINT,
  end_at BIGINT,
  questions_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_sessions (
  token TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  quiz_id TEXT NOT NULL,
  kind TEXT NOT NULL DEFAULT 'quiz',
  negative_marking DOUBLE PRECISION NOT NULL DEFAULT 0,
  time_limit_sec INTEGER NOT NULL DEFAULT 0,
  questions_json TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  submitted_at BIGINT
);
CREATE INDEX IF NOT EXISTS quiz_sessions_created_idx ON quiz_sessions (created_at);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  quiz_id TEXT NOT NULL,
  session_token TEXT NOT NULL,
  attempt_number INTEGER NOT NULL,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_questions INTEGER NOT NULL,
  correct_count INTEGER NOT NULL,
  incorrect_count INTEGER NOT NULL,
  skipped_count INTEGER NOT NULL,
  total_time_sec BIGINT NOT NULL DEFAULT 0,
  responses_json TEXT NOT NULL,
  analytics_json TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  CONSTRAINT attempts_session_token_key UNIQUE (session_token),
  CONSTRAINT attempts_user_quiz_number_key UNIQUE (user_id, quiz_id, attempt_number)
);
CREATE INDEX IF NOT EXISTS attempts_rank_idx ON attempts (quiz_id, attempt_number, score, total_time_sec);

CREATE TABLE IF NOT EXISTS attempt_details (
  attempt_id TEXT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
  question_index INTEGER NOT NULL,
  original_index INTEGER NOT NULL,
  selected_option INTEGER NOT NULL,
  bookmarked BOOLEAN NOT NULL DEFAULT FALSE,
  is_correct BOOLEAN NOT NULL DEFAULT FALSE,
  time_spent BIGINT NOT NULL DEFAULT 0,
  PRIMARY KEY (attempt_id, question_index)
);

CREATE TABLE IF NOT EXISTS mistake_pool (
  user_id TEXT NOT NULL,
  quiz_id TEXT NOT NULL,
  question_index INTEGER NOT NULL,
  incorrect_count INTEGER NOT NULL DEFAULT 1,
  last_attempted BIGINT NOT NULL,
  PRIMARY KEY (user_id, quiz_id, question_index)
);

CREATE TABLE IF NOT EXISTS bookmark_pool (
  user_id TEXT NOT NULL,
  quiz_id TEXT NOT NULL,
  question_index INTEGER NOT NULL,
  created_at BIGINT NOT NULL,
  PRIMARY KEY (user_id, quiz_id, question_index)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
