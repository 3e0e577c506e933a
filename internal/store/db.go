// internal/store/db.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// SQLStore persists questions, submissions and gradings in SQLite or
// Postgres.
type SQLStore struct {
	db     *sql.DB
	driver Driver
}

// Open opens the database and ensures the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*SQLStore, error) {
	var drvName string
	switch Driver(strings.ToLower(string(driver))) {
	case DriverSQLite:
		driver, drvName = DriverSQLite, "sqlite" // modernc driver
		if dsn == "" {
			dsn = "essaygrade.db"
		}
	case DriverPostgres:
		driver, drvName = DriverPostgres, "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/essaygrade?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One writer at a time; bulk grading saves concurrently.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// q rewrites ? placeholders for the active driver.
func (s *SQLStore) q(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	return rebind(query)
}

// rebind turns ? placeholders into $1, $2, ...
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL,
  number INTEGER NOT NULL,
  text TEXT NOT NULL,
  reference_answer TEXT NOT NULL DEFAULT '',
  max_points REAL NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL,
  question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  student_id TEXT NOT NULL,
  answer TEXT NOT NULL,
  submitted_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_student ON submissions(student_id, assignment_id);

CREATE TABLE IF NOT EXISTS gradings (
  submission_id TEXT PRIMARY KEY REFERENCES submissions(id) ON DELETE CASCADE,
  ai_score REAL,
  technical_score REAL,
  logical_score REAL,
  ai_feedback TEXT NOT NULL DEFAULT '',
  method TEXT NOT NULL DEFAULT '',
  lecturer_score REAL,
  lecturer_feedback TEXT NOT NULL DEFAULT '',
  graded_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL,
  number INTEGER NOT NULL,
  text TEXT NOT NULL,
  reference_answer TEXT NOT NULL DEFAULT '',
  max_points DOUBLE PRECISION NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL,
  question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  student_id TEXT NOT NULL,
  answer TEXT NOT NULL,
  submitted_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_student ON submissions(student_id, assignment_id);

CREATE TABLE IF NOT EXISTS gradings (
  submission_id TEXT PRIMARY KEY REFERENCES submissions(id) ON DELETE CASCADE,
  ai_score DOUBLE PRECISION,
  technical_score DOUBLE PRECISION,
  logical_score DOUBLE PRECISION,
  ai_feedback TEXT NOT NULL DEFAULT '',
  method TEXT NOT NULL DEFAULT '',
  lecturer_score DOUBLE PRECISION,
  lecturer_feedback TEXT NOT NULL DEFAULT '',
  graded_at BIGINT NOT NULL
);
`
