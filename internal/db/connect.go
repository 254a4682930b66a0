package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver maps common aliases to a Driver.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "pg", "pgsql", "pgx":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", s)
	}
}

// Open opens a DB, tunes the pool for the driver and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:examd.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/examd?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	tunePool(driver, db)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db: schema: %w", err)
	}
	return db, nil
}

// tunePool keeps SQLite on a single connection (single writer, and an
// in-memory database lives only as long as its connection).
func tunePool(driver Driver, db *sql.DB) {
	switch driver {
	case DriverSQLite:
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	default:
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(45 * time.Minute)
		db.SetConnMaxIdleTime(15 * time.Minute)
	}
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS tag (
  id TEXT PRIMARY KEY,
  idx INTEGER NOT NULL,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS question (
  id TEXT PRIMARY KEY,
  statement TEXT NOT NULL,
  selections TEXT NOT NULL,
  answer INTEGER NOT NULL CHECK (answer BETWEEN 0 AND 3),
  point INTEGER NOT NULL CHECK (point > 0),
  figure TEXT,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS question_tag (
  question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
  tag_id TEXT NOT NULL REFERENCES tag(id),
  PRIMARY KEY (question_id, tag_id)
);

CREATE TABLE IF NOT EXISTS examination (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  answered_at INTEGER
);

CREATE TABLE IF NOT EXISTS examination_excluded_tag (
  examination_id TEXT NOT NULL REFERENCES examination(id) ON DELETE CASCADE,
  tag_id TEXT NOT NULL REFERENCES tag(id),
  PRIMARY KEY (examination_id, tag_id)
);

CREATE TABLE IF NOT EXISTS exampart (
  id TEXT PRIMARY KEY,
  examination_id TEXT NOT NULL REFERENCES examination(id) ON DELETE CASCADE,
  idx INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exampart_tag (
  exampart_id TEXT NOT NULL REFERENCES exampart(id) ON DELETE CASCADE,
  tag_id TEXT NOT NULL REFERENCES tag(id),
  PRIMARY KEY (exampart_id, tag_id)
);

CREATE TABLE IF NOT EXISTS examquestion (
  exampart_id TEXT NOT NULL REFERENCES exampart(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL REFERENCES question(id),
  idx INTEGER NOT NULL,
  answer_order TEXT NOT NULL,
  examinee_answer INTEGER CHECK (examinee_answer BETWEEN 0 AND 3),
  PRIMARY KEY (exampart_id, idx)
);

CREATE INDEX IF NOT EXISTS question_tag_tag_idx ON question_tag(tag_id);
CREATE INDEX IF NOT EXISTS exampart_examination_idx ON exampart(examination_id);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS tag (
  id TEXT PRIMARY KEY,
  idx INTEGER NOT NULL,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS question (
  id TEXT PRIMARY KEY,
  statement TEXT NOT NULL,
  selections TEXT NOT NULL,
  answer INTEGER NOT NULL CHECK (answer BETWEEN 0 AND 3),
  point INTEGER NOT NULL CHECK (point > 0),
  figure TEXT,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS question_tag (
  question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
  tag_id TEXT NOT NULL REFERENCES tag(id),
  PRIMARY KEY (question_id, tag_id)
);

CREATE TABLE IF NOT EXISTS examination (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  answered_at BIGINT
);

CREATE TABLE IF NOT EXISTS examination_excluded_tag (
  examination_id TEXT NOT NULL REFERENCES examination(id) ON DELETE CASCADE,
  tag_id TEXT NOT NULL REFERENCES tag(id),
  PRIMARY KEY (examination_id, tag_id)
);

CREATE TABLE IF NOT EXISTS exampart (
  id TEXT PRIMARY KEY,
  examination_id TEXT NOT NULL REFERENCES examination(id) ON DELETE CASCADE,
  idx INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exampart_tag (
  exampart_id TEXT NOT NULL REFERENCES exampart(id) ON DELETE CASCADE,
  tag_id TEXT NOT NULL REFERENCES tag(id),
  PRIMARY KEY (exampart_id, tag_id)
);

CREATE TABLE IF NOT EXISTS examquestion (
  exampart_id TEXT NOT NULL REFERENCES exampart(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL REFERENCES question(id),
  idx INTEGER NOT NULL,
  answer_order TEXT NOT NULL,
  examinee_answer INTEGER CHECK (examinee_answer BETWEEN 0 AND 3),
  PRIMARY KEY (exampart_id, idx)
);

CREATE INDEX IF NOT EXISTS question_tag_tag_idx ON question_tag(tag_id);
CREATE INDEX IF NOT EXISTS exampart_examination_idx ON exampart(examination_id);
`
