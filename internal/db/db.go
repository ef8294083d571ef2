package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) the bot's SQLite database at the given path.
func Open(dsn string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

const schema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS activity (
  id         TEXT PRIMARY KEY,
  command    TEXT NOT NULL,
  chat_id    TEXT NOT NULL,
  requester  TEXT NOT NULL DEFAULT '',
  outcome    TEXT NOT NULL,            -- ok/error
  detail     TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS activity_created_at ON activity(created_at);
`
