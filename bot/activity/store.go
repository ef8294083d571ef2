package activity

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcomes recorded for a command.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Record is one executed command.
type Record struct {
	ID        string
	Command   string
	ChatID    string
	Requester string
	Outcome   string
	Detail    string
	CreatedAt time.Time
}

// Store handles activity persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates an activity store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save records an executed command.
func (s *Store) Save(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Outcome == "" {
		rec.Outcome = OutcomeOK
	}
	_, err := s.db.Exec(
		`INSERT INTO activity (id, command, chat_id, requester, outcome, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Command, rec.ChatID, rec.Requester, rec.Outcome, rec.Detail, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Recent returns the most recent n records, newest first.
func (s *Store) Recent(n int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, command, chat_id, requester, outcome, detail, created_at
		 FROM activity ORDER BY created_at DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Command, &r.ChatID, &r.Requester, &r.Outcome, &r.Detail, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Format returns a human-readable summary of recent activity.
func (s *Store) Format(n int) (string, error) {
	records, err := s.Recent(n)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "No commands recorded yet.", nil
	}

	out := fmt.Sprintf("Last %d commands:\n\n", len(records))
	for i, r := range records {
		out += fmt.Sprintf("%d. !%s [%s] %s\n", i+1, r.Command, r.Outcome, r.CreatedAt.Format("2006-01-02 15:04:05"))
		if r.Detail != "" {
			out += fmt.Sprintf("   %s\n", r.Detail)
		}
	}
	return out, nil
}
