// Package sqlite provides a local SQLite archive of completed runs and events.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/AaronLay10/BrewSim/internal/simulation"
)

// Run is an archived, completed simulation run.
type Run struct {
	ID        string                   `json:"id"`
	UserID    string                   `json:"user_id"`
	Kind      string                   `json:"kind"`
	Score     int                      `json:"score"`
	MaxScore  int                      `json:"max_score"`
	CreatedAt time.Time                `json:"created_at"`
	Entries   []simulation.RecordEntry `json:"entries,omitempty"`
}

// Archive stores runs and events in a SQLite file.
type Archive struct {
	db *sql.DB
}

// Open opens (or creates) the archive at path and migrates it.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between the event and run writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			score INTEGER NOT NULL,
			max_score INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_user ON runs(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS run_levels (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			level TEXT NOT NULL,
			field TEXT NOT NULL,
			score INTEGER NOT NULL,
			max_score INTEGER NOT NULL,
			PRIMARY KEY (run_id, position),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts DATETIME NOT NULL,
			level TEXT NOT NULL,
			event TEXT NOT NULL,
			msg TEXT,
			fields TEXT,
			session_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id)`,
	}
	for _, m := range migrations {
		if _, err := a.db.Exec(m); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

// SaveRecord archives a completed record as a new run.
func (a *Archive) SaveRecord(ctx context.Context, userID string, kind simulation.Kind, rec simulation.Record) error {
	_, err := a.SaveRun(ctx, userID, kind, rec)
	return err
}

// SaveRun archives rec and returns the new run ID.
func (a *Archive) SaveRun(ctx context.Context, userID string, kind simulation.Kind, rec simulation.Record) (string, error) {
	id := uuid.NewString()
	score, maxScore := rec.Totals()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, user_id, kind, score, max_score, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, string(kind), score, maxScore, time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("sqlite: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_levels (run_id, position, level, field, score, max_score) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for i, e := range rec.Entries {
		if _, err := stmt.ExecContext(ctx, id, i, e.Level, e.Field, e.Score, e.MaxScore); err != nil {
			return "", fmt.Errorf("sqlite: insert level %s: %w", e.Level, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("sqlite: commit: %w", err)
	}
	return id, nil
}

// GetRun fetches a run and its level entries.
func (a *Archive) GetRun(ctx context.Context, id string) (*Run, error) {
	r := &Run{}
	err := a.db.QueryRowContext(ctx,
		`SELECT id, user_id, kind, score, max_score, created_at FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.UserID, &r.Kind, &r.Score, &r.MaxScore, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get run %s: %w", id, err)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT level, field, score, max_score FROM run_levels WHERE run_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get run levels: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e simulation.RecordEntry
		if err := rows.Scan(&e.Level, &e.Field, &e.Score, &e.MaxScore); err != nil {
			return nil, fmt.Errorf("sqlite: scan level: %w", err)
		}
		r.Entries = append(r.Entries, e)
	}
	return r, rows.Err()
}

// ListRuns returns a user's runs, newest first, without entries.
func (a *Archive) ListRuns(ctx context.Context, userID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, user_id, kind, score, max_score, created_at FROM runs
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.UserID, &r.Kind, &r.Score, &r.MaxScore, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Append stores an event. It satisfies events.Appender.
func (a *Archive) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	var fieldsJSON []byte
	if fields != nil {
		b, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("sqlite: marshal fields: %w", err)
		}
		fieldsJSON = b
	}
	_, err := a.db.Exec(
		`INSERT INTO events (ts, level, event, msg, fields, session_id) VALUES (?, ?, ?, ?, ?, ?)`,
		ts, level, event, nullString(msg), nullString(string(fieldsJSON)), nullString(sessionID),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert event: %w", err)
	}
	return nil
}

// CountEvents returns the number of stored events for a session.
func (a *Archive) CountEvents(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Ping checks the database.
func (a *Archive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}
