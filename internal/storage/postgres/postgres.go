package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/AaronLay10/BrewSim/internal/config"
	"github.com/AaronLay10/BrewSim/internal/simulation"
)

// EventRow represents an event stored in Postgres.
type EventRow struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Instance  string                 `json:"instance"`
	SessionID *string                `json:"session_id,omitempty"`
}

// RecordRow is a submitted score record.
type RecordRow struct {
	RecordID int64                    `json:"record_id"`
	Created  time.Time                `json:"created"`
	UserID   string                   `json:"user_id"`
	Kind     string                   `json:"kind"`
	Score    int                      `json:"score"`
	MaxScore int                      `json:"max_score"`
	Entries  []simulation.RecordEntry `json:"entries"`
	Instance string                   `json:"instance"`
}

// Client manages the Postgres connection for event and score storage.
type Client struct {
	db       *sql.DB
	instance string
}

// ConnString builds a lib/pq connection string from PG* environment variables.
// PGPASSWORD may also be supplied through PGPASSWORD_FILE.
func ConnString() (string, error) {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "brewsim")
	dbname := getEnv("PGDATABASE", "brewsim")
	password, err := config.ResolveSecret("PGPASSWORD")
	if err != nil {
		return "", err
	}

	if password != "" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname), nil
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port, user, dbname), nil
}

// New connects using environment variables and creates the tables.
// instance tags every row written by this process.
func New(instance string) (*Client, error) {
	connStr, err := ConnString()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{
		db:       db,
		instance: instance,
	}

	if err := client.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return client, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (c *Client) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS events (
			event_id   BIGSERIAL PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     JSONB,
			instance   TEXT NOT NULL,
			session_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id);

		CREATE TABLE IF NOT EXISTS score_records (
			record_id  BIGSERIAL PRIMARY KEY,
			created    TIMESTAMPTZ NOT NULL DEFAULT now(),
			user_id    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			score      INTEGER NOT NULL,
			max_score  INTEGER NOT NULL,
			entries    JSONB NOT NULL,
			instance   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_score_records_user ON score_records(user_id, created DESC);
	`
	_, err := c.db.Exec(query)
	return err
}

// Append inserts an event into the database.
// Returns error if insert fails.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	var fieldsJSON []byte
	var err error
	if fields != nil {
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	}

	var msgPtr *string
	if msg != "" {
		msgPtr = &msg
	}

	var sessionPtr *string
	if sessionID != "" {
		sessionPtr = &sessionID
	}

	query := `
		INSERT INTO events (ts, level, event, msg, fields, instance, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = c.db.Exec(query, ts, level, event, msgPtr, fieldsJSON, c.instance, sessionPtr)
	return err
}

// Query returns the last N events in descending order by timestamp.
// A non-empty sessionID restricts the result to that session.
func (c *Client) Query(limit int, sessionID string) ([]EventRow, error) {
	limit = clampLimit(limit)

	query := `
		SELECT event_id, ts, level, event, msg, fields, instance, session_id
		FROM events
		WHERE instance = $1 AND ($2 = '' OR session_id = $2)
		ORDER BY ts DESC
		LIMIT $3
	`
	rows, err := c.db.Query(query, c.instance, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		var fieldsJSON []byte
		var msg, sid sql.NullString

		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fieldsJSON, &e.Instance, &sid); err != nil {
			return nil, err
		}

		if msg.Valid {
			e.Message = &msg.String
		}
		if sid.Valid {
			e.SessionID = &sid.String
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// SaveRecord stores a completed score record.
func (c *Client) SaveRecord(ctx context.Context, userID string, kind simulation.Kind, rec simulation.Record) error {
	entries, err := json.Marshal(rec.Entries)
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}
	score, maxScore := rec.Totals()

	query := `
		INSERT INTO score_records (user_id, kind, score, max_score, entries, instance)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = c.db.ExecContext(ctx, query, userID, string(kind), score, maxScore, entries, c.instance)
	return err
}

// Records returns a user's most recent score records.
func (c *Client) Records(ctx context.Context, userID string, limit int) ([]RecordRow, error) {
	query := `
		SELECT record_id, created, user_id, kind, score, max_score, entries, instance
		FROM score_records
		WHERE user_id = $1
		ORDER BY created DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, query, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		var r RecordRow
		var entries []byte
		if err := rows.Scan(&r.RecordID, &r.Created, &r.UserID, &r.Kind, &r.Score, &r.MaxScore, &entries, &r.Instance); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(entries, &r.Entries); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 10000 {
		return 10000
	}
	return limit
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
