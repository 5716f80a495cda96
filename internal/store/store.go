// Package store persists final advisory replies in a local sqlite
// database so users can review their recent advice history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"myve/internal/types"
)

// Entry is one logged advisory interaction.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Intents   []string  `json:"intents"`
	Agents    []string  `json:"agents"`
	RequestID string    `json:"requestId"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdviceLog is the sqlite-backed reply history.
type AdviceLog struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Open creates or opens the advice log at path.
func Open(path string, log *zap.Logger) (*AdviceLog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open advice log: %w", err)
	}
	l := &AdviceLog{db: db, path: path, log: log.Named("store")}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize advice log schema: %w", err)
	}
	return l, nil
}

func (l *AdviceLog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS advice_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		query TEXT NOT NULL,
		response TEXT NOT NULL,
		intents_json TEXT,
		agents_json TEXT,
		request_id TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_advice_user ON advice_log(user_id);
	CREATE INDEX IF NOT EXISTS idx_advice_created ON advice_log(created_at);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (l *AdviceLog) Path() string { return l.path }

// Append stores one final reply. Satisfies the router's Recorder.
func (l *AdviceLog) Append(ctx context.Context, userID, query string, reply types.Reply) error {
	intents, err := json.Marshal(reply.Intents)
	if err != nil {
		return fmt.Errorf("encode intents: %w", err)
	}
	agents, err := json.Marshal(reply.Agents)
	if err != nil {
		return fmt.Errorf("encode agents: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO advice_log (user_id, query, response, intents_json, agents_json, request_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, query, reply.Response, string(intents), string(agents), reply.RequestID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append advice log: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for userID, newest first.
func (l *AdviceLog) Recent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, user_id, query, response, intents_json, agents_json, request_id, created_at
		 FROM advice_log WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query advice log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var intents, agents string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Query, &e.Response, &intents, &agents, &e.RequestID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan advice log row: %w", err)
		}
		// History readability beats strictness here: a corrupt list
		// column yields an empty list, not a failed page.
		if err := json.Unmarshal([]byte(intents), &e.Intents); err != nil {
			l.log.Warn("corrupt intents column", zap.Int64("id", e.ID))
		}
		if err := json.Unmarshal([]byte(agents), &e.Agents); err != nil {
			l.log.Warn("corrupt agents column", zap.Int64("id", e.ID))
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than age and returns how many went.
func (l *AdviceLog) Prune(ctx context.Context, age time.Duration) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM advice_log WHERE created_at < ?`, time.Now().UTC().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("prune advice log: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (l *AdviceLog) Close() error {
	return l.db.Close()
}
