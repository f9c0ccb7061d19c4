// Package audit records executed commands in SQLite and answers history
// queries over them.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Status of a recorded command
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one executed command
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Source    string        `json:"source"`
	Command   string        `json:"command"`
	Action    string        `json:"action"`
	Type      string        `json:"type"`
	Status    string        `json:"status"`
	Code      string        `json:"code,omitempty"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Filter defines criteria for history queries
type Filter struct {
	Source     string
	Action     string
	Type       string
	FailedOnly bool
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

// Stats summarizes the stored history
type Stats struct {
	Total  int64
	Failed int64
	ByCode map[string]int64
	Oldest time.Time
	Newest time.Time
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Path: "./data/audit.db",
	}
}

// SQLiteStore persists entries in SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the audit database
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS commands (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		source TEXT NOT NULL,
		command TEXT NOT NULL,
		action TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		code TEXT,
		message TEXT,
		duration_us INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_commands_timestamp ON commands(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_commands_source ON commands(source);
	CREATE INDEX IF NOT EXISTS idx_commands_status ON commands(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

const insertEntry = `
	INSERT INTO commands (id, timestamp, source, command, action, type, status, code, message, duration_us)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// String renders the entry as one history line
func (e *Entry) String() string {
	line := fmt.Sprintf("%s  %-6s  %-8s  %8s  %s",
		e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Status, e.Source,
		e.Duration.Round(time.Microsecond), e.Command)
	if e.Status == StatusFailed {
		line += "  [" + e.Code + "] " + e.Message
	}
	return line
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Timestamp = e.Timestamp.UTC()
	if e.Status == "" {
		e.Status = StatusOK
	}
}

// Record stores a single entry
func (s *SQLiteStore) Record(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.normalize()
	_, err := s.db.ExecContext(ctx, insertEntry,
		entry.ID, entry.Timestamp, entry.Source, entry.Command, entry.Action, entry.Type,
		entry.Status, entry.Code, entry.Message, entry.Duration.Microseconds())
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// RecordBatch stores entries in one transaction and returns the number
// accepted and rejected
func (s *SQLiteStore) RecordBatch(ctx context.Context, entries []*Entry) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, len(entries), fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertEntry)
	if err != nil {
		return 0, len(entries), fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	var accepted, rejected int
	for _, entry := range entries {
		entry.normalize()
		_, err := stmt.ExecContext(ctx,
			entry.ID, entry.Timestamp, entry.Source, entry.Command, entry.Action, entry.Type,
			entry.Status, entry.Code, entry.Message, entry.Duration.Microseconds())
		if err != nil {
			rejected++
		} else {
			accepted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, len(entries), fmt.Errorf("failed to commit transaction: %w", err)
	}
	return accepted, rejected, nil
}

// Query returns entries matching filter, newest first
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, source, command, action, type, status, code, message, duration_us
		FROM commands WHERE 1=1`
	var args []interface{}

	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.FailedOnly {
		query += " AND status = ?"
		args = append(args, StatusFailed)
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.Until.UTC())
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var code, message sql.NullString
		var micros int64
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Source, &entry.Command,
			&entry.Action, &entry.Type, &entry.Status, &code, &message, &micros); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Code = code.String
		entry.Message = message.String
		entry.Duration = time.Duration(micros) * time.Microsecond
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Stats summarizes the stored history
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByCode: make(map[string]int64)}

	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			MIN(timestamp), MAX(timestamp)
		FROM commands
	`, StatusFailed).Scan(&stats.Total, &stats.Failed, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit stats: %w", err)
	}
	stats.Oldest = parseTimestamp(oldest)
	stats.Newest = parseTimestamp(newest)

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, COUNT(*) FROM commands
		WHERE status = ? AND code IS NOT NULL AND code != ''
		GROUP BY code
	`, StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var count int64
		if err := rows.Scan(&code, &count); err != nil {
			return nil, err
		}
		stats.ByCode[code] = count
	}
	return stats, rows.Err()
}

// parseTimestamp reads an aggregate timestamp, which the driver returns
// as text rather than as a DATETIME column
func parseTimestamp(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", time.RFC3339Nano} {
		if t, err := time.Parse(layout, v.String); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Prune deletes entries older than olderThan
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).UTC()
	result, err := s.db.ExecContext(ctx, `DELETE FROM commands WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit entries: %w", err)
	}
	return result.RowsAffected()
}

// Ping verifies the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
