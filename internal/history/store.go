// Package history persists a record of every announcement attempt so the
// CLI can show what played, from which backend, and why anything failed.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Record is one announcement attempt.
type Record struct {
	ID      string
	Kind    string
	Message string
	// Backend names the synthesis backend that produced the audio; empty
	// when nothing was synthesized.
	Backend  string
	Voice    string
	CacheHit bool
	// Fallback marks messages that came from a static pool rather than a
	// summarizer backend.
	Fallback     bool
	LLMGenerated bool
	ErrorMessage string
	CreatedAt    time.Time
}

// Store manages announcement persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies
// migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Append stores a record, assigning an ID and timestamp when absent.
func (s *Store) Append(ctx context.Context, record Record) (Record, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Kind == "" {
		return Record{}, errors.New("history append: kind required")
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO announcements (
            id, kind, message, backend, voice, cache_hit, fallback,
            llm_generated, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Kind,
		record.Message,
		nullableString(record.Backend),
		nullableString(record.Voice),
		boolToInt(record.CacheHit),
		boolToInt(record.Fallback),
		boolToInt(record.LLMGenerated),
		nullableString(record.ErrorMessage),
		record.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert announcement: %w", err)
	}
	return record, nil
}

// List returns the newest records first, up to limit. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM announcements ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetByID fetches one record. A missing ID returns nil.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM announcements WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return &record, nil
}

// Prune removes records older than the cutoff and reports how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM announcements WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune announcements: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of records grouped by kind.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(1) FROM announcements GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats[kind] = count
	}
	return stats, rows.Err()
}

const recordColumns = "id, kind, message, backend, voice, cache_hit, fallback, llm_generated, error_message, created_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		record       Record
		backend      sql.NullString
		voice        sql.NullString
		cacheHit     int
		fallback     int
		llmGenerated int
		errorMessage sql.NullString
		createdRaw   string
	)
	if err := scanner.Scan(
		&record.ID,
		&record.Kind,
		&record.Message,
		&backend,
		&voice,
		&cacheHit,
		&fallback,
		&llmGenerated,
		&errorMessage,
		&createdRaw,
	); err != nil {
		return Record{}, err
	}

	record.Backend = backend.String
	record.Voice = voice.String
	record.CacheHit = cacheHit != 0
	record.Fallback = fallback != 0
	record.LLMGenerated = llmGenerated != 0
	record.ErrorMessage = errorMessage.String
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		record.CreatedAt = created
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
