package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"personid/internal/identity"
)

// timeLayout is fixed-width so renamed_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one applied rename.
type Entry struct {
	ID        int64
	RunID     string
	Subject   string
	From      string
	To        string
	Name      string
	Birth     string
	RenamedAt time.Time
}

// Store is the rename journal backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ identity.Recorder = (*Store)(nil)

// Open creates or opens the journal at path and applies migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
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

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends an entry. A zero RenamedAt is set to now.
func (s *Store) Record(ctx context.Context, entry Entry) (*Entry, error) {
	if entry.RenamedAt.IsZero() {
		entry.RenamedAt = time.Now()
	}
	entry.RenamedAt = entry.RenamedAt.UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO renames (run_id, subject, from_path, to_path, name, birth, renamed_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullableString(entry.RunID),
		entry.Subject,
		entry.From,
		entry.To,
		entry.Name,
		entry.Birth,
		entry.RenamedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert rename: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return &entry, nil
}

// RecordRename implements identity.Recorder.
func (s *Store) RecordRename(ctx context.Context, rename identity.Rename) error {
	_, err := s.Record(ctx, Entry{
		RunID:   rename.RunID,
		Subject: rename.Subject,
		From:    rename.From,
		To:      rename.To,
		Name:    rename.Name,
		Birth:   rename.Birth,
	})
	return err
}

// List returns the newest entries first. A limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, run_id, subject, from_path, to_path, name, birth, renamed_at
              FROM renames ORDER BY renamed_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query renames: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renames: %w", err)
	}
	return entries, nil
}

// ListRun returns the entries of one scan run in insertion order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, subject, from_path, to_path, name, birth, renamed_at
         FROM renames WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run %s: %w", runID, err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry     Entry
		runID     sql.NullString
		renamedAt string
	)
	if err := row.Scan(&entry.ID, &runID, &entry.Subject, &entry.From, &entry.To, &entry.Name, &entry.Birth, &renamedAt); err != nil {
		return Entry{}, fmt.Errorf("scan rename: %w", err)
	}
	entry.RunID = runID.String
	ts, err := time.Parse(timeLayout, renamedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse renamed_at %q: %w", renamedAt, err)
	}
	entry.RenamedAt = ts
	return entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
