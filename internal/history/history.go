// Package history records archives saved to disk so they can be listed
// after the session that produced them is gone.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pixelfit/pixelfit/internal/db"
)

// Source is the screen that produced a download.
type Source string

const (
	SourceBatch  Source = "batch"
	SourceEditor Source = "editor"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("download not found")

// Entry is one saved archive.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Source    Source    `json:"source"`
	Files     int       `json:"files"`
	Size      int64     `json:"size"`
}

// Store reads and writes the downloads table.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Record inserts e. An empty ID is filled with a UUID and a zero CreatedAt
// with the current time. The stored entry is returned.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Second)
	if e.Source == "" {
		e.Source = SourceBatch
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO downloads (id, created_at, name, path, source, file_count, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.Format(time.DateTime), e.Name, e.Path, string(e.Source), e.Files, e.Size,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("recording download: %w", err)
	}
	return e, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Filter narrows List.
type Filter struct {
	Source Source
	Since  *time.Time
	Limit  int
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, string(f.Source))
	}
	if f.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(time.DateTime))
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing downloads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes entries older than before and returns how many
// were removed. Archives on disk are left alone.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM downloads WHERE created_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning downloads: %w", err)
	}
	return res.RowsAffected()
}

const selectColumns = "SELECT id, created_at, name, path, source, file_count, size_bytes FROM downloads"

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e      Entry
		ts     string
		source string
	)
	if err := sc.Scan(&e.ID, &ts, &e.Name, &e.Path, &source, &e.Files, &e.Size); err != nil {
		return nil, err
	}
	e.Source = Source(source)

	if t, err := time.Parse(time.DateTime, ts); err == nil {
		e.CreatedAt = t
	} else if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		e.CreatedAt = t.UTC()
	}
	return &e, nil
}
