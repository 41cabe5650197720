// Package localstore keeps meeting snapshots in a local SQLite file so
// overlaps can be inspected without the API database.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/noah-isme/huddle-api/internal/models"
)

// ErrNotFound is returned by Load for an unknown meeting id.
var ErrNotFound = errors.New("snapshot not found")

// Store is a snapshot store backed by SQLite.
type Store struct {
	db *sqlx.DB
}

// Entry summarises a stored snapshot.
type Entry struct {
	MeetingID string    `db:"meeting_id"`
	Title     string    `db:"title"`
	SavedAt   time.Time `db:"saved_at"`
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to local store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS snapshots (
			meeting_id TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			payload    TEXT NOT NULL,
			saved_at   DATETIME NOT NULL
		);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating snapshots table: %w", err)
	}
	return nil
}

// Save writes snapshot under id, replacing any earlier copy.
func (s *Store) Save(ctx context.Context, id string, snapshot models.MeetingSnapshot) error {
	if id == "" {
		return fmt.Errorf("snapshot id required")
	}
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	const query = `
		INSERT INTO snapshots (meeting_id, title, payload, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(meeting_id) DO UPDATE SET
			title = excluded.title,
			payload = excluded.payload,
			saved_at = excluded.saved_at
	`
	if _, err := s.db.ExecContext(ctx, query, id, snapshot.Meeting.Title, string(payload), snapshot.SavedAt.UTC()); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot stored under id.
func (s *Store) Load(ctx context.Context, id string) (*models.MeetingSnapshot, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM snapshots WHERE meeting_id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var snapshot models.MeetingSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", id, err)
	}
	return &snapshot, nil
}

// List returns stored snapshots, most recent first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := s.db.SelectContext(ctx, &entries, `SELECT meeting_id, title, saved_at FROM snapshots ORDER BY saved_at DESC`); err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return entries, nil
}

// Delete removes a snapshot; deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE meeting_id = ?`, id); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
