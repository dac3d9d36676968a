/*
Package sqlite provides a SQLite-backed session store.

PURPOSE:
  Implements session.Store using SQLite. The default DSN is ":memory:", so
  sessions vanish with the process exactly as with the map store; pointing
  SESSION_STORE_DSN at a file keeps users signed in across restarts.

KEY TABLES:
  sessions: one row per signed-in browser

INDEXES:
  - idx_sessions_expires_at: sweeper range delete
  - idx_sessions_user:       per-user lookups

CONCURRENCY:
  Uses sync.RWMutex around the handle. An in-memory database is private to
  its connection, so the pool is limited to a single connection.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/sessions.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  manager := session.NewManager(store, opts)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - session/store.go: Interface definition
  - session/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/labor-calculator/session"
)

// Store implements session.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ session.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		email TEXT,
		name TEXT,
		provider TEXT NOT NULL,
		access_token TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at
		ON sessions(expires_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_user
		ON sessions(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SESSION STORE (session.Store interface)
// =============================================================================

// Save inserts or replaces a session.
func (s *Store) Save(ctx context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sessions (id, user_id, email, name, provider, access_token, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			name = excluded.name,
			provider = excluded.provider,
			access_token = excluded.access_token,
			expires_at = excluded.expires_at
	`

	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.UserID, nullString(sess.Email), nullString(sess.Name),
		sess.Provider, sess.AccessToken,
		formatTime(sess.CreatedAt), formatTime(sess.ExpiresAt),
	)
	return err
}

// Get retrieves a session by ID.
func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sess session.Session
	var email, name sql.NullString
	var createdAt, expiresAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, email, name, provider, access_token, created_at, expires_at FROM sessions WHERE id = ?",
		id,
	).Scan(&sess.ID, &sess.UserID, &email, &name, &sess.Provider, &sess.AccessToken, &createdAt, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sess.Email = email.String
	sess.Name = name.String
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sess.ExpiresAt, _ = time.Parse(time.RFC3339Nano, expiresAt)
	return &sess, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

// DeleteExpired removes every session with expires_at <= now.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", formatTime(now))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// formatTime stores UTC with fixed-width fractional seconds so that string
// comparison in SQL matches chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
