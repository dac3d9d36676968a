/*
store.go - Session persistence interface

PURPOSE:
  A session links a browser cookie to the bearer token issued by the account
  API. The application owns no user data; sessions are the only thing it
  keeps, and by default they live in memory only.

IMPLEMENTATIONS:
  - session/memory.go:     map-backed, for tests and single-process runs
  - store/sqlite/sqlite.go: SQLite-backed (":memory:" unless a file DSN is
                            configured)

SEE ALSO:
  - manager.go: Issues, signs and loads sessions
*/
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is one signed-in browser.
type Session struct {
	ID          string
	UserID      string
	Email       string
	Name        string
	Provider    string // "credentials" or an OAuth provider name
	AccessToken string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions.
type Store interface {
	// Save inserts or replaces a session.
	Save(ctx context.Context, s Session) error

	// Get returns the session with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes sessions that expired before now and returns how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
