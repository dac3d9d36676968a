/*
manager.go - Session issuing, cookie signing and lookup

PURPOSE:
  Wraps a Store with everything the HTTP layer needs:
  - Create a session from an account API grant
  - Sign the session ID into a cookie (HMAC-SHA256, SESSION_SECRET)
  - Load and verify the session on each request
  - Sweep expired sessions periodically
  - Issue and verify OAuth state values

COOKIE FORMAT:
  <session-id>.<base64url(HMAC(secret, session-id))>

  The cookie is HttpOnly, SameSite=Lax, and Secure when configured. A cookie
  whose signature does not verify is treated as absent.

OAUTH STATE:
  state = <provider>:<nonce>:<expiry-unix>.<base64url(HMAC)>

  The nonce is also set in a short-lived HttpOnly cookie scoped to
  /auth/oauth. A callback is accepted only from the browser holding that
  cookie, and the cookie is cleared on the first verification attempt.

SEE ALSO:
  - store.go: Store interface
  - api/auth.go: Login/logout handlers
*/
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/labor-calculator/account"
)

// DefaultCookieName is used when Options.CookieName is empty.
const DefaultCookieName = "lhc_session"

// stateTTL bounds how long an OAuth round trip may take.
const stateTTL = 10 * time.Minute

// StateCookieName holds the nonce of an OAuth login in progress.
const StateCookieName = "lhc_oauth"

const stateCookiePath = "/auth/oauth"

// ErrInvalidState is returned when an OAuth state fails verification.
var ErrInvalidState = errors.New("invalid oauth state")

// Options configures a Manager.
type Options struct {
	Secret     string
	TTL        time.Duration
	Secure     bool
	CookieName string
}

// Manager issues and resolves sessions.
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	secure     bool
	cookieName string

	now func() time.Time
}

// NewManager creates a Manager over store.
func NewManager(store Store, opts Options) *Manager {
	name := opts.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Manager{
		store:      store,
		secret:     []byte(opts.Secret),
		ttl:        opts.TTL,
		secure:     opts.Secure,
		cookieName: name,
		now:        time.Now,
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Create stores a new session for grant. The session expires after the
// configured TTL or the grant's own lifetime, whichever comes first.
func (m *Manager) Create(ctx context.Context, grant *account.Grant, provider string) (*Session, error) {
	now := m.now().UTC()
	expires := now.Add(m.ttl)
	if grant.ExpiresIn > 0 {
		if tokenExpiry := now.Add(time.Duration(grant.ExpiresIn) * time.Second); tokenExpiry.Before(expires) {
			expires = tokenExpiry
		}
	}

	s := Session{
		ID:          uuid.NewString(),
		UserID:      grant.User.ID,
		Email:       grant.User.Email,
		Name:        grant.User.Name,
		Provider:    provider,
		AccessToken: grant.AccessToken,
		CreatedAt:   now,
		ExpiresAt:   expires,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &s, nil
}

// Load returns the session referenced by the request cookie, or ErrNotFound
// when the cookie is missing, tampered with, unknown or expired.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrNotFound
	}
	id, ok := m.verify(c.Value)
	if !ok {
		return nil, ErrNotFound
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return s, nil
}

// Destroy deletes the request's session (if any) and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	defer m.ClearCookie(w)

	s, err := m.Load(ctx, r)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, m.store.Delete(ctx, s.ID)
}

// Sweep removes expired sessions.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// RunSweeper calls Sweep every interval until ctx is done. onSweep, if not
// nil, receives the result of each pass.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(int, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := m.Sweep(ctx)
			if onSweep != nil {
				onSweep(n, err)
			}
		}
	}
}

// =============================================================================
// COOKIES
// =============================================================================

// SetCookie writes the signed session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    m.sign(s.ID),
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) sign(value string) string {
	return value + "." + m.mac(value)
}

func (m *Manager) verify(signed string) (string, bool) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 {
		return "", false
	}
	value, sig := signed[:i], signed[i+1:]
	if !hmac.Equal([]byte(sig), []byte(m.mac(value))) {
		return "", false
	}
	return value, true
}

func (m *Manager) mac(value string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// =============================================================================
// OAUTH STATE
// =============================================================================

// IssueState returns a signed, expiring state value bound to provider and
// sets the matching nonce cookie on w.
func (m *Manager) IssueState(w http.ResponseWriter, provider string) string {
	nonce := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    nonce,
		Path:     stateCookiePath,
		MaxAge:   int(stateTTL / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	expires := m.now().Add(stateTTL).Unix()
	return m.sign(provider + ":" + nonce + ":" + strconv.FormatInt(expires, 10))
}

// VerifyState checks that state was issued by IssueState for provider, has
// not expired and carries the nonce in r's state cookie. The state cookie is
// cleared whatever the outcome, so a browser can use a state at most once.
func (m *Manager) VerifyState(w http.ResponseWriter, r *http.Request, provider, state string) error {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	c, err := r.Cookie(StateCookieName)
	if err != nil || c.Value == "" {
		return ErrInvalidState
	}
	value, ok := m.verify(state)
	if !ok {
		return ErrInvalidState
	}
	parts := strings.Split(value, ":")
	if len(parts) != 3 || parts[0] != provider {
		return ErrInvalidState
	}
	if !hmac.Equal([]byte(parts[1]), []byte(c.Value)) {
		return ErrInvalidState
	}
	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || m.now().Unix() > expires {
		return ErrInvalidState
	}
	return nil
}

// =============================================================================
// CONTEXT
// =============================================================================

type ctxKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
