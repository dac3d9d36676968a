package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/labor-calculator/account"
	"github.com/warp/labor-calculator/session"
)

const providerCredentials = "credentials"

// =============================================================================
// SESSION GATES
// =============================================================================

// RequireAPI rejects requests without a valid session with 401 JSON.
func (h *Handler) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Sessions.Load(r.Context(), r)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "Authentication required", nil)
				return
			}
			h.Logger.Error("load session", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to load session", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}

// RequirePage redirects browsers without a valid session to /login.
func (h *Handler) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Sessions.Load(r.Context(), r)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				h.Logger.Error("load session", zap.Error(err))
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}

// Root sends signed-in users to the dashboard and everyone else to login.
// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Sessions.Load(r.Context(), r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// =============================================================================
// CREDENTIALS LOGIN
// =============================================================================

// LoginPage renders the sign-in form.
// GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, http.StatusOK, "", r.URL.Query().Get("error"))
}

// Login exchanges credentials with the account API and starts a session.
// Form posts are redirected to the dashboard; JSON clients receive the user.
// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	asJSON := isJSON(r)

	var creds account.Credentials
	if asJSON {
		var req LoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		creds = account.Credentials{Email: req.Email, Password: req.Password}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			h.renderLogin(w, http.StatusBadRequest, "", "Invalid form submission")
			return
		}
		creds = account.Credentials{Email: r.PostForm.Get("email"), Password: r.PostForm.Get("password")}
	}
	creds.Email = strings.TrimSpace(creds.Email)

	if creds.Email == "" || creds.Password == "" {
		h.loginFailed(w, asJSON, http.StatusBadRequest, creds.Email, "Email and password are required")
		return
	}

	grant, err := h.Accounts.Login(r.Context(), creds)
	if err != nil {
		h.Metrics.Logins.WithLabelValues(providerCredentials, outcome(err)).Inc()
		status, msg := loginErrorStatus(err)
		if !account.IsClientError(err) {
			h.Logger.Error("account login", zap.Error(err))
		}
		h.loginFailed(w, asJSON, status, creds.Email, msg)
		return
	}

	s, err := h.Sessions.Create(r.Context(), grant, providerCredentials)
	if err != nil {
		h.Logger.Error("create session", zap.Error(err))
		h.loginFailed(w, asJSON, http.StatusInternalServerError, creds.Email, "Could not start a session")
		return
	}
	h.Metrics.Logins.WithLabelValues(providerCredentials, "ok").Inc()
	h.Sessions.SetCookie(w, s)
	h.Logger.Info("login", zap.String("user_id", s.UserID), zap.String("provider", providerCredentials))

	if asJSON {
		writeJSON(w, http.StatusOK, toUserDTO(s))
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) loginFailed(w http.ResponseWriter, asJSON bool, status int, email, msg string) {
	if asJSON {
		writeError(w, status, msg, nil)
		return
	}
	h.renderLogin(w, status, email, msg)
}

// =============================================================================
// OAUTH LOGIN
// =============================================================================

// OAuthStart redirects the browser to the account API's authorize page.
// GET /auth/oauth/{provider}
func (h *Handler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !slices.Contains(h.Config.OAuthProviders, provider) {
		http.NotFound(w, r)
		return
	}
	state := h.Sessions.IssueState(w, provider)
	http.Redirect(w, r, h.Accounts.AuthorizeURL(provider, h.callbackURL(provider), state), http.StatusFound)
}

// OAuthCallback completes an OAuth login.
// GET /auth/oauth/{provider}/callback
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !slices.Contains(h.Config.OAuthProviders, provider) {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		h.Metrics.Logins.WithLabelValues(provider, "denied").Inc()
		h.renderLogin(w, http.StatusUnauthorized, "", "Sign-in was cancelled")
		return
	}
	if err := h.Sessions.VerifyState(w, r, provider, q.Get("state")); err != nil {
		h.Metrics.Logins.WithLabelValues(provider, "invalid_state").Inc()
		h.renderLogin(w, http.StatusBadRequest, "", "Sign-in link expired, please try again")
		return
	}
	code := q.Get("code")
	if code == "" {
		h.renderLogin(w, http.StatusBadRequest, "", "Missing authorization code")
		return
	}

	grant, err := h.Accounts.ExchangeOAuth(r.Context(), provider, code, h.callbackURL(provider))
	if err != nil {
		h.Metrics.Logins.WithLabelValues(provider, outcome(err)).Inc()
		status, msg := loginErrorStatus(err)
		if !account.IsClientError(err) {
			h.Logger.Error("oauth exchange", zap.String("provider", provider), zap.Error(err))
		}
		h.renderLogin(w, status, "", msg)
		return
	}
	if err := h.completeProfile(r, grant); err != nil {
		h.Metrics.Logins.WithLabelValues(provider, outcome(err)).Inc()
		h.Logger.Error("oauth profile", zap.String("provider", provider), zap.Error(err))
		h.renderLogin(w, http.StatusBadGateway, "", "The account service returned an error")
		return
	}

	s, err := h.Sessions.Create(r.Context(), grant, provider)
	if err != nil {
		h.Logger.Error("create session", zap.Error(err))
		h.renderLogin(w, http.StatusInternalServerError, "", "Could not start a session")
		return
	}
	h.Metrics.Logins.WithLabelValues(provider, "ok").Inc()
	h.Sessions.SetCookie(w, s)
	h.Logger.Info("login", zap.String("user_id", s.UserID), zap.String("provider", provider))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// completeProfile fills in the grant's user from the account API when the
// OAuth exchange returned a token without one.
func (h *Handler) completeProfile(r *http.Request, grant *account.Grant) error {
	if grant.User.ID != "" {
		return nil
	}
	user, err := h.Accounts.Me(r.Context(), grant.AccessToken)
	if err != nil {
		return err
	}
	if user.ID == "" {
		return &account.APIError{Status: http.StatusOK, Message: "profile response without user id"}
	}
	grant.User = *user
	return nil
}

func (h *Handler) callbackURL(provider string) string {
	return strings.TrimRight(h.Config.PublicURL, "/") + "/auth/oauth/" + provider + "/callback"
}

// =============================================================================
// LOGOUT / CURRENT USER
// =============================================================================

// Logout ends the session and revokes the token at the account API
// (best effort).
// POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Destroy(r.Context(), w, r)
	if err != nil {
		h.Logger.Error("destroy session", zap.Error(err))
	}
	if s != nil {
		if err := h.Accounts.Logout(r.Context(), s.AccessToken); err != nil {
			h.Logger.Warn("account logout", zap.Error(err))
		}
	}

	if isJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Me returns the signed-in user.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserDTO(session.FromContext(r.Context())))
}

// =============================================================================
// HELPERS
// =============================================================================

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func loginErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, account.ErrUnavailable):
		return http.StatusBadGateway, "The account service is unavailable, please try again later"
	default:
		return http.StatusBadGateway, "The account service returned an error"
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		return "invalid"
	case errors.Is(err, account.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
