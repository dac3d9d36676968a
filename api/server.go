/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:       Unique ID per request for tracing
  2. RealIP:          Client address from X-Forwarded-For / X-Real-IP
  3. RequestLogger:   Structured request logging (zap)
  4. Recoverer:       Panic recovery (500 instead of crash)
  5. Instrument:      Prometheus request duration by route
  6. SecurityHeaders: Frame, sniffing, referrer and CSP headers
  7. CORS:            Origins from CORS_ALLOWED_ORIGINS
  8. Timeout:         REQUEST_TIMEOUT per request

ROUTE GROUPS:
  /api/health, /metrics   Public
  /login, /auth/*         Sign-in and sign-out
  /dashboard              Server-rendered calculator (session, redirects)
  /api/*                  JSON API (session, 401)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/laborcalc/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/labor-calculator/logging"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(h.Metrics.Instrument)
	r.Use(SecurityHeaders(contentSecurityPolicy, h.Config.CookieSecure))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(h.Config.RequestTimeout))

	r.Get("/", h.Root)
	r.Get("/metrics", h.Metrics.Handler().ServeHTTP)
	r.Get("/login", h.LoginPage)

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/oauth/{provider}", h.OAuthStart)
		r.Get("/oauth/{provider}/callback", h.OAuthCallback)
	})

	// Dashboard routes
	r.Group(func(r chi.Router) {
		r.Use(h.RequirePage)
		r.Get("/dashboard", h.Dashboard)
		r.Post("/dashboard", h.DashboardCalculate)
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAPI)
			r.Get("/me", h.Me)

			// Calculator routes
			r.Route("/proposals", func(r chi.Router) {
				r.Post("/", h.Proposals)
				r.Post("/export", h.ExportProposals)
			})

			// Scenario routes
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/{id}/proposals", h.ScenarioProposals)
			})

			r.HandleFunc("/proxy", h.Proxy)
			r.HandleFunc("/proxy/*", h.Proxy)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", nil)
	})

	return r
}
