/*
handlers.go - HTTP API handlers for the labor hour calculator

PURPOSE:
  Exposes the proposal engine and the session-backed account flow via HTTP.
  Handles request/response, JSON serialization, and delegates to the
  coverage engine, the account client and the session manager.

ENDPOINTS:
  Health:
    GET    /api/health                   Liveness check
    GET    /metrics                      Prometheus metrics

  Calculator (session required):
    POST   /api/proposals                Configuration → ranked proposals
    POST   /api/proposals/export         Configuration → xlsx workbook
    GET    /api/scenarios                Preset configurations
    GET    /api/scenarios/{id}/proposals Proposals for a preset

  Account (see auth.go):
    POST   /auth/login, GET /auth/oauth/{provider}[/callback],
    POST   /auth/logout, GET /api/me

  Proxy (see proxy.go):
    *      /api/proxy/*                  Forwarded to the account API

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Config: validated process configuration
  - Accounts: account API client
  - Sessions: session manager
  - Metrics, Logger

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (coverage.Validate)
  3. Call the engine
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid body or configuration (field details included)
  - 401: Missing or expired session, rejected credentials
  - 404: Unknown scenario or provider
  - 502: Account API unavailable or failing
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httputil"
	"time"

	"go.uber.org/zap"

	"github.com/warp/labor-calculator/account"
	"github.com/warp/labor-calculator/config"
	"github.com/warp/labor-calculator/coverage"
	"github.com/warp/labor-calculator/metrics"
	"github.com/warp/labor-calculator/report"
	"github.com/warp/labor-calculator/session"
)

// maxBodyBytes bounds JSON and form bodies.
const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Deps are the collaborators a Handler needs.
type Deps struct {
	Config   *config.Config
	Accounts *account.Client
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Config   *config.Config
	Accounts *account.Client
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	proxy *httputil.ReverseProxy
	pages *template.Template
	now   func() time.Time
}

// NewHandler creates a handler from its dependencies.
func NewHandler(d Deps) (*Handler, error) {
	if d.Config == nil || d.Accounts == nil || d.Sessions == nil {
		return nil, errors.New("api: config, accounts and sessions are required")
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	h := &Handler{
		Config:   d.Config,
		Accounts: d.Accounts,
		Sessions: d.Sessions,
		Metrics:  d.Metrics,
		Logger:   d.Logger,
		pages:    pages,
		now:      time.Now,
	}
	h.proxy, err = h.newProxy()
	if err != nil {
		return nil, err
	}
	return h, nil
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness. It does not call the account API.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", Time: h.now().UTC().Format(time.RFC3339)})
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Proposals runs the engine on the posted configuration.
// POST /api/proposals
func (h *Handler) Proposals(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.decodeConfiguration(w, r)
	if !ok {
		return
	}

	proposals, err := h.calculate(cfg, "api")
	if err != nil {
		writeConfigurationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProposalsResponse{
		Configuration: cfg,
		Summary:       coverage.Summarize(cfg),
		Proposals:     proposals,
	})
}

// ExportProposals returns the proposals as an xlsx workbook.
// POST /api/proposals/export
func (h *Handler) ExportProposals(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.decodeConfiguration(w, r)
	if !ok {
		return
	}

	proposals, err := h.calculate(cfg, "export")
	if err != nil {
		writeConfigurationError(w, err)
		return
	}

	w.Header().Set("Content-Type", report.WorkbookContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="labor-proposals.xlsx"`)
	if err := report.WriteWorkbook(w, cfg, coverage.Summarize(cfg), proposals); err != nil {
		h.Logger.Error("write workbook", zap.Error(err))
	}
}

// calculate validates and runs the engine, recording metrics.
func (h *Handler) calculate(cfg coverage.Configuration, source string) ([]coverage.Proposal, error) {
	proposals, err := coverage.Calculate(cfg)
	if err != nil {
		h.Metrics.Calculations.WithLabelValues("invalid", source).Inc()
		return nil, err
	}
	h.Metrics.Calculations.WithLabelValues("ok", source).Inc()
	for _, p := range proposals {
		h.Metrics.Proposals.WithLabelValues(p.Option).Inc()
	}
	h.Logger.Debug("proposals generated",
		zap.String("source", source),
		zap.Int("workers", cfg.NumberOfWorkers),
		zap.Int("count", len(proposals)))
	return proposals, nil
}

func (h *Handler) decodeConfiguration(w http.ResponseWriter, r *http.Request) (coverage.Configuration, bool) {
	var cfg coverage.Configuration
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return cfg, false
	}
	return cfg, true
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeConfigurationError(w http.ResponseWriter, err error) {
	var invalid *coverage.InvalidConfigurationError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid configuration",
			Code:    "invalid_configuration",
			Details: invalid.Messages(),
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "Calculation failed", err)
}
