/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The calculator input
  reuses coverage.Configuration directly (its JSON tags are the public
  contract); everything else is defined here so the session and account
  types never leak to clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Auth:
    LoginRequest, UserDTO

  Calculator:
    ProposalsResponse

  Scenarios:
    ScenarioDTO

VALIDATION:
  Validation is done by coverage.Validate, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - coverage/types.go: Configuration, Proposal, Summary
*/
package api

import (
	"time"

	"github.com/warp/labor-calculator/coverage"
	"github.com/warp/labor-calculator/session"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// LoginRequest is the credentials login body (JSON clients).
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserDTO represents the signed-in user.
type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Provider  string `json:"provider"`
	ExpiresAt string `json:"expires_at"`
}

// ProposalsResponse is returned by the calculator endpoints.
type ProposalsResponse struct {
	Configuration coverage.Configuration `json:"configuration"`
	Summary       coverage.Summary       `json:"summary"`
	Proposals     []coverage.Proposal    `json:"proposals"`
}

// ScenarioDTO represents a preset staffing configuration.
type ScenarioDTO struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Configuration coverage.Configuration `json:"configuration"`
}

// HealthDTO is the health check body.
type HealthDTO struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toUserDTO(s *session.Session) UserDTO {
	return UserDTO{
		ID:        s.UserID,
		Email:     s.Email,
		Name:      s.Name,
		Provider:  s.Provider,
		ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
