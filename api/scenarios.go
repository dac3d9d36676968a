/*
scenarios.go - Preset staffing configurations

PURPOSE:
  Provides pre-built configurations that demonstrate each branch of the
  proposal engine. The dashboard offers them as one-click presets and the
  API exposes them for clients that want a quick comparison.

AVAILABLE SCENARIOS:
  overtime-cap:      More hours to shed than the overtime cap can absorb
  overtime-only:     Overtime fully absorbs the shed hours
  small-trim:        Overtime is cheaper than a new hire
  no-overtime:       Overtime not allowed, hiring is the only option
  balanced:          Current hours already match the target
  spare-capacity:    Target above current hours (no deficit)

USAGE VIA API:
  GET /api/scenarios
  GET /api/scenarios/overtime-cap/proposals

ADDING NEW SCENARIOS:
  Append to the 'scenarios' slice with ID, name, description and a
  configuration that passes coverage.Validate.

SEE ALSO:
  - handlers.go: Calculator handlers
  - dashboard.go: Preset links on the form
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/labor-calculator/coverage"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "overtime-cap",
		Name:        "Overtime Cap Reached",
		Description: "10 workers go from 50h to 40h with at most 5 extra hours each",
		Configuration: coverage.Configuration{
			NumberOfWorkers: 10, CurrentWeekHoursPerWorker: 50, TargetWeekHoursPerWorker: 40,
			MaxExtraHoursPerWorker: 5, HourlyRate: 25,
		},
	},
	{
		ID:          "overtime-only",
		Name:        "Overtime Only",
		Description: "10 workers go from 50h to 40h with up to 10 extra hours each",
		Configuration: coverage.Configuration{
			NumberOfWorkers: 10, CurrentWeekHoursPerWorker: 50, TargetWeekHoursPerWorker: 40,
			MaxExtraHoursPerWorker: 10, HourlyRate: 25,
		},
	},
	{
		ID:          "small-trim",
		Name:        "Small Trim",
		Description: "One hour per worker; overtime beats a full-time hire",
		Configuration: coverage.Configuration{
			NumberOfWorkers: 10, CurrentWeekHoursPerWorker: 41, TargetWeekHoursPerWorker: 40,
			MaxExtraHoursPerWorker: 5, HourlyRate: 20,
		},
	},
	{
		ID:          "no-overtime",
		Name:        "No Overtime Allowed",
		Description: "25 workers go from 45h to 38h and overtime is not an option",
		Configuration: coverage.Configuration{
			NumberOfWorkers: 25, CurrentWeekHoursPerWorker: 45, TargetWeekHoursPerWorker: 38,
			MaxExtraHoursPerWorker: 0, HourlyRate: 31.5,
		},
	},
	{
		ID:          "balanced",
		Name:        "Balanced",
		Description: "Current hours already match the target",
		Configuration: coverage.Configuration{
			NumberOfWorkers: 10, CurrentWeekHoursPerWorker: 40, TargetWeekHoursPerWorker: 40,
			MaxExtraHoursPerWorker: 5, HourlyRate: 25,
		},
	},
	{
		ID:          "spare-capacity",
		Name:        "Spare Capacity",
		Description: "Part-time team whose target exceeds current hours",
		Configuration: coverage.Configuration{
			NumberOfWorkers: 8, CurrentWeekHoursPerWorker: 32, TargetWeekHoursPerWorker: 40,
			MaxExtraHoursPerWorker: 8, HourlyRate: 18,
		},
	},
}

func findScenario(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// ScenarioProposals runs the engine on a preset.
// GET /api/scenarios/{id}/proposals
func (h *Handler) ScenarioProposals(w http.ResponseWriter, r *http.Request) {
	sc, ok := findScenario(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	proposals, err := h.calculate(sc.Configuration, "scenario")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Scenario configuration is invalid", err)
		return
	}
	writeJSON(w, http.StatusOK, ProposalsResponse{
		Configuration: sc.Configuration,
		Summary:       coverage.Summarize(sc.Configuration),
		Proposals:     proposals,
	})
}
