/*
Package coverage generates staffing cost proposals.

PURPOSE:
  Given a staffing configuration (head count, current and target weekly
  hours, overtime cap, hourly rate), the engine produces a ranked list of
  proposals describing how to reconcile current and target weekly hours,
  each annotated with its weekly cost impact.

KEY CONCEPTS IN THIS FILE (types.go):
  - Configuration: The five validated inputs of one calculation
  - Proposal:      One candidate strategy with its cost quantified
  - Efficiency:    Coverage classification of a proposal
  - Summary:       Derived quantities shared by every proposal

DESIGN PRINCIPLES:
  1. Pure: no I/O, no shared state, safe for concurrent use
  2. Total: every in-range configuration yields a non-empty list
  3. Ordered: proposals are sorted ascending by cost impact (stable)

SEE ALSO:
  - engine.go: Proposal generation
  - errors.go: Input validation errors
*/
package coverage

// =============================================================================
// INPUT
// =============================================================================

// Configuration is the staffing input for one calculation.
type Configuration struct {
	NumberOfWorkers           int     `json:"numberOfWorkers" yaml:"numberOfWorkers"`
	CurrentWeekHoursPerWorker float64 `json:"currentWeekHoursPerWorker" yaml:"currentWeekHoursPerWorker"`
	TargetWeekHoursPerWorker  float64 `json:"targetWeekHoursPerWorker" yaml:"targetWeekHoursPerWorker"`
	MaxExtraHoursPerWorker    float64 `json:"maxExtraHoursPerWorker" yaml:"maxExtraHoursPerWorker"`
	HourlyRate                float64 `json:"hourlyRate" yaml:"hourlyRate"`
}

// Input bounds, inclusive.
const (
	MinWorkers = 1
	MaxWorkers = 10000

	MinWeekHours = 1
	MaxWeekHours = 168

	MinExtraHours = 0
	MaxExtraHours = 50

	MinHourlyRate = 0.01
	MaxHourlyRate = 1000
)

// OvertimeMultiplier is applied to the hourly rate for extra hours.
const OvertimeMultiplier = 1.5

// =============================================================================
// OUTPUT
// =============================================================================

// Efficiency classifies how well a proposal closes the gap.
type Efficiency string

const (
	FullyCovered     Efficiency = "Fully covered"
	PartiallyCovered Efficiency = "Partially covered"
	NoDeficit        Efficiency = "No deficit"
)

// Option labels emitted by the engine.
const (
	OptionNoDeficit       = "No Deficit - Target Exceeds Current"
	OptionCapacityMatches = "Current Capacity Matches Target"
	OptionHireWorkers     = "Hire Additional Workers"
	OptionOvertime        = "Redistribute Hours with Overtime"
	OptionHybrid          = "Hybrid: Overtime + Additional Workers"
)

// Proposal is one candidate strategy.
type Proposal struct {
	Option               string     `json:"option"`
	Description          string     `json:"description"`
	TotalWeeklyHours     float64    `json:"totalWeeklyHours"`
	UncoveredHours       float64    `json:"uncoveredHours"`
	CostImpact           float64    `json:"costImpact"`
	CostPercentageChange float64    `json:"costPercentageChange"`
	Efficiency           Efficiency `json:"efficiency"`
	Details              string     `json:"details"`
}

// Summary holds the quantities derived once per calculation.
type Summary struct {
	TotalCurrentWeekHours   float64 `json:"totalCurrentWeekHours"`
	TotalTargetWeekHours    float64 `json:"totalTargetWeekHours"`
	CurrentWeeklyCost       float64 `json:"currentWeeklyCost"`
	HourDifferencePerWorker float64 `json:"hourDifferencePerWorker"`
}
