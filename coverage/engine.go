/*
engine.go - Proposal generation

PURPOSE:
  Turns a staffing configuration into a ranked list of cost proposals.

ALGORITHM:
  Branch on the sign of (target - current) hours per worker:

  target > current  One "No Deficit" proposal. A target above current hours
                    is treated as spare capacity, not as a shortfall.
  target < current  Each worker sheds (current - target) hours, and the
                    aggregate weekly hours must be preserved:
                      1. Hire additional workers at the regular rate
                      2. If overtime is allowed, either redistribute the
                         hours as overtime (1.5x) or, when the overtime cap
                         cannot absorb everything, a hybrid of overtime and
                         new hires
  target == current One "Current Capacity Matches Target" proposal.

  The list is then stable-sorted ascending by cost impact.

OVERTIME CAP:
  At most NumberOfWorkers workers can take extra hours. The number of
  workers asked to work overtime is clamped to the head count and the
  absorbed hours recomputed from the clamped count; whatever is left falls
  to the hybrid branch.

NUMERICS:
  float64 throughout. Worker counts round up (no fractional hires). No
  currency rounding happens here; see report/format.go for display.

SEE ALSO:
  - types.go: Configuration, Proposal
  - errors.go: Validate
*/
package coverage

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Summarize computes the derived quantities of a configuration.
func Summarize(cfg Configuration) Summary {
	n := float64(cfg.NumberOfWorkers)
	totalCurrent := n * cfg.CurrentWeekHoursPerWorker
	return Summary{
		TotalCurrentWeekHours:   totalCurrent,
		TotalTargetWeekHours:    n * cfg.TargetWeekHoursPerWorker,
		CurrentWeeklyCost:       totalCurrent * cfg.HourlyRate,
		HourDifferencePerWorker: cfg.TargetWeekHoursPerWorker - cfg.CurrentWeekHoursPerWorker,
	}
}

// Calculate validates cfg and generates its proposals.
func Calculate(cfg Configuration) ([]Proposal, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return GenerateProposals(cfg), nil
}

// GenerateProposals returns the proposals for cfg sorted ascending by cost
// impact. cfg must already satisfy Validate.
func GenerateProposals(cfg Configuration) []Proposal {
	s := Summarize(cfg)

	var proposals []Proposal
	switch {
	case s.HourDifferencePerWorker > 0:
		proposals = []Proposal{noDeficit(cfg, s)}
	case s.HourDifferencePerWorker < 0:
		proposals = reductionProposals(cfg, s)
	default:
		proposals = []Proposal{capacityMatches(cfg, s)}
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].CostImpact < proposals[j].CostImpact
	})
	return proposals
}

// =============================================================================
// ZERO-COST BRANCHES
// =============================================================================

func noDeficit(cfg Configuration, s Summary) Proposal {
	return Proposal{
		Option: OptionNoDeficit,
		Description: fmt.Sprintf("Target of %s hours per worker exceeds the current %s hours; no additional coverage is needed",
			num(cfg.TargetWeekHoursPerWorker), num(cfg.CurrentWeekHoursPerWorker)),
		TotalWeeklyHours: s.TotalCurrentWeekHours,
		Efficiency:       NoDeficit,
		Details: fmt.Sprintf("%d workers × %s h = %s h currently worked; target total %s h",
			cfg.NumberOfWorkers, num(cfg.CurrentWeekHoursPerWorker), num(s.TotalCurrentWeekHours), num(s.TotalTargetWeekHours)),
	}
}

func capacityMatches(cfg Configuration, s Summary) Proposal {
	return Proposal{
		Option:           OptionCapacityMatches,
		Description:      "Current weekly hours already match the target; no changes required",
		TotalWeeklyHours: s.TotalCurrentWeekHours,
		Efficiency:       FullyCovered,
		Details: fmt.Sprintf("%d workers × %s h = %s h per week",
			cfg.NumberOfWorkers, num(cfg.CurrentWeekHoursPerWorker), num(s.TotalCurrentWeekHours)),
	}
}

// =============================================================================
// REDUCTION BRANCH (current > target)
// =============================================================================

func reductionProposals(cfg Configuration, s Summary) []Proposal {
	n := float64(cfg.NumberOfWorkers)
	target := cfg.TargetWeekHoursPerWorker
	rate := cfg.HourlyRate
	reduction := -s.HourDifferencePerWorker
	toReplace := n * reduction

	hires := ceilCount(toReplace / target)
	hireCost := hires * target * rate

	proposals := []Proposal{{
		Option: OptionHireWorkers,
		Description: fmt.Sprintf("Reduce each worker by %s hours and hire %s workers at %s hours per week to replace %s hours",
			num(reduction), num(hires), num(target), num(toReplace)),
		TotalWeeklyHours:     s.TotalTargetWeekHours + hires*target,
		CostImpact:           hireCost,
		CostPercentageChange: percentOf(hireCost, s.CurrentWeeklyCost),
		Efficiency:           FullyCovered,
		Details: fmt.Sprintf("ceil(%s h / %s h) = %s workers; %s × %s h × %s/h = %s",
			num(toReplace), num(target), num(hires), num(hires), num(target), num(rate), num(hireCost)),
	}}

	maxExtra := cfg.MaxExtraHoursPerWorker
	if maxExtra <= 0 {
		return proposals
	}

	workersWithExtra := ceilCount(toReplace / maxExtra)
	if workersWithExtra > n {
		workersWithExtra = n
	}
	extra := math.Min(toReplace, workersWithExtra*maxExtra)
	remaining := toReplace - extra
	if remaining < hourTolerance {
		extra, remaining = toReplace, 0
	}
	overtimeCost := extra * rate * OvertimeMultiplier
	overtimeDetails := fmt.Sprintf("%s workers × up to %s h = %s h overtime; %s h × %s/h × %s = %s",
		num(workersWithExtra), num(maxExtra), num(extra), num(extra), num(rate), num(OvertimeMultiplier), num(overtimeCost))

	if remaining <= 0 {
		return append(proposals, Proposal{
			Option: OptionOvertime,
			Description: fmt.Sprintf("Keep the current team and cover %s hours as overtime across %s workers",
				num(extra), num(workersWithExtra)),
			TotalWeeklyHours:     s.TotalTargetWeekHours + extra,
			CostImpact:           overtimeCost,
			CostPercentageChange: percentOf(overtimeCost, s.CurrentWeeklyCost),
			Efficiency:           FullyCovered,
			Details:              overtimeDetails,
		})
	}

	extraHires := ceilCount(remaining / target)
	extraHireCost := extraHires * target * rate
	hybridCost := overtimeCost + extraHireCost

	return append(proposals, Proposal{
		Option: OptionHybrid,
		Description: fmt.Sprintf("Cover %s hours as overtime across %s workers and hire %s workers for the remaining %s hours",
			num(extra), num(workersWithExtra), num(extraHires), num(remaining)),
		TotalWeeklyHours:     s.TotalTargetWeekHours + extra + extraHires*target,
		CostImpact:           hybridCost,
		CostPercentageChange: percentOf(hybridCost, s.CurrentWeeklyCost),
		Efficiency:           FullyCovered,
		Details: fmt.Sprintf("%s; ceil(%s h / %s h) = %s workers × %s h × %s/h = %s; total %s",
			overtimeDetails, num(remaining), num(target), num(extraHires), num(target), num(rate), num(extraHireCost), num(hybridCost)),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// hourTolerance absorbs the rounding error of float hour arithmetic, e.g.
// 10 × (42.2 - 40) coming out a few ulps above 22.
const hourTolerance = 1e-9

// ceilCount rounds a worker count up, ignoring a fractional part that is
// only rounding error.
func ceilCount(v float64) float64 {
	return math.Ceil(v - hourTolerance)
}

func percentOf(cost, base float64) float64 {
	if base == 0 {
		return 0
	}
	return cost / base * 100
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
