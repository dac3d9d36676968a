package coverage_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/labor-calculator/coverage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func config(workers int, current, target, maxExtra, rate float64) coverage.Configuration {
	return coverage.Configuration{
		NumberOfWorkers:           workers,
		CurrentWeekHoursPerWorker: current,
		TargetWeekHoursPerWorker:  target,
		MaxExtraHoursPerWorker:    maxExtra,
		HourlyRate:                rate,
	}
}

func options(proposals []coverage.Proposal) []string {
	out := make([]string, len(proposals))
	for i, p := range proposals {
		out[i] = p.Option
	}
	return out
}

// =============================================================================
// BRANCH TESTS
// =============================================================================

func TestGenerateProposals_CapacityMatchesTarget(t *testing.T) {
	proposals := coverage.GenerateProposals(config(10, 40, 40, 5, 25))

	require.Len(t, proposals, 1)
	p := proposals[0]
	assert.Equal(t, coverage.OptionCapacityMatches, p.Option)
	assert.Equal(t, coverage.FullyCovered, p.Efficiency)
	assert.Zero(t, p.CostImpact)
	assert.Zero(t, p.CostPercentageChange)
	assert.Zero(t, p.UncoveredHours)
	assert.Equal(t, 400.0, p.TotalWeeklyHours)
}

func TestGenerateProposals_TargetAboveCurrentIsNoDeficit(t *testing.T) {
	// GIVEN: workers currently do 35h, target is 40h
	// THEN: a single zero-cost "No deficit" proposal, hours unchanged
	proposals := coverage.GenerateProposals(config(8, 35, 40, 10, 30))

	require.Len(t, proposals, 1)
	p := proposals[0]
	assert.Equal(t, coverage.OptionNoDeficit, p.Option)
	assert.Equal(t, coverage.NoDeficit, p.Efficiency)
	assert.Zero(t, p.CostImpact)
	assert.Zero(t, p.UncoveredHours)
	assert.Equal(t, 280.0, p.TotalWeeklyHours)
}

func TestGenerateProposals_OvertimeCapClampedToHeadCount(t *testing.T) {
	// GIVEN: 10 workers shed 10h each (100h), but only 5 extra hours each
	// WHEN: ceil(100/5) = 20 workers would be needed for overtime
	// THEN: overtime is clamped to 10 workers (50h), the rest goes to hires
	proposals := coverage.GenerateProposals(config(10, 50, 40, 5, 25))

	require.Len(t, proposals, 2)
	assert.Equal(t, []string{coverage.OptionHireWorkers, coverage.OptionHybrid}, options(proposals))

	hire := proposals[0]
	assert.Equal(t, 3000.0, hire.CostImpact) // ceil(100/40)=3 × 40 × 25
	assert.Equal(t, 520.0, hire.TotalWeeklyHours)
	assert.InDelta(t, 24.0, hire.CostPercentageChange, 1e-9) // 3000 / 12500

	hybrid := proposals[1]
	// 50h × 25 × 1.5 = 1875 overtime, ceil(50/40)=2 hires × 40 × 25 = 2000
	assert.Equal(t, 3875.0, hybrid.CostImpact)
	assert.Equal(t, 530.0, hybrid.TotalWeeklyHours)
	assert.Equal(t, coverage.FullyCovered, hybrid.Efficiency)
	assert.Zero(t, hybrid.UncoveredHours)
}

func TestGenerateProposals_OvertimeOnlyWhenCapAbsorbsAllHours(t *testing.T) {
	proposals := coverage.GenerateProposals(config(10, 50, 40, 10, 25))

	require.Len(t, proposals, 2)
	assert.Equal(t, []string{coverage.OptionHireWorkers, coverage.OptionOvertime}, options(proposals))
	assert.Equal(t, 3000.0, proposals[0].CostImpact)
	assert.Equal(t, 3750.0, proposals[1].CostImpact) // 100h × 25 × 1.5
	assert.Equal(t, 500.0, proposals[1].TotalWeeklyHours)
}

func TestGenerateProposals_SortsCheapestFirst(t *testing.T) {
	// 10h to replace: one hire costs 40×20=800, overtime costs 10×20×1.5=300
	proposals := coverage.GenerateProposals(config(10, 41, 40, 5, 20))

	require.Len(t, proposals, 2)
	assert.Equal(t, []string{coverage.OptionOvertime, coverage.OptionHireWorkers}, options(proposals))
	assert.Equal(t, 300.0, proposals[0].CostImpact)
	assert.Equal(t, 800.0, proposals[1].CostImpact)
}

func TestGenerateProposals_TiesKeepEmissionOrder(t *testing.T) {
	// 40h to replace: one hire = 60×10 = 600, overtime = 40×10×1.5 = 600
	proposals := coverage.GenerateProposals(config(4, 70, 60, 10, 10))

	require.Len(t, proposals, 2)
	assert.Equal(t, proposals[0].CostImpact, proposals[1].CostImpact)
	assert.Equal(t, []string{coverage.OptionHireWorkers, coverage.OptionOvertime}, options(proposals))
}

func TestGenerateProposals_NoOvertimeAllowed(t *testing.T) {
	proposals := coverage.GenerateProposals(config(10, 50, 40, 0, 25))

	require.Len(t, proposals, 1)
	assert.Equal(t, coverage.OptionHireWorkers, proposals[0].Option)
}

func TestGenerateProposals_FractionalHoursRoundHiresUp(t *testing.T) {
	// 3 workers × 0.5h = 1.5h to replace → still one full hire
	proposals := coverage.GenerateProposals(config(3, 40.5, 40, 0, 10))

	require.Len(t, proposals, 1)
	assert.Equal(t, 400.0, proposals[0].CostImpact)
}

func TestGenerateProposals_DecimalHoursCoveredExactlyByOvertime(t *testing.T) {
	// GIVEN: 10 workers going from 42.2h to 40h, each allowed 2.2h overtime.
	// 10 × (42.2 - 40) is a few ulps above 22 in float arithmetic.
	cfg := config(10, 42.2, 40, 2.2, 25)

	// WHEN: Proposals are generated
	proposals := coverage.GenerateProposals(cfg)

	// THEN: Overtime covers every hour, no hybrid hire appears, and
	// overtime (22h × 25 × 1.5) ranks ahead of one hire (40h × 25)
	require.Equal(t, []string{coverage.OptionOvertime, coverage.OptionHireWorkers}, options(proposals))
	assert.InDelta(t, 825.0, proposals[0].CostImpact, 1e-6)
	assert.InDelta(t, 22.0, proposals[0].TotalWeeklyHours-400, 1e-6)
	assert.InDelta(t, 1000.0, proposals[1].CostImpact, 1e-6)
}

func TestGenerateProposals_DecimalHoursDoNotInflateHires(t *testing.T) {
	// 5 × (2.2 - 1) comes out just above 6h; that is six 1h hires, not seven
	proposals := coverage.GenerateProposals(config(5, 2.2, 1, 0, 10))

	require.Len(t, proposals, 1)
	assert.InDelta(t, 60.0, proposals[0].CostImpact, 1e-6)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestGenerateProposals_Properties(t *testing.T) {
	workers := []int{1, 3, 10, 250, 10000}
	hours := []float64{1, 20, 37.5, 40, 60, 168}
	extras := []float64{0, 2.5, 10, 50}
	rates := []float64{0.01, 17.25, 1000}

	for _, n := range workers {
		for _, current := range hours {
			for _, target := range hours {
				for _, extra := range extras {
					for _, rate := range rates {
						cfg := config(n, current, target, extra, rate)
						proposals := coverage.GenerateProposals(cfg)
						require.NotEmpty(t, proposals, "%+v", cfg)

						for i, p := range proposals {
							assert.GreaterOrEqual(t, p.UncoveredHours, 0.0)
							assert.GreaterOrEqual(t, p.CostImpact, 0.0)
							if i > 0 {
								assert.LessOrEqual(t, proposals[i-1].CostImpact, p.CostImpact, "%+v", cfg)
							}
							zeroCost := p.Efficiency == coverage.NoDeficit || p.Option == coverage.OptionCapacityMatches
							assert.Equal(t, zeroCost, p.CostImpact == 0, "%+v %+v", cfg, p)
						}

						if target < current {
							assert.Contains(t, options(proposals), coverage.OptionHireWorkers)
							for _, p := range proposals {
								assert.Equal(t, coverage.FullyCovered, p.Efficiency)
								assert.Zero(t, p.UncoveredHours)
								assert.GreaterOrEqual(t, p.TotalWeeklyHours, float64(n)*current-1e-6)
							}
						}
					}
				}
			}
		}
	}
}

func TestGenerateProposals_OvertimeBilledAtTimeAndAHalf(t *testing.T) {
	cfg := config(12, 45, 38, 4, 22.5)
	proposals := coverage.GenerateProposals(cfg)

	// 84h to replace, 12 workers × 4h = 48h overtime, 36h left → 1 hire
	var hybrid *coverage.Proposal
	for i := range proposals {
		if proposals[i].Option == coverage.OptionHybrid {
			hybrid = &proposals[i]
		}
	}
	require.NotNil(t, hybrid)
	overtime := 48 * cfg.HourlyRate * 1.5
	assert.InDelta(t, overtime+38*cfg.HourlyRate, hybrid.CostImpact, 1e-9)
}

func TestGenerateProposals_ConcurrentCallsAgree(t *testing.T) {
	cfg := config(10, 50, 40, 5, 25)
	want := coverage.GenerateProposals(cfg)

	var wg sync.WaitGroup
	results := make([][]coverage.Proposal, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = coverage.GenerateProposals(cfg)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("proposals differ (-want +got):\n%s", diff)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := coverage.Summarize(config(10, 50, 40, 5, 25))
	assert.Equal(t, coverage.Summary{
		TotalCurrentWeekHours:   500,
		TotalTargetWeekHours:    400,
		CurrentWeeklyCost:       12500,
		HourDifferencePerWorker: -10,
	}, s)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_AcceptsBounds(t *testing.T) {
	assert.NoError(t, coverage.Validate(config(1, 1, 168, 0, 0.01)))
	assert.NoError(t, coverage.Validate(config(10000, 168, 1, 50, 1000)))
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	err := coverage.Validate(config(0, 0.5, 200, -1, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, coverage.ErrInvalidConfiguration))

	var invalid *coverage.InvalidConfigurationError
	require.ErrorAs(t, err, &invalid)
	msgs := invalid.Messages()
	assert.Len(t, msgs, 5)
	assert.Contains(t, msgs, "numberOfWorkers")
	assert.Contains(t, msgs, "currentWeekHoursPerWorker")
	assert.Contains(t, msgs, "targetWeekHoursPerWorker")
	assert.Contains(t, msgs, "maxExtraHoursPerWorker")
	assert.Contains(t, msgs, "hourlyRate")
}

func TestValidate_RejectsNonFinite(t *testing.T) {
	err := coverage.Validate(config(5, math.NaN(), 40, math.Inf(1), 20))

	var invalid *coverage.InvalidConfigurationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "must be a finite number", invalid.Messages()["currentWeekHoursPerWorker"])
	assert.Equal(t, "must be a finite number", invalid.Messages()["maxExtraHoursPerWorker"])
}

func TestCalculate_RejectsBeforeComputing(t *testing.T) {
	proposals, err := coverage.Calculate(config(0, 40, 40, 0, 10))
	assert.ErrorIs(t, err, coverage.ErrInvalidConfiguration)
	assert.Nil(t, proposals)

	proposals, err = coverage.Calculate(config(10, 40, 40, 0, 10))
	require.NoError(t, err)
	assert.Len(t, proposals, 1)
}
