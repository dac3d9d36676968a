/*
Package report is the presentation side of the calculator: it formats
engine output for humans (dashboard, CLI table, spreadsheet export) and
performs no computation of its own beyond display rounding.

ROUNDING:
  The engine works in float64 and never rounds. Display values are rounded
  half-away-from-zero to cents (or hundredths of an hour) with
  shopspring/decimal, then grouped with golang.org/x/text/message.

SEE ALSO:
  - workbook.go: xlsx export
  - table.go:    terminal rendering
*/
package report

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/warp/labor-calculator/coverage"
)

var printer = message.NewPrinter(language.English)

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatCurrency renders v as dollars, e.g. "$3,875.00".
func FormatCurrency(v float64) string {
	return printer.Sprintf("$%.2f", Round2(v))
}

// FormatHours renders v without trailing zeros, e.g. "1,237.5".
func FormatHours(v float64) string {
	return trimZeros(printer.Sprintf("%.2f", Round2(v)))
}

// FormatPercent renders v as a percentage, e.g. "+24.00%".
func FormatPercent(v float64) string {
	s := printer.Sprintf("%.2f%%", Round2(v))
	if v > 0 {
		return "+" + s
	}
	return s
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
}

// =============================================================================
// ROWS
// =============================================================================

// Row is one proposal formatted for display.
type Row struct {
	Rank        int
	Option      string
	Description string
	Efficiency  string
	TotalHours  string
	Uncovered   string
	Cost        string
	Change      string
	Details     string
	Recommended bool
}

// Rows formats proposals in their given order. The first (cheapest) row is
// marked recommended unless every proposal is zero-cost.
func Rows(proposals []coverage.Proposal) []Row {
	rows := make([]Row, len(proposals))
	for i, p := range proposals {
		rows[i] = Row{
			Rank:        i + 1,
			Option:      p.Option,
			Description: p.Description,
			Efficiency:  string(p.Efficiency),
			TotalHours:  FormatHours(p.TotalWeeklyHours),
			Uncovered:   FormatHours(p.UncoveredHours),
			Cost:        FormatCurrency(p.CostImpact),
			Change:      FormatPercent(p.CostPercentageChange),
			Details:     p.Details,
			Recommended: i == 0 && p.CostImpact > 0,
		}
	}
	return rows
}

// SummaryRow is the derived configuration totals formatted for display.
type SummaryRow struct {
	TotalCurrentHours string
	TotalTargetHours  string
	CurrentWeeklyCost string
	DifferencePerHead string
}

// FormatSummary formats the derived quantities of a calculation.
func FormatSummary(s coverage.Summary) SummaryRow {
	diff := FormatHours(s.HourDifferencePerWorker)
	if s.HourDifferencePerWorker > 0 {
		diff = "+" + diff
	}
	return SummaryRow{
		TotalCurrentHours: FormatHours(s.TotalCurrentWeekHours),
		TotalTargetHours:  FormatHours(s.TotalTargetWeekHours),
		CurrentWeeklyCost: FormatCurrency(s.CurrentWeeklyCost),
		DifferencePerHead: diff,
	}
}
