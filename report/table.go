package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/warp/labor-calculator/coverage"
)

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle        = lipgloss.NewStyle()
	recommendedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	titleStyle       = lipgloss.NewStyle().Bold(true).MarginBottom(1)
)

// RenderTable renders the summary and proposals as a terminal table.
func RenderTable(s coverage.Summary, proposals []coverage.Proposal) string {
	sum := FormatSummary(s)
	var b strings.Builder

	b.WriteString(titleStyle.Render("Weekly coverage proposals"))
	b.WriteString("\n")
	b.WriteString("Current hours: " + sum.TotalCurrentHours +
		"  Target hours: " + sum.TotalTargetHours +
		"  Current cost: " + sum.CurrentWeeklyCost +
		"  Difference per worker: " + sum.DifferencePerHead + " h\n\n")

	header := []string{"#", "Option", "Efficiency", "Total h", "Cost", "Change"}
	rows := Rows(proposals)
	cells := make([][]string, len(rows))
	for i, r := range rows {
		rank := printer.Sprintf("%d", r.Rank)
		if r.Recommended {
			rank += "*"
		}
		cells[i] = []string{rank, r.Option, r.Efficiency, r.TotalHours, r.Cost, r.Change}
	}

	widths := make([]int, len(header))
	for c, h := range header {
		widths[c] = lipgloss.Width(h)
		for _, row := range cells {
			if w := lipgloss.Width(row[c]); w > widths[c] {
				widths[c] = w
			}
		}
	}

	b.WriteString(renderLine(header, widths, headerStyle))
	b.WriteString("\n")
	for i, row := range cells {
		style := cellStyle
		if rows[i].Recommended {
			style = recommendedStyle
		}
		b.WriteString(renderLine(row, widths, style))
		b.WriteString("\n")
	}
	for _, r := range rows {
		b.WriteString("\n" + r.Option + ": " + r.Details)
	}
	b.WriteString("\n")
	return b.String()
}

func renderLine(cols []string, widths []int, style lipgloss.Style) string {
	rendered := make([]string, len(cols))
	for i, col := range cols {
		rendered[i] = style.Width(widths[i] + 2).Render(col)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
