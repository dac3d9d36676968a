package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/labor-calculator/coverage"
)

// Sheet names of the exported workbook.
const (
	InputsSheet    = "Inputs"
	ProposalsSheet = "Proposals"
)

// WorkbookContentType is the MIME type of WriteWorkbook output.
const WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var proposalHeader = []any{
	"Rank", "Option", "Description", "Efficiency",
	"Total weekly hours", "Uncovered hours", "Cost impact", "Cost change %", "Details",
}

// WriteWorkbook writes an xlsx workbook with the inputs, derived totals and
// proposals of one calculation. Numbers are stored as numbers (rounded to two
// decimals) so the sheet stays usable for further analysis.
func WriteWorkbook(w io.Writer, cfg coverage.Configuration, s coverage.Summary, proposals []coverage.Proposal) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", InputsSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	inputs := [][]any{
		{"Field", "Value"},
		{"Number of workers", cfg.NumberOfWorkers},
		{"Current week hours per worker", cfg.CurrentWeekHoursPerWorker},
		{"Target week hours per worker", cfg.TargetWeekHoursPerWorker},
		{"Max extra hours per worker", cfg.MaxExtraHoursPerWorker},
		{"Hourly rate", cfg.HourlyRate},
		{},
		{"Total current weekly hours", Round2(s.TotalCurrentWeekHours)},
		{"Total target weekly hours", Round2(s.TotalTargetWeekHours)},
		{"Current weekly cost", Round2(s.CurrentWeeklyCost)},
		{"Hour difference per worker", Round2(s.HourDifferencePerWorker)},
	}
	if err := writeRows(f, InputsSheet, inputs); err != nil {
		return err
	}
	if err := f.SetCellStyle(InputsSheet, "A1", "B1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(InputsSheet, "A", "A", 32); err != nil {
		return err
	}

	idx, err := f.NewSheet(ProposalsSheet)
	if err != nil {
		return err
	}
	rows := [][]any{proposalHeader}
	for i, p := range proposals {
		rows = append(rows, []any{
			i + 1, p.Option, p.Description, string(p.Efficiency),
			Round2(p.TotalWeeklyHours), Round2(p.UncoveredHours),
			Round2(p.CostImpact), Round2(p.CostPercentageChange), p.Details,
		})
	}
	if err := writeRows(f, ProposalsSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(ProposalsSheet, "A1", "I1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(ProposalsSheet, "B", "C", 40); err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
