package pipeline

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/claimguard/internal/model"
	"github.com/ppiankov/claimguard/internal/worker"
)

const (
	claimsSheet     = "Claims"
	summarySheet    = "Summary"
	indicatorsSheet = "Fraud Indicators"
)

var claimsHeader = []any{
	"File", "Report ID", "Status", "Route", "Valid", "Risk Score", "Overall Risk",
	"Amount", "Errors", "Warnings", "Indicators", "Extraction", "Payment", "Error",
}

// WriteSummaryXLSX writes a batch summary workbook with one row per file,
// a totals sheet and a sheet listing every fraud indicator.
func WriteSummaryXLSX(path string, results []*worker.FileResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", claimsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeRow(f, claimsSheet, 1, claimsHeader); err != nil {
		return err
	}
	for i, r := range results {
		if err := writeRow(f, claimsSheet, i+2, claimRow(r)); err != nil {
			return err
		}
	}
	if err := styleHeader(f, claimsSheet, len(claimsHeader), bold); err != nil {
		return err
	}
	if err := f.SetPanes(claimsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, worker.Summarize(results), bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(indicatorsSheet); err != nil {
		return fmt.Errorf("create indicators sheet: %w", err)
	}
	if err := writeIndicatorSheet(f, results, bold); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func claimRow(r *worker.FileResult) []any {
	name := filepath.Base(r.Path)
	if r.Error != nil || r.Report == nil {
		msg := "no report"
		if r.Error != nil {
			msg = r.Error.Error()
		}
		return []any{name, "", "failed", "", "", "", "", "", "", "", "", "", "", msg}
	}

	rep := r.Report
	overall := ""
	if rep.Outcome.RiskAssessment != nil {
		overall = string(rep.Outcome.RiskAssessment.OverallRisk)
	}
	payment := ""
	if rep.Payment != nil {
		payment = string(rep.Payment.Status)
	}
	return []any{
		name,
		rep.ID,
		"processed",
		string(rep.Routing.Route),
		rep.Outcome.IsValid,
		rep.Outcome.RiskScore,
		overall,
		rep.Routing.Amount,
		len(rep.Outcome.Errors),
		len(rep.Outcome.Warnings),
		indicatorNames(rep.Outcome.FraudIndicators),
		string(rep.Extraction.Method),
		payment,
		"",
	}
}

func indicatorNames(fis []model.FraudIndicator) string {
	names := make([]string, 0, len(fis))
	for _, fi := range fis {
		names = append(names, fi.Indicator)
	}
	return strings.Join(names, ", ")
}

func writeSummarySheet(f *excelize.File, s worker.Summary, bold int) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Total documents", s.Total},
		{"Processed", s.Succeeded},
		{"Failed", s.Failed},
		{"Valid", s.Valid},
		{"Total requested", s.TotalRequested},
		{"Auto-approved amount", s.AutoApproved},
	}

	for _, route := range slices.Sorted(maps.Keys(s.ByRoute)) {
		rows = append(rows, []any{"Route: " + string(route), s.ByRoute[route]})
	}

	for i, row := range rows {
		if err := writeRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}
	return styleHeader(f, summarySheet, 2, bold)
}

func writeIndicatorSheet(f *excelize.File, results []*worker.FileResult, bold int) error {
	if err := writeRow(f, indicatorsSheet, 1, []any{"File", "Indicator", "Severity", "Details"}); err != nil {
		return err
	}
	row := 2
	for _, r := range results {
		if r.Report == nil {
			continue
		}
		for _, fi := range r.Report.Outcome.FraudIndicators {
			if err := writeRow(f, indicatorsSheet, row, []any{filepath.Base(r.Path), fi.Indicator, string(fi.Severity), fi.Details}); err != nil {
				return err
			}
			row++
		}
	}
	return styleHeader(f, indicatorsSheet, 4, bold)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, cols, style int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}
