package pipeline

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ppiankov/claimguard/internal/model"
)

// Renderer writes claim reports as JSON, Markdown and a one-line summary
type Renderer struct {
	includeFooter bool
	printer       *message.Printer
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		printer:       message.NewPrinter(language.English),
	}
}

// EncodeJSON writes the report as indented JSON
func (r *Renderer) EncodeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// RenderJSON writes the report to path
func (r *Renderer) RenderJSON(report *model.ClaimReport, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.EncodeJSON(w, report) })
}

// RenderMarkdown writes a human-readable report to path
func (r *Renderer) RenderMarkdown(report *model.ClaimReport, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(report))
		return err
	})
}

// Markdown formats the report
func (r *Renderer) Markdown(report *model.ClaimReport) string {
	var b strings.Builder
	out := report.Outcome

	fmt.Fprintf(&b, "# Claim Report: %s\n\n", filepath.Base(report.Source))
	fmt.Fprintf(&b, "- **Report ID:** %s\n", report.ID)
	fmt.Fprintf(&b, "- **Processed:** %s\n", report.ProcessedAt.Format("2006-01-02 15:04:05 MST"))
	if report.Document != nil {
		fmt.Fprintf(&b, "- **Document:** %s (%s, OCR confidence %.2f)\n", report.Document.Path, report.Document.Kind, report.Document.Confidence)
	}
	if report.Classification != nil {
		fmt.Fprintf(&b, "- **Document type:** %s (%.2f)\n", report.Classification.DocumentType, report.Classification.Confidence)
	}
	ext := report.Extraction
	method := string(ext.Method)
	if ext.Provider != "" {
		method += " via " + ext.Provider
	}
	fmt.Fprintf(&b, "- **Extraction:** %s (confidence %.2f)\n\n", method, ext.Confidence)

	b.WriteString("## Decision\n\n")
	fmt.Fprintf(&b, "| Route | Valid | Risk score | Amount |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %v | %.2f | %s |\n\n", report.Routing.Route, out.IsValid, out.RiskScore, r.money(report.Routing.Amount))
	if report.Routing.Hint != "" {
		fmt.Fprintf(&b, "Recommended action: %s\n\n", report.Routing.Hint)
	}
	for _, reason := range report.Routing.Reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	if len(report.Routing.Reasons) > 0 {
		b.WriteString("\n")
	}

	if p := report.Payment; p != nil {
		b.WriteString("## Payment\n\n")
		fmt.Fprintf(&b, "- **Status:** %s\n", p.Status)
		if p.Reference != "" {
			fmt.Fprintf(&b, "- **Reference:** %s\n", p.Reference)
		}
		fmt.Fprintf(&b, "- **Gross:** %s, **fees:** %s, **net:** %s\n", r.money(p.Fees.GrossAmount), r.money(p.Fees.TotalFee), r.money(p.Fees.NetAmount))
		if p.Error != "" {
			fmt.Fprintf(&b, "- **Error:** %s\n", p.Error)
		}
		b.WriteString("\n")
	}

	writeIssues(&b, "Errors", out.Errors)
	writeIssues(&b, "Warnings", out.Warnings)

	if len(out.FraudIndicators) > 0 {
		b.WriteString("## Fraud Indicators\n\n| Indicator | Severity | Details |\n|---|---|---|\n")
		for _, fi := range out.FraudIndicators {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", fi.Indicator, fi.Severity, escapeCell(fi.Details))
		}
		b.WriteString("\n")
	}

	if len(out.Corrections) > 0 {
		b.WriteString("## Suggested Corrections\n\n| Field | Original | Corrected |\n|---|---|---|\n")
		for _, field := range slices.Sorted(maps.Keys(out.Corrections)) {
			c := out.Corrections[field]
			fmt.Fprintf(&b, "| %s | %v | %v |\n", field, escapeCell(fmt.Sprint(c.Original)), escapeCell(fmt.Sprint(c.Corrected)))
		}
		b.WriteString("\n")
	}

	if ra := out.RiskAssessment; ra != nil {
		b.WriteString("## Risk Assessment\n\n")
		fmt.Fprintf(&b, "- **Overall risk:** %s\n", ra.OverallRisk)
		if len(ra.RiskFactors) > 0 {
			fmt.Fprintf(&b, "- **Factors:** %s\n", strings.Join(ra.RiskFactors, ", "))
		}
		b.WriteString("\n")
	}

	if len(ext.Warnings) > 0 {
		b.WriteString("## Extraction Notes\n\n")
		for _, w := range ext.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n_Generated by claimguard. Routing is advisory; rejected and manual-review claims require an adjuster._\n")
	}
	return b.String()
}

// Summary returns the one-line console summary
func (r *Renderer) Summary(report *model.ClaimReport) string {
	icon := "✓"
	switch report.Routing.Route {
	case model.RouteReject:
		icon = "✗"
	case model.RouteManualReview:
		icon = "⚠"
	}
	line := fmt.Sprintf("%s %s: %s, risk %.2f, %d error(s), %d warning(s), %d indicator(s), amount %s",
		icon,
		filepath.Base(report.Source),
		report.Routing.Route,
		report.Outcome.RiskScore,
		len(report.Outcome.Errors),
		len(report.Outcome.Warnings),
		len(report.Outcome.FraudIndicators),
		r.money(report.Routing.Amount),
	)
	if report.Payment != nil {
		line += fmt.Sprintf(", payment %s", report.Payment.Status)
	}
	return line
}

// RenderSummary prints the one-line summary to w
func (r *Renderer) RenderSummary(w io.Writer, report *model.ClaimReport) {
	fmt.Fprintln(w, r.Summary(report))
}

func (r *Renderer) money(v float64) string {
	return r.printer.Sprintf("$%.2f", v)
}

func writeIssues(b *strings.Builder, title string, issues []model.FieldIssue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n| Field | Message |\n|---|---|\n", title)
	for _, is := range issues {
		fmt.Fprintf(b, "| %s | %s |\n", is.Field, escapeCell(is.Message))
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
