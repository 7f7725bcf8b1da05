package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimguard/internal/metrics"
	"github.com/ppiankov/claimguard/internal/pipeline"
)

var (
	outJSON        string
	outMD          string
	processTimeout time.Duration
)

// processCmd runs the full pipeline over one document
var processCmd = &cobra.Command{
	Use:   "process <document>",
	Short: "Extract, validate and route a single claim document",
	Long: `Process loads one claim document, classifies it, extracts claim fields,
validates them, scores fraud risk and routes the claim.

Supported inputs: .txt (OCR text), .hocr/.html (Tesseract hOCR), .pdf (text
layer), .json/.yaml (pre-extracted fields).

Without --json or --md the JSON report is printed to stdout.

Example:
  claimguard process accident_report.txt
  claimguard process scan.hocr --json report.json --md report.md
  claimguard process claim.pdf --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&outJSON, "json", "", "output JSON report path")
	processCmd.Flags().StringVar(&outMD, "md", "", "output Markdown report path")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 2*time.Minute, "overall processing timeout")
	addPipelineFlags(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(nil)
	p, err := newPipeline(cfg, logger, collector)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), processTimeout)
	defer cancel()

	report, err := p.ProcessFile(ctx, args[0])
	if err != nil {
		writeMetrics(collector, cfg.Metrics.TextfilePath, logger)
		return fmt.Errorf("process failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if outJSON == "" && outMD == "" {
		if err := renderer.EncodeJSON(cmd.OutOrStdout(), report); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	renderer.RenderSummary(cmd.ErrOrStderr(), report)
	writeMetrics(collector, cfg.Metrics.TextfilePath, logger)
	return nil
}
