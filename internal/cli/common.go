package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimguard/internal/logging"
	"github.com/ppiankov/claimguard/internal/metrics"
	"github.com/ppiankov/claimguard/internal/model"
	"github.com/ppiankov/claimguard/internal/pipeline"
)

// Flags shared by process and batch
var (
	noFooter    bool
	llmProvider string
	llmModel    string
	payEnabled  bool
	metricsFile string
	noCache     bool
)

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for extraction (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	cmd.Flags().BoolVar(&payEnabled, "pay", false, "hand auto-approved claims to the payment collaborator (dry run)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the extraction cache")
}

// applyFlagOverrides copies explicitly set command flags onto cfg
func applyFlagOverrides(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("pay") {
		cfg.Routing.PaymentsEnabled = payEnabled
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.TextfilePath = metricsFile
	}
}

func newLogger(cfg *model.Config) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if cfg.Output.Verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	return logger, nil
}

func newPipeline(cfg *model.Config, logger *slog.Logger, collector *metrics.Collector) (*pipeline.Pipeline, error) {
	if cfg.LLM.Provider != "" {
		logger.Info("LLM extraction enabled", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}
	p, err := pipeline.New(cfg, pipeline.WithLogger(logger), pipeline.WithMetrics(collector))
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return p, nil
}

func writeMetrics(collector *metrics.Collector, path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := collector.WriteTextfile(path); err != nil {
		logger.Warn("failed to write metrics textfile", "path", path, "error", err)
		return
	}
	logger.Debug("metrics written", "path", path)
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// reportName derives a safe report file stem from a document path
func reportName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = filenameReplacer.Replace(stem)
	if len(stem) > 100 {
		stem = stem[:100]
	}
	if stem == "" || stem == "." {
		stem = "claim"
	}
	return stem
}
