package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimguard/internal/metrics"
	"github.com/ppiankov/claimguard/internal/pipeline"
	"github.com/ppiankov/claimguard/internal/worker"
)

const rule = "═══════════════════════════════════════════════════════════"

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	writeXLSX    bool
)

// batchCmd processes many claim documents in parallel
var batchCmd = &cobra.Command{
	Use:   "batch <list-file|dir|document>...",
	Short: "Process many claim documents in parallel",
	Long: `Batch processes claim documents concurrently and writes one JSON and one
Markdown report per document.

Each argument may be:
- a directory, searched recursively for supported documents
- a supported document (.txt, .hocr, .html, .pdf, .json, .yaml)
- any other file, read as a list of document paths (one per line, # comments)

LLM calls share a per-provider rate limiter across workers.

Example:
  claimguard batch claims.list
  claimguard batch ./inbox --concurrency 8 --output-dir ./reports --xlsx
  claimguard batch ./inbox --metrics-file /var/lib/node_exporter/claimguard.prom`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./claimguard-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&writeXLSX, "xlsx", false, "write summary.xlsx to the output directory")
	addPipelineFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if cfg.Concurrency.Workers < 1 {
		cfg.Concurrency.Workers = 1
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	paths, err := collectPaths(args, cfg.Extraction.AllowedExtensions)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents found in %s", strings.Join(args, ", "))
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n%s\n  claimguard batch\n%s\n\n", rule, rule)
	fmt.Fprintf(stderr, "  Documents:    %d\n", len(paths))
	fmt.Fprintf(stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintln(stderr)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	collector := metrics.NewCollector(nil)
	p, err := newPipeline(cfg, logger, collector)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	names := reportNames(paths)

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	processor.OnResult(func(r *worker.FileResult) {
		if r.Error != nil {
			fmt.Fprintf(stderr, "✗ %s: %v\n", r.Path, r.Error)
			return
		}
		if err := writeReports(renderer, r, filepath.Join(outputDir, names[r.Index])); err != nil {
			fmt.Fprintf(stderr, "✗ %s: %v\n", r.Path, err)
			return
		}
		renderer.RenderSummary(stderr, r.Report)
	})
	results := processor.ProcessPaths(ctx, paths)

	if writeXLSX {
		xlsxPath := filepath.Join(outputDir, "summary.xlsx")
		if err := pipeline.WriteSummaryXLSX(xlsxPath, results); err != nil {
			logger.Warn("failed to write spreadsheet summary", "path", xlsxPath, "error", err)
		} else {
			fmt.Fprintf(stderr, "\n✓ Summary workbook: %s\n", xlsxPath)
		}
	}
	writeMetrics(collector, cfg.Metrics.TextfilePath, logger)
	if stats, ok := p.CacheStats(); ok {
		logger.Info("extraction cache", "memory_hits", stats.MemoryHits, "disk_hits", stats.DiskHits, "misses", stats.Misses)
	}

	printBatchSummary(stderr, worker.Summarize(results))
	return nil
}

func writeReports(renderer *pipeline.Renderer, r *worker.FileResult, stem string) error {
	if err := renderer.RenderJSON(r.Report, stem+".json"); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	if err := renderer.RenderMarkdown(r.Report, stem+".md"); err != nil {
		return fmt.Errorf("failed to write Markdown: %w", err)
	}
	return nil
}

func printBatchSummary(w io.Writer, s worker.Summary) {
	fmt.Fprintf(w, "\n%s\n  Batch Complete\n%s\n\n", rule, rule)
	fmt.Fprintf(w, "  Total:          %d documents\n", s.Total)
	fmt.Fprintf(w, "  Processed:      %d\n", s.Succeeded)
	fmt.Fprintf(w, "  Failures:       %d\n", s.Failed)
	fmt.Fprintf(w, "  Valid claims:   %d\n", s.Valid)
	for _, route := range slices.Sorted(maps.Keys(s.ByRoute)) {
		fmt.Fprintf(w, "  %-15s %d\n", string(route)+":", s.ByRoute[route])
	}
	fmt.Fprintf(w, "  Requested:      %.2f\n", s.TotalRequested)
	fmt.Fprintf(w, "  Auto-approved:  %.2f\n", s.AutoApproved)
	fmt.Fprintf(w, "  Output:         %s\n\n", outputDir)
}

// collectPaths expands directories, keeps documents and reads any other
// file as a path list. Listed paths are taken as-is so a missing entry
// fails on its own instead of aborting the batch.
func collectPaths(args []string, exts []string) ([]string, error) {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	var out []string
	seen := make(map[string]bool)
	add := func(paths ...string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(arg), "."))
		if info.IsDir() || allowed[ext] {
			expanded, err := worker.ExpandPaths([]string{arg}, exts)
			if err != nil {
				return nil, err
			}
			add(expanded...)
			continue
		}
		listed, err := worker.ReadPathsFromFile(arg)
		if err != nil {
			return nil, fmt.Errorf("read list %s: %w", arg, err)
		}
		add(listed...)
	}
	return out, nil
}

// reportNames assigns every path a unique report stem, suffixing repeats
func reportNames(paths []string) []string {
	names := make([]string, len(paths))
	used := make(map[string]bool, len(paths))
	for i, p := range paths {
		base := reportName(p)
		stem := base
		for n := 2; used[stem]; n++ {
			stem = fmt.Sprintf("%s-%d", base, n)
		}
		used[stem] = true
		names[i] = stem
	}
	return names
}
