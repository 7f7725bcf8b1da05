package worker

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/claimguard/internal/model"
)

// Processor turns one claim document into a report
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*model.ClaimReport, error)
}

// ClaimJob processes a single file
type ClaimJob struct {
	Index     int
	Path      string
	Processor Processor
}

// Execute runs the processor, converting a panic into a failed result
func (j *ClaimJob) Execute(ctx context.Context) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = &FileResult{
				Index:    j.Index,
				Path:     j.Path,
				Error:    fmt.Errorf("panic processing %s: %v", j.Path, r),
				Duration: time.Since(start),
			}
		}
	}()

	report, err := j.Processor.ProcessFile(ctx, j.Path)
	return &FileResult{
		Index:    j.Index,
		Path:     j.Path,
		Report:   report,
		Error:    err,
		Duration: time.Since(start),
	}
}

// FileResult is the outcome of one ClaimJob
type FileResult struct {
	Index    int
	Path     string
	Report   *model.ClaimReport
	Error    error
	Duration time.Duration
}

// GetError returns the processing error
func (r *FileResult) GetError() error {
	return r.Error
}

// Summary aggregates a batch run
type Summary struct {
	Total          int                 `json:"total"`
	Succeeded      int                 `json:"succeeded"`
	Failed         int                 `json:"failed"`
	Valid          int                 `json:"valid"`
	ByRoute        map[model.Route]int `json:"by_route"`
	TotalRequested float64             `json:"total_requested"`
	AutoApproved   float64             `json:"auto_approved_amount"`
}

// Summarize counts results by route
func Summarize(results []*FileResult) Summary {
	s := Summary{Total: len(results), ByRoute: map[model.Route]int{}}
	for _, r := range results {
		if r.Error != nil || r.Report == nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		if r.Report.Outcome.IsValid {
			s.Valid++
		}
		s.ByRoute[r.Report.Routing.Route]++
		s.TotalRequested += r.Report.Routing.Amount
		if r.Report.Routing.Route == model.RouteAutoApprove {
			s.AutoApproved += r.Report.Routing.Amount
		}
	}
	return s
}

// BatchProcessor processes many claim files concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
	onResult    func(*FileResult)
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// OnResult registers a callback invoked as each file finishes, in completion order
func (b *BatchProcessor) OnResult(fn func(*FileResult)) {
	b.onResult = fn
}

// ProcessPaths processes every path and returns results in input order.
// Paths never started because ctx was cancelled are reported with ctx's error.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, path := range paths {
			if !pool.Submit(&ClaimJob{Index: i, Path: path, Processor: b.processor}) {
				break
			}
		}
		pool.Close()
	}()

	results := make([]*FileResult, len(paths))
	for res := range pool.Results() {
		fr := res.(*FileResult)
		results[fr.Index] = fr
		if b.onResult != nil {
			b.onResult(fr)
		}
	}

	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &FileResult{Index: i, Path: paths[i], Error: err}
		}
	}
	return results
}

// ProcessList reads paths from a list file and processes them
func (b *BatchProcessor) ProcessList(ctx context.Context, listPath string) ([]*FileResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths, one per line. Blank lines and
// # comments are skipped, duplicates dropped, and relative paths are
// resolved against the list file's directory.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return paths, nil
}

// ExpandPaths turns files and directories into a sorted, deduplicated
// file list. Directory entries are kept only if their extension is in
// exts; explicitly named files are always kept.
func ExpandPaths(inputs []string, exts []string) ([]string, error) {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", in, err)
		}
		if !info.IsDir() {
			add(in)
			continue
		}

		var found []string
		err = filepath.WalkDir(in, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != in && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
			if allowed[ext] {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", in, err)
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return slices.Clip(out), nil
}
