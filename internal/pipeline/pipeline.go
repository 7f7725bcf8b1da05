package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/claimguard/internal/cache"
	"github.com/ppiankov/claimguard/internal/extract"
	"github.com/ppiankov/claimguard/internal/llm"
	"github.com/ppiankov/claimguard/internal/metrics"
	"github.com/ppiankov/claimguard/internal/model"
	"github.com/ppiankov/claimguard/internal/routing"
	"github.com/ppiankov/claimguard/internal/validate"
	"github.com/ppiankov/claimguard/internal/worker"
)

// Pipeline orchestrates load, classify, extract, validate, route and pay
type Pipeline struct {
	loader     *Loader
	classifier *extract.Classifier
	extractor  *llm.Extractor
	store      *cache.Layered
	validator  *validate.Validator
	payer      routing.Payer
	metrics    *metrics.Collector
	config     *model.Config
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithExtractor replaces the extractor built from the LLM configuration
func WithExtractor(e *llm.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithValidator replaces the validator built from the configuration
func WithValidator(v *validate.Validator) Option {
	return func(p *Pipeline) { p.validator = v }
}

// WithPayer sets the payout collaborator; nil disables payouts
func WithPayer(payer routing.Payer) Option {
	return func(p *Pipeline) { p.payer = payer }
}

// WithMetrics records every processed claim
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the report timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a pipeline from configuration. An LLM provider that fails to
// initialize is logged and extraction falls back to pattern matching.
func New(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		loader:     NewLoader(cfg.Extraction),
		classifier: extract.NewClassifier(),
		config:     cfg,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.validator == nil {
		v, err := validate.NewFromConfig(cfg, p.logger)
		if err != nil {
			return nil, fmt.Errorf("build validator: %w", err)
		}
		p.validator = v
	}
	if p.extractor == nil {
		p.extractor = p.buildExtractor()
	}
	if p.payer == nil && cfg.Routing.PaymentsEnabled {
		p.payer = routing.NewDryRunPayer(p.fees(), p.logger)
	}
	p.logger.Debug("pipeline ready", "llm", p.extractor.HasProvider(), "payments", p.payer != nil)
	return p, nil
}

// NewCache builds the layered extraction cache described by cfg
func NewCache(cfg model.CacheConfig) *cache.Layered {
	return cache.NewLayered(
		time.Duration(cfg.MemoryTTLMins)*time.Minute,
		cfg.Dir,
		time.Duration(cfg.DiskTTLHours)*time.Hour,
	)
}

// CacheStats reports extraction cache hits. ok is false when no cache is in use.
func (p *Pipeline) CacheStats() (stats cache.Stats, ok bool) {
	if p.store == nil {
		return cache.Stats{}, false
	}
	return p.store.Stats(), true
}

func (p *Pipeline) buildExtractor() *llm.Extractor {
	cfg := p.config
	if cfg.LLM.Provider == "" {
		return llm.NewExtractor(nil, llm.WithExtractorLogger(p.logger))
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil || provider == nil {
		p.logger.Warn("LLM provider unavailable, using pattern extraction", "provider", cfg.LLM.Provider, "error", err)
		return llm.NewExtractor(nil, llm.WithExtractorLogger(p.logger))
	}

	opts := []llm.ExtractorOption{
		llm.WithExtractorLogger(p.logger),
		llm.WithModel(cfg.LLM.Model),
		llm.WithLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)),
	}
	if cfg.Cache.Enabled {
		p.store = NewCache(cfg.Cache)
		opts = append(opts, llm.WithCache(p.store, 0))
	}

	resilient := llm.NewResilientProvider(provider, cfg.LLM.MaxRetries, llm.DefaultBreakerSettings())
	return llm.NewExtractor(resilient, opts...)
}

func (p *Pipeline) fees() routing.FeeSchedule {
	return routing.FeeSchedule{Percent: p.config.Routing.FeePercent, Fixed: p.config.Routing.FeeFixed}
}

// ProcessFile runs the full pipeline over one document
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*model.ClaimReport, error) {
	start := time.Now()

	loaded, err := p.loader.Load(path)
	if err != nil {
		p.metrics.RecordFailure()
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}

	report := p.newReport(path)
	doc := loaded.Document
	report.Document = &doc

	if loaded.Fields != nil {
		report.Extraction = model.Extraction{
			Method:     model.ExtractionProvided,
			Confidence: 1.0,
			Fields:     *loaded.Fields,
		}
	} else {
		class := p.classifier.Classify(doc.Text)
		report.Classification = &class

		ext, err := p.extractor.Extract(ctx, doc.Text, class.DocumentType)
		if err != nil {
			p.metrics.RecordFailure()
			return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
		}
		report.Extraction = ext
	}

	p.finish(ctx, report)
	p.metrics.RecordReport(report, time.Since(start))
	return report, nil
}

// ValidateFields validates, routes and settles an already extracted field set
func (p *Pipeline) ValidateFields(ctx context.Context, source string, fields model.ClaimFields) *model.ClaimReport {
	start := time.Now()
	report := p.newReport(source)
	report.Extraction = model.Extraction{
		Method:     model.ExtractionProvided,
		Confidence: 1.0,
		Fields:     fields,
	}
	p.finish(ctx, report)
	p.metrics.RecordReport(report, time.Since(start))
	return report
}

func (p *Pipeline) newReport(source string) *model.ClaimReport {
	return &model.ClaimReport{
		ID:          uuid.NewString(),
		Source:      source,
		ProcessedAt: p.now().UTC(),
	}
}

// finish runs validation, routing and settlement on a report with fields
func (p *Pipeline) finish(ctx context.Context, report *model.ClaimReport) {
	fields := report.Extraction.Fields
	report.Outcome = p.validator.Validate(fields)

	amount := routing.ClaimAmount(fields)
	report.Routing = routing.Decide(report.Outcome, amount, p.validator.Thresholds())

	currency := strings.ToLower(p.config.Routing.Currency)
	report.Payment = routing.Settle(ctx, p.payer, report.ID, report.Routing, currency)
	if report.Payment != nil && report.Payment.Status == model.PaymentFailed {
		p.logger.Warn("payout failed", "claim_id", report.ID, "error", report.Payment.Error)
	}

	p.logger.Info("claim processed",
		"source", report.Source,
		"route", report.Routing.Route,
		"valid", report.Outcome.IsValid,
		"risk_score", report.Outcome.RiskScore,
		"extraction", report.Extraction.Method,
	)
}
