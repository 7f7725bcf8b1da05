package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/claimguard/internal/cache"
	"github.com/ppiankov/claimguard/internal/extract"
	"github.com/ppiankov/claimguard/internal/model"
)

// Waiter blocks until a call for key may proceed
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Extractor turns document text into claim fields. It prefers the
// configured provider and falls back to heuristic extraction whenever
// the provider is missing, fails, or returns an unusable reply.
type Extractor struct {
	provider Provider
	model    string
	fallback *extract.FieldExtractor
	store    cache.Store
	cacheTTL time.Duration
	limiter  Waiter
	logger   *slog.Logger
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithCache enables result caching
func WithCache(store cache.Store, ttl time.Duration) ExtractorOption {
	return func(e *Extractor) {
		e.store = store
		e.cacheTTL = ttl
	}
}

// WithLimiter throttles provider calls
func WithLimiter(w Waiter) ExtractorOption {
	return func(e *Extractor) { e.limiter = w }
}

// WithModel overrides the model passed to the provider
func WithModel(name string) ExtractorOption {
	return func(e *Extractor) { e.model = name }
}

// WithExtractorLogger sets the logger
func WithExtractorLogger(l *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor creates an extractor. provider may be nil.
func NewExtractor(provider Provider, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		provider: provider,
		fallback: extract.NewFieldExtractor(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasProvider reports whether a model provider is configured
func (e *Extractor) HasProvider() bool {
	return e.provider != nil
}

// Extract returns the fields found in text. The only error is context
// cancellation; every other failure degrades to the fallback extractor
// and is reported in the extraction warnings.
func (e *Extractor) Extract(ctx context.Context, text string, docType model.DocumentType) (model.Extraction, error) {
	if e.provider == nil || strings.TrimSpace(text) == "" {
		return e.fallback.Extract(text), nil
	}

	name := e.provider.Name()
	key := cache.ExtractionKey(name, e.model, docType, text)
	if e.store != nil {
		if cached, ok := cache.GetExtraction(e.store, key); ok {
			e.logger.Debug("extraction cache hit", "provider", name)
			cached.Method = model.ExtractionCached
			return *cached, nil
		}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, name); err != nil {
			return model.Extraction{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := e.provider.Extract(ctx, ExtractRequest{
		Text:         text,
		DocumentType: docType,
		Model:        e.model,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.Extraction{}, ctxErr
		}
		if IsCircuitOpen(err) {
			e.logger.Debug("provider circuit open, using fallback", "provider", name)
		} else {
			e.logger.Warn("llm extraction failed, using fallback", "provider", name, "error", err)
		}
		ext := e.fallback.Extract(text)
		ext.Provider = name
		ext.Warnings = append(ext.Warnings, fmt.Sprintf("llm extraction failed: %v", err))
		return ext, nil
	}

	ext := model.Extraction{
		Method:     model.ExtractionLLM,
		Provider:   name,
		Model:      resp.Model,
		Confidence: resp.Confidence,
		Fields:     model.FromMap(resp.Fields),
	}
	e.logger.Debug("llm extraction complete",
		"provider", name,
		"model", resp.Model,
		"fields", ext.Fields.FilledCount(),
		"tokens", resp.TokensUsed,
	)

	if e.store != nil {
		if err := cache.PutExtraction(e.store, key, ext, e.cacheTTL); err != nil {
			e.logger.Warn("failed to cache extraction", "error", err)
		}
	}
	return ext, nil
}
