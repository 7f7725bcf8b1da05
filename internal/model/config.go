package model

import (
	"errors"
	"fmt"
)

// Config is the complete claimguard configuration
type Config struct {
	Thresholds   Thresholds        `yaml:"thresholds" mapstructure:"thresholds"`
	Validation   ValidationConfig  `yaml:"validation" mapstructure:"validation"`
	Extraction   ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Routing      RoutingConfig     `yaml:"routing" mapstructure:"routing"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	Metrics      MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// Thresholds are the monetary limits read by validation and routing.
// They are immutable once a validator has been built from them.
type Thresholds struct {
	MaxClaimAmount        float64 `yaml:"max_claim_amount" mapstructure:"max_claim_amount"`
	AutoApproveThreshold  float64 `yaml:"auto_approve_threshold" mapstructure:"auto_approve_threshold"`
	ManualReviewThreshold float64 `yaml:"manual_review_threshold" mapstructure:"manual_review_threshold"`
}

// ValidationConfig tunes individual validation checks
type ValidationConfig struct {
	VINChecksum string `yaml:"vin_checksum" mapstructure:"vin_checksum"` // basic, check_digit
	PhoneRegion string `yaml:"phone_region" mapstructure:"phone_region"`
}

// ExtractionConfig controls document loading and fallback extraction
type ExtractionConfig struct {
	MaxFileBytes      int64    `yaml:"max_file_bytes" mapstructure:"max_file_bytes"`
	AllowedExtensions []string `yaml:"allowed_extensions" mapstructure:"allowed_extensions"`
	TextConfidence    float64  `yaml:"text_confidence" mapstructure:"text_confidence"` // assumed OCR confidence for plain text input
}

// LLMConfig configures the optional language-model extractor
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" to disable
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"-" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxRetries int    `yaml:"max_retries" mapstructure:"max_retries"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls caching of extraction results
type CacheConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir           string `yaml:"dir" mapstructure:"dir"`
	MemoryTTLMins int    `yaml:"memory_ttl_minutes" mapstructure:"memory_ttl_minutes"`
	DiskTTLHours  int    `yaml:"disk_ttl_hours" mapstructure:"disk_ttl_hours"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig limits calls to the LLM provider
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// RoutingConfig controls payment handoff
type RoutingConfig struct {
	Currency        string  `yaml:"currency" mapstructure:"currency"`
	FeePercent      float64 `yaml:"fee_percent" mapstructure:"fee_percent"`
	FeeFixed        float64 `yaml:"fee_fixed" mapstructure:"fee_fixed"`
	PaymentsEnabled bool    `yaml:"payments_enabled" mapstructure:"payments_enabled"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// MetricsConfig controls Prometheus textfile export
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path,omitempty" mapstructure:"textfile_path"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Thresholds: Thresholds{
			MaxClaimAmount:        100000,
			AutoApproveThreshold:  1000,
			ManualReviewThreshold: 50000,
		},
		Validation: ValidationConfig{
			VINChecksum: "basic",
			PhoneRegion: "US",
		},
		Extraction: ExtractionConfig{
			MaxFileBytes:      10 << 20,
			AllowedExtensions: []string{"pdf", "txt", "hocr", "html", "json", "yaml", "yml"},
			TextConfidence:    0.8,
		},
		LLM: LLMConfig{
			Timeout:    30,
			MaxTokens:  4000,
			MaxRetries: 3,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Dir:           ".claimguard-cache",
			MemoryTTLMins: 60,
			DiskTTLHours:  24 * 7,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Routing: RoutingConfig{
			Currency:   "usd",
			FeePercent: 2.9,
			FeeFixed:   0.30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// Validate checks the configuration for values the engine cannot work with
func (c *Config) Validate() error {
	var errs []error
	t := c.Thresholds
	if t.MaxClaimAmount <= 0 {
		errs = append(errs, fmt.Errorf("thresholds.max_claim_amount must be positive, got %v", t.MaxClaimAmount))
	}
	if t.AutoApproveThreshold < 0 {
		errs = append(errs, fmt.Errorf("thresholds.auto_approve_threshold must not be negative, got %v", t.AutoApproveThreshold))
	}
	if t.ManualReviewThreshold < 0 {
		errs = append(errs, fmt.Errorf("thresholds.manual_review_threshold must not be negative, got %v", t.ManualReviewThreshold))
	}
	if t.ManualReviewThreshold > t.MaxClaimAmount {
		errs = append(errs, fmt.Errorf("thresholds.manual_review_threshold (%v) exceeds max_claim_amount (%v)", t.ManualReviewThreshold, t.MaxClaimAmount))
	}
	switch c.Validation.VINChecksum {
	case "", "basic", "check_digit":
	default:
		errs = append(errs, fmt.Errorf("validation.vin_checksum: unknown mode %q (supported: basic, check_digit)", c.Validation.VINChecksum))
	}
	if c.Concurrency.Workers < 0 {
		errs = append(errs, fmt.Errorf("concurrency.workers must not be negative, got %d", c.Concurrency.Workers))
	}
	return errors.Join(errs...)
}
