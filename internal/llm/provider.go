package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/ppiankov/claimguard/internal/model"
)

var (
	// ErrNoProvider is returned when extraction is requested but no provider is configured
	ErrNoProvider = errors.New("no LLM provider configured")

	// ErrInvalidExtraction is returned when the model reply is not a flat JSON object
	ErrInvalidExtraction = errors.New("invalid extraction reply")
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Extract asks the model for claim fields found in the document text
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest contains the input for field extraction
type ExtractRequest struct {
	// Text is the OCR text of the document
	Text string

	// DocumentType is the classified type, used as a hint in the prompt
	DocumentType model.DocumentType

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExtractResponse contains the unverified fields returned by the model
type ExtractResponse struct {
	// Fields is the flat field map exactly as the model produced it
	Fields map[string]any

	// Confidence is the model's self-reported confidence (0.0-1.0)
	Confidence float64

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// MaxRetries for transient failures
	MaxRetries int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:   "", // Disabled by default
		Timeout:    30,
		MaxTokens:  4000,
		MaxRetries: 3,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:   c.Provider,
		Model:      c.Model,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxTokens:  c.MaxTokens,
		MaxRetries: c.MaxRetries,
		HTTPProxy:  c.HTTPProxy,
		HTTPSProxy: c.HTTPSProxy,
		NoProxy:    c.NoProxy,
	}
}

// SystemPrompt instructs the model to act as a field extractor
const SystemPrompt = `You are an expert insurance claim processor. Extract structured data from insurance documents.

Guidelines:
1. Extract only information that is explicitly stated in the text.
2. Do not make assumptions or fill in missing information; use null instead.
3. Use YYYY-MM-DD for dates.
4. Give monetary amounts as plain numbers without currency symbols or separators.
5. Reply with a single JSON object and nothing else.`

// BuildPrompt constructs the extraction prompt for the document text
func BuildPrompt(text string, docType model.DocumentType) string {
	if docType == "" {
		docType = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Extract insurance claim information from the following text. The document type is: %s\n\n", docType)
	b.WriteString("Return a JSON object with exactly these keys (null when absent):\n")
	for _, f := range model.KnownFields() {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("- confidence_score: your confidence in the extraction, 0.0 to 1.0\n\n")
	b.WriteString("Text to analyze:\n")
	b.WriteString(text)
	b.WriteString("\n\nIf you are unsure about any field, leave it null rather than guessing.")
	return b.String()
}

// ParseExtraction decodes a model reply into a field map and the
// self-reported confidence. Markdown code fences around the object are
// tolerated; the confidence_score key is removed from the returned map.
func ParseExtraction(content string) (map[string]any, float64, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start >= 0 && end > start {
		s = s[start : end+1]
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidExtraction, err)
	}
	if fields == nil {
		return nil, 0, fmt.Errorf("%w: empty object", ErrInvalidExtraction)
	}

	var confidence float64
	if raw, ok := fields["confidence_score"]; ok {
		if f, err := model.NewValue(raw).Float(); err == nil {
			confidence = model.ClampRisk(f)
		}
		delete(fields, "confidence_score")
	}
	return fields, confidence, nil
}

func resolveModel(req ExtractRequest, cfg Config, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

func resolveMaxTokens(req ExtractRequest, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 4000
}
