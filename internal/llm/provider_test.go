package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/claimguard/internal/model"
)

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantFields int
		wantConf   float64
		wantErr    bool
	}{
		{
			name:       "plain object",
			content:    `{"claimant_name": "Jane Doe", "claim_amount": 1200, "confidence_score": 0.9}`,
			wantFields: 2,
			wantConf:   0.9,
		},
		{
			name:       "fenced object",
			content:    "```json\n{\"policy_number\": \"ABC-12345\", \"confidence_score\": 0.7}\n```",
			wantFields: 1,
			wantConf:   0.7,
		},
		{
			name:       "prose around object",
			content:    "Here is the data: {\"vehicle_year\": 2019} Hope this helps.",
			wantFields: 1,
			wantConf:   0,
		},
		{
			name:       "confidence clamped",
			content:    `{"claimant_name": "A", "confidence_score": 7}`,
			wantFields: 1,
			wantConf:   1.0,
		},
		{
			name:    "not json",
			content: "I could not read the document.",
			wantErr: true,
		},
		{
			name:    "json null",
			content: "null",
			wantErr: true,
		},
		{
			name:    "array",
			content: `[{"claimant_name": "A"}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, conf, err := ParseExtraction(tt.content)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidExtraction) {
					t.Fatalf("Expected ErrInvalidExtraction, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(fields) != tt.wantFields {
				t.Errorf("Expected %d fields, got %d (%v)", tt.wantFields, len(fields), fields)
			}
			if _, ok := fields["confidence_score"]; ok {
				t.Error("Expected confidence_score to be removed from fields")
			}
			if conf != tt.wantConf {
				t.Errorf("Expected confidence %v, got %v", tt.wantConf, conf)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Policy Number: ABC-12345", model.DocInsuranceCard)

	if !strings.Contains(prompt, "The document type is: insurance_card") {
		t.Error("Expected document type in prompt")
	}
	for _, f := range model.KnownFields() {
		if !strings.Contains(prompt, "- "+f+"\n") {
			t.Errorf("Expected field %s listed in prompt", f)
		}
	}
	if !strings.Contains(prompt, "Policy Number: ABC-12345") {
		t.Error("Expected document text in prompt")
	}

	if !strings.Contains(BuildPrompt("x", ""), "The document type is: unknown") {
		t.Error("Expected unknown document type when none given")
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{name: "disabled", config: Config{}, wantNil: true},
		{name: "openai", config: Config{Provider: "openai", APIKey: "k"}, wantName: "openai"},
		{name: "claude alias", config: Config{Provider: "Claude", APIKey: "k"}, wantName: "anthropic"},
		{name: "ollama", config: Config{Provider: "ollama"}, wantName: "ollama"},
		{name: "openai without key", config: Config{Provider: "openai"}, wantErr: true},
		{name: "unknown", config: Config{Provider: "bard"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.wantNil {
				if p != nil {
					t.Errorf("Expected nil provider, got %s", p.Name())
				}
				return
			}
			if p.Name() != tt.wantName {
				t.Errorf("Expected provider %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{
		Provider:   "ollama",
		Model:      "llama3.1:8b",
		Timeout:    12,
		MaxRetries: 2,
		NoProxy:    "localhost",
	})
	if cfg.Provider != "ollama" || cfg.Model != "llama3.1:8b" || cfg.Timeout != 12 || cfg.MaxRetries != 2 || cfg.NoProxy != "localhost" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}
