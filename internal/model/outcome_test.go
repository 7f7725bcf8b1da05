package model

import (
	"strings"
	"testing"
	"time"
)

func TestOutcome_ErrorIsMonotonic(t *testing.T) {
	o := NewOutcome(time.Time{}).
		WithError("claim_amount", "bad").
		WithWarning("x", "soft").
		WithCorrection("y", "a", "b").
		WithFraudIndicator("z", SeverityLow, "")

	if o.IsValid {
		t.Error("Expected outcome to stay invalid")
	}
}

func TestOutcome_WithDoesNotAlias(t *testing.T) {
	base := NewOutcome(time.Time{}).WithWarning("a", "first")
	left := base.WithWarning("b", "left")
	right := base.WithWarning("c", "right")

	if len(base.Warnings) != 1 {
		t.Errorf("Expected base to keep 1 warning, got %d", len(base.Warnings))
	}
	if left.Warnings[1].Field != "b" || right.Warnings[1].Field != "c" {
		t.Errorf("Expected branches not to overwrite each other: %v %v", left.Warnings, right.Warnings)
	}

	withCorr := base.WithCorrection("f", 1, 2)
	if len(base.Corrections) != 0 || len(withCorr.Corrections) != 1 {
		t.Error("Expected corrections map to be copied on write")
	}
}

func TestOutcome_SeverityWeights(t *testing.T) {
	o := NewOutcome(time.Time{}).
		WithFraudIndicator("a", SeverityLow, "").
		WithFraudIndicator("b", SeverityMedium, "").
		WithFraudIndicator("c", SeverityHigh, "").
		WithFraudIndicator("d", Severity("odd"), "")

	if got := o.RiskScore; got < 0.999 || got > 1.001 {
		t.Errorf("Expected raw score 1.0, got %v", got)
	}
}

func TestOutcome_SnapshotClampsAndCopies(t *testing.T) {
	o := NewOutcome(time.Time{}).WithRisk(2.5)
	o.RiskAssessment = &RiskAssessment{RiskFactors: []string{"high_value"}}

	s := o.Snapshot()
	s.RiskAssessment.RiskFactors[0] = "changed"

	if s.RiskScore != 1 {
		t.Errorf("Expected clamped score 1, got %v", s.RiskScore)
	}
	if o.RiskAssessment.RiskFactors[0] != "high_value" {
		t.Error("Expected snapshot to be independent of the source")
	}
	if ClampRisk(-0.2) != 0 {
		t.Error("Expected negative score to clamp to 0")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.Thresholds.MaxClaimAmount = 0
	cfg.Validation.VINChecksum = "luhn"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"max_claim_amount", "vin_checksum"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got %v", want, err)
		}
	}
}
