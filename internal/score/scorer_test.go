package score

import (
	"slices"
	"testing"
	"time"

	"github.com/ppiankov/claimguard/internal/model"
)

var now = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func thresholds() model.Thresholds {
	return model.DefaultConfig().Thresholds
}

func TestScorer_Assess_Factors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   []string
		score  float64
	}{
		{
			name:   "no factors",
			fields: map[string]any{"claim_amount": 500, "incident_date": "2024-01-15"},
			want:   []string{},
			score:  0,
		},
		{
			name:   "high value",
			fields: map[string]any{"claim_amount": 60000},
			want:   []string{FactorHighValue},
			score:  0.30,
		},
		{
			name:   "incomplete",
			fields: map[string]any{"claim_amount": 500, "policy_number": "", "vehicle_vin": nil},
			want:   []string{FactorIncomplete},
			score:  0.20,
		},
		{
			name:   "new vehicle",
			fields: map[string]any{"vehicle_year": "2022"},
			want:   []string{FactorNewVehicle},
			score:  0.10,
		},
		{
			name:   "weekend",
			fields: map[string]any{"incident_date": "01/13/2024"},
			want:   []string{FactorWeekendIncident},
			score:  0.05,
		},
	}

	s := NewScorer(thresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.Assess(model.FromMap(tt.fields), model.NewOutcome(now), now)

			if out.RiskAssessment == nil {
				t.Fatal("Expected risk assessment")
			}
			if !slices.Equal(out.RiskAssessment.RiskFactors, tt.want) {
				t.Errorf("Expected factors %v, got %v", tt.want, out.RiskAssessment.RiskFactors)
			}
			if out.RiskScore != tt.score {
				t.Errorf("Expected score %v, got %v", tt.score, out.RiskScore)
			}
		})
	}
}

func TestScorer_Assess_ClampsAccumulatedIndicators(t *testing.T) {
	out := model.NewOutcome(now).
		WithFraudIndicator("a", model.SeverityHigh, "").
		WithFraudIndicator("b", model.SeverityHigh, "").
		WithFraudIndicator("c", model.SeverityHigh, "")

	if out.RiskScore != 1.5 {
		t.Fatalf("Expected raw score 1.5 before assessment, got %v", out.RiskScore)
	}

	out = NewScorer(thresholds()).Assess(model.FromMap(map[string]any{"claim_amount": 100}), out, now)

	if out.RiskScore != 1.0 {
		t.Errorf("Expected clamped score 1.0, got %v", out.RiskScore)
	}
	if out.RiskAssessment.RecommendedAction != model.ActionReject {
		t.Errorf("Expected reject action, got %q", out.RiskAssessment.RecommendedAction)
	}
}

func TestScorer_Assess_IgnoresUncoercibleValues(t *testing.T) {
	fields := map[string]any{
		"claim_amount":  "a lot",
		"vehicle_year":  "brand new",
		"incident_date": "yesterday",
	}

	out := NewScorer(thresholds()).Assess(model.FromMap(fields), model.NewOutcome(now), now)

	if len(out.RiskAssessment.RiskFactors) != 0 {
		t.Errorf("Expected no factors, got %v", out.RiskAssessment.RiskFactors)
	}
}

func TestCompleteness(t *testing.T) {
	tests := []struct {
		fields map[string]any
		want   float64
	}{
		{map[string]any{}, 0},
		{map[string]any{"a": "x", "b": ""}, 0.5},
		{map[string]any{"a": 0, "b": nil, "c": "  ", "d": "y"}, 0.5},
		{map[string]any{"claimant_name": "John", "claim_amount": 1.5}, 1},
	}

	for _, tt := range tests {
		if got := Completeness(model.FromMap(tt.fields)); got != tt.want {
			t.Errorf("Completeness(%v) = %v, want %v", tt.fields, got, tt.want)
		}
	}
}

func TestRecommendedActionFor(t *testing.T) {
	tests := []struct {
		score   float64
		action  model.RecommendedAction
		overall model.OverallRisk
	}{
		{0, model.ActionStandard, model.RiskLow},
		{0.3, model.ActionStandard, model.RiskLow},
		{0.31, model.ActionMonitor, model.RiskMedium},
		{0.6, model.ActionMonitor, model.RiskMedium},
		{0.65, model.ActionManualReview, model.RiskMedium},
		{0.75, model.ActionManualReview, model.RiskHigh},
		{0.8, model.ActionManualReview, model.RiskHigh},
		{0.81, model.ActionReject, model.RiskHigh},
		{1, model.ActionReject, model.RiskHigh},
	}

	for _, tt := range tests {
		if got := RecommendedActionFor(tt.score); got != tt.action {
			t.Errorf("RecommendedActionFor(%v) = %q, want %q", tt.score, got, tt.action)
		}
		if got := OverallRiskFor(tt.score); got != tt.overall {
			t.Errorf("OverallRiskFor(%v) = %s, want %s", tt.score, got, tt.overall)
		}
	}
}
