package score

import (
	"time"

	"github.com/ppiankov/claimguard/internal/model"
)

// Risk factor tags
const (
	FactorHighValue       = "high_value"
	FactorIncomplete      = "incomplete_information"
	FactorNewVehicle      = "new_vehicle"
	FactorWeekendIncident = "weekend_incident"
)

// Additive contributions of each risk factor
const (
	weightHighValue  = 0.30
	weightIncomplete = 0.20
	weightNewVehicle = 0.10
	weightWeekend    = 0.05
)

// minCompleteness is the fill ratio below which a claim counts as incomplete
const minCompleteness = 0.5

// Scorer performs the final risk assessment of a validation run
type Scorer struct {
	thresholds model.Thresholds
}

// NewScorer creates a new scorer
func NewScorer(thresholds model.Thresholds) *Scorer {
	return &Scorer{thresholds: thresholds}
}

// Assess adds the risk-factor contributions to out, clamps the score and
// attaches the derived assessment. Fields that cannot be coerced contribute
// nothing.
func (s *Scorer) Assess(claim model.ClaimFields, out model.ValidationOutcome, now time.Time) model.ValidationOutcome {
	factors := []string{}

	// 1. High claim amount
	if claim.ClaimAmount.Present() {
		if amount, err := claim.ClaimAmount.Float(); err == nil && amount > s.thresholds.ManualReviewThreshold {
			factors = append(factors, FactorHighValue)
			out = out.WithRisk(weightHighValue)
		}
	}

	// 2. Completeness over every key the extractor produced
	if Completeness(claim) < minCompleteness {
		factors = append(factors, FactorIncomplete)
		out = out.WithRisk(weightIncomplete)
	}

	// 3. Very new vehicle
	if claim.VehicleYear.Present() {
		if year, err := claim.VehicleYear.Int(); err == nil && year >= now.Year()-2 {
			factors = append(factors, FactorNewVehicle)
			out = out.WithRisk(weightNewVehicle)
		}
	}

	// 4. Weekend incident
	if date, ok := claim.IncidentDay(); ok && model.IsWeekend(date) {
		factors = append(factors, FactorWeekendIncident)
		out = out.WithRisk(weightWeekend)
	}

	out.RiskScore = model.ClampRisk(out.RiskScore)
	out.RiskAssessment = &model.RiskAssessment{
		RiskFactors:       factors,
		OverallRisk:       OverallRiskFor(out.RiskScore),
		RecommendedAction: RecommendedActionFor(out.RiskScore),
	}
	return out
}

// Completeness returns the share of keys holding a non-null, non-blank value.
// An empty field set has completeness 0.
func Completeness(claim model.ClaimFields) float64 {
	total := claim.Len()
	if total == 0 {
		return 0
	}
	return float64(claim.FilledCount()) / float64(total)
}

// OverallRiskFor labels a clamped risk score
func OverallRiskFor(score float64) model.OverallRisk {
	switch {
	case score > 0.7:
		return model.RiskHigh
	case score > 0.3:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// RecommendedActionFor maps a clamped risk score to its action band
func RecommendedActionFor(score float64) model.RecommendedAction {
	switch {
	case score > 0.8:
		return model.ActionReject
	case score > 0.6:
		return model.ActionManualReview
	case score > 0.3:
		return model.ActionMonitor
	default:
		return model.ActionStandard
	}
}
