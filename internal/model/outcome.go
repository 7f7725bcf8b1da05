package model

import (
	"maps"
	"slices"
	"time"
)

// Severity grades a fraud indicator
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Weight returns the raw risk contribution of an indicator with this severity.
// Unknown severities weigh the same as low.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityMedium:
		return 0.30
	case SeverityHigh:
		return 0.50
	default:
		return 0.10
	}
}

// FieldIssue is an error or warning scoped to one field
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Correction is a suggested normalized replacement for a field value
type Correction struct {
	Original  any `json:"original"`
	Corrected any `json:"corrected"`
}

// FraudIndicator is a named, severity-tagged fraud signal
type FraudIndicator struct {
	Indicator string   `json:"indicator"`
	Severity  Severity `json:"severity"`
	Details   string   `json:"details"`
}

// OverallRisk is the coarse label for a clamped risk score
type OverallRisk string

const (
	RiskLow    OverallRisk = "low"
	RiskMedium OverallRisk = "medium"
	RiskHigh   OverallRisk = "high"
)

// RecommendedAction is a human-facing hint derived from the risk score band
type RecommendedAction string

const (
	ActionReject       RecommendedAction = "Reject or require extensive documentation"
	ActionManualReview RecommendedAction = "Require manual review and additional verification"
	ActionMonitor      RecommendedAction = "Standard processing with monitoring"
	ActionStandard     RecommendedAction = "Standard processing"
)

// RiskAssessment carries the derived risk metadata of a validation run
type RiskAssessment struct {
	RiskFactors       []string          `json:"risk_factors"`
	OverallRisk       OverallRisk       `json:"overall_risk"`
	RecommendedAction RecommendedAction `json:"recommended_action"`
}

// ValidationOutcome accumulates the result of one validation run. It is
// threaded through every stage by value; the With* methods return an updated
// copy and never write through to slices or maps held by an earlier copy.
type ValidationOutcome struct {
	IsValid         bool                  `json:"is_valid"`
	Errors          []FieldIssue          `json:"errors"`
	Warnings        []FieldIssue          `json:"warnings"`
	Corrections     map[string]Correction `json:"corrections"`
	RiskScore       float64               `json:"risk_score"`
	FraudIndicators []FraudIndicator      `json:"fraud_indicators"`
	RiskAssessment  *RiskAssessment       `json:"risk_assessment,omitempty"`
	ValidatedAt     time.Time             `json:"validation_timestamp"`
}

// NewOutcome returns an empty, valid outcome stamped with at
func NewOutcome(at time.Time) ValidationOutcome {
	return ValidationOutcome{
		IsValid:         true,
		Errors:          []FieldIssue{},
		Warnings:        []FieldIssue{},
		Corrections:     map[string]Correction{},
		FraudIndicators: []FraudIndicator{},
		ValidatedAt:     at,
	}
}

// WithError records a hard failure; the outcome becomes invalid for good
func (o ValidationOutcome) WithError(field, message string) ValidationOutcome {
	o.IsValid = false
	o.Errors = append(slices.Clip(o.Errors), FieldIssue{Field: field, Message: message})
	return o
}

// WithWarning records a soft issue that does not affect validity
func (o ValidationOutcome) WithWarning(field, message string) ValidationOutcome {
	o.Warnings = append(slices.Clip(o.Warnings), FieldIssue{Field: field, Message: message})
	return o
}

// WithCorrection records a suggested normalized value for field
func (o ValidationOutcome) WithCorrection(field string, original, corrected any) ValidationOutcome {
	c := maps.Clone(o.Corrections)
	if c == nil {
		c = map[string]Correction{}
	}
	c[field] = Correction{Original: original, Corrected: corrected}
	o.Corrections = c
	return o
}

// WithFraudIndicator records an indicator and adds its severity weight to the
// raw risk score. The raw score may exceed 1.0 until it is clamped.
func (o ValidationOutcome) WithFraudIndicator(indicator string, severity Severity, details string) ValidationOutcome {
	o.FraudIndicators = append(slices.Clip(o.FraudIndicators), FraudIndicator{
		Indicator: indicator,
		Severity:  severity,
		Details:   details,
	})
	o.RiskScore += severity.Weight()
	return o
}

// WithRisk adds delta to the raw risk score
func (o ValidationOutcome) WithRisk(delta float64) ValidationOutcome {
	o.RiskScore += delta
	return o
}

// Snapshot returns an independent copy with the risk score clamped to [0,1]
func (o ValidationOutcome) Snapshot() ValidationOutcome {
	o.Errors = slices.Clone(o.Errors)
	o.Warnings = slices.Clone(o.Warnings)
	o.FraudIndicators = slices.Clone(o.FraudIndicators)
	o.Corrections = maps.Clone(o.Corrections)
	if o.RiskAssessment != nil {
		ra := *o.RiskAssessment
		ra.RiskFactors = slices.Clone(ra.RiskFactors)
		o.RiskAssessment = &ra
	}
	o.RiskScore = ClampRisk(o.RiskScore)
	return o
}

// HasError reports whether an error was recorded for field
func (o ValidationOutcome) HasError(field string) bool {
	return hasIssue(o.Errors, field)
}

// HasWarning reports whether a warning was recorded for field
func (o ValidationOutcome) HasWarning(field string) bool {
	return hasIssue(o.Warnings, field)
}

// HasIndicator reports whether the named fraud indicator fired
func (o ValidationOutcome) HasIndicator(indicator string) bool {
	for _, fi := range o.FraudIndicators {
		if fi.Indicator == indicator {
			return true
		}
	}
	return false
}

// ClampRisk bounds a raw risk score to [0,1]
func ClampRisk(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func hasIssue(issues []FieldIssue, field string) bool {
	for _, i := range issues {
		if i.Field == field {
			return true
		}
	}
	return false
}
