package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/claimguard/internal/model"
)

// Synthetic warning fields not tied to a single input field
const (
	FieldAmountConsistency = "amount_consistency"
	FieldIncidentTiming    = "incident_timing"
	FieldLocationRisk      = "location_risk"
)

// maxAmountDiscrepancy is the relative gap between estimated damage and the
// claimed amount above which a consistency warning is raised
const maxAmountDiscrepancy = 0.5

// HighRiskLocationKeywords are matched in order; only the first hit is reported
var HighRiskLocationKeywords = []string{"parking lot", "mall", "downtown", "highway", "construction"}

func checkFinancial(v *Validator, r run, out model.ValidationOutcome) (model.ValidationOutcome, error) {
	f := r.fields
	t := v.thresholds

	amount, amountErr := f.ClaimAmount.Float()
	if f.ClaimAmount.NonNull() {
		switch {
		case amountErr != nil:
			out = out.WithError(model.FieldClaimAmount, "Invalid claim amount format")
		case amount <= 0:
			out = out.WithError(model.FieldClaimAmount, "Claim amount must be positive")
		case amount > t.MaxClaimAmount:
			out = out.WithError(model.FieldClaimAmount, fmt.Sprintf("Claim amount exceeds maximum allowed (%v)", t.MaxClaimAmount))
		case amount > t.ManualReviewThreshold:
			out = out.WithWarning(model.FieldClaimAmount, "High value claim requires manual review")
		}
	}

	if f.EstimatedDamageAmount.NonNull() && f.ClaimAmount.NonNull() {
		est, err := f.EstimatedDamageAmount.Float()
		switch {
		case err != nil:
			out = out.WithError(model.FieldEstimatedDamageAmount, "Invalid estimated damage amount format")
		case est <= 0:
			out = out.WithError(model.FieldEstimatedDamageAmount, "Estimated damage must be positive")
		case amountErr != nil:
			// claim_amount already carries its own error
		case math.Abs(est-amount)/math.Max(est, amount) > maxAmountDiscrepancy:
			out = out.WithWarning(FieldAmountConsistency, "Large discrepancy between estimated damage and claim amount")
		}
	}

	return out, nil
}

func checkBusinessRules(_ *Validator, r run, out model.ValidationOutcome) (model.ValidationOutcome, error) {
	f := r.fields

	if date, ok := f.IncidentDay(); ok && model.IsWeekend(date) {
		out = out.WithWarning(FieldIncidentTiming, "Incident occurred on weekend")
	}

	if f.IncidentLocation.Present() {
		loc, err := text(f.IncidentLocation, model.FieldIncidentLocation)
		if err != nil {
			return out, err
		}
		if kw, ok := firstKeyword(loc, HighRiskLocationKeywords); ok {
			out = out.WithWarning(FieldLocationRisk, fmt.Sprintf("Incident in potentially high-risk location: %s", kw))
		}
	}

	return out, nil
}

// firstKeyword returns the first keyword contained in s, case-insensitively
func firstKeyword(s string, keywords []string) (string, bool) {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}
