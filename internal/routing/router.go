package routing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ppiankov/claimguard/internal/model"
	"github.com/ppiankov/claimguard/internal/score"
)

// Risk cut-offs shared with the recommended action bands
const (
	rejectRisk = 0.8
	reviewRisk = 0.3
)

var moneyPrinter = message.NewPrinter(language.English)

// ClaimAmount returns the coerced claim amount, or 0 when absent or not numeric
func ClaimAmount(f model.ClaimFields) float64 {
	amount, err := f.Get(model.FieldClaimAmount).Float()
	if err != nil {
		return 0
	}
	return amount
}

// Decide selects the downstream route for a validated claim. Rules are
// evaluated in order and the first match wins.
func Decide(out model.ValidationOutcome, amount float64, t model.Thresholds) model.RoutingDecision {
	risk := out.RiskScore
	d := model.RoutingDecision{
		Amount:    amount,
		RiskScore: risk,
		IsValid:   out.IsValid,
		Hint:      string(score.RecommendedActionFor(risk)),
	}
	if out.RiskAssessment != nil {
		d.Hint = string(out.RiskAssessment.RecommendedAction)
	}

	switch {
	case !out.IsValid:
		d.Route = model.RouteReject
		d.Reasons = append(d.Reasons, moneyPrinter.Sprintf("validation failed with %d error(s)", len(out.Errors)))
	case risk > rejectRisk:
		d.Route = model.RouteReject
		d.Reasons = append(d.Reasons, moneyPrinter.Sprintf("risk score %.2f above %.2f", risk, rejectRisk))
	case risk > reviewRisk || amount > t.ManualReviewThreshold:
		d.Route = model.RouteManualReview
		if risk > reviewRisk {
			d.Reasons = append(d.Reasons, moneyPrinter.Sprintf("risk score %.2f above %.2f", risk, reviewRisk))
		}
		if amount > t.ManualReviewThreshold {
			d.Reasons = append(d.Reasons, moneyPrinter.Sprintf("amount $%.2f above manual review threshold $%.2f", amount, t.ManualReviewThreshold))
		}
	case amount <= t.AutoApproveThreshold:
		d.Route = model.RouteAutoApprove
		d.PayNow = amount > 0
		d.Reasons = append(d.Reasons, moneyPrinter.Sprintf("amount $%.2f within auto-approve threshold $%.2f", amount, t.AutoApproveThreshold))
	default:
		d.Route = model.RouteApprove
		d.Reasons = append(d.Reasons, moneyPrinter.Sprintf("amount $%.2f requires payment authorization", amount))
	}

	for _, fi := range out.FraudIndicators {
		if fi.Severity == model.SeverityHigh {
			d.Reasons = append(d.Reasons, "high severity fraud indicator: "+fi.Indicator)
		}
	}
	return d
}
