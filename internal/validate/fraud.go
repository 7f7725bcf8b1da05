package validate

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ppiankov/claimguard/internal/model"
)

// Fraud indicator names
const (
	IndicatorHighValueClaim     = "high_value_claim"
	IndicatorNameMismatch       = "name_mismatch"
	IndicatorVagueDescription   = "vague_description"
	IndicatorRoundNumber        = "round_number"
	IndicatorMissingInformation = "missing_information"
)

const (
	highValueFraudAmount = 50000
	roundNumberMinimum   = 5000
)

// VagueLanguageKeywords are matched in order; only the first hit is reported
var VagueLanguageKeywords = []string{"suddenly", "out of nowhere", "don't remember", "not sure"}

var criticalFields = []string{model.FieldPolicyNumber, model.FieldIncidentLocation, model.FieldVehicleVIN}

var amountPrinter = message.NewPrinter(language.English)

// detectFraud runs independent, non-exclusive checks over the raw fields.
// Values that cannot be coerced simply do not trigger their indicator.
func detectFraud(_ *Validator, r run, out model.ValidationOutcome) (model.ValidationOutcome, error) {
	f := r.fields

	amount, amountErr := f.ClaimAmount.Float()
	hasAmount := f.ClaimAmount.Present() && amountErr == nil

	if hasAmount && amount > highValueFraudAmount {
		out = out.WithFraudIndicator(IndicatorHighValueClaim, model.SeverityMedium,
			amountPrinter.Sprintf("Claim amount of $%.2f is unusually high", amount))
	}

	if f.ClaimantName.Present() && f.PolicyHolderName.Present() {
		claimant, err1 := f.ClaimantName.Text()
		holder, err2 := f.PolicyHolderName.Text()
		if err1 == nil && err2 == nil && strings.ToLower(claimant) != strings.ToLower(holder) {
			out = out.WithFraudIndicator(IndicatorNameMismatch, model.SeverityLow,
				"Claimant name differs from policy holder name")
		}
	}

	if f.IncidentDescription.Present() {
		if desc, err := f.IncidentDescription.Text(); err == nil {
			if kw, ok := firstKeyword(desc, VagueLanguageKeywords); ok {
				out = out.WithFraudIndicator(IndicatorVagueDescription, model.SeverityLow,
					"Incident description contains vague language: '"+kw+"'")
			}
		}
	}

	if hasAmount && amount >= roundNumberMinimum && math.Mod(amount, 1000) == 0 {
		out = out.WithFraudIndicator(IndicatorRoundNumber, model.SeverityLow,
			amountPrinter.Sprintf("Claim amount is a round number: $%.0f", amount))
	}

	var missing []string
	for _, field := range criticalFields {
		if !f.Get(field).Present() {
			missing = append(missing, field)
		}
	}
	if len(missing) >= 2 {
		out = out.WithFraudIndicator(IndicatorMissingInformation, model.SeverityMedium,
			"Multiple critical fields missing: "+strings.Join(missing, ", "))
	}

	return out, nil
}
