package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/claimguard/internal/model"
)

var policyNumberPattern = regexp.MustCompile(`^[A-Z0-9\-]+$`)

// KnownInsurers is the reference list matched case-insensitively as a
// substring of the insurance_company field
var KnownInsurers = []string{
	"State Farm", "GEICO", "Progressive", "Allstate", "USAA",
	"Liberty Mutual", "Farmers", "Nationwide", "American Family",
	"Travelers", "Auto-Owners", "AAA", "Esurance", "The General",
}

func checkPolicy(_ *Validator, r run, out model.ValidationOutcome) (model.ValidationOutcome, error) {
	f := r.fields

	if f.PolicyNumber.Present() {
		policy, err := text(f.PolicyNumber, model.FieldPolicyNumber)
		if err != nil {
			return out, err
		}
		n := utf8.RuneCountInString(policy)
		switch {
		case n < 5:
			out = out.WithError(model.FieldPolicyNumber, "Policy number is too short")
		case n > 50:
			out = out.WithError(model.FieldPolicyNumber, "Policy number is too long")
		case !policyNumberPattern.MatchString(strings.ToUpper(policy)):
			out = out.WithWarning(model.FieldPolicyNumber, "Policy number format is unusual")
		}
	}

	if f.InsuranceCompany.Present() {
		company, err := text(f.InsuranceCompany, model.FieldInsuranceCompany)
		if err != nil {
			return out, err
		}
		if !isKnownInsurer(company) {
			out = out.WithWarning(model.FieldInsuranceCompany, "Insurance company not in common list")
		}
	}

	return out, nil
}

func isKnownInsurer(company string) bool {
	lower := strings.ToLower(company)
	for _, insurer := range KnownInsurers {
		if strings.Contains(lower, strings.ToLower(insurer)) {
			return true
		}
	}
	return false
}
