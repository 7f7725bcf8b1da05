package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/claimguard/internal/model"
)

// FallbackConfidence is the self-reported confidence of heuristic extraction
const FallbackConfidence = 0.3

// FieldClaimNumber is carried through as an extra field when found
const FieldClaimNumber = "claim_number"

type labelRule struct {
	field  string
	re     *regexp.Regexp
	amount bool
}

// label builds a line-anchored "Label: value" matcher
func label(field, names string, amount bool) labelRule {
	return labelRule{
		field:  field,
		re:     regexp.MustCompile(`(?im)^[ \t]*(?:` + names + `)[ \t]*[:#][ \t]*(.+?)[ \t]*$`),
		amount: amount,
	}
}

var (
	phonePattern  = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b|\(\d{3}\)\s?\d{3}-\d{4}`)
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	dollarPattern = regexp.MustCompile(`(?:\$|USD ?)([\d,]+(?:\.\d{1,2})?)`)
	vinPattern    = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)
	datePatterns  = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	}
	claimNumberPattern = regexp.MustCompile(`(?i)\b(CLM-?[A-Z0-9-]*\d[A-Z0-9-]*)\b`)
)

// FieldExtractor recovers claim fields from OCR text using labeled lines
// ("Policy Number: ...") and then bare patterns for anything still missing.
// It never fails; unrecognized text simply yields fewer fields.
type FieldExtractor struct {
	rules []labelRule
}

// NewFieldExtractor creates a new field extractor
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{
		rules: []labelRule{
			label(model.FieldPolicyHolderName, `policy ?holder(?: name)?|name of insured|insured name`, false),
			label(model.FieldClaimantName, `claimant(?: name)?|name of claimant|driver name|full name`, false),
			label(model.FieldClaimantEmail, `e-?mail(?: address)?`, false),
			label(model.FieldClaimantPhone, `(?:tele)?phone(?: number| no\.?)?|tel\.?|mobile`, false),
			label(model.FieldPolicyNumber, `policy (?:number|no\.?|#)|policy`, false),
			label(model.FieldInsuranceCompany, `insurance company|insurer|insurance carrier|carrier`, false),
			label(model.FieldVehicleYear, `(?:vehicle )?year|model year`, false),
			label(model.FieldVehicleVIN, `vin(?: number)?|vehicle identification number`, false),
			label(model.FieldLicensePlate, `license plate(?: number)?|plate(?: number| no\.?)?`, false),
			label(model.FieldIncidentDate, `date of (?:incident|loss|accident)|(?:incident|accident|loss) date`, false),
			label(model.FieldIncidentLocation, `(?:incident |accident )?location|place of (?:incident|accident)`, false),
			label(model.FieldIncidentDescription, `(?:incident |accident )?description|description of (?:incident|accident|loss)`, false),
			label(model.FieldClaimAmount, `claim(?:ed)? amount|amount claimed|total claim(?: amount)?`, true),
			label(model.FieldEstimatedDamageAmount, `estimated damage(?: amount)?|damage estimate|repair estimate(?: total)?|estimate total`, true),
			label(FieldClaimNumber, `claim (?:number|no\.?|#)`, false),
		},
	}
}

// Extract returns the recovered fields with FallbackConfidence
func (e *FieldExtractor) Extract(text string) model.Extraction {
	var fields model.ClaimFields
	found := map[string]bool{}

	for _, rule := range e.rules {
		if found[rule.field] {
			continue
		}
		m := rule.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			continue
		}
		if rule.amount {
			fields.Set(rule.field, parseAmount(value))
		} else {
			fields.Set(rule.field, value)
		}
		found[rule.field] = true
	}

	setIfMissing := func(field string, value any, ok bool) {
		if ok && !found[field] {
			fields.Set(field, value)
			found[field] = true
		}
	}

	phone := phonePattern.FindString(text)
	setIfMissing(model.FieldClaimantPhone, phone, phone != "")

	email := emailPattern.FindString(text)
	setIfMissing(model.FieldClaimantEmail, email, email != "")

	if m := dollarPattern.FindStringSubmatch(text); m != nil {
		setIfMissing(model.FieldClaimAmount, parseAmount(m[1]), true)
	}

	vin := vinPattern.FindString(strings.ToUpper(text))
	setIfMissing(model.FieldVehicleVIN, vin, vin != "")

	for _, re := range datePatterns {
		if d := re.FindString(text); d != "" {
			setIfMissing(model.FieldIncidentDate, d, true)
			break
		}
	}

	if m := claimNumberPattern.FindStringSubmatch(text); m != nil {
		setIfMissing(FieldClaimNumber, strings.ToUpper(m[1]), true)
	}

	ext := model.Extraction{
		Method:     model.ExtractionFallback,
		Confidence: FallbackConfidence,
		Fields:     fields,
	}
	if fields.Len() == 0 {
		ext.Warnings = append(ext.Warnings, "no claim fields recognized in document text")
	}
	return ext
}

// parseAmount turns "$1,250.00" into 1250.0, keeping the raw text when it
// does not parse so that validation can report it
func parseAmount(s string) any {
	clean := strings.NewReplacer("$", "", ",", "", "USD", "", " ", "").Replace(s)
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return s
	}
	return f
}
