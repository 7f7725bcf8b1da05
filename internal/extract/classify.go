package extract

import (
	"strings"

	"github.com/ppiankov/claimguard/internal/model"
)

type classRule struct {
	docType model.DocumentType
	terms   []string
}

// Classifier assigns a document type by keyword coverage. Each type scores
// the share of its terms found in the text; ties go to the earlier type.
type Classifier struct {
	rules []classRule
}

// NewClassifier creates a classifier with the built-in keyword table
func NewClassifier() *Classifier {
	return &Classifier{
		rules: []classRule{
			{model.DocInsuranceCard, []string{"policy", "coverage", "insured", "premium"}},
			{model.DocDriversLicense, []string{"license", "driver", "license number", "dl"}},
			{model.DocAccidentReport, []string{"accident", "incident", "collision", "crash"}},
			{model.DocPoliceReport, []string{"police", "officer", "report number", "citation"}},
			{model.DocMedicalReport, []string{"medical", "hospital", "doctor", "treatment"}},
			{model.DocRepairEstimate, []string{"repair", "estimate", "parts", "labor"}},
		},
	}
}

// Classify returns the best-scoring type, or "other" when no term matches
func (c *Classifier) Classify(text string) model.Classification {
	lower := strings.ToLower(text)
	best := model.Classification{DocumentType: model.DocOther}

	for _, rule := range c.rules {
		var matched []string
		for _, term := range rule.terms {
			if strings.Contains(lower, term) {
				matched = append(matched, term)
			}
		}
		score := float64(len(matched)) / float64(len(rule.terms))
		if score > best.Confidence {
			best = model.Classification{
				DocumentType: rule.docType,
				Confidence:   score,
				Matched:      matched,
			}
		}
	}
	return best
}
