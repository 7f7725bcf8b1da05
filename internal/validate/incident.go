package validate

import (
	"unicode/utf8"

	"github.com/ppiankov/claimguard/internal/model"
)

// incidentMaxAgeDays is how far back an incident may lie before it is flagged
const incidentMaxAgeDays = 365 * 5

func checkIncident(_ *Validator, r run, out model.ValidationOutcome) (model.ValidationOutcome, error) {
	f := r.fields

	if f.IncidentDate.Present() {
		raw, err := text(f.IncidentDate, model.FieldIncidentDate)
		if err != nil {
			return out, err
		}
		date, ok := model.ParseIncidentDate(raw)
		if !ok {
			out = out.WithError(model.FieldIncidentDate, "Unable to parse incident date")
		} else {
			switch {
			case date.After(r.today):
				out = out.WithError(model.FieldIncidentDate, "Incident date cannot be in the future")
			case date.Before(r.today.AddDate(0, 0, -incidentMaxAgeDays)):
				out = out.WithWarning(model.FieldIncidentDate, "Incident date is more than 5 years ago")
			}
			if canonical := date.Format(model.DateLayoutISO); canonical != raw {
				out = out.WithCorrection(model.FieldIncidentDate, raw, canonical)
			}
		}
	}

	if f.IncidentDescription.Present() {
		desc, err := text(f.IncidentDescription, model.FieldIncidentDescription)
		if err != nil {
			return out, err
		}
		switch n := utf8.RuneCountInString(desc); {
		case n < 10:
			out = out.WithWarning(model.FieldIncidentDescription, "Incident description is very brief")
		case n > 2000:
			out = out.WithWarning(model.FieldIncidentDescription, "Incident description is unusually long")
		}
	}

	return out, nil
}
