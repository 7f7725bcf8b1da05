package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/ppiankov/claimguard/internal/model"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z\s\-.']+$`)

func checkPersonal(v *Validator, r run, out model.ValidationOutcome) (model.ValidationOutcome, error) {
	f := r.fields

	if f.ClaimantName.Present() {
		name, err := text(f.ClaimantName, model.FieldClaimantName)
		if err != nil {
			return out, err
		}
		n := utf8.RuneCountInString(name)
		switch {
		case n < 2:
			out = out.WithError(model.FieldClaimantName, "Name is too short")
		case n > 100:
			out = out.WithError(model.FieldClaimantName, "Name is too long")
		case !namePattern.MatchString(name):
			out = out.WithWarning(model.FieldClaimantName, "Name contains unusual characters")
		}
	}

	if f.ClaimantEmail.Present() {
		email, err := text(f.ClaimantEmail, model.FieldClaimantEmail)
		if err != nil {
			return out, err
		}
		out = v.checkEmail(email, out)
	}

	if f.ClaimantPhone.Present() {
		phone, err := text(f.ClaimantPhone, model.FieldClaimantPhone)
		if err != nil {
			return out, err
		}
		out = v.checkPhone(phone, out)
	}

	return out, nil
}

func (v *Validator) checkEmail(email string, out model.ValidationOutcome) model.ValidationOutcome {
	trimmed := strings.TrimSpace(email)
	if err := v.email.Var(trimmed, "required,email"); err != nil {
		return out.WithError(model.FieldClaimantEmail, fmt.Sprintf("Invalid email address: %s", emailReason(trimmed)))
	}
	if normalized := NormalizeEmail(trimmed); normalized != email {
		out = out.WithCorrection(model.FieldClaimantEmail, email, normalized)
	}
	return out
}

// NormalizeEmail trims the address and canonicalizes its domain part. The
// local part is case-sensitive and left untouched.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	local, domain := email[:at], email[at+1:]
	canonical, err := idna.Lookup.ToUnicode(domain)
	if err != nil {
		canonical = strings.ToLower(domain)
	}
	return local + "@" + canonical
}

func emailReason(email string) string {
	switch n := strings.Count(email, "@"); {
	case n == 0:
		return "the address must contain an @-sign"
	case n > 1:
		return "the address must contain exactly one @-sign"
	case strings.HasSuffix(email, "@"):
		return "there must be something after the @-sign"
	case strings.HasPrefix(email, "@"):
		return "there must be something before the @-sign"
	}
	return "the address is not valid"
}

func (v *Validator) checkPhone(phone string, out model.ValidationOutcome) model.ValidationOutcome {
	num, err := phonenumbers.Parse(phone, v.phoneRegion)
	if err != nil {
		return out.WithError(model.FieldClaimantPhone, "Unable to parse phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return out.WithError(model.FieldClaimantPhone, "Invalid phone number")
	}
	if formatted := phonenumbers.Format(num, phonenumbers.NATIONAL); formatted != phone {
		out = out.WithCorrection(model.FieldClaimantPhone, phone, formatted)
	}
	return out
}
