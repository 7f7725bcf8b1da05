package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/claimguard/internal/model"
)

var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

func checkVehicle(v *Validator, r run, out model.ValidationOutcome) (model.ValidationOutcome, error) {
	f := r.fields

	// A numeric zero year means "not provided"
	if f.VehicleYear.Present() && !f.VehicleYear.NumericZero() {
		year, err := f.VehicleYear.Int()
		currentYear := r.now.Year()
		switch {
		case err != nil:
			out = out.WithError(model.FieldVehicleYear, "Invalid vehicle year format")
		case year < 1900:
			out = out.WithError(model.FieldVehicleYear, "Vehicle year is too old")
		case year > currentYear+1:
			out = out.WithError(model.FieldVehicleYear, "Vehicle year cannot be in the future")
		case year < currentYear-50:
			out = out.WithWarning(model.FieldVehicleYear, "Vehicle is very old (classic car?)")
		}
	}

	if f.VehicleVIN.Present() {
		vin, err := text(f.VehicleVIN, model.FieldVehicleVIN)
		if err != nil {
			return out, err
		}
		switch {
		case utf8.RuneCountInString(vin) != 17:
			out = out.WithError(model.FieldVehicleVIN, "VIN must be exactly 17 characters")
		case !vinPattern.MatchString(strings.ToUpper(vin)):
			out = out.WithError(model.FieldVehicleVIN, "VIN contains invalid characters")
		case !v.vin.Valid(strings.ToUpper(vin)):
			out = out.WithWarning(model.FieldVehicleVIN, "VIN checksum validation failed")
		}
	}

	if f.LicensePlate.Present() {
		plate, err := text(f.LicensePlate, model.FieldLicensePlate)
		if err != nil {
			return out, err
		}
		if n := utf8.RuneCountInString(plate); n < 2 || n > 10 {
			out = out.WithWarning(model.FieldLicensePlate, "License plate length is unusual")
		}
	}

	return out, nil
}
