package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// Field names understood by the validation engine
const (
	FieldClaimantName          = "claimant_name"
	FieldClaimantEmail         = "claimant_email"
	FieldClaimantPhone         = "claimant_phone"
	FieldPolicyHolderName      = "policy_holder_name"
	FieldPolicyNumber          = "policy_number"
	FieldInsuranceCompany      = "insurance_company"
	FieldVehicleYear           = "vehicle_year"
	FieldVehicleVIN            = "vehicle_vin"
	FieldLicensePlate          = "license_plate"
	FieldIncidentDate          = "incident_date"
	FieldIncidentLocation      = "incident_location"
	FieldIncidentDescription   = "incident_description"
	FieldClaimAmount           = "claim_amount"
	FieldEstimatedDamageAmount = "estimated_damage_amount"
)

// ErrUncoercible is returned when a raw value cannot be coerced to the requested type
var ErrUncoercible = errors.New("value cannot be coerced")

// Value is a single raw field value as produced by upstream extraction.
// Nothing about its dynamic type is trusted; callers coerce on read.
type Value struct {
	raw any
	set bool
}

// NewValue wraps a raw value as a set field
func NewValue(raw any) Value {
	return Value{raw: raw, set: true}
}

// Raw returns the value exactly as received
func (v Value) Raw() any {
	return v.raw
}

// IsSet reports whether the key appeared in the input map at all
func (v Value) IsSet() bool {
	return v.set
}

// NonNull reports whether the key appeared with a non-null value
func (v Value) NonNull() bool {
	return v.set && v.raw != nil
}

// Present reports whether the value is non-null and, if textual, non-blank
func (v Value) Present() bool {
	if !v.NonNull() {
		return false
	}
	if s, ok := v.raw.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Text coerces the value to a string. Numbers are rendered without
// exponent notation; maps and slices are rejected.
func (v Value) Text() (string, error) {
	switch t := v.raw.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case time.Time:
		return t.Format(DateLayoutISO), nil
	case map[string]any, []any:
		return "", fmt.Errorf("%w: %T to text", ErrUncoercible, v.raw)
	}
	s, err := cast.ToStringE(v.raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUncoercible, err)
	}
	return s, nil
}

// Float coerces the value to a finite float64. Strings must be plain
// decimal numbers; base prefixes and hex floats are rejected.
func (v Value) Float() (float64, error) {
	raw := v.raw
	if raw == nil {
		return 0, fmt.Errorf("%w: null value", ErrUncoercible)
	}
	var (
		f   float64
		err error
	)
	if s, ok := raw.(string); ok {
		s, err = decimalString(s)
		if err != nil {
			return 0, err
		}
		f, err = strconv.ParseFloat(s, 64)
	} else {
		f, err = cast.ToFloat64E(raw)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUncoercible, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: non-finite number", ErrUncoercible)
	}
	return f, nil
}

// Int coerces the value to an int. Strings are parsed as base 10, so
// "02020" is 2020 and "0x7E8" is rejected. Fractional numbers are truncated.
func (v Value) Int() (int, error) {
	raw := v.raw
	if raw == nil {
		return 0, fmt.Errorf("%w: null value", ErrUncoercible)
	}
	if s, ok := raw.(string); ok {
		s, err := decimalString(s)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(s, 10, 0)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUncoercible, err)
		}
		return int(n), nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUncoercible, err)
	}
	return n, nil
}

// NumericZero reports whether the value is a number equal to zero
func (v Value) NumericZero() bool {
	switch v.raw.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		f, err := cast.ToFloat64E(v.raw)
		return err == nil && f == 0
	}
	return false
}

// decimalString trims s and rejects blanks and 0x/0o/0b prefixed literals
func decimalString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty string", ErrUncoercible)
	}
	digits := strings.ToLower(strings.TrimLeft(s, "+-"))
	if len(digits) > 1 && digits[0] == '0' && strings.ContainsRune("xob", rune(digits[1])) {
		return "", fmt.Errorf("%w: %q is not a decimal number", ErrUncoercible, s)
	}
	return s, nil
}

// ClaimFields is the loosely typed field set extracted from a claim document.
// Known fields have their own slot; anything else is kept in Extra so that
// completeness can be measured over every key the extractor produced.
type ClaimFields struct {
	ClaimantName          Value
	ClaimantEmail         Value
	ClaimantPhone         Value
	PolicyHolderName      Value
	PolicyNumber          Value
	InsuranceCompany      Value
	VehicleYear           Value
	VehicleVIN            Value
	LicensePlate          Value
	IncidentDate          Value
	IncidentLocation      Value
	IncidentDescription   Value
	ClaimAmount           Value
	EstimatedDamageAmount Value

	Extra map[string]Value
}

// FromMap builds ClaimFields from an open key/value map
func FromMap(m map[string]any) ClaimFields {
	var c ClaimFields
	for k, raw := range m {
		c.Set(k, raw)
	}
	return c
}

// Set stores a raw value under the given key
func (c *ClaimFields) Set(key string, raw any) {
	if slot := c.slot(key); slot != nil {
		*slot = NewValue(raw)
		return
	}
	if c.Extra == nil {
		c.Extra = make(map[string]Value)
	}
	c.Extra[key] = NewValue(raw)
}

// Get returns the value stored under key (zero Value when absent)
func (c ClaimFields) Get(key string) Value {
	if slot := c.slot(key); slot != nil {
		return *slot
	}
	return c.Extra[key]
}

// Keys returns every key that was set, sorted
func (c ClaimFields) Keys() []string {
	var keys []string
	for _, name := range knownFields {
		if c.Get(name).IsSet() {
			keys = append(keys, name)
		}
	}
	for k, v := range c.Extra {
		if v.IsSet() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys present in the input map
func (c ClaimFields) Len() int {
	return len(c.Keys())
}

// FilledCount returns the number of keys whose value is non-null and non-blank
func (c ClaimFields) FilledCount() int {
	n := 0
	for _, k := range c.Keys() {
		if c.Get(k).Present() {
			n++
		}
	}
	return n
}

// ToMap returns the open map form of the field set
func (c ClaimFields) ToMap() map[string]any {
	m := make(map[string]any)
	for _, k := range c.Keys() {
		m[k] = c.Get(k).Raw()
	}
	return m
}

// MarshalJSON encodes the field set as a flat JSON object
func (c ClaimFields) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

// UnmarshalJSON decodes a flat JSON object into the field set
func (c *ClaimFields) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = FromMap(m)
	return nil
}

var knownFields = []string{
	FieldClaimantName,
	FieldClaimantEmail,
	FieldClaimantPhone,
	FieldPolicyHolderName,
	FieldPolicyNumber,
	FieldInsuranceCompany,
	FieldVehicleYear,
	FieldVehicleVIN,
	FieldLicensePlate,
	FieldIncidentDate,
	FieldIncidentLocation,
	FieldIncidentDescription,
	FieldClaimAmount,
	FieldEstimatedDamageAmount,
}

// KnownFields returns the names of all first-class claim fields
func KnownFields() []string {
	out := make([]string, len(knownFields))
	copy(out, knownFields)
	return out
}

func (c *ClaimFields) slot(key string) *Value {
	switch key {
	case FieldClaimantName:
		return &c.ClaimantName
	case FieldClaimantEmail:
		return &c.ClaimantEmail
	case FieldClaimantPhone:
		return &c.ClaimantPhone
	case FieldPolicyHolderName:
		return &c.PolicyHolderName
	case FieldPolicyNumber:
		return &c.PolicyNumber
	case FieldInsuranceCompany:
		return &c.InsuranceCompany
	case FieldVehicleYear:
		return &c.VehicleYear
	case FieldVehicleVIN:
		return &c.VehicleVIN
	case FieldLicensePlate:
		return &c.LicensePlate
	case FieldIncidentDate:
		return &c.IncidentDate
	case FieldIncidentLocation:
		return &c.IncidentLocation
	case FieldIncidentDescription:
		return &c.IncidentDescription
	case FieldClaimAmount:
		return &c.ClaimAmount
	case FieldEstimatedDamageAmount:
		return &c.EstimatedDamageAmount
	}
	return nil
}
