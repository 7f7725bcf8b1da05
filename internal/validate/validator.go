package validate

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/claimguard/internal/model"
	"github.com/ppiankov/claimguard/internal/score"
)

// FieldValidationProcess is the error field used when a stage fails unexpectedly
const FieldValidationProcess = "validation_process"

// Validator runs the claim validation stages. It holds only immutable
// configuration and is safe for concurrent use.
type Validator struct {
	thresholds  model.Thresholds
	vin         VINChecker
	phoneRegion string
	now         func() time.Time
	logger      *slog.Logger
	email       *validator.Validate
	scorer      *score.Scorer
}

// Option configures a Validator
type Option func(*Validator)

// WithClock overrides the time source used for "today" comparisons
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithLogger sets the logger used for stage diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// WithVINChecker replaces the VIN checksum routine
func WithVINChecker(c VINChecker) Option {
	return func(v *Validator) { v.vin = c }
}

// WithPhoneRegion sets the default region for numbers without a country code
func WithPhoneRegion(region string) Option {
	return func(v *Validator) { v.phoneRegion = region }
}

// New creates a validator for the given thresholds
func New(thresholds model.Thresholds, opts ...Option) *Validator {
	v := &Validator{
		thresholds:  thresholds,
		vin:         BasicVINChecker{},
		phoneRegion: "US",
		now:         time.Now,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		email:       validator.New(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.scorer = score.NewScorer(thresholds)
	return v
}

// NewFromConfig creates a validator from the loaded configuration
func NewFromConfig(cfg *model.Config, logger *slog.Logger) (*Validator, error) {
	checker, err := VINCheckerByName(cfg.Validation.VINChecksum)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithVINChecker(checker)}
	if cfg.Validation.PhoneRegion != "" {
		opts = append(opts, WithPhoneRegion(cfg.Validation.PhoneRegion))
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	return New(cfg.Thresholds, opts...), nil
}

// Thresholds returns the thresholds this validator was built with
func (v *Validator) Thresholds() model.Thresholds {
	return v.thresholds
}

// run holds the per-call view of the claim shared by all stages
type run struct {
	fields model.ClaimFields
	now    time.Time
	today  time.Time
}

type stageFunc func(v *Validator, r run, out model.ValidationOutcome) (model.ValidationOutcome, error)

type stage struct {
	name string
	fn   stageFunc
}

// stages run in this fixed order. Fraud detection and risk assessment read
// the raw fields, never the corrections recorded by earlier stages.
var stages = []stage{
	{"required_fields", checkRequired},
	{"personal_information", checkPersonal},
	{"policy_information", checkPolicy},
	{"incident_information", checkIncident},
	{"vehicle_information", checkVehicle},
	{"financial_information", checkFinancial},
	{"business_rules", checkBusinessRules},
	{"fraud_indicators", detectFraud},
	{"risk_assessment", assessRisk},
}

// Validate runs every stage over claim and returns the outcome. It never
// fails: an unexpected stage failure is recorded as a validation_process
// error and the partial outcome is returned.
func (v *Validator) Validate(claim model.ClaimFields) model.ValidationOutcome {
	now := v.now()
	r := run{fields: claim, now: now, today: model.DateOf(now)}
	out := model.NewOutcome(now)

	for _, st := range stages {
		next, err := v.runStage(st, r, out)
		out = next
		if err != nil {
			v.logger.Error("validation stage failed", "stage", st.name, "error", err)
			out = out.WithError(FieldValidationProcess, fmt.Sprintf("Validation failed: %v", err))
			break
		}
	}

	out = out.Snapshot()
	v.logger.Debug("claim validated",
		"valid", out.IsValid,
		"errors", len(out.Errors),
		"warnings", len(out.Warnings),
		"risk_score", out.RiskScore,
	)
	return out
}

// ValidateMap is a convenience wrapper for open field maps
func (v *Validator) ValidateMap(m map[string]any) model.ValidationOutcome {
	return v.Validate(model.FromMap(m))
}

func (v *Validator) runStage(st stage, r run, out model.ValidationOutcome) (next model.ValidationOutcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			next = out
			err = fmt.Errorf("%s: %v", st.name, p)
		}
	}()
	return st.fn(v, r, out)
}

func checkRequired(_ *Validator, r run, out model.ValidationOutcome) (model.ValidationOutcome, error) {
	for _, field := range []string{
		model.FieldClaimantName,
		model.FieldIncidentDate,
		model.FieldClaimAmount,
		model.FieldIncidentDescription,
	} {
		if !r.fields.Get(field).Present() {
			out = out.WithError(field, fmt.Sprintf("Required field '%s' is missing or empty", field))
		}
	}
	return out, nil
}

func assessRisk(v *Validator, r run, out model.ValidationOutcome) (model.ValidationOutcome, error) {
	return v.scorer.Assess(r.fields, out, r.now), nil
}

// text coerces a present field to a string, tagging coercion errors with the field name
func text(val model.Value, field string) (string, error) {
	s, err := val.Text()
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return s, nil
}
