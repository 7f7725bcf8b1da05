package validate

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ppiankov/claimguard/internal/model"
)

// fixedNow is a Saturday; 2024-01-15 is the Monday used by minimalClaim
var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func testThresholds() model.Thresholds {
	return model.DefaultConfig().Thresholds
}

func newTestValidator(opts ...Option) *Validator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(testThresholds(), opts...)
}

func minimalClaim() map[string]any {
	return map[string]any{
		"claimant_name":        "John Doe",
		"incident_date":        "2024-01-15",
		"claim_amount":         500.0,
		"incident_description": "Rear-ended at a light",
	}
}

func withFields(base map[string]any, kv ...any) map[string]any {
	for i := 0; i+1 < len(kv); i += 2 {
		base[kv[i].(string)] = kv[i+1]
	}
	return base
}

func TestValidator_MinimalClaimIsValid(t *testing.T) {
	out := newTestValidator().ValidateMap(minimalClaim())

	if !out.IsValid {
		t.Fatalf("Expected minimal claim to be valid, got errors: %v", out.Errors)
	}
	if len(out.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", out.Errors)
	}
	// policy_number, incident_location and vehicle_vin are all absent
	if !out.HasIndicator(IndicatorMissingInformation) {
		t.Error("Expected missing_information indicator")
	}
	if len(out.FraudIndicators) != 1 {
		t.Errorf("Expected exactly 1 fraud indicator, got %v", out.FraudIndicators)
	}
	if out.RiskScore != 0.3 {
		t.Errorf("Expected risk score 0.3, got %v", out.RiskScore)
	}
	if out.RiskAssessment == nil {
		t.Fatal("Expected risk assessment to be attached")
	}
	if len(out.RiskAssessment.RiskFactors) != 0 {
		t.Errorf("Expected no risk factors, got %v", out.RiskAssessment.RiskFactors)
	}
	if out.RiskAssessment.OverallRisk != model.RiskLow {
		t.Errorf("Expected overall risk low, got %s", out.RiskAssessment.OverallRisk)
	}
	if out.RiskAssessment.RecommendedAction != model.ActionStandard {
		t.Errorf("Expected standard processing, got %q", out.RiskAssessment.RecommendedAction)
	}
	if !out.ValidatedAt.Equal(fixedNow) {
		t.Errorf("Expected timestamp %v, got %v", fixedNow, out.ValidatedAt)
	}
}

func TestValidator_RequiredFields(t *testing.T) {
	for _, field := range []string{
		model.FieldClaimantName,
		model.FieldIncidentDate,
		model.FieldClaimAmount,
		model.FieldIncidentDescription,
	} {
		t.Run("missing "+field, func(t *testing.T) {
			claim := minimalClaim()
			delete(claim, field)

			out := newTestValidator().ValidateMap(claim)

			if out.IsValid {
				t.Error("Expected claim to be invalid")
			}
			if !out.HasError(field) {
				t.Errorf("Expected error on %s, got %v", field, out.Errors)
			}
		})
		t.Run("blank "+field, func(t *testing.T) {
			claim := withFields(minimalClaim(), field, "   ")

			out := newTestValidator().ValidateMap(claim)

			want := "Required field '" + field + "' is missing or empty"
			found := false
			for _, e := range out.Errors {
				if e.Field == field && e.Message == want {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected %q, got %v", want, out.Errors)
			}
		})
	}
}

func TestValidator_ErrorsAreMonotonic(t *testing.T) {
	// An early error followed by only warnings and corrections
	claim := withFields(minimalClaim(),
		"claimant_name", "J",
		"incident_date", "01/15/2024",
		"insurance_company", "Acme Mutual",
		"claimant_phone", "650-253-0000",
	)

	out := newTestValidator().ValidateMap(claim)

	if out.IsValid {
		t.Error("Expected is_valid to stay false after an error")
	}
	if len(out.Warnings) == 0 || len(out.Corrections) == 0 {
		t.Errorf("Expected later stages to still run, got warnings=%v corrections=%v", out.Warnings, out.Corrections)
	}
}

func TestValidator_NegativeAmount(t *testing.T) {
	out := newTestValidator().ValidateMap(withFields(minimalClaim(), "claim_amount", -100))

	if out.IsValid {
		t.Error("Expected negative amount to invalidate the claim")
	}
	if !out.HasError(model.FieldClaimAmount) {
		t.Errorf("Expected claim_amount error, got %v", out.Errors)
	}
}

func TestValidator_VINWithLetterO(t *testing.T) {
	out := newTestValidator().ValidateMap(withFields(minimalClaim(), "vehicle_vin", "1HGBH41JXMN10987O"))

	if !out.HasError(model.FieldVehicleVIN) {
		t.Errorf("Expected vehicle_vin error, got %v", out.Errors)
	}
	if out.IsValid {
		t.Error("Expected claim to be invalid")
	}
}

func TestValidator_RoundNumber(t *testing.T) {
	round := newTestValidator().ValidateMap(withFields(minimalClaim(), "claim_amount", 10000))
	if !round.HasIndicator(IndicatorRoundNumber) {
		t.Errorf("Expected round_number indicator for 10000, got %v", round.FraudIndicators)
	}

	notRound := newTestValidator().ValidateMap(withFields(minimalClaim(), "claim_amount", 10500))
	if notRound.HasIndicator(IndicatorRoundNumber) {
		t.Errorf("Expected no round_number indicator for 10500, got %v", notRound.FraudIndicators)
	}
}

func TestValidator_EmailCorrectionVersusError(t *testing.T) {
	out := newTestValidator().ValidateMap(withFields(minimalClaim(), "claimant_email", "John@Example.com"))

	if out.HasError(model.FieldClaimantEmail) {
		t.Errorf("Expected no email error, got %v", out.Errors)
	}
	c, ok := out.Corrections[model.FieldClaimantEmail]
	if !ok {
		t.Fatal("Expected email correction")
	}
	if c.Original != "John@Example.com" || c.Corrected != "John@example.com" {
		t.Errorf("Unexpected correction %+v", c)
	}

	bad := newTestValidator().ValidateMap(withFields(minimalClaim(), "claimant_email", "not-an-email"))
	if !bad.HasError(model.FieldClaimantEmail) {
		t.Errorf("Expected email error, got %v", bad.Errors)
	}
	if bad.IsValid {
		t.Error("Expected invalid email to invalidate the claim")
	}
}

func TestValidator_RiskIsClamped(t *testing.T) {
	claim := withFields(minimalClaim(),
		"claim_amount", 60000,
		"policy_holder_name", "Jane Roe",
		"incident_description", "A car came out of nowhere and hit me",
		"incident_date", "2024-01-13",
		"vehicle_year", 2024,
	)

	out := newTestValidator().ValidateMap(claim)

	if out.RiskScore != 1.0 {
		t.Errorf("Expected risk score clamped to 1.0, got %v", out.RiskScore)
	}
	if out.RiskAssessment.RecommendedAction != model.ActionReject {
		t.Errorf("Expected reject action, got %q", out.RiskAssessment.RecommendedAction)
	}
	if out.RiskAssessment.OverallRisk != model.RiskHigh {
		t.Errorf("Expected high overall risk, got %s", out.RiskAssessment.OverallRisk)
	}
	for _, ind := range []string{IndicatorHighValueClaim, IndicatorNameMismatch, IndicatorVagueDescription, IndicatorRoundNumber, IndicatorMissingInformation} {
		if !out.HasIndicator(ind) {
			t.Errorf("Expected indicator %s", ind)
		}
	}
}

func TestValidator_StageFailureIsRecorded(t *testing.T) {
	claim := withFields(minimalClaim(), "claimant_name", map[string]any{"first": "John"})

	out := newTestValidator().ValidateMap(claim)

	if out.IsValid {
		t.Error("Expected process failure to invalidate the claim")
	}
	if !out.HasError(FieldValidationProcess) {
		t.Fatalf("Expected validation_process error, got %v", out.Errors)
	}
	for _, e := range out.Errors {
		if e.Field == FieldValidationProcess && !strings.HasPrefix(e.Message, "Validation failed: ") {
			t.Errorf("Unexpected message %q", e.Message)
		}
	}
	if out.RiskAssessment != nil {
		t.Error("Expected stages after the failure not to run")
	}
}

func TestValidator_StagePanicIsRecovered(t *testing.T) {
	v := newTestValidator()
	boom := stage{name: "boom", fn: func(*Validator, run, model.ValidationOutcome) (model.ValidationOutcome, error) {
		panic("unexpected")
	}}

	prior := model.NewOutcome(fixedNow).WithWarning("x", "kept")
	next, err := v.runStage(boom, run{}, prior)

	if err == nil || !strings.Contains(err.Error(), "boom: unexpected") {
		t.Errorf("Expected recovered panic error, got %v", err)
	}
	if !next.HasWarning("x") {
		t.Error("Expected partial outcome to be preserved")
	}
}

func TestValidator_OutcomeIsDeterministic(t *testing.T) {
	v := newTestValidator()
	claim := model.FromMap(withFields(minimalClaim(), "claimant_phone", "650-253-0000", "vehicle_vin", "1HGCM82633A004352"))

	a, _ := json.Marshal(v.Validate(claim))
	b, _ := json.Marshal(v.Validate(claim))

	if !bytes.Equal(a, b) {
		t.Errorf("Expected identical serializations:\n%s\n%s", a, b)
	}
}

func TestValidator_ConcurrentUse(t *testing.T) {
	v := newTestValidator()
	claim := model.FromMap(withFields(minimalClaim(), "claim_amount", 10000))

	var wg sync.WaitGroup
	results := make([]model.ValidationOutcome, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = v.Validate(claim)
		}(i)
	}
	wg.Wait()

	for i, out := range results {
		if out.RiskScore != results[0].RiskScore || len(out.FraudIndicators) != len(results[0].FraudIndicators) {
			t.Errorf("Result %d differs from result 0", i)
		}
	}
}

func TestNewFromConfig_UnknownVINMode(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Validation.VINChecksum = "bogus"

	if _, err := NewFromConfig(cfg, nil); err == nil {
		t.Error("Expected error for unknown VIN checksum mode")
	}
}
