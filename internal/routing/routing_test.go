package routing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimguard/internal/model"
)

var testThresholds = model.Thresholds{
	MaxClaimAmount:        100000,
	AutoApproveThreshold:  1000,
	ManualReviewThreshold: 50000,
}

func outcome(valid bool, risk float64) model.ValidationOutcome {
	out := model.NewOutcome(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if !valid {
		out = out.WithError("claim_amount", "Claim amount cannot be negative")
	}
	out.RiskScore = risk
	return out
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		out    model.ValidationOutcome
		amount float64
		want   model.Route
		payNow bool
		reason string
	}{
		{"invalid", outcome(false, 0.1), 500, model.RouteReject, false, "validation failed with 1 error(s)"},
		{"very risky", outcome(true, 0.85), 500, model.RouteReject, false, "risk score 0.85 above 0.80"},
		{"risky", outcome(true, 0.5), 500, model.RouteManualReview, false, "risk score 0.50 above 0.30"},
		{"large", outcome(true, 0.1), 60000, model.RouteManualReview, false, "amount $60,000.00 above manual review threshold $50,000.00"},
		{"small", outcome(true, 0.3), 1000, model.RouteAutoApprove, true, "within auto-approve threshold $1,000.00"},
		{"zero amount", outcome(true, 0.1), 0, model.RouteAutoApprove, false, "within auto-approve"},
		{"medium", outcome(true, 0.2), 5000, model.RouteApprove, false, "$5,000.00 requires payment authorization"},
		{"exactly manual", outcome(true, 0.2), 50000, model.RouteApprove, false, "requires payment authorization"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.out, tt.amount, testThresholds)
			if d.Route != tt.want {
				t.Errorf("Expected route %s, got %s", tt.want, d.Route)
			}
			if d.PayNow != tt.payNow {
				t.Errorf("Expected pay_now %v, got %v", tt.payNow, d.PayNow)
			}
			if !strings.Contains(strings.Join(d.Reasons, "; "), tt.reason) {
				t.Errorf("Expected reason containing %q, got %v", tt.reason, d.Reasons)
			}
			if d.Hint == "" {
				t.Error("Expected a recommended action hint")
			}
		})
	}
}

func TestDecide_HighSeverityIndicatorReason(t *testing.T) {
	out := outcome(true, 0.9).WithFraudIndicator("high_value_claim", model.SeverityHigh, "Claim amount $75,000.00 exceeds high-value threshold")
	d := Decide(out, 75000, testThresholds)
	if !strings.Contains(strings.Join(d.Reasons, ";"), "high severity fraud indicator: high_value_claim") {
		t.Errorf("Expected indicator reason, got %v", d.Reasons)
	}
}

func TestClaimAmount(t *testing.T) {
	tests := []struct {
		raw  any
		want float64
	}{
		{1500.5, 1500.5},
		{"2500", 2500},
		{"abc", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		f := model.FromMap(map[string]any{model.FieldClaimAmount: tt.raw})
		if got := ClaimAmount(f); got != tt.want {
			t.Errorf("ClaimAmount(%v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestFeeSchedule_Calculate(t *testing.T) {
	fees := FeeSchedule{Percent: 2.9, Fixed: 0.30}.Calculate(1000)

	if fees.PercentageFee != 29 {
		t.Errorf("Expected percentage fee 29, got %v", fees.PercentageFee)
	}
	if fees.TotalFee != 29.30 {
		t.Errorf("Expected total fee 29.30, got %v", fees.TotalFee)
	}
	if fees.NetAmount != 970.70 {
		t.Errorf("Expected net 970.70, got %v", fees.NetAmount)
	}
	if fees.FeePercentage != 2.93 {
		t.Errorf("Expected fee percentage 2.93, got %v", fees.FeePercentage)
	}

	if zero := (FeeSchedule{Percent: 2.9, Fixed: 0.30}).Calculate(0); zero.FeePercentage != 0 {
		t.Errorf("Expected zero fee percentage for zero amount, got %v", zero.FeePercentage)
	}
}

func TestDryRunPayer(t *testing.T) {
	payer := NewDryRunPayer(FeeSchedule{Percent: 2.9, Fixed: 0.30}, nil)

	res, err := payer.Pay(context.Background(), PaymentRequest{ClaimID: "c1", Amount: 500, Currency: "usd"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Status != model.PaymentDryRun {
		t.Errorf("Expected dry_run status, got %s", res.Status)
	}
	if !strings.HasPrefix(res.Reference, "dryrun_") {
		t.Errorf("Expected dryrun reference, got %s", res.Reference)
	}
	if res.Fees.TotalFee != 14.80 {
		t.Errorf("Expected total fee 14.80, got %v", res.Fees.TotalFee)
	}

	if _, err := payer.Pay(context.Background(), PaymentRequest{ClaimID: "c1", Amount: -5}); !errors.Is(err, ErrPaymentDeclined) {
		t.Errorf("Expected ErrPaymentDeclined, got %v", err)
	}
	if _, err := payer.Pay(context.Background(), PaymentRequest{Amount: 5}); !errors.Is(err, ErrPaymentDeclined) {
		t.Errorf("Expected ErrPaymentDeclined without claim id, got %v", err)
	}
}

type failingPayer struct{}

func (failingPayer) Pay(context.Context, PaymentRequest) (*model.PaymentResult, error) {
	return nil, ErrPaymentDeclined
}

func TestSettle(t *testing.T) {
	auto := model.RoutingDecision{Route: model.RouteAutoApprove, PayNow: true, Amount: 200}
	review := model.RoutingDecision{Route: model.RouteManualReview, Amount: 200}

	if res := Settle(context.Background(), NewDryRunPayer(FeeSchedule{}, nil), "c1", review, "usd"); res != nil {
		t.Errorf("Expected no payment for manual review, got %+v", res)
	}
	if res := Settle(context.Background(), nil, "c1", auto, "usd"); res != nil {
		t.Error("Expected no payment without payer")
	}

	res := Settle(context.Background(), NewDryRunPayer(FeeSchedule{}, nil), "c1", auto, "usd")
	if res == nil || res.Status != model.PaymentDryRun || res.Amount != 200 {
		t.Errorf("Expected dry run payment, got %+v", res)
	}

	failed := Settle(context.Background(), failingPayer{}, "c1", auto, "usd")
	if failed == nil || failed.Status != model.PaymentFailed || failed.Error != "payment declined" {
		t.Errorf("Expected failed payment, got %+v", failed)
	}
}
