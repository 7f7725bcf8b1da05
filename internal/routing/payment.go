package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/claimguard/internal/model"
)

// ErrPaymentDeclined is returned when a payout request is refused
var ErrPaymentDeclined = errors.New("payment declined")

// PaymentRequest is a payout for an auto-approved claim
type PaymentRequest struct {
	ClaimID  string
	Amount   float64
	Currency string
	Metadata map[string]string
}

// Payer hands a payout to a payment processor
type Payer interface {
	Pay(ctx context.Context, req PaymentRequest) (*model.PaymentResult, error)
}

// FeeSchedule is a percentage plus fixed per-transaction fee
type FeeSchedule struct {
	Percent float64 // e.g. 2.9 for 2.9%
	Fixed   float64
}

// Calculate itemizes fees for amount, rounded to cents
func (f FeeSchedule) Calculate(amount float64) model.FeeBreakdown {
	pct := amount * f.Percent / 100
	total := pct + f.Fixed
	b := model.FeeBreakdown{
		GrossAmount:   cents(amount),
		PercentageFee: cents(pct),
		FixedFee:      cents(f.Fixed),
		TotalFee:      cents(total),
		NetAmount:     cents(amount - total),
	}
	if amount > 0 {
		b.FeePercentage = math.Round(total/amount*100*100) / 100
	}
	return b
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}

// DryRunPayer records intended payouts without moving money
type DryRunPayer struct {
	fees   FeeSchedule
	logger *slog.Logger
}

// NewDryRunPayer creates a payer that only logs
func NewDryRunPayer(fees FeeSchedule, logger *slog.Logger) *DryRunPayer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DryRunPayer{fees: fees, logger: logger}
}

// Pay validates the request and returns a dry_run result
func (p *DryRunPayer) Pay(ctx context.Context, req PaymentRequest) (*model.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %.2f", ErrPaymentDeclined, req.Amount)
	}
	if req.ClaimID == "" {
		return nil, fmt.Errorf("%w: claim id is required", ErrPaymentDeclined)
	}

	fees := p.fees.Calculate(req.Amount)
	ref := "dryrun_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	p.logger.Info("payment dry run",
		"claim_id", req.ClaimID,
		"reference", ref,
		"amount", req.Amount,
		"currency", req.Currency,
		"total_fee", fees.TotalFee,
	)

	return &model.PaymentResult{
		Status:    model.PaymentDryRun,
		Reference: ref,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Fees:      fees,
	}, nil
}

// Settle pays out a decision when it calls for immediate payment. It
// returns nil when no payment is due; a payer failure is reported in the
// result rather than as an error so the claim report is still produced.
func Settle(ctx context.Context, payer Payer, claimID string, d model.RoutingDecision, currency string) *model.PaymentResult {
	if payer == nil || !d.PayNow || d.Route != model.RouteAutoApprove {
		return nil
	}

	res, err := payer.Pay(ctx, PaymentRequest{
		ClaimID:  claimID,
		Amount:   d.Amount,
		Currency: currency,
		Metadata: map[string]string{
			"route":        string(d.Route),
			"payment_type": "claim_payout",
		},
	})
	if err != nil {
		return &model.PaymentResult{
			Status:   model.PaymentFailed,
			Amount:   d.Amount,
			Currency: currency,
			Error:    err.Error(),
		}
	}
	return res
}
