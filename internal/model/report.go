package model

import "time"

// ClaimReport is the complete processing record for one claim document
type ClaimReport struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	ProcessedAt time.Time `json:"processed_at"`

	Document       *Document       `json:"document,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	Extraction     Extraction      `json:"extraction"`

	Outcome ValidationOutcome `json:"validation"`
	Routing RoutingDecision   `json:"routing"`
	Payment *PaymentResult    `json:"payment,omitempty"`
}

// Route is the downstream handling selected for a claim
type Route string

const (
	RouteAutoApprove  Route = "auto_approve"  // Approved and paid without review
	RouteApprove      Route = "approve"       // Approved, payment needs manual authorization
	RouteManualReview Route = "manual_review" // Needs an adjuster
	RouteReject       Route = "reject"        // Blocked by validation or risk
)

// RoutingDecision explains which route was chosen and why
type RoutingDecision struct {
	Route     Route    `json:"route"`
	Amount    float64  `json:"amount"`
	PayNow    bool     `json:"pay_now"`
	Reasons   []string `json:"reasons"`
	Hint      string   `json:"recommended_action,omitempty"`
	RiskScore float64  `json:"risk_score"`
	IsValid   bool     `json:"is_valid"`
}

// PaymentStatus is the state reported by the payment collaborator
type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentDryRun    PaymentStatus = "dry_run"
	PaymentFailed    PaymentStatus = "failed"
)

// FeeBreakdown itemizes processing fees on a payout
type FeeBreakdown struct {
	GrossAmount   float64 `json:"gross_amount"`
	PercentageFee float64 `json:"percentage_fee"`
	FixedFee      float64 `json:"fixed_fee"`
	TotalFee      float64 `json:"total_fee"`
	NetAmount     float64 `json:"net_amount"`
	FeePercentage float64 `json:"fee_percentage"`
}

// PaymentResult is the handoff record returned by the payment collaborator
type PaymentResult struct {
	Status    PaymentStatus `json:"status"`
	Reference string        `json:"reference,omitempty"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	Fees      FeeBreakdown  `json:"fees"`
	Error     string        `json:"error,omitempty"`
}
