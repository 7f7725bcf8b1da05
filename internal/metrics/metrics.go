package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/claimguard/internal/model"
)

const namespace = "claimguard"

// Collector records claim processing metrics on its own registry. A nil
// *Collector is valid and records nothing.
//
// Metrics:
//   - claimguard_claims_processed_total{route}
//   - claimguard_claims_failed_total
//   - claimguard_validation_errors_total{field}
//   - claimguard_fraud_indicators_total{indicator,severity}
//   - claimguard_risk_score
//   - claimguard_extractions_total{method,provider}
//   - claimguard_payments_total{status}
//   - claimguard_processing_duration_seconds
type Collector struct {
	registry *prometheus.Registry

	claimsProcessed  *prometheus.CounterVec
	claimsFailed     prometheus.Counter
	validationErrors *prometheus.CounterVec
	fraudIndicators  *prometheus.CounterVec
	riskScore        prometheus.Histogram
	extractions      *prometheus.CounterVec
	payments         *prometheus.CounterVec
	duration         prometheus.Histogram
}

// NewCollector creates and registers the claim metrics. A nil registry gets a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		claimsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_processed_total",
			Help:      "Claims processed, by routing decision",
		}, []string{"route"}),
		claimsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_failed_total",
			Help:      "Claim documents that could not be processed",
		}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Validation errors, by field",
		}, []string{"field"}),
		fraudIndicators: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fraud_indicators_total",
			Help:      "Fraud indicators raised, by indicator and severity",
		}, []string{"indicator", "severity"}),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Distribution of clamped risk scores",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Field extractions, by method and provider",
		}, []string{"method", "provider"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payout handoffs, by status",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "End-to-end processing time per claim document",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
	}

	registry.MustRegister(
		c.claimsProcessed,
		c.claimsFailed,
		c.validationErrors,
		c.fraudIndicators,
		c.riskScore,
		c.extractions,
		c.payments,
		c.duration,
	)
	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordReport records everything a finished claim report carries
func (c *Collector) RecordReport(r *model.ClaimReport, elapsed time.Duration) {
	if c == nil || r == nil {
		return
	}

	c.claimsProcessed.WithLabelValues(string(r.Routing.Route)).Inc()
	for _, e := range r.Outcome.Errors {
		c.validationErrors.WithLabelValues(e.Field).Inc()
	}
	for _, fi := range r.Outcome.FraudIndicators {
		c.fraudIndicators.WithLabelValues(fi.Indicator, string(fi.Severity)).Inc()
	}
	c.riskScore.Observe(r.Outcome.RiskScore)

	provider := r.Extraction.Provider
	if provider == "" {
		provider = "none"
	}
	c.extractions.WithLabelValues(string(r.Extraction.Method), provider).Inc()

	if r.Payment != nil {
		c.payments.WithLabelValues(string(r.Payment.Status)).Inc()
	}
	c.duration.Observe(elapsed.Seconds())
}

// RecordFailure counts a document that produced no report
func (c *Collector) RecordFailure() {
	if c == nil {
		return
	}
	c.claimsFailed.Inc()
}

// WriteTextfile writes the registry in the node_exporter textfile format
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
