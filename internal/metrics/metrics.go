package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookRequestsTotal counts billing webhook requests by event type and HTTP status.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livewall",
		Subsystem: "billing",
		Name:      "webhook_requests_total",
		Help:      "Total billing webhook requests by event type and HTTP status.",
	}, []string{"event_type", "status"})

	// WebhookDuration tracks billing webhook processing latency.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "livewall",
		Subsystem: "billing",
		Name:      "webhook_duration_seconds",
		Help:      "Billing webhook processing duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	// ReconciliationOutcomes counts what the reconciler did with each verified event.
	ReconciliationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livewall",
		Subsystem: "billing",
		Name:      "reconciliation_outcomes_total",
		Help:      "Billing events by reconciliation outcome (applied, unknown_customer, no_customer, ignored).",
	}, []string{"outcome"})

	// AIGenerationsTotal counts completed AI generations by pricing decision.
	AIGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livewall",
		Subsystem: "ai",
		Name:      "generations_total",
		Help:      "Completed AI wallpaper generations by pricing (premium/free).",
	}, []string{"pricing"})

	// AIGenerationFailures counts failed generation attempts by stage.
	AIGenerationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livewall",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Failed AI generation attempts by stage.",
	}, []string{"stage"})

	// SessionFallbacks counts sessions materialized with default entitlements after a store error.
	SessionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "livewall",
		Subsystem: "identity",
		Name:      "session_fallbacks_total",
		Help:      "Sessions served with default entitlements because the user store failed.",
	})

	// CheckoutOutcomes counts hosted checkout outcomes observed by the orchestrator.
	CheckoutOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livewall",
		Subsystem: "checkout",
		Name:      "outcomes_total",
		Help:      "Hosted checkout outcomes (completed, closed, failed).",
	}, []string{"outcome"})
)

// Pricing label values.
const (
	PricingPremium = "premium"
	PricingFree    = "free"
)
