package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Invoice lifecycle
	InvoicesCreated *prometheus.CounterVec
	InvoicesSent    *prometheus.CounterVec
	InvoicesPaid    prometheus.Counter
	InvoiceTotal    *prometheus.HistogramVec
	InvoiceItems    prometheus.Histogram

	// Payment platform
	PaymentFailed    *prometheus.CounterVec
	StripeAPILatency *prometheus.HistogramVec

	// Webhooks
	WebhookReceived        *prometheus.CounterVec
	WebhookProcessed       *prometheus.CounterVec
	WebhookFailed          *prometheus.CounterVec
	WebhookSignatureFailed prometheus.Counter
	WebhookLatency         *prometheus.HistogramVec

	// Connect onboarding
	ConnectOAuthStarted   prometheus.Counter
	ConnectOAuthCompleted prometheus.Counter
	ConnectOAuthFailed    *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "frontdesk"
	}

	subsystem := "business"

	m := &BusinessMetrics{
		// =======================================================================
		// Invoice Lifecycle
		// =======================================================================
		InvoicesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_created_total",
				Help:      "Total invoices drafted",
			},
			[]string{"source"}, // source: inquiry, appointment, manual
		),
		InvoicesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_sent_total",
				Help:      "Total invoices emailed to customers",
			},
			[]string{"source"},
		),
		InvoicesPaid: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_paid_total",
				Help:      "Total invoices marked paid via webhook",
			},
		),
		InvoiceTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_total_cents",
				Help:      "Invoice total distribution in cents",
				Buckets:   []float64{1000, 2500, 5000, 10000, 25000, 50000, 100000, 250000},
			},
			[]string{"source"},
		),
		InvoiceItems: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_item_count",
				Help:      "Number of line items per invoice",
				Buckets:   []float64{1, 2, 3, 5, 10, 15, 20},
			},
		),

		// =======================================================================
		// Payment Platform
		// =======================================================================
		PaymentFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_failed_total",
				Help:      "Total invoice payment failures reported by webhook",
			},
			[]string{"failure_reason"},
		),
		StripeAPILatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stripe_api_duration_seconds",
				Help:      "Stripe API call duration (helps differentiate app slowness from Stripe issues)",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"}, // operation: create_invoice, finalize_invoice, send_invoice, etc.
		),

		// =======================================================================
		// Webhooks (Stripe)
		// =======================================================================
		WebhookReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total webhooks received",
			},
			[]string{"event_type"},
		),
		WebhookProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processed_total",
				Help:      "Total webhooks successfully processed",
			},
			[]string{"event_type"},
		),
		WebhookFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Total webhook processing failures",
			},
			[]string{"event_type", "error_type"},
		),
		WebhookSignatureFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_signature_failed_total",
				Help:      "Total webhooks rejected for a missing or invalid signature",
			},
		),
		WebhookLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processing_seconds",
				Help:      "Webhook processing duration",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"event_type"},
		),

		// =======================================================================
		// Connect Onboarding
		// =======================================================================
		ConnectOAuthStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "connect_oauth_started_total",
				Help:      "Total Connect OAuth flows started",
			},
		),
		ConnectOAuthCompleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "connect_oauth_completed_total",
				Help:      "Total Connect OAuth flows completed with a linked account",
			},
		),
		ConnectOAuthFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "connect_oauth_failed_total",
				Help:      "Total Connect OAuth flows that failed",
			},
			[]string{"reason"}, // reason: invalid_state, missing_code, exchange_failed
		),
	}

	return m
}

// Global instance for easy access from handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
