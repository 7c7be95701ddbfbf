// Package webhook receives payment platform events and reconciles local
// invoice state with them.
package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/evanperkins/frontdesk/internal/billing"
	"github.com/evanperkins/frontdesk/internal/domain"
	"github.com/evanperkins/frontdesk/internal/repository"
	"github.com/evanperkins/frontdesk/internal/telemetry"
)

// StripeHandler handles Stripe webhook events
type StripeHandler struct {
	provider billing.Provider
	repo     repository.Querier
	// webhookSecret is the signing secret from the Stripe dashboard.
	webhookSecret string
	logger        *slog.Logger
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(provider billing.Provider, repo repository.Querier, webhookSecret string, logger *slog.Logger) *StripeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeHandler{
		provider:      provider,
		repo:          repo,
		webhookSecret: webhookSecret,
		logger:        logger.With("handler", "stripe_webhook"),
	}
}

// HandleWebhook processes incoming Stripe webhook events.
//
// The signature is verified against the raw body before anything is parsed;
// a missing or invalid signature gets a plain-text 400 and no local write.
// Unknown event types and unknown invoice ids are acknowledged with 200 so
// the platform does not retry them forever.
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		h.logger.Warn("webhook missing signature header")
		h.signatureFailed()
		http.Error(w, "Missing signature", http.StatusBadRequest)
		return
	}

	if err := h.provider.VerifyWebhookSignature(payload, signature, h.webhookSecret); err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		h.signatureFailed()
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("failed to parse webhook event", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	eventType := string(event.Type)
	h.logger.Info("webhook event received", "type", eventType, "event_id", event.ID)

	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(eventType).Inc()
		defer func() {
			telemetry.Business.WebhookLatency.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
		}()
	}

	var procErr error
	switch event.Type {
	case "invoice.paid":
		procErr = h.reconcileStatus(r, event, domain.InvoiceStatusPaid)

	case "invoice.sent":
		// The platform can deliver an invoice outside our send endpoint.
		procErr = h.reconcileStatus(r, event, domain.InvoiceStatusSent)

	case "invoice.voided":
		procErr = h.reconcileStatus(r, event, domain.InvoiceStatusVoid)

	case "invoice.marked_uncollectible":
		procErr = h.reconcileStatus(r, event, domain.InvoiceStatusUncollectible)

	case "invoice.payment_failed":
		procErr = h.handlePaymentFailed(event)

	default:
		h.logger.Debug("ignoring webhook event", "type", eventType)
	}

	// A failed local write must not be acknowledged; a non-2xx makes the
	// platform redeliver the event.
	if procErr != nil {
		http.Error(w, "Error processing webhook", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received":true}`))
}

// reconcileStatus applies the status implied by the event to the local
// record. Statuses arrive in platform order, not invoice lifecycle order, so
// they are applied as-is without a transition check. An unknown invoice id is
// a no-op; a failed write is returned so the event is not acknowledged.
func (h *StripeHandler) reconcileStatus(r *http.Request, event stripe.Event, status string) error {
	eventType := string(event.Type)

	stripeInvoice, err := parseEventInvoice(event)
	if err != nil {
		h.logger.Error("failed to parse invoice from event", "type", eventType, "error", err)
		h.processingFailed(eventType, "parse_failed")
		return err
	}

	now := time.Now()
	params := repository.UpdateInvoiceStatusParams{
		StripeInvoiceID: stripeInvoice.ID,
		Status:          status,
	}
	switch status {
	case domain.InvoiceStatusPaid:
		params.PaidAt = &now
	case domain.InvoiceStatusSent:
		params.SentAt = &now
	}
	if pdf := stripeInvoice.InvoicePDF; pdf != "" {
		params.InvoicePDF = &pdf
	}

	inv, err := h.repo.UpdateInvoiceStatus(r.Context(), params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.logger.Info("webhook for unknown invoice, ignoring",
				"type", eventType,
				"stripe_invoice_id", stripeInvoice.ID,
			)
			return nil
		}
		h.logger.Error("failed to update invoice status",
			"type", eventType,
			"stripe_invoice_id", stripeInvoice.ID,
			"error", err,
		)
		h.processingFailed(eventType, "update_failed")
		telemetry.CaptureError(err, map[string]interface{}{
			"event_type":        eventType,
			"stripe_invoice_id": stripeInvoice.ID,
		})
		return err
	}

	h.logger.Info("invoice status reconciled",
		"invoice_id", inv.ID,
		"stripe_invoice_id", inv.StripeInvoiceID,
		"status", inv.Status,
	)
	if telemetry.Business != nil {
		telemetry.Business.WebhookProcessed.WithLabelValues(eventType).Inc()
		if status == domain.InvoiceStatusPaid {
			telemetry.Business.InvoicesPaid.Inc()
		}
	}
	return nil
}

// handlePaymentFailed records the failure for visibility. The invoice stays
// in its current status; the customer can retry payment from the hosted page.
func (h *StripeHandler) handlePaymentFailed(event stripe.Event) error {
	stripeInvoice, err := parseEventInvoice(event)
	if err != nil {
		h.logger.Error("failed to parse invoice from event", "type", string(event.Type), "error", err)
		h.processingFailed(string(event.Type), "parse_failed")
		return err
	}

	h.logger.Warn("invoice payment failed",
		"stripe_invoice_id", stripeInvoice.ID,
		"attempt_count", stripeInvoice.AttemptCount,
	)
	if telemetry.Business != nil {
		telemetry.Business.PaymentFailed.WithLabelValues("invoice_payment_failed").Inc()
		telemetry.Business.WebhookProcessed.WithLabelValues(string(event.Type)).Inc()
	}
	return nil
}

func parseEventInvoice(event stripe.Event) (*stripe.Invoice, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (h *StripeHandler) signatureFailed() {
	if telemetry.Business != nil {
		telemetry.Business.WebhookSignatureFailed.Inc()
	}
}

func (h *StripeHandler) processingFailed(eventType, reason string) {
	if telemetry.Business != nil {
		telemetry.Business.WebhookFailed.WithLabelValues(eventType, reason).Inc()
	}
}
