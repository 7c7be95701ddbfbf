package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanperkins/frontdesk/internal/billing"
	"github.com/evanperkins/frontdesk/internal/domain"
	"github.com/evanperkins/frontdesk/internal/repository"
)

// mockQuerier implements repository.Querier with an in-memory invoice map
// keyed by the external invoice id.
type mockQuerier struct {
	invoices  map[string]*domain.Invoice
	updateErr error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{invoices: make(map[string]*domain.Invoice)}
}

func (m *mockQuerier) UpdateInvoiceStatus(ctx context.Context, params repository.UpdateInvoiceStatusParams) (*domain.Invoice, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	inv, ok := m.invoices[params.StripeInvoiceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	inv.Status = params.Status
	if params.SentAt != nil {
		inv.SentAt = params.SentAt
	}
	if params.PaidAt != nil {
		inv.PaidAt = params.PaidAt
	}
	if params.InvoicePDF != nil {
		inv.InvoicePDF = *params.InvoicePDF
	}
	return inv, nil
}

func (m *mockQuerier) CreateInvoice(ctx context.Context, params repository.CreateInvoiceParams) (*domain.Invoice, error) {
	return nil, errors.New("not implemented")
}

func (m *mockQuerier) GetInvoiceForUser(ctx context.Context, params repository.GetInvoiceForUserParams) (*domain.Invoice, error) {
	return nil, errors.New("not implemented")
}

func (m *mockQuerier) GetInvoiceByStripeID(ctx context.Context, stripeInvoiceID string) (*domain.Invoice, error) {
	inv, ok := m.invoices[stripeInvoiceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return inv, nil
}

func (m *mockQuerier) ListInvoicesForUser(ctx context.Context, params repository.ListInvoicesForUserParams) ([]domain.Invoice, error) {
	return nil, errors.New("not implemented")
}

func (m *mockQuerier) UpsertConnectedAccount(ctx context.Context, params repository.UpsertConnectedAccountParams) (*domain.ConnectedAccount, error) {
	return nil, errors.New("not implemented")
}

func (m *mockQuerier) GetConnectedAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.ConnectedAccount, error) {
	return nil, errors.New("not implemented")
}

func (m *mockQuerier) GetInquiryForUser(ctx context.Context, params repository.GetInquiryForUserParams) (*domain.Inquiry, error) {
	return nil, errors.New("not implemented")
}

func (m *mockQuerier) ListInquiriesForUser(ctx context.Context, params repository.ListInquiriesForUserParams) ([]domain.Inquiry, error) {
	return nil, errors.New("not implemented")
}

func (m *mockQuerier) GetAppointmentForUser(ctx context.Context, params repository.GetAppointmentForUserParams) (*domain.Appointment, error) {
	return nil, errors.New("not implemented")
}

func (m *mockQuerier) ListAppointmentsForUser(ctx context.Context, params repository.ListAppointmentsForUserParams) ([]domain.Appointment, error) {
	return nil, errors.New("not implemented")
}

func newTestHandler() (*StripeHandler, *billing.MockProvider, *mockQuerier) {
	provider := billing.NewMockProvider()
	repo := newMockQuerier()
	logger := slog.New(slog.DiscardHandler)
	return NewStripeHandler(provider, repo, "whsec_test", logger), provider, repo
}

func seedInvoice(repo *mockQuerier, stripeInvoiceID, status string) *domain.Invoice {
	inv := &domain.Invoice{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		StripeInvoiceID: stripeInvoiceID,
		Status:          status,
	}
	repo.invoices[stripeInvoiceID] = inv
	return inv
}

func eventPayload(t *testing.T, eventType, stripeInvoiceID string) []byte {
	t.Helper()
	object := map[string]any{
		"id":          stripeInvoiceID,
		"object":      "invoice",
		"invoice_pdf": fmt.Sprintf("https://pay.stripe.com/invoice/%s/pdf", stripeInvoiceID),
	}
	raw, err := json.Marshal(object)
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]any{
		"id":   "evt_" + uuid.NewString()[:8],
		"type": eventType,
		"data": map[string]any{"object": json.RawMessage(raw)},
	})
	require.NoError(t, err)
	return payload
}

func postWebhook(h *StripeHandler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)
	return rec
}

func TestHandleWebhook_SignatureRequired(t *testing.T) {
	t.Run("missing signature header", func(t *testing.T) {
		h, _, repo := newTestHandler()
		seedInvoice(repo, "in_100", domain.InvoiceStatusSent)

		rec := postWebhook(h, eventPayload(t, "invoice.paid", "in_100"), "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.InvoiceStatusSent, repo.invoices["in_100"].Status)
		assert.Nil(t, repo.invoices["in_100"].PaidAt)
	})

	t.Run("invalid signature", func(t *testing.T) {
		h, provider, repo := newTestHandler()
		seedInvoice(repo, "in_100", domain.InvoiceStatusSent)
		provider.VerifyWebhookSignatureFunc = func(payload []byte, signature, secret string) error {
			return billing.ErrInvalidWebhookSignature
		}

		rec := postWebhook(h, eventPayload(t, "invoice.paid", "in_100"), "t=1,v1=bad")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.InvoiceStatusSent, repo.invoices["in_100"].Status)
	})

	t.Run("malformed body after valid signature", func(t *testing.T) {
		h, _, _ := newTestHandler()

		rec := postWebhook(h, []byte("{not json"), "t=1,v1=ok")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleWebhook_InvoicePaid(t *testing.T) {
	h, _, repo := newTestHandler()
	seedInvoice(repo, "in_200", domain.InvoiceStatusSent)

	rec := postWebhook(h, eventPayload(t, "invoice.paid", "in_200"), "t=1,v1=ok")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	inv := repo.invoices["in_200"]
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.WithinDuration(t, time.Now(), *inv.PaidAt, 5*time.Second)
}

func TestHandleWebhook_UnknownInvoice(t *testing.T) {
	h, _, repo := newTestHandler()
	seedInvoice(repo, "in_300", domain.InvoiceStatusSent)

	rec := postWebhook(h, eventPayload(t, "invoice.paid", "in_other"), "t=1,v1=ok")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	assert.Equal(t, domain.InvoiceStatusSent, repo.invoices["in_300"].Status)
}

func TestHandleWebhook_StatusEvents(t *testing.T) {
	tests := []struct {
		name       string
		eventType  string
		wantStatus string
	}{
		{"voided", "invoice.voided", domain.InvoiceStatusVoid},
		{"marked uncollectible", "invoice.marked_uncollectible", domain.InvoiceStatusUncollectible},
		{"sent outside our endpoint", "invoice.sent", domain.InvoiceStatusSent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, repo := newTestHandler()
			seedInvoice(repo, "in_400", domain.InvoiceStatusDraft)

			rec := postWebhook(h, eventPayload(t, tt.eventType, "in_400"), "t=1,v1=ok")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantStatus, repo.invoices["in_400"].Status)
		})
	}
}

func TestHandleWebhook_WriteFailureNotAcknowledged(t *testing.T) {
	// A transient write failure must produce a non-2xx so the platform
	// redelivers the event instead of dropping it.
	h, _, repo := newTestHandler()
	seedInvoice(repo, "in_450", domain.InvoiceStatusSent)
	repo.updateErr = errors.New("connection refused")

	rec := postWebhook(h, eventPayload(t, "invoice.paid", "in_450"), "t=1,v1=ok")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.InvoiceStatusSent, repo.invoices["in_450"].Status)
	assert.Nil(t, repo.invoices["in_450"].PaidAt)

	// Once the store recovers the redelivered event lands.
	repo.updateErr = nil
	rec = postWebhook(h, eventPayload(t, "invoice.paid", "in_450"), "t=1,v1=ok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.InvoiceStatusPaid, repo.invoices["in_450"].Status)
}

func TestHandleWebhook_PaidAfterUncollectible(t *testing.T) {
	// Events arrive in platform order, not lifecycle order. A late payment on
	// an uncollectible invoice still lands.
	h, _, repo := newTestHandler()
	seedInvoice(repo, "in_500", domain.InvoiceStatusSent)

	rec := postWebhook(h, eventPayload(t, "invoice.marked_uncollectible", "in_500"), "t=1,v1=ok")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, domain.InvoiceStatusUncollectible, repo.invoices["in_500"].Status)

	rec = postWebhook(h, eventPayload(t, "invoice.paid", "in_500"), "t=1,v1=ok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.InvoiceStatusPaid, repo.invoices["in_500"].Status)
	assert.NotNil(t, repo.invoices["in_500"].PaidAt)
}

func TestHandleWebhook_PaymentFailedLeavesStatus(t *testing.T) {
	h, _, repo := newTestHandler()
	seedInvoice(repo, "in_600", domain.InvoiceStatusSent)

	rec := postWebhook(h, eventPayload(t, "invoice.payment_failed", "in_600"), "t=1,v1=ok")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.InvoiceStatusSent, repo.invoices["in_600"].Status)
}

func TestHandleWebhook_UnknownEventType(t *testing.T) {
	h, _, repo := newTestHandler()
	seedInvoice(repo, "in_700", domain.InvoiceStatusSent)

	rec := postWebhook(h, eventPayload(t, "customer.subscription.deleted", "in_700"), "t=1,v1=ok")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	assert.Equal(t, domain.InvoiceStatusSent, repo.invoices["in_700"].Status)
}
