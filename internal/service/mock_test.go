package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/evanperkins/frontdesk/internal/domain"
	"github.com/evanperkins/frontdesk/internal/repository"
)

// mockQuerier is an in-memory repository.Querier for service tests.
type mockQuerier struct {
	accounts     map[uuid.UUID]*domain.ConnectedAccount
	invoices     map[string]*domain.Invoice
	inquiries    map[uuid.UUID]*domain.Inquiry
	appointments map[uuid.UUID]*domain.Appointment

	createInvoiceErr error
	updateStatusErr  error
}

var _ repository.Querier = (*mockQuerier)(nil)

func newMockQuerier() *mockQuerier {
	return &mockQuerier{
		accounts:     make(map[uuid.UUID]*domain.ConnectedAccount),
		invoices:     make(map[string]*domain.Invoice),
		inquiries:    make(map[uuid.UUID]*domain.Inquiry),
		appointments: make(map[uuid.UUID]*domain.Appointment),
	}
}

func (m *mockQuerier) CreateInvoice(ctx context.Context, params repository.CreateInvoiceParams) (*domain.Invoice, error) {
	if m.createInvoiceErr != nil {
		return nil, m.createInvoiceErr
	}

	now := time.Now()
	inv := &domain.Invoice{
		ID:               uuid.New(),
		UserID:           params.UserID,
		InquiryID:        params.InquiryID,
		AppointmentID:    params.AppointmentID,
		StripeInvoiceID:  params.StripeInvoiceID,
		StripeCustomerID: params.StripeCustomerID,
		CustomerName:     params.CustomerName,
		CustomerEmail:    params.CustomerEmail,
		CustomerPhone:    params.CustomerPhone,
		LineItems:        params.LineItems,
		Subtotal:         params.Subtotal,
		Tax:              params.Tax,
		Total:            params.Total,
		Status:           params.Status,
		DueDate:          params.DueDate,
		InvoiceURL:       params.InvoiceURL,
		Notes:            params.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.invoices[inv.StripeInvoiceID] = inv
	return inv, nil
}

func (m *mockQuerier) GetInvoiceForUser(ctx context.Context, params repository.GetInvoiceForUserParams) (*domain.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.ID == params.ID && inv.UserID == params.UserID {
			return inv, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockQuerier) GetInvoiceByStripeID(ctx context.Context, stripeInvoiceID string) (*domain.Invoice, error) {
	inv, exists := m.invoices[stripeInvoiceID]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return inv, nil
}

func (m *mockQuerier) ListInvoicesForUser(ctx context.Context, params repository.ListInvoicesForUserParams) ([]domain.Invoice, error) {
	var result []domain.Invoice
	for _, inv := range m.invoices {
		if inv.UserID == params.UserID {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (m *mockQuerier) UpdateInvoiceStatus(ctx context.Context, params repository.UpdateInvoiceStatusParams) (*domain.Invoice, error) {
	if m.updateStatusErr != nil {
		return nil, m.updateStatusErr
	}

	inv, exists := m.invoices[params.StripeInvoiceID]
	if !exists {
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
	inv.UpdatedAt = time.Now()
	return inv, nil
}

func (m *mockQuerier) UpsertConnectedAccount(ctx context.Context, params repository.UpsertConnectedAccountParams) (*domain.ConnectedAccount, error) {
	acct, exists := m.accounts[params.UserID]
	if !exists {
		acct = &domain.ConnectedAccount{
			ID:          uuid.New(),
			UserID:      params.UserID,
			ConnectedAt: time.Now(),
		}
		m.accounts[params.UserID] = acct
	}

	acct.StripeAccountID = params.StripeAccountID
	acct.Scope = params.Scope
	acct.AccountType = params.AccountType
	acct.BusinessName = params.BusinessName
	acct.BusinessEmail = params.BusinessEmail
	acct.ChargesEnabled = params.ChargesEnabled
	acct.PayoutsEnabled = params.PayoutsEnabled
	acct.DetailsSubmitted = params.DetailsSubmitted
	acct.UpdatedAt = time.Now()
	return acct, nil
}

func (m *mockQuerier) GetConnectedAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.ConnectedAccount, error) {
	acct, exists := m.accounts[userID]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return acct, nil
}

func (m *mockQuerier) GetInquiryForUser(ctx context.Context, params repository.GetInquiryForUserParams) (*domain.Inquiry, error) {
	inq, exists := m.inquiries[params.ID]
	if !exists || inq.UserID != params.UserID {
		return nil, repository.ErrNotFound
	}
	return inq, nil
}

func (m *mockQuerier) ListInquiriesForUser(ctx context.Context, params repository.ListInquiriesForUserParams) ([]domain.Inquiry, error) {
	var result []domain.Inquiry
	for _, inq := range m.inquiries {
		if inq.UserID == params.UserID {
			result = append(result, *inq)
		}
	}
	return result, nil
}

func (m *mockQuerier) GetAppointmentForUser(ctx context.Context, params repository.GetAppointmentForUserParams) (*domain.Appointment, error) {
	appt, exists := m.appointments[params.ID]
	if !exists || appt.UserID != params.UserID {
		return nil, repository.ErrNotFound
	}
	return appt, nil
}

func (m *mockQuerier) ListAppointmentsForUser(ctx context.Context, params repository.ListAppointmentsForUserParams) ([]domain.Appointment, error) {
	var result []domain.Appointment
	for _, appt := range m.appointments {
		if appt.UserID == params.UserID {
			result = append(result, *appt)
		}
	}
	return result, nil
}

// connectedAccountFixture seeds a ready-to-invoice account for userID.
func (m *mockQuerier) connectedAccountFixture(userID uuid.UUID) *domain.ConnectedAccount {
	acct := &domain.ConnectedAccount{
		ID:               uuid.New(),
		UserID:           userID,
		StripeAccountID:  "acct_test123",
		ChargesEnabled:   true,
		PayoutsEnabled:   true,
		DetailsSubmitted: true,
		ConnectedAt:      time.Now(),
	}
	m.accounts[userID] = acct
	return acct
}
