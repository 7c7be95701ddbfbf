package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evanperkins/frontdesk/internal/billing"
	"github.com/evanperkins/frontdesk/internal/domain"
	"github.com/evanperkins/frontdesk/internal/repository"
)

// InvoiceService is re-exported from domain so handlers depend on one package.
type InvoiceService = domain.InvoiceService

// defaultDaysUntilDue applies when a created invoice carries no due date.
const defaultDaysUntilDue = 30

type invoiceService struct {
	repo     repository.Querier
	provider billing.Provider
	logger   *slog.Logger
}

// NewInvoiceService creates a new InvoiceService instance.
func NewInvoiceService(repo repository.Querier, provider billing.Provider, logger *slog.Logger) InvoiceService {
	return &invoiceService{
		repo:     repo,
		provider: provider,
		logger:   logger.With("service", "invoice"),
	}
}

// CreateInvoice runs the full creation sequence: connected-account checks,
// validation, customer resolution, draft invoice, line items in submission
// order, finalize, then local persistence. Validation failures and missing
// account preconditions abort before any platform call; a platform failure
// aborts the rest of the sequence and persists nothing.
func (s *invoiceService) CreateInvoice(ctx context.Context, params domain.CreateInvoiceParams) (*domain.Invoice, error) {
	const op = "invoiceService.CreateInvoice"

	account, err := s.connectedAccount(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	if err := validateCreateParams(params); err != nil {
		return nil, err
	}

	customer, err := s.resolveCustomer(ctx, account.StripeAccountID, params.CustomerEmail, params.CustomerName)
	if err != nil {
		return nil, paymentError(op, err)
	}

	ref, err := s.provider.CreateInvoice(ctx, billing.CreateInvoiceParams{
		AccountID:    account.StripeAccountID,
		CustomerID:   customer.ID,
		DaysUntilDue: daysUntilDue(params.DueDate),
		Memo:         params.Notes,
	})
	if err != nil {
		return nil, paymentError(op, err)
	}

	// Items go out one at a time so the hosted invoice lists them in the
	// order the user entered them.
	for _, item := range params.LineItems {
		if err := s.provider.AddInvoiceItem(ctx, billing.AddInvoiceItemParams{
			AccountID:       account.StripeAccountID,
			CustomerID:      customer.ID,
			InvoiceID:       ref.ID,
			Description:     item.Description,
			Quantity:        int64(item.Quantity),
			UnitAmountCents: billing.MinorUnits(item.UnitAmount),
		}); err != nil {
			return nil, paymentError(op, err)
		}
	}

	finalized, err := s.provider.FinalizeInvoice(ctx, billing.FinalizeInvoiceParams{
		AccountID: account.StripeAccountID,
		InvoiceID: ref.ID,
	})
	if err != nil {
		return nil, paymentError(op, err)
	}

	// Totals are computed locally from the submitted items, never read back
	// from the platform, so subtotal and total always agree.
	subtotal := domain.SubtotalOf(params.LineItems)

	inv, err := s.repo.CreateInvoice(ctx, repository.CreateInvoiceParams{
		UserID:           params.UserID,
		InquiryID:        params.InquiryID,
		AppointmentID:    params.AppointmentID,
		StripeInvoiceID:  finalized.ID,
		StripeCustomerID: customer.ID,
		CustomerName:     params.CustomerName,
		CustomerEmail:    params.CustomerEmail,
		CustomerPhone:    params.CustomerPhone,
		LineItems:        params.LineItems,
		Subtotal:         subtotal,
		Tax:              decimal.Zero,
		Total:            subtotal,
		Status:           domain.InvoiceStatusDraft,
		DueDate:          params.DueDate,
		InvoiceURL:       finalized.HostedURL,
		Notes:            params.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist invoice: %w", err)
	}

	s.logger.Info("invoice created",
		"invoice_id", inv.ID,
		"stripe_invoice_id", inv.StripeInvoiceID,
		"total", inv.Total,
	)

	return inv, nil
}

// SendInvoice instructs the platform to deliver a draft invoice and marks the
// local record sent. The local record stays untouched if delivery fails.
func (s *invoiceService) SendInvoice(ctx context.Context, userID uuid.UUID, stripeInvoiceID string) (*domain.Invoice, error) {
	const op = "invoiceService.SendInvoice"

	inv, err := s.repo.GetInvoiceByStripeID(ctx, stripeInvoiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if inv.UserID != userID {
		return nil, domain.ErrInvoiceNotFound
	}
	if inv.Status != domain.InvoiceStatusDraft {
		return nil, domain.ErrInvoiceNotDraft
	}

	account, err := s.connectedAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	sent, err := s.provider.SendInvoice(ctx, billing.SendInvoiceParams{
		AccountID: account.StripeAccountID,
		InvoiceID: stripeInvoiceID,
	})
	if err != nil {
		return nil, paymentError(op, err)
	}

	now := time.Now()
	updateParams := repository.UpdateInvoiceStatusParams{
		StripeInvoiceID: stripeInvoiceID,
		Status:          domain.InvoiceStatusSent,
		SentAt:          &now,
	}
	if sent.PDFURL != "" {
		updateParams.InvoicePDF = &sent.PDFURL
	}

	inv, err = s.repo.UpdateInvoiceStatus(ctx, updateParams)
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}

	s.logger.Info("invoice sent",
		"invoice_id", inv.ID,
		"stripe_invoice_id", sent.ID,
	)

	return inv, nil
}

// GetInvoice retrieves a persisted invoice scoped to its owner.
func (s *invoiceService) GetInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.repo.GetInvoiceForUser(ctx, repository.GetInvoiceForUserParams{
		ID:     invoiceID,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices lists the user's invoices, newest first.
func (s *invoiceService) ListInvoices(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]domain.Invoice, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	invoices, err := s.repo.ListInvoicesForUser(ctx, repository.ListInvoicesForUserParams{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// connectedAccount loads the user's connected account and checks it can issue
// invoices. Both failures surface before any platform call is made.
func (s *invoiceService) connectedAccount(ctx context.Context, userID uuid.UUID) (*domain.ConnectedAccount, error) {
	account, err := s.repo.GetConnectedAccountByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAccountNotConnected
		}
		return nil, fmt.Errorf("failed to get connected account: %w", err)
	}
	// Only charges_enabled gates invoicing; an account can take charges
	// before its details are fully submitted.
	if !account.ChargesEnabled {
		return nil, domain.ErrAccountNotReady
	}
	return account, nil
}

// resolveCustomer reuses an existing platform customer matched by email or
// creates one. Matching by email prevents duplicate customers per account.
func (s *invoiceService) resolveCustomer(ctx context.Context, accountID, email, name string) (*billing.Customer, error) {
	customer, err := s.provider.GetCustomerByEmail(ctx, accountID, email)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		return customer, nil
	}

	return s.provider.CreateCustomer(ctx, billing.CreateCustomerParams{
		AccountID: accountID,
		Email:     email,
		Name:      name,
	})
}

func validateCreateParams(params domain.CreateInvoiceParams) error {
	if params.CustomerEmail == "" || params.CustomerName == "" {
		return domain.ErrCustomerRequired
	}
	if len(params.LineItems) == 0 {
		return domain.ErrNoLineItems
	}
	for i, item := range params.LineItems {
		if item.Description == "" {
			return domain.Errorf(domain.EINVALID, "", "Line item %d is missing a description", i+1)
		}
		if item.Quantity <= 0 {
			return domain.Errorf(domain.EINVALID, "", "Line item %d must have a quantity greater than 0", i+1)
		}
		if !item.UnitAmount.IsPositive() {
			return domain.Errorf(domain.EINVALID, "", "Line item %d must have a unit amount greater than 0", i+1)
		}
	}
	return nil
}

// daysUntilDue converts an optional due date into the whole-day net terms the
// platform expects, rounding partial days up.
func daysUntilDue(dueDate *time.Time) int64 {
	if dueDate == nil {
		return defaultDaysUntilDue
	}
	days := int64(math.Ceil(time.Until(*dueDate).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}
