package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evanperkins/frontdesk/internal/domain"
	"github.com/evanperkins/frontdesk/internal/repository"
)

// quotedPricePattern accepts a plain currency amount: optional dollar sign,
// optional thousands separators, at most two decimal places. Anything looser
// ("about 200 dollars", "150-200") is rejected rather than guessed at.
var quotedPricePattern = regexp.MustCompile(`^\$?\s*(\d{1,3}(?:,\d{3})*|\d+)(\.\d{1,2})?$`)

// ComposeSeed carries the pre-populated form state for the invoice
// composition dialog: customer fields and one default line item taken from an
// inquiry or appointment.
type ComposeSeed struct {
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone"`
	LineItems     []domain.LineItem `json:"line_items"`
	InquiryID     *uuid.UUID        `json:"inquiry_id,omitempty"`
	AppointmentID *uuid.UUID        `json:"appointment_id,omitempty"`
}

// Composer coordinates the invoice composition flow: seeding from a source
// record, validating before any platform call, and sequencing the draft vs
// create-and-send actions.
type Composer struct {
	repo     repository.Querier
	invoices InvoiceService
	logger   *slog.Logger
}

// NewComposer creates a new Composer instance.
func NewComposer(repo repository.Querier, invoices InvoiceService, logger *slog.Logger) *Composer {
	return &Composer{
		repo:     repo,
		invoices: invoices,
		logger:   logger.With("service", "composer"),
	}
}

// SeedFromInquiry pre-populates the dialog from an inquiry. The default line
// item carries the inquiry description with no amount; the user fills in the
// price.
func (c *Composer) SeedFromInquiry(ctx context.Context, userID, inquiryID uuid.UUID) (*ComposeSeed, error) {
	inq, err := c.repo.GetInquiryForUser(ctx, repository.GetInquiryForUserParams{
		ID:     inquiryID,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInquiryNotFound
		}
		return nil, fmt.Errorf("failed to get inquiry: %w", err)
	}

	description := inq.Description
	if description == "" {
		description = inq.InquiryType
	}
	if description == "" {
		description = "Service"
	}

	return &ComposeSeed{
		CustomerName:  inq.CustomerName,
		CustomerEmail: inq.CustomerEmail,
		CustomerPhone: inq.CustomerPhone,
		LineItems: []domain.LineItem{
			{Description: description, Quantity: 1, UnitAmount: decimal.Zero},
		},
		InquiryID: &inq.ID,
	}, nil
}

// SeedFromAppointment pre-populates the dialog from an appointment, parsing
// the free-text quoted price into the default line item's unit amount.
func (c *Composer) SeedFromAppointment(ctx context.Context, userID, appointmentID uuid.UUID) (*ComposeSeed, error) {
	appt, err := c.repo.GetAppointmentForUser(ctx, repository.GetAppointmentForUserParams{
		ID:     appointmentID,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	description := appt.ServiceDescription
	if description == "" {
		description = appt.ServiceType
	}
	if description == "" {
		description = "Service"
	}

	amount, ok := ParseQuotedPrice(appt.QuotedPrice)
	if !ok && appt.QuotedPrice != "" {
		c.logger.Warn("could not parse quoted price, seeding zero",
			"appointment_id", appt.ID,
			"quoted_price", appt.QuotedPrice,
		)
	}

	return &ComposeSeed{
		CustomerName:  appt.CustomerName,
		CustomerEmail: appt.CustomerEmail,
		CustomerPhone: appt.CustomerPhone,
		LineItems: []domain.LineItem{
			{Description: description, Quantity: 1, UnitAmount: amount},
		},
		AppointmentID: &appt.ID,
	}, nil
}

// Validate checks the composed form before any platform call, surfacing the
// first violation as a single error.
func (c *Composer) Validate(params domain.CreateInvoiceParams) error {
	return validateCreateParams(params)
}

// CreateDraft validates and runs the creation service only; the invoice stays
// a local draft until the user triggers send.
func (c *Composer) CreateDraft(ctx context.Context, params domain.CreateInvoiceParams) (*domain.Invoice, error) {
	if err := c.Validate(params); err != nil {
		return nil, err
	}
	return c.invoices.CreateInvoice(ctx, params)
}

// CreateAndSend runs creation then, only if that succeeds, delivery. When the
// send step fails the created draft persists and is returned alongside the
// send error; the caller retries send separately.
func (c *Composer) CreateAndSend(ctx context.Context, params domain.CreateInvoiceParams) (*domain.Invoice, error) {
	inv, err := c.CreateDraft(ctx, params)
	if err != nil {
		return nil, err
	}

	sent, err := c.invoices.SendInvoice(ctx, params.UserID, inv.StripeInvoiceID)
	if err != nil {
		c.logger.Warn("invoice created but send failed, draft persisted",
			"invoice_id", inv.ID,
			"stripe_invoice_id", inv.StripeInvoiceID,
			"error", err,
		)
		return inv, err
	}

	return sent, nil
}

// ParseQuotedPrice parses a free-text quoted price ("$150", "1,200.50") into
// a decimal amount. It fails closed: anything ambiguous returns zero and
// false instead of a guessed value.
func ParseQuotedPrice(quoted string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(quoted)
	if trimmed == "" {
		return decimal.Zero, false
	}

	m := quotedPricePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return decimal.Zero, false
	}

	normalized := strings.ReplaceAll(m[1], ",", "") + m[2]
	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, false
	}

	return amount, true
}
