package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/evanperkins/frontdesk/internal/domain"
)

const invoiceColumns = `id, user_id, inquiry_id, appointment_id, stripe_invoice_id,
	stripe_customer_id, customer_name, customer_email, customer_phone, line_items,
	subtotal, tax, total, status, due_date, sent_at, paid_at, invoice_url,
	invoice_pdf, notes, created_at, updated_at`

// CreateInvoiceParams contains the full invoice snapshot persisted after the
// external invoice has been finalized.
type CreateInvoiceParams struct {
	UserID           uuid.UUID
	InquiryID        *uuid.UUID
	AppointmentID    *uuid.UUID
	StripeInvoiceID  string
	StripeCustomerID string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	LineItems        []domain.LineItem
	Subtotal         decimal.Decimal
	Tax              decimal.Decimal
	Total            decimal.Decimal
	Status           string
	DueDate          *time.Time
	InvoiceURL       string
	Notes            string
}

// GetInvoiceForUserParams scopes an invoice lookup to its owner.
type GetInvoiceForUserParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// ListInvoicesForUserParams pages through a user's invoices.
type ListInvoicesForUserParams struct {
	UserID uuid.UUID
	Limit  int32
	Offset int32
}

// UpdateInvoiceStatusParams transitions an invoice identified by its external
// id. SentAt and PaidAt only overwrite when non-nil.
type UpdateInvoiceStatusParams struct {
	StripeInvoiceID string
	Status          string
	SentAt          *time.Time
	PaidAt          *time.Time
	InvoicePDF      *string
}

// CreateInvoice inserts a new invoice row and returns the stored record.
func (s *Store) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*domain.Invoice, error) {
	lineItems, err := json.Marshal(params.LineItems)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal line items: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO invoices (
			user_id, inquiry_id, appointment_id, stripe_invoice_id,
			stripe_customer_id, customer_name, customer_email, customer_phone,
			line_items, subtotal, tax, total, status, due_date, invoice_url, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+invoiceColumns,
		params.UserID, params.InquiryID, params.AppointmentID, params.StripeInvoiceID,
		params.StripeCustomerID, params.CustomerName, params.CustomerEmail, params.CustomerPhone,
		lineItems, params.Subtotal, params.Tax, params.Total, params.Status,
		params.DueDate, params.InvoiceURL, params.Notes,
	)

	return scanInvoice(row)
}

// GetInvoiceForUser retrieves an invoice by id, scoped to its owner.
func (s *Store) GetInvoiceForUser(ctx context.Context, params GetInvoiceForUserParams) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1 AND user_id = $2`,
		params.ID, params.UserID,
	)

	return scanInvoice(row)
}

// GetInvoiceByStripeID retrieves an invoice by its external id. Used by
// webhook reconciliation and the send flow, where only the external id is
// known.
func (s *Store) GetInvoiceByStripeID(ctx context.Context, stripeInvoiceID string) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE stripe_invoice_id = $1`,
		stripeInvoiceID,
	)

	return scanInvoice(row)
}

// ListInvoicesForUser returns a user's invoices, newest first.
func (s *Store) ListInvoicesForUser(ctx context.Context, params ListInvoicesForUserParams) ([]domain.Invoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		params.UserID, params.Limit, params.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}

	return invoices, rows.Err()
}

// UpdateInvoiceStatus transitions an invoice's status by external id and
// returns the updated record, or ErrNotFound when no invoice matches.
func (s *Store) UpdateInvoiceStatus(ctx context.Context, params UpdateInvoiceStatusParams) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE invoices
		SET status = $2,
			sent_at = COALESCE($3, sent_at),
			paid_at = COALESCE($4, paid_at),
			invoice_pdf = COALESCE($5, invoice_pdf),
			updated_at = now()
		WHERE stripe_invoice_id = $1
		RETURNING `+invoiceColumns,
		params.StripeInvoiceID, params.Status, params.SentAt, params.PaidAt, params.InvoicePDF,
	)

	return scanInvoice(row)
}

// scanInvoice reads one invoice row, including the JSONB line items.
func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var lineItems []byte

	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.InquiryID, &inv.AppointmentID, &inv.StripeInvoiceID,
		&inv.StripeCustomerID, &inv.CustomerName, &inv.CustomerEmail, &inv.CustomerPhone,
		&lineItems, &inv.Subtotal, &inv.Tax, &inv.Total, &inv.Status,
		&inv.DueDate, &inv.SentAt, &inv.PaidAt, &inv.InvoiceURL,
		&inv.InvoicePDF, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	if err := json.Unmarshal(lineItems, &inv.LineItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
	}

	return &inv, nil
}
