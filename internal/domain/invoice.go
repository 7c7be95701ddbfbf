package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice lifecycle statuses.
//
// draft is the only status reachable without the payments platform delivering
// the invoice. paid, void and uncollectible are set exclusively by webhook
// reconciliation, never directly by a client.
const (
	InvoiceStatusDraft         = "draft"
	InvoiceStatusSent          = "sent"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusVoid          = "void"
	InvoiceStatusUncollectible = "uncollectible"
)

// Invoice-related domain errors.
var (
	ErrInvoiceNotFound     = &Error{Code: ENOTFOUND, Message: "Invoice not found"}
	ErrInvoiceNotDraft     = &Error{Code: EINVALID, Message: "Invoice must be in draft status"}
	ErrNoLineItems         = &Error{Code: EINVALID, Message: "At least one line item is required"}
	ErrCustomerRequired    = &Error{Code: EINVALID, Message: "Customer name and email are required"}
	ErrAccountNotConnected = &Error{Code: EPAYMENT, Message: "Payments account not connected. Please connect your account first."}
	ErrAccountNotReady     = &Error{Code: EPAYMENT, Message: "Your payments account is not fully set up. Please complete your account setup."}
)

// LineItem is a single billable line on an invoice. Unit amounts are decimal
// major currency units; conversion to integer cents happens only at the
// payments adapter boundary.
type LineItem struct {
	Description string          `json:"description" validate:"required"`
	Quantity    int32           `json:"quantity" validate:"gt=0"`
	UnitAmount  decimal.Decimal `json:"unit_amount"`
}

// Total returns quantity x unit amount in major units.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitAmount.Mul(decimal.NewFromInt32(li.Quantity))
}

// SubtotalOf sums line item totals in major units. This is the canonical
// subtotal computation: it is performed locally from the same items sent to
// the payments platform and is never read back from it.
func SubtotalOf(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.Total())
	}
	return sum
}

// Invoice is the locally persisted record the dashboard reads. The external
// invoice id is assigned once at creation and never changes; subtotal and
// total are frozen at creation time.
type Invoice struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	InquiryID        *uuid.UUID      `json:"inquiry_id,omitempty"`
	AppointmentID    *uuid.UUID      `json:"appointment_id,omitempty"`
	StripeInvoiceID  string          `json:"stripe_invoice_id"`
	StripeCustomerID string          `json:"stripe_customer_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	CustomerPhone    string          `json:"customer_phone,omitempty"`
	LineItems        []LineItem      `json:"line_items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
	Status           string          `json:"status"`
	DueDate          *time.Time      `json:"due_date,omitempty"`
	SentAt           *time.Time      `json:"sent_at,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	InvoiceURL       string          `json:"invoice_url,omitempty"`
	InvoicePDF       string          `json:"invoice_pdf,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CreateInvoiceParams contains input for the invoice creation service.
type CreateInvoiceParams struct {
	UserID        uuid.UUID
	CustomerEmail string
	CustomerName  string
	CustomerPhone string
	LineItems     []LineItem
	DueDate       *time.Time
	Notes         string
	InquiryID     *uuid.UUID
	AppointmentID *uuid.UUID
}

// InvoiceService orchestrates invoice creation and delivery against the
// payments platform and local persistence.
type InvoiceService interface {
	// CreateInvoice ensures a platform customer exists, creates and finalizes
	// a draft invoice on the acting user's connected account, then persists
	// the local record. Nothing is persisted if any external call fails.
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*Invoice, error)

	// SendInvoice instructs the platform to deliver a draft invoice, then
	// marks the local record sent. Local status is untouched on failure.
	SendInvoice(ctx context.Context, userID uuid.UUID, stripeInvoiceID string) (*Invoice, error)

	// GetInvoice retrieves a persisted invoice by internal id.
	GetInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*Invoice, error)

	// ListInvoices lists the acting user's invoices, newest first.
	ListInvoices(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Invoice, error)
}
