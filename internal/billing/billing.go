package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Provider defines the interface for the payments platform.
// Every operation is scoped to one connected account per call; the account id
// is passed explicitly and never assumed global.
//
// Monetary amounts cross this boundary in integer minor units (cents). The
// rest of the system works in decimal major units; MinorUnits/MajorUnits own
// the conversion.
type Provider interface {
	// GetCustomerByEmail searches the connected account for an existing
	// customer by email. Returns nil, nil when no customer is found (not an
	// error) so callers can decide whether to create one.
	GetCustomerByEmail(ctx context.Context, accountID, email string) (*Customer, error)

	// CreateCustomer creates a customer on the connected account.
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// CreateInvoice creates an unsent draft invoice on the connected account.
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*InvoiceRef, error)

	// AddInvoiceItem attaches one line item to a draft invoice. Items appear
	// on the hosted invoice in the order they are added.
	AddInvoiceItem(ctx context.Context, params AddInvoiceItemParams) error

	// FinalizeInvoice locks the invoice's line items, computes its immutable
	// total and produces the hosted, customer-facing URL.
	FinalizeInvoice(ctx context.Context, params FinalizeInvoiceParams) (*FinalizedInvoice, error)

	// SendInvoice instructs the platform to deliver a finalized invoice.
	SendInvoice(ctx context.Context, params SendInvoiceParams) (*SentInvoice, error)

	// GetAccount retrieves a connected account's capability flags.
	GetAccount(ctx context.Context, accountID string) (*Account, error)

	// ExchangeOAuthCode exchanges a Connect authorization code for the
	// connected account grant.
	ExchangeOAuthCode(ctx context.Context, code string) (*OAuthGrant, error)

	// VerifyWebhookSignature verifies that a webhook request is authentic.
	// Must be called on the raw request body before any event parsing.
	VerifyWebhookSignature(payload []byte, signature string, secret string) error
}

// MinorUnits converts a decimal major-unit amount to integer minor units
// (cents), rounding half away from zero. 25.50 -> 2550.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// MajorUnits converts integer minor units back to a decimal major-unit
// amount. 2550 -> 25.50.
func MajorUnits(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}

// Customer represents a payments-platform customer on a connected account.
type Customer struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// CreateCustomerParams contains parameters for creating a customer.
type CreateCustomerParams struct {
	AccountID string
	Email     string
	Name      string
}

// CreateInvoiceParams contains parameters for creating a draft invoice.
type CreateInvoiceParams struct {
	AccountID  string
	CustomerID string

	// DaysUntilDue feeds the platform's due-date calculation.
	DaysUntilDue int64

	// Memo is free text shown on the hosted invoice.
	Memo string
}

// InvoiceRef identifies a not-yet-finalized invoice on a connected account.
type InvoiceRef struct {
	ID     string
	Status string
}

// AddInvoiceItemParams contains parameters for attaching one line item.
type AddInvoiceItemParams struct {
	AccountID   string
	CustomerID  string
	InvoiceID   string
	Description string
	Quantity    int64

	// UnitAmountCents is the per-unit price in minor units.
	UnitAmountCents int64
}

// FinalizeInvoiceParams contains parameters for finalizing an invoice.
type FinalizeInvoiceParams struct {
	AccountID string
	InvoiceID string
}

// FinalizedInvoice is the platform's record of a finalized invoice.
type FinalizedInvoice struct {
	ID         string
	Status     string
	HostedURL  string
	TotalCents int64
}

// SendInvoiceParams contains parameters for sending an invoice.
type SendInvoiceParams struct {
	AccountID string
	InvoiceID string
}

// SentInvoice is the platform's record of a delivered invoice.
type SentInvoice struct {
	ID        string
	Status    string
	HostedURL string
	PDFURL    string
}

// Account holds a connected account's capability flags.
type Account struct {
	ID               string
	Type             string
	Email            string
	BusinessName     string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// OAuthGrant is the result of exchanging a Connect authorization code.
type OAuthGrant struct {
	StripeUserID string
	AccessToken  string
	RefreshToken string
	Scope        string
	Livemode     bool
}
