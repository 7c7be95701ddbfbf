package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates successful invoicing flows without calling the Stripe API.
type MockProvider struct {
	// GetCustomerByEmailFunc allows customizing customer lookup behavior
	GetCustomerByEmailFunc func(ctx context.Context, accountID, email string) (*Customer, error)

	// CreateCustomerFunc allows customizing customer creation behavior
	CreateCustomerFunc func(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// CreateInvoiceFunc allows customizing invoice creation behavior
	CreateInvoiceFunc func(ctx context.Context, params CreateInvoiceParams) (*InvoiceRef, error)

	// AddInvoiceItemFunc allows customizing line item behavior
	AddInvoiceItemFunc func(ctx context.Context, params AddInvoiceItemParams) error

	// FinalizeInvoiceFunc allows customizing finalize behavior
	FinalizeInvoiceFunc func(ctx context.Context, params FinalizeInvoiceParams) (*FinalizedInvoice, error)

	// SendInvoiceFunc allows customizing send behavior
	SendInvoiceFunc func(ctx context.Context, params SendInvoiceParams) (*SentInvoice, error)

	// GetAccountFunc allows customizing account retrieval behavior
	GetAccountFunc func(ctx context.Context, accountID string) (*Account, error)

	// ExchangeOAuthCodeFunc allows customizing OAuth code exchange behavior
	ExchangeOAuthCodeFunc func(ctx context.Context, code string) (*OAuthGrant, error)

	// VerifyWebhookSignatureFunc allows customizing webhook verification behavior
	VerifyWebhookSignatureFunc func(payload []byte, signature string, secret string) error

	// Customers stores created customers for retrieval
	Customers map[string]*Customer

	// Invoices stores created invoice refs keyed by id
	Invoices map[string]*InvoiceRef

	// InvoiceItems records every line item added, in call order
	InvoiceItems []AddInvoiceItemParams

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Customers:    make(map[string]*Customer),
		Invoices:     make(map[string]*InvoiceRef),
		InvoiceItems: []AddInvoiceItemParams{},
		CallLog:      []string{},
	}
}

// GetCustomerByEmail searches for a mock customer by email.
func (m *MockProvider) GetCustomerByEmail(ctx context.Context, accountID, email string) (*Customer, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetCustomerByEmail(%s, %s)", accountID, email))

	if m.GetCustomerByEmailFunc != nil {
		return m.GetCustomerByEmailFunc(ctx, accountID, email)
	}

	// Default mock behavior: search through customers
	for _, customer := range m.Customers {
		if customer.Email == email {
			return customer, nil
		}
	}
	return nil, nil // Not found
}

// CreateCustomer creates a mock customer.
func (m *MockProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCustomer(%s)", params.Email))

	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, params)
	}

	// Default mock behavior: create successful customer
	customer := &Customer{
		ID:    "cus_" + uuid.New().String()[:8],
		Email: params.Email,
		Name:  params.Name,
	}

	m.Customers[customer.ID] = customer
	return customer, nil
}

// CreateInvoice creates a mock draft invoice.
func (m *MockProvider) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*InvoiceRef, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateInvoice(%s, %d)", params.CustomerID, params.DaysUntilDue))

	if m.CreateInvoiceFunc != nil {
		return m.CreateInvoiceFunc(ctx, params)
	}

	// Default mock behavior: create successful draft invoice
	ref := &InvoiceRef{
		ID:     "in_" + uuid.New().String()[:8],
		Status: "draft",
	}

	m.Invoices[ref.ID] = ref
	return ref, nil
}

// AddInvoiceItem records a mock line item.
func (m *MockProvider) AddInvoiceItem(ctx context.Context, params AddInvoiceItemParams) error {
	m.CallLog = append(m.CallLog, fmt.Sprintf("AddInvoiceItem(%s, %d)", params.Description, params.UnitAmountCents))

	if m.AddInvoiceItemFunc != nil {
		return m.AddInvoiceItemFunc(ctx, params)
	}

	m.InvoiceItems = append(m.InvoiceItems, params)
	return nil
}

// FinalizeInvoice finalizes a mock invoice.
func (m *MockProvider) FinalizeInvoice(ctx context.Context, params FinalizeInvoiceParams) (*FinalizedInvoice, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("FinalizeInvoice(%s)", params.InvoiceID))

	if m.FinalizeInvoiceFunc != nil {
		return m.FinalizeInvoiceFunc(ctx, params)
	}

	// Default mock behavior: total is the sum of recorded line items
	var total int64
	for _, item := range m.InvoiceItems {
		if item.InvoiceID == params.InvoiceID {
			total += item.UnitAmountCents * item.Quantity
		}
	}

	if ref, exists := m.Invoices[params.InvoiceID]; exists {
		ref.Status = "open"
	}

	return &FinalizedInvoice{
		ID:         params.InvoiceID,
		Status:     "open",
		HostedURL:  "https://invoice.stripe.com/i/" + params.InvoiceID,
		TotalCents: total,
	}, nil
}

// SendInvoice sends a mock invoice.
func (m *MockProvider) SendInvoice(ctx context.Context, params SendInvoiceParams) (*SentInvoice, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("SendInvoice(%s)", params.InvoiceID))

	if m.SendInvoiceFunc != nil {
		return m.SendInvoiceFunc(ctx, params)
	}

	return &SentInvoice{
		ID:        params.InvoiceID,
		Status:    "open",
		HostedURL: "https://invoice.stripe.com/i/" + params.InvoiceID,
		PDFURL:    "https://pay.stripe.com/invoice/" + params.InvoiceID + "/pdf",
	}, nil
}

// GetAccount retrieves a mock connected account.
func (m *MockProvider) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetAccount(%s)", accountID))

	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, accountID)
	}

	// Default mock behavior: fully onboarded standard account
	return &Account{
		ID:               accountID,
		Type:             "standard",
		ChargesEnabled:   true,
		PayoutsEnabled:   true,
		DetailsSubmitted: true,
	}, nil
}

// ExchangeOAuthCode exchanges a mock OAuth code.
func (m *MockProvider) ExchangeOAuthCode(ctx context.Context, code string) (*OAuthGrant, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("ExchangeOAuthCode(%s)", code))

	if m.ExchangeOAuthCodeFunc != nil {
		return m.ExchangeOAuthCodeFunc(ctx, code)
	}

	return &OAuthGrant{
		StripeUserID: "acct_" + uuid.New().String()[:8],
		AccessToken:  "sk_test_" + uuid.New().String(),
		Scope:        "read_write",
	}, nil
}

// VerifyWebhookSignature verifies a mock webhook signature.
func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	m.CallLog = append(m.CallLog, "VerifyWebhookSignature")

	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature, secret)
	}

	// Default mock behavior: always verify successfully
	return nil
}
