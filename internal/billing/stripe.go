package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/oauth"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider against Stripe. All invoice and
// customer operations run on a connected account via the Stripe-Account
// header; only OAuth code exchange runs as the platform itself.
type StripeProvider struct {
	client *stripe.Client
	oauth  *oauth.Client
	config StripeConfig
	logger *slog.Logger
}

// NewStripeProvider creates a new Stripe provider with the given configuration.
func NewStripeProvider(config StripeConfig, logger *slog.Logger) (*StripeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stripe configuration: %w", err)
	}

	p := &StripeProvider{
		client: stripe.NewClient(config.APIKey),
		oauth: &oauth.Client{
			B:   stripe.GetBackend(stripe.ConnectBackend),
			Key: config.APIKey,
		},
		config: config,
		logger: logger.With("provider", "stripe"),
	}

	p.logger.Info("stripe provider initialized", "test_mode", config.IsTestMode())
	return p, nil
}

// GetCustomerByEmail looks up an existing customer on the connected account.
// Returns (nil, nil) when no customer with that email exists.
func (p *StripeProvider) GetCustomerByEmail(ctx context.Context, accountID, email string) (*Customer, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Limit = stripe.Int64(1)
	params.SetStripeAccount(accountID)

	for c, err := range p.client.V1Customers.List(ctx, params) {
		if err != nil {
			return nil, wrapStripeError(err)
		}
		return customerFromStripe(c), nil
	}
	return nil, nil
}

// CreateCustomer creates a new customer on the connected account.
func (p *StripeProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	createParams := &stripe.CustomerCreateParams{
		Email: stripe.String(params.Email),
	}
	if params.Name != "" {
		createParams.Name = stripe.String(params.Name)
	}
	createParams.SetStripeAccount(params.AccountID)

	c, err := p.client.V1Customers.Create(ctx, createParams)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	p.logger.Debug("created stripe customer", "customer_id", c.ID, "account_id", params.AccountID)
	return customerFromStripe(c), nil
}

// CreateInvoice creates a draft invoice on the connected account. The
// invoice uses the send_invoice collection method so Stripe emails the
// customer a hosted payment page rather than charging a card on file.
func (p *StripeProvider) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*InvoiceRef, error) {
	createParams := &stripe.InvoiceCreateParams{
		Customer:         stripe.String(params.CustomerID),
		CollectionMethod: stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		DaysUntilDue:     stripe.Int64(params.DaysUntilDue),
	}
	if params.Memo != "" {
		createParams.Description = stripe.String(params.Memo)
	}
	createParams.SetStripeAccount(params.AccountID)

	inv, err := p.client.V1Invoices.Create(ctx, createParams)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	p.logger.Debug("created stripe invoice", "invoice_id", inv.ID, "account_id", params.AccountID)
	return &InvoiceRef{
		ID:     inv.ID,
		Status: string(inv.Status),
	}, nil
}

// AddInvoiceItem adds a line item to a draft invoice on the connected account.
func (p *StripeProvider) AddInvoiceItem(ctx context.Context, params AddInvoiceItemParams) error {
	createParams := &stripe.InvoiceItemCreateParams{
		Customer:          stripe.String(params.CustomerID),
		Invoice:           stripe.String(params.InvoiceID),
		Description:       stripe.String(params.Description),
		Quantity:          stripe.Int64(params.Quantity),
		UnitAmountDecimal: stripe.Float64(float64(params.UnitAmountCents)),
	}
	createParams.SetStripeAccount(params.AccountID)

	if _, err := p.client.V1InvoiceItems.Create(ctx, createParams); err != nil {
		return wrapStripeError(err)
	}
	return nil
}

// FinalizeInvoice finalizes a draft invoice, producing the hosted payment
// URL and the computed total.
func (p *StripeProvider) FinalizeInvoice(ctx context.Context, params FinalizeInvoiceParams) (*FinalizedInvoice, error) {
	finalizeParams := &stripe.InvoiceFinalizeInvoiceParams{
		AutoAdvance: stripe.Bool(false),
	}
	finalizeParams.SetStripeAccount(params.AccountID)

	inv, err := p.client.V1Invoices.FinalizeInvoice(ctx, params.InvoiceID, finalizeParams)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	return &FinalizedInvoice{
		ID:         inv.ID,
		Status:     string(inv.Status),
		HostedURL:  inv.HostedInvoiceURL,
		TotalCents: inv.Total,
	}, nil
}

// SendInvoice asks Stripe to email the invoice to the customer.
func (p *StripeProvider) SendInvoice(ctx context.Context, params SendInvoiceParams) (*SentInvoice, error) {
	sendParams := &stripe.InvoiceSendInvoiceParams{}
	sendParams.SetStripeAccount(params.AccountID)

	inv, err := p.client.V1Invoices.SendInvoice(ctx, params.InvoiceID, sendParams)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	p.logger.Debug("sent stripe invoice", "invoice_id", inv.ID, "account_id", params.AccountID)
	return &SentInvoice{
		ID:        inv.ID,
		Status:    string(inv.Status),
		HostedURL: inv.HostedInvoiceURL,
		PDFURL:    inv.InvoicePDF,
	}, nil
}

// GetAccount retrieves a connected account's profile and capability flags.
func (p *StripeProvider) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	acct, err := p.client.V1Accounts.GetByID(ctx, accountID, &stripe.AccountRetrieveParams{})
	if err != nil {
		return nil, wrapStripeError(err)
	}

	out := &Account{
		ID:               acct.ID,
		Type:             string(acct.Type),
		Email:            acct.Email,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}
	if acct.BusinessProfile != nil {
		out.BusinessName = acct.BusinessProfile.Name
	}
	return out, nil
}

// ExchangeOAuthCode exchanges a Connect OAuth authorization code for the
// connected account's id and tokens. Authenticates as the platform.
func (p *StripeProvider) ExchangeOAuthCode(ctx context.Context, code string) (*OAuthGrant, error) {
	params := &stripe.OAuthTokenParams{
		GrantType: stripe.String("authorization_code"),
		Code:      stripe.String(code),
	}
	params.Context = ctx

	token, err := p.oauth.New(params)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	p.logger.Info("exchanged oauth code", "stripe_user_id", token.StripeUserID, "livemode", token.Livemode)
	return &OAuthGrant{
		StripeUserID: token.StripeUserID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Scope:        string(token.Scope),
		Livemode:     token.Livemode,
	}, nil
}

// VerifyWebhookSignature verifies the Stripe-Signature header against the
// raw payload. Must be called before the payload is parsed or acted on.
func (p *StripeProvider) VerifyWebhookSignature(payload []byte, signature, secret string) error {
	if _, err := webhook.ConstructEvent(payload, signature, secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}
	return nil
}

func customerFromStripe(c *stripe.Customer) *Customer {
	return &Customer{
		ID:    c.ID,
		Email: c.Email,
		Name:  c.Name,
	}
}
