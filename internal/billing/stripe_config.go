package billing

import (
	"errors"
)

// StripeConfig contains configuration for the Stripe provider.
type StripeConfig struct {
	// APIKey is the platform secret key (sk_test_... or sk_live_...).
	// Connected-account scoping happens per request, not per key.
	APIKey string

	// WebhookSecret is the webhook signing secret (whsec_...).
	WebhookSecret string

	// ConnectClientID is the Connect OAuth client id (ca_...), used when
	// building authorize URLs. Code exchange authenticates with APIKey.
	ConnectClientID string
}

// Validate checks that required configuration is present.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("stripe: API key is required")
	}
	if c.WebhookSecret == "" {
		return errors.New("stripe: webhook secret is required")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *StripeConfig) IsTestMode() bool {
	return len(c.APIKey) > 7 && c.APIKey[:8] == "sk_test_"
}
