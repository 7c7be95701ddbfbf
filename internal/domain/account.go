package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConnectedAccount is a payments-platform sub-account owned by one dashboard
// user. Charges and invoices are issued through it; funds flow directly to
// the user. Created by the Connect OAuth handshake, at most one per user.
type ConnectedAccount struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	StripeAccountID  string    `json:"stripe_account_id"`
	Scope            string    `json:"scope,omitempty"`
	AccountType      string    `json:"account_type,omitempty"`
	BusinessName     string    `json:"business_name,omitempty"`
	BusinessEmail    string    `json:"business_email,omitempty"`
	ChargesEnabled   bool      `json:"charges_enabled"`
	PayoutsEnabled   bool      `json:"payouts_enabled"`
	DetailsSubmitted bool      `json:"details_submitted"`
	ConnectedAt      time.Time `json:"connected_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ConnectService handles the Stripe Connect OAuth handshake that links a
// platform sub-account to a dashboard user.
type ConnectService interface {
	// OAuthURL builds the authorize URL the dashboard redirects the user to.
	// The user id travels as OAuth state and comes back on the callback.
	OAuthURL(userID uuid.UUID) (string, error)

	// HandleCallback exchanges the authorization code, fetches the account's
	// capability flags and upserts the connected account for the state user.
	HandleCallback(ctx context.Context, code, state string) (*ConnectedAccount, error)

	// GetAccount returns the user's connected account, or ErrAccountNotConnected.
	GetAccount(ctx context.Context, userID uuid.UUID) (*ConnectedAccount, error)
}
