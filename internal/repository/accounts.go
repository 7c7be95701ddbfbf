package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evanperkins/frontdesk/internal/domain"
)

const accountColumns = `id, user_id, stripe_account_id, scope, account_type,
	business_name, business_email, charges_enabled, payouts_enabled,
	details_submitted, connected_at, updated_at`

// UpsertConnectedAccountParams stores or refreshes the OAuth handshake result
// for a user. A user has at most one connected account; reconnecting replaces
// the stored grant and capability flags.
type UpsertConnectedAccountParams struct {
	UserID           uuid.UUID
	StripeAccountID  string
	Scope            string
	AccountType      string
	BusinessName     string
	BusinessEmail    string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// UpsertConnectedAccount inserts or updates the user's connected account.
func (s *Store) UpsertConnectedAccount(ctx context.Context, params UpsertConnectedAccountParams) (*domain.ConnectedAccount, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO connected_accounts (
			user_id, stripe_account_id, scope, account_type, business_name,
			business_email, charges_enabled, payouts_enabled, details_submitted
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			stripe_account_id = EXCLUDED.stripe_account_id,
			scope = EXCLUDED.scope,
			account_type = EXCLUDED.account_type,
			business_name = EXCLUDED.business_name,
			business_email = EXCLUDED.business_email,
			charges_enabled = EXCLUDED.charges_enabled,
			payouts_enabled = EXCLUDED.payouts_enabled,
			details_submitted = EXCLUDED.details_submitted,
			updated_at = now()
		RETURNING `+accountColumns,
		params.UserID, params.StripeAccountID, params.Scope, params.AccountType,
		params.BusinessName, params.BusinessEmail, params.ChargesEnabled,
		params.PayoutsEnabled, params.DetailsSubmitted,
	)

	return scanConnectedAccount(row)
}

// GetConnectedAccountByUserID retrieves a user's connected account, or
// ErrNotFound when the user has never completed the OAuth handshake.
func (s *Store) GetConnectedAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.ConnectedAccount, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM connected_accounts
		WHERE user_id = $1`,
		userID,
	)

	return scanConnectedAccount(row)
}

func scanConnectedAccount(row pgx.Row) (*domain.ConnectedAccount, error) {
	var acct domain.ConnectedAccount

	err := row.Scan(
		&acct.ID, &acct.UserID, &acct.StripeAccountID, &acct.Scope, &acct.AccountType,
		&acct.BusinessName, &acct.BusinessEmail, &acct.ChargesEnabled, &acct.PayoutsEnabled,
		&acct.DetailsSubmitted, &acct.ConnectedAt, &acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan connected account: %w", err)
	}

	return &acct, nil
}
