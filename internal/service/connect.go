package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/evanperkins/frontdesk/internal/billing"
	"github.com/evanperkins/frontdesk/internal/domain"
	"github.com/evanperkins/frontdesk/internal/repository"
)

// ConnectService is re-exported from domain so handlers depend on one package.
type ConnectService = domain.ConnectService

const connectAuthorizeURL = "https://connect.stripe.com/oauth/authorize"

// ConnectConfig carries the OAuth settings for the Connect handshake.
type ConnectConfig struct {
	ClientID    string
	RedirectURI string
}

type connectService struct {
	repo     repository.Querier
	provider billing.Provider
	config   ConnectConfig
	logger   *slog.Logger
}

// NewConnectService creates a new ConnectService instance.
func NewConnectService(repo repository.Querier, provider billing.Provider, config ConnectConfig, logger *slog.Logger) ConnectService {
	return &connectService{
		repo:     repo,
		provider: provider,
		config:   config,
		logger:   logger.With("service", "connect"),
	}
}

// OAuthURL builds the Stripe Connect authorize URL. The acting user's id
// travels as OAuth state and comes back on the callback.
func (s *connectService) OAuthURL(userID uuid.UUID) (string, error) {
	if s.config.ClientID == "" {
		return "", ErrConnectNotConfigured
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", s.config.ClientID)
	q.Set("scope", "read_write")
	q.Set("state", userID.String())
	if s.config.RedirectURI != "" {
		q.Set("redirect_uri", s.config.RedirectURI)
	}

	return connectAuthorizeURL + "?" + q.Encode(), nil
}

// HandleCallback exchanges the authorization code, fetches the connected
// account's capability flags and upserts the account for the state user.
func (s *connectService) HandleCallback(ctx context.Context, code, state string) (*domain.ConnectedAccount, error) {
	const op = "connectService.HandleCallback"

	userID, err := uuid.Parse(state)
	if err != nil {
		return nil, ErrInvalidOAuthState
	}
	if code == "" {
		return nil, domain.Errorf(domain.EINVALID, op, "Authorization code is required")
	}

	grant, err := s.provider.ExchangeOAuthCode(ctx, code)
	if err != nil {
		return nil, paymentError(op, err)
	}

	platformAccount, err := s.provider.GetAccount(ctx, grant.StripeUserID)
	if err != nil {
		return nil, paymentError(op, err)
	}

	account, err := s.repo.UpsertConnectedAccount(ctx, repository.UpsertConnectedAccountParams{
		UserID:           userID,
		StripeAccountID:  grant.StripeUserID,
		Scope:            grant.Scope,
		AccountType:      platformAccount.Type,
		BusinessName:     platformAccount.BusinessName,
		BusinessEmail:    platformAccount.Email,
		ChargesEnabled:   platformAccount.ChargesEnabled,
		PayoutsEnabled:   platformAccount.PayoutsEnabled,
		DetailsSubmitted: platformAccount.DetailsSubmitted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save connected account: %w", err)
	}

	s.logger.Info("connected account linked",
		"user_id", userID,
		"stripe_account_id", account.StripeAccountID,
		"charges_enabled", account.ChargesEnabled,
	)

	return account, nil
}

// GetAccount returns the user's connected account, or ErrAccountNotConnected.
func (s *connectService) GetAccount(ctx context.Context, userID uuid.UUID) (*domain.ConnectedAccount, error) {
	account, err := s.repo.GetConnectedAccountByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAccountNotConnected
		}
		return nil, fmt.Errorf("failed to get connected account: %w", err)
	}
	return account, nil
}
