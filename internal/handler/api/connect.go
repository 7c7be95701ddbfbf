package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/evanperkins/frontdesk/internal/domain"
	"github.com/evanperkins/frontdesk/internal/handler"
	"github.com/evanperkins/frontdesk/internal/middleware"
	"github.com/evanperkins/frontdesk/internal/telemetry"
)

// ConnectHandler handles the Stripe Connect OAuth handshake and account
// status reads.
type ConnectHandler struct {
	connect domain.ConnectService
	// dashboardURL is where the OAuth callback redirects the browser,
	// with a success or error query flag.
	dashboardURL string
	logger       *slog.Logger
}

// NewConnectHandler creates a new connect handler
func NewConnectHandler(connect domain.ConnectService, dashboardURL string, logger *slog.Logger) *ConnectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectHandler{
		connect:      connect,
		dashboardURL: dashboardURL,
		logger:       logger,
	}
}

// OAuth handles POST /api/connect/oauth. It returns the authorize URL the
// dashboard redirects the user to; the user id travels as OAuth state.
func (h *ConnectHandler) OAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handler.ErrorResponse(w, r, domain.Unauthorized("api.ConnectHandler.OAuth", "Authentication required"))
		return
	}

	authorizeURL, err := h.connect.OAuthURL(userID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.ConnectOAuthStarted.Inc()
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     authorizeURL,
	})
}

// Callback handles GET /api/connect/callback. Stripe redirects the browser
// here after the user approves or denies the connection, so the response is a
// redirect back to the dashboard rather than a JSON envelope.
func (h *ConnectHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if stripeErr := query.Get("error"); stripeErr != "" {
		h.logger.Warn("connect oauth denied",
			"error", stripeErr,
			"description", query.Get("error_description"),
		)
		if telemetry.Business != nil {
			telemetry.Business.ConnectOAuthFailed.WithLabelValues("denied").Inc()
		}
		h.redirect(w, r, "stripe_error", stripeErr)
		return
	}

	account, err := h.connect.HandleCallback(r.Context(), query.Get("code"), query.Get("state"))
	if err != nil {
		h.logger.Error("connect oauth callback failed", "error", err)
		if telemetry.Business != nil {
			telemetry.Business.ConnectOAuthFailed.WithLabelValues(callbackFailureReason(err)).Inc()
		}
		h.redirect(w, r, "stripe_error", "connection_failed")
		return
	}

	h.logger.Info("connected account linked",
		"user_id", account.UserID,
		"stripe_account_id", account.StripeAccountID,
		"charges_enabled", account.ChargesEnabled,
	)
	if telemetry.Business != nil {
		telemetry.Business.ConnectOAuthCompleted.Inc()
	}

	h.redirect(w, r, "stripe_connected", "true")
}

// Account handles GET /api/connect/account.
func (h *ConnectHandler) Account(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handler.ErrorResponse(w, r, domain.Unauthorized("api.ConnectHandler.Account", "Authentication required"))
		return
	}

	account, err := h.connect.GetAccount(r.Context(), userID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"account": account,
	})
}

// redirect sends the browser back to the dashboard settings page with a
// single query flag describing the outcome.
func (h *ConnectHandler) redirect(w http.ResponseWriter, r *http.Request, key, value string) {
	target := h.dashboardURL + "/settings?" + url.Values{key: {value}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func callbackFailureReason(err error) string {
	switch {
	case domain.IsCode(err, domain.EINVALID):
		return "invalid_state"
	case domain.IsCode(err, domain.EPAYMENT):
		return "exchange_failed"
	default:
		return "internal"
	}
}
