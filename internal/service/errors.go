package service

import (
	"errors"

	"github.com/evanperkins/frontdesk/internal/billing"
	"github.com/evanperkins/frontdesk/internal/domain"
)

// Composition and connect errors - invoice lifecycle errors live in domain.
var (
	ErrInquiryNotFound      = domain.Errorf(domain.ENOTFOUND, "", "Inquiry not found")
	ErrAppointmentNotFound  = domain.Errorf(domain.ENOTFOUND, "", "Appointment not found")
	ErrInvalidOAuthState    = domain.Errorf(domain.EINVALID, "", "OAuth state is missing or invalid")
	ErrConnectNotConfigured = domain.Errorf(domain.EINTERNAL, "", "Connect OAuth is not configured")
)

// paymentError wraps a billing provider failure as an EPAYMENT domain error.
// Platform error messages pass through verbatim so the dashboard can show
// what the platform rejected.
func paymentError(op string, err error) error {
	var stripeErr *billing.StripeError
	if errors.As(err, &stripeErr) && stripeErr.Message != "" {
		return &domain.Error{Code: domain.EPAYMENT, Op: op, Message: stripeErr.Message, Err: err}
	}
	return &domain.Error{Code: domain.EPAYMENT, Op: op, Message: "Payment platform request failed", Err: err}
}
