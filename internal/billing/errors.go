package billing

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
)

var (
	// ErrInvalidWebhookSignature is returned when webhook signature verification fails.
	ErrInvalidWebhookSignature = errors.New("billing: invalid webhook signature")

	// ErrCustomerNotFound is returned when a customer lookup by id fails.
	ErrCustomerNotFound = errors.New("billing: customer not found")

	// ErrAccountNotFound is returned when the connected account does not exist.
	ErrAccountNotFound = errors.New("billing: connected account not found")
)

// StripeError wraps a Stripe API error with the fields callers care about.
// The message is passed through verbatim to the caller; nothing is retried.
type StripeError struct {
	Message       string // Human-readable error message from Stripe
	Code          string // Stripe error code (e.g., "invoice_not_editable")
	RequestID     string // Stripe request ID for debugging
	OriginalError error  // Original error from the Stripe SDK
}

func (e *StripeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: %s", e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.OriginalError
}

// wrapStripeError converts an SDK error into a *StripeError, preserving the
// platform's message verbatim.
func wrapStripeError(err error) error {
	if err == nil {
		return nil
	}

	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		return &StripeError{
			Message:       sErr.Msg,
			Code:          string(sErr.Code),
			RequestID:     sErr.RequestID,
			OriginalError: err,
		}
	}

	return &StripeError{
		Message:       err.Error(),
		OriginalError: err,
	}
}
