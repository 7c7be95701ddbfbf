package domain

import (
	"time"

	"github.com/google/uuid"
)

// Inquiry is an AI-processed phone inquiry. The invoice composition flow can
// seed customer fields and a default line item from one.
type Inquiry struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	CustomerName  string    `json:"customer_name,omitempty"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	InquiryType   string    `json:"inquiry_type,omitempty"`
	Description   string    `json:"description,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Appointment is a scheduled service visit. quoted_price is free text as
// captured from the call ("$150", "about 200 dollars"); the composer parses
// it strictly and falls back to zero when it is ambiguous.
type Appointment struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	CustomerName       string    `json:"customer_name"`
	CustomerPhone      string    `json:"customer_phone,omitempty"`
	CustomerEmail      string    `json:"customer_email,omitempty"`
	ServiceType        string    `json:"service_type,omitempty"`
	ServiceDescription string    `json:"service_description,omitempty"`
	QuotedPrice        string    `json:"quoted_price,omitempty"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}
