// Package api contains the JSON handlers behind the dashboard's
// authenticated API routes.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evanperkins/frontdesk/internal/domain"
	"github.com/evanperkins/frontdesk/internal/handler"
	"github.com/evanperkins/frontdesk/internal/middleware"
	"github.com/evanperkins/frontdesk/internal/service"
	"github.com/evanperkins/frontdesk/internal/telemetry"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// InvoiceHandler handles invoice creation, delivery and dashboard reads.
type InvoiceHandler struct {
	composer *service.Composer
	invoices domain.InvoiceService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(composer *service.Composer, invoices domain.InvoiceService, logger *slog.Logger) *InvoiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceHandler{
		composer: composer,
		invoices: invoices,
		validate: validator.New(),
		logger:   logger,
	}
}

type lineItemRequest struct {
	Description string          `json:"description"`
	Quantity    int32           `json:"quantity"`
	UnitAmount  decimal.Decimal `json:"unit_amount"`
}

type createInvoiceRequest struct {
	CustomerEmail string            `json:"customerEmail" validate:"omitempty,email"`
	CustomerName  string            `json:"customerName"`
	CustomerPhone string            `json:"customerPhone"`
	LineItems     []lineItemRequest `json:"lineItems"`
	DueDate       *time.Time        `json:"dueDate"`
	Notes         string            `json:"notes"`
	InquiryID     *uuid.UUID        `json:"inquiryId"`
	AppointmentID *uuid.UUID        `json:"appointmentId"`
	Send          bool              `json:"send"`
}

type sendInvoiceRequest struct {
	InvoiceID string `json:"invoiceId"`
}

// Create handles POST /api/invoices.
//
// The body carries the composed form; with "send": true the draft is
// delivered immediately after creation. When the send step fails the created
// draft persists and the caller retries delivery via the send endpoint.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handler.ErrorResponse(w, r, domain.Unauthorized("api.InvoiceHandler.Create", "Authentication required"))
		return
	}

	var req createInvoiceRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("api.InvoiceHandler.Create", "Customer email is not valid"))
		return
	}

	items := make([]domain.LineItem, len(req.LineItems))
	for i, li := range req.LineItems {
		items[i] = domain.LineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitAmount:  li.UnitAmount,
		}
	}

	params := domain.CreateInvoiceParams{
		UserID:        userID,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		LineItems:     items,
		DueDate:       req.DueDate,
		Notes:         req.Notes,
		InquiryID:     req.InquiryID,
		AppointmentID: req.AppointmentID,
	}

	var (
		inv *domain.Invoice
		err error
	)
	if req.Send {
		inv, err = h.composer.CreateAndSend(r.Context(), params)
	} else {
		inv, err = h.composer.CreateDraft(r.Context(), params)
	}
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	source := invoiceSource(inv)
	if telemetry.Business != nil {
		telemetry.Business.InvoicesCreated.WithLabelValues(source).Inc()
		telemetry.Business.InvoiceItems.Observe(float64(len(inv.LineItems)))
		totalCents, _ := inv.Total.Mul(decimal.NewFromInt(100)).Float64()
		telemetry.Business.InvoiceTotal.WithLabelValues(source).Observe(totalCents)
		if inv.Status == domain.InvoiceStatusSent {
			telemetry.Business.InvoicesSent.WithLabelValues(source).Inc()
		}
	}

	// "id" is the platform invoice id; the send endpoint takes exactly this
	// value back as invoiceId.
	handler.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"invoice": map[string]any{
			"id":          inv.StripeInvoiceID,
			"customer_id": inv.StripeCustomerID,
			"invoice_url": inv.InvoiceURL,
			"total":       inv.Total,
			"status":      inv.Status,
		},
	})
}

// Send handles POST /api/invoices/send. The body names the platform invoice
// id assigned at creation.
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handler.ErrorResponse(w, r, domain.Unauthorized("api.InvoiceHandler.Send", "Authentication required"))
		return
	}

	var req sendInvoiceRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if req.InvoiceID == "" {
		handler.ErrorResponse(w, r, domain.Invalid("api.InvoiceHandler.Send", "invoiceId is required"))
		return
	}

	inv, err := h.invoices.SendInvoice(r.Context(), userID, req.InvoiceID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.InvoicesSent.WithLabelValues(invoiceSource(inv)).Inc()
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"invoice": map[string]any{
			"id":          inv.StripeInvoiceID,
			"status":      inv.Status,
			"invoice_url": inv.InvoiceURL,
			"invoice_pdf": inv.InvoicePDF,
		},
	})
}

// Get handles GET /api/invoices/{id}.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handler.ErrorResponse(w, r, domain.Unauthorized("api.InvoiceHandler.Get", "Authentication required"))
		return
	}

	invoiceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.ErrInvoiceNotFound)
		return
	}

	inv, err := h.invoices.GetInvoice(r.Context(), userID, invoiceID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"invoice": inv,
	})
}

// List handles GET /api/invoices, newest first.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handler.ErrorResponse(w, r, domain.Unauthorized("api.InvoiceHandler.List", "Authentication required"))
		return
	}

	limit, offset := listRange(r)
	invoices, err := h.invoices.ListInvoices(r.Context(), userID, limit, offset)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"invoices": invoices,
	})
}

// invoiceSource labels where a composed invoice was seeded from.
func invoiceSource(inv *domain.Invoice) string {
	switch {
	case inv.InquiryID != nil:
		return "inquiry"
	case inv.AppointmentID != nil:
		return "appointment"
	default:
		return "manual"
	}
}

// listRange parses limit/offset query parameters with sane bounds.
func listRange(r *http.Request) (limit, offset int32) {
	limit = defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil && n > 0 {
			limit = int32(min(n, maxListLimit))
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil && n > 0 {
			offset = int32(n)
		}
	}
	return limit, offset
}
