package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/evanperkins/frontdesk/internal/domain"
	"github.com/evanperkins/frontdesk/internal/handler"
	"github.com/evanperkins/frontdesk/internal/middleware"
	"github.com/evanperkins/frontdesk/internal/repository"
	"github.com/evanperkins/frontdesk/internal/service"
)

// SourceHandler serves the records the invoice composition dialog reads:
// inquiries, appointments, and the pre-populated form seeds built from them.
type SourceHandler struct {
	repo     repository.Querier
	composer *service.Composer
	logger   *slog.Logger
}

// NewSourceHandler creates a new source handler
func NewSourceHandler(repo repository.Querier, composer *service.Composer, logger *slog.Logger) *SourceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceHandler{
		repo:     repo,
		composer: composer,
		logger:   logger,
	}
}

// ListInquiries handles GET /api/inquiries.
func (h *SourceHandler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handler.ErrorResponse(w, r, domain.Unauthorized("api.SourceHandler.ListInquiries", "Authentication required"))
		return
	}

	limit, offset := listRange(r)
	inquiries, err := h.repo.ListInquiriesForUser(r.Context(), repository.ListInquiriesForUserParams{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		handler.ErrorResponse(w, r, domain.Internal(err, "api.SourceHandler.ListInquiries", "Failed to list inquiries"))
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"inquiries": inquiries,
	})
}

// ListAppointments handles GET /api/appointments.
func (h *SourceHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handler.ErrorResponse(w, r, domain.Unauthorized("api.SourceHandler.ListAppointments", "Authentication required"))
		return
	}

	limit, offset := listRange(r)
	appointments, err := h.repo.ListAppointmentsForUser(r.Context(), repository.ListAppointmentsForUserParams{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		handler.ErrorResponse(w, r, domain.Internal(err, "api.SourceHandler.ListAppointments", "Failed to list appointments"))
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"appointments": appointments,
	})
}

// ComposeFromInquiry handles GET /api/inquiries/{id}/compose and returns the
// pre-populated invoice form seed.
func (h *SourceHandler) ComposeFromInquiry(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handler.ErrorResponse(w, r, domain.Unauthorized("api.SourceHandler.ComposeFromInquiry", "Authentication required"))
		return
	}

	inquiryID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, service.ErrInquiryNotFound)
		return
	}

	seed, err := h.composer.SeedFromInquiry(r.Context(), userID, inquiryID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"seed":    seed,
	})
}

// ComposeFromAppointment handles GET /api/appointments/{id}/compose.
func (h *SourceHandler) ComposeFromAppointment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handler.ErrorResponse(w, r, domain.Unauthorized("api.SourceHandler.ComposeFromAppointment", "Authentication required"))
		return
	}

	appointmentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, service.ErrAppointmentNotFound)
		return
	}

	seed, err := h.composer.SeedFromAppointment(r.Context(), userID, appointmentID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"seed":    seed,
	})
}
