// Package handler provides shared HTTP response helpers for the API and
// webhook handlers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/evanperkins/frontdesk/internal/domain"
	"github.com/evanperkins/frontdesk/internal/middleware"
	"github.com/evanperkins/frontdesk/internal/telemetry"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse writes the error envelope `{"success":false,"error":...}`
// with the status derived from the domain error code. Internal error details
// never reach the client; they are logged here instead.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"op", domain.ErrorOp(err),
			"error", err,
		)
		extras := map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"op":     domain.ErrorOp(err),
		}
		if userID, ok := middleware.GetUserID(r.Context()); ok {
			telemetry.CaptureErrorWithUser(err, userID.String(), extras)
		} else {
			telemetry.CaptureErrorFromContext(r.Context(), err, extras)
		}
	}

	JSON(w, status, map[string]any{
		"success": false,
		"error":   domain.ErrorMessage(err),
	})
}

// JSON writes v as a JSON response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Decode reads a JSON request body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("", "Request body is not valid JSON")
	}
	return nil
}
