// Package routes wires handlers onto the router.
package routes

import (
	"net/http"

	"github.com/evanperkins/frontdesk/internal/handler/api"
	"github.com/evanperkins/frontdesk/internal/router"
)

// APIDeps contains dependencies for the authenticated dashboard API routes
type APIDeps struct {
	InvoiceHandler *api.InvoiceHandler
	ConnectHandler *api.ConnectHandler
	SourceHandler  *api.SourceHandler

	// RequireUser resolves the acting user from the bearer token.
	RequireUser router.Middleware
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	StripeHandler http.HandlerFunc
}

// MetricsDeps contains dependencies for the operational routes
type MetricsDeps struct {
	MetricsHandler http.Handler
}
