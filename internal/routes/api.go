package routes

import (
	"github.com/evanperkins/frontdesk/internal/router"
)

// RegisterAPIRoutes registers the authenticated dashboard API routes. The
// Connect OAuth callback is the one unauthenticated route here: Stripe
// redirects the browser to it and the user id travels as OAuth state.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	r.Get("/api/connect/callback", deps.ConnectHandler.Callback)

	authed := r.Group(deps.RequireUser)

	// Invoices
	authed.Post("/api/invoices", deps.InvoiceHandler.Create)
	authed.Post("/api/invoices/send", deps.InvoiceHandler.Send)
	authed.Get("/api/invoices", deps.InvoiceHandler.List)
	authed.Get("/api/invoices/{id}", deps.InvoiceHandler.Get)

	// Connect
	authed.Post("/api/connect/oauth", deps.ConnectHandler.OAuth)
	authed.Get("/api/connect/account", deps.ConnectHandler.Account)

	// Composition sources
	authed.Get("/api/inquiries", deps.SourceHandler.ListInquiries)
	authed.Get("/api/inquiries/{id}/compose", deps.SourceHandler.ComposeFromInquiry)
	authed.Get("/api/appointments", deps.SourceHandler.ListAppointments)
	authed.Get("/api/appointments/{id}/compose", deps.SourceHandler.ComposeFromAppointment)
}
