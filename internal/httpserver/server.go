// Package httpserver assembles the HTTP API: routes, auth gating, logging,
// and metrics. Role guards are applied here, at registration, so a reader can
// see the whole authorization surface in one place.
package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "ticket-office/backend/internal/admin/handler"
	"ticket-office/backend/internal/auth"
	customerhandler "ticket-office/backend/internal/customer/handler"
	"ticket-office/backend/internal/httpserver/respond"
	offerhandler "ticket-office/backend/internal/offer/handler"
	paymenthandler "ticket-office/backend/internal/payment/handler"
	"ticket-office/backend/internal/security"
	tickethandler "ticket-office/backend/internal/ticket/handler"
)

// Handlers groups the per-domain HTTP handlers the router mounts.
type Handlers struct {
	Offers    *offerhandler.Handler
	Customers *customerhandler.Handler
	Admins    *adminhandler.Handler
	Payments  *paymenthandler.Handler
	Tickets   *tickethandler.Handler
}

// NewRouter builds the full route table.
func NewRouter(tokens *security.TokenProvider, h Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)
	r.Use(auth.Middleware(tokens))

	r.HandleFunc("/healthz", health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Public catalog.
	api.HandleFunc("/offers", h.Offers.List).Methods(http.MethodGet)
	api.HandleFunc("/offers/{id}", h.Offers.Get).Methods(http.MethodGet)

	// Catalog management (admin).
	api.HandleFunc("/offers", auth.Require(auth.IsAdmin, h.Offers.Create)).Methods(http.MethodPost)
	api.HandleFunc("/offers/{id}", auth.Require(auth.IsAdmin, h.Offers.Update)).Methods(http.MethodPut)
	api.HandleFunc("/offers/{id}", auth.Require(auth.IsAdmin, h.Offers.Delete)).Methods(http.MethodDelete)

	// Customer accounts.
	api.HandleFunc("/customers/register", h.Customers.Register).Methods(http.MethodPost)
	api.HandleFunc("/customers/login", h.Customers.Login).Methods(http.MethodPost)
	api.HandleFunc("/customers/login/verify", h.Customers.Verify).Methods(http.MethodPost)
	api.HandleFunc("/customers/forgot-password", h.Customers.ForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/customers/reset-password", h.Customers.ResetPassword).Methods(http.MethodPost)
	api.HandleFunc("/customers/me", auth.Require(auth.IsCustomer, h.Customers.Me)).Methods(http.MethodGet)
	api.HandleFunc("/customers/me/tickets", auth.Require(auth.IsCustomer, h.Tickets.MyTickets)).Methods(http.MethodGet)

	// Admin accounts.
	api.HandleFunc("/admins/login", h.Admins.Login).Methods(http.MethodPost)
	api.HandleFunc("/admins/login/verify", h.Admins.Verify).Methods(http.MethodPost)
	api.HandleFunc("/admins/me", auth.Require(auth.IsAdmin, h.Admins.Me)).Methods(http.MethodGet)

	// Payments. The webhook is authenticated by its signature, not a session.
	api.HandleFunc("/payments/checkout", auth.Require(auth.IsCustomer, h.Payments.Checkout)).Methods(http.MethodPost)
	api.HandleFunc("/payments/webhook", h.Payments.Webhook).Methods(http.MethodPost)
	api.HandleFunc("/payments/status/{session_id}", h.Payments.Status).Methods(http.MethodGet)

	// Gate (admin).
	api.HandleFunc("/tickets/scan", auth.Require(auth.IsAdmin, h.Tickets.Scan)).Methods(http.MethodPost)
	api.HandleFunc("/tickets/validate", auth.Require(auth.IsAdmin, h.Tickets.Validate)).Methods(http.MethodPost)

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
