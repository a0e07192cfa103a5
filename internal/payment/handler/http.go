// Package handler exposes checkout, the provider webhook, and the payment
// status poll over HTTP.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"ticket-office/backend/internal/auth"
	"ticket-office/backend/internal/httpserver/respond"
	"ticket-office/backend/internal/payment/service"
	"ticket-office/backend/internal/payment/stripe"
)

// maxWebhookBody caps provider payloads; real events are a few KB.
const maxWebhookBody = 1 << 20

type Handler struct {
	svc *service.Service
}

// New returns a payment handler backed by the given service.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type checkoutRequest struct {
	OfferID string `json:"offer_id"`
}

type checkoutResponse struct {
	TransactionID string `json:"transaction_id"`
	SessionID     string `json:"session_id"`
	RedirectURL   string `json:"redirect_url"`
}

// Checkout handles POST /api/payments/checkout (customer).
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized", "Authentication required.")
		return
	}
	var req checkoutRequest
	if err := respond.Decode(r, &req); err != nil || req.OfferID == "" {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "offer_id is required.")
		return
	}
	checkout, err := h.svc.StartCheckout(r.Context(), p.UID, req.OfferID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOfferNotFound):
			respond.Error(w, http.StatusBadRequest, "offer_not_found", "Offer not found.")
		case errors.Is(err, service.ErrCustomerNotFound):
			respond.Error(w, http.StatusBadRequest, "customer_not_found", "Customer account not found.")
		default:
			respond.Error(w, http.StatusBadGateway, "checkout_failed", "Could not start checkout.")
		}
		return
	}
	respond.JSON(w, http.StatusOK, checkoutResponse{
		TransactionID: checkout.TransactionID,
		SessionID:     checkout.SessionID,
		RedirectURL:   checkout.RedirectURL,
	})
}

// Webhook handles POST /api/payments/webhook. The provider retries on
// non-2xx: signature and parse failures answer 400, store failures answer 500
// so the delivery comes back, and everything else is acknowledged with the
// literal body "Received".
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "Could not read payload.")
		return
	}
	if err := h.svc.ProcessWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		if errors.Is(err, stripe.ErrBadSignature) || errors.Is(err, stripe.ErrBadPayload) {
			respond.Error(w, http.StatusBadRequest, "invalid_webhook", "Webhook rejected.")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "webhook_failed", "Could not process webhook.")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Received"))
}

type statusResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// Status handles GET /api/payments/status/{session_id}.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	txn, err := h.svc.StatusBySession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			respond.Error(w, http.StatusNotFound, "session_not_found", "No payment for that session.")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not load payment status.")
		return
	}
	respond.JSON(w, http.StatusOK, statusResponse{SessionID: txn.StripeSessionID, Status: string(txn.Status)})
}
