// Package handler exposes the gate flows (scan, validate) for staff and the
// own-ticket listing for customers.
package handler

import (
	"errors"
	"net/http"
	"time"

	"ticket-office/backend/internal/auth"
	"ticket-office/backend/internal/httpserver/respond"
	"ticket-office/backend/internal/ticket/domain"
	"ticket-office/backend/internal/ticket/service"
)

type Handler struct {
	svc *service.Service
}

// New returns a ticket handler backed by the given service.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type ticketResponse struct {
	ID             string    `json:"id"`
	SecretKey      string    `json:"secret_key"`
	EntriesAllowed int       `json:"entries_allowed"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type scanResponse struct {
	Ticket     ticketResponse `json:"ticket"`
	HolderID   string         `json:"holder_id"`
	HolderName string         `json:"holder_name"`
	Email      string         `json:"email"`
}

type ticketViewResponse struct {
	ticketResponse
	OfferName string  `json:"offer_name"`
	Amount    float64 `json:"amount"`
}

func toResponse(t *domain.Ticket) ticketResponse {
	return ticketResponse{
		ID:             t.ID,
		SecretKey:      t.SecretKey,
		EntriesAllowed: t.EntriesAllowed,
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt,
	}
}

type scanRequest struct {
	TicketSecret string `json:"ticket_secret"`
}

// Scan handles POST /api/tickets/scan (admin): resolves a gate-scanned ticket
// secret to the ticket and its holder.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "Malformed request body.")
		return
	}
	result, err := h.svc.Scan(r.Context(), req.TicketSecret)
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			respond.Error(w, http.StatusNotFound, "ticket_not_found", "Ticket not found.")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not scan ticket.")
		return
	}
	respond.JSON(w, http.StatusOK, scanResponse{
		Ticket:     toResponse(result.Ticket),
		HolderID:   result.Holder.ID,
		HolderName: result.Holder.FullName(),
		Email:      result.Holder.Email,
	})
}

type validateRequest struct {
	TicketSecret string `json:"ticket_secret"`
	CustomerID   string `json:"customer_id"`
}

// Validate handles POST /api/tickets/validate (admin): redeems an ACTIVE
// ticket for the presented holder.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "Malformed request body.")
		return
	}
	ticket, err := h.svc.Validate(r.Context(), req.TicketSecret, req.CustomerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			respond.Error(w, http.StatusNotFound, "ticket_not_found", "Ticket not found.")
		case errors.Is(err, service.ErrWrongHolder):
			respond.Error(w, http.StatusConflict, "wrong_holder", "Ticket does not belong to this customer.")
		case errors.Is(err, service.ErrTicketAlreadyUsed):
			respond.Error(w, http.StatusConflict, "ticket_used", "Ticket has already been used.")
		default:
			respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not validate ticket.")
		}
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(ticket))
}

// MyTickets handles GET /api/customers/me/tickets (customer).
func (h *Handler) MyTickets(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized", "Authentication required.")
		return
	}
	views, err := h.svc.ListForCustomer(r.Context(), p.Email)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not list tickets.")
		return
	}
	out := make([]ticketViewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, ticketViewResponse{
			ticketResponse: toResponse(&v.Ticket),
			OfferName:      v.OfferName,
			Amount:         v.Amount,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}
