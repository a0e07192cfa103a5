// Package handler exposes the offer catalog over HTTP. Listing and lookup are
// public; mutations are admin-gated at route registration.
package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"ticket-office/backend/internal/httpserver/respond"
	"ticket-office/backend/internal/offer/domain"
	"ticket-office/backend/internal/offer/repository"
)

type Handler struct {
	repo repository.Repository
}

// New returns an offer handler backed by the given repository.
func New(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

type offerResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Persons     int     `json:"persons"`
	Quantity    int     `json:"quantity"`
}

type offerRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Persons     int     `json:"persons"`
	Quantity    int     `json:"quantity"`
}

func toResponse(o *domain.Offer) offerResponse {
	return offerResponse{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		Price:       o.Price,
		Persons:     o.Persons,
		Quantity:    o.Quantity,
	}
}

// List handles GET /api/offers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	offers, err := h.repo.List(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not list offers.")
		return
	}
	out := make([]offerResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, toResponse(o))
	}
	respond.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/offers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	o, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not load offer.")
		return
	}
	if o == nil {
		respond.Error(w, http.StatusNotFound, "offer_not_found", "Offer not found.")
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(o))
}

// Create handles POST /api/offers (admin).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "Malformed request body.")
		return
	}
	now := time.Now().UTC()
	o := &domain.Offer{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Persons:     req.Persons,
		Quantity:    req.Quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := o.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_offer", err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), o); err != nil {
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not create offer.")
		return
	}
	respond.JSON(w, http.StatusCreated, toResponse(o))
}

// Update handles PUT /api/offers/{id} (admin).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not load offer.")
		return
	}
	if existing == nil {
		respond.Error(w, http.StatusNotFound, "offer_not_found", "Offer not found.")
		return
	}
	var req offerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "Malformed request body.")
		return
	}
	existing.Name = req.Name
	existing.Description = req.Description
	existing.Price = req.Price
	existing.Persons = req.Persons
	existing.Quantity = req.Quantity
	existing.UpdatedAt = time.Now().UTC()
	if err := existing.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_offer", err.Error())
		return
	}
	if err := h.repo.Update(r.Context(), existing); err != nil {
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not update offer.")
		return
	}
	respond.JSON(w, http.StatusOK, toResponse(existing))
}

// Delete handles DELETE /api/offers/{id} (admin).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.repo.Delete(r.Context(), id); err != nil {
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not delete offer.")
		return
	}
	respond.Message(w, "Offer deleted.")
}
