// Package handler exposes admin authentication endpoints over HTTP.
package handler

import (
	"errors"
	"net/http"

	"ticket-office/backend/internal/admin/service"
	"ticket-office/backend/internal/auth"
	"ticket-office/backend/internal/httpserver/respond"
)

type Handler struct {
	svc *service.AuthService
}

// New returns an admin handler backed by the given auth service.
func New(svc *service.AuthService) *Handler {
	return &Handler{svc: svc}
}

type authResponse struct {
	Token             *string `json:"token"`
	Email             string  `json:"email"`
	FullName          string  `json:"fullName"`
	TwoFactorRequired bool    `json:"twoFactorRequired"`
	ChallengeID       *string `json:"challengeId"`
}

// Login handles POST /api/admins/login (password step).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "Malformed request body.")
		return
	}
	start, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password.")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Login failed.")
		return
	}
	respond.JSON(w, http.StatusOK, authResponse{
		Email:             start.Email,
		FullName:          start.FullName,
		TwoFactorRequired: true,
		ChallengeID:       &start.ChallengeID,
	})
}

// Verify handles POST /api/admins/login/verify (code step).
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChallengeID string `json:"challengeId"`
		Code        string `json:"code"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "Malformed request body.")
		return
	}
	res, err := h.svc.VerifyLogin(r.Context(), req.ChallengeID, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials.")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Verification failed.")
		return
	}
	respond.JSON(w, http.StatusOK, authResponse{
		Token:             &res.Token,
		Email:             res.Email,
		FullName:          res.FullName,
		TwoFactorRequired: false,
		ChallengeID:       nil,
	})
}

// Me handles GET /api/admins/me (admin-gated).
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	respond.JSON(w, http.StatusOK, map[string]string{
		"email": p.Email,
		"role":  p.Role,
	})
}
