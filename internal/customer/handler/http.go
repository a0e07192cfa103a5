// Package handler exposes customer account endpoints over HTTP.
package handler

import (
	"errors"
	"net/http"

	"ticket-office/backend/internal/auth"
	"ticket-office/backend/internal/customer/service"
	"ticket-office/backend/internal/httpserver/respond"
	"ticket-office/backend/internal/twofactor"
)

type Handler struct {
	svc *service.AuthService
}

// New returns a customer handler backed by the given auth service.
func New(svc *service.AuthService) *Handler {
	return &Handler{svc: svc}
}

// authResponse is the two-step login envelope. After the password step the
// token is absent and twoFactorRequired is true; after verification the token
// is present and challengeId is null.
type authResponse struct {
	Token             *string `json:"token"`
	Email             string  `json:"email"`
	FullName          string  `json:"fullName"`
	TwoFactorRequired bool    `json:"twoFactorRequired"`
	ChallengeID       *string `json:"challengeId"`
}

// Register handles POST /api/customers/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "Malformed request body.")
		return
	}
	err := h.svc.Register(r.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	switch {
	case err == nil:
		respond.Message(w, "Account created.")
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		respond.Error(w, http.StatusBadRequest, "email_taken", "This email is already registered.")
	case errors.Is(err, service.ErrWeakPassword):
		respond.Error(w, http.StatusBadRequest, "weak_password", err.Error())
	default:
		respond.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
	}
}

// Login handles POST /api/customers/login (password step).
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

// Verify handles POST /api/customers/login/verify (code step).
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
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, twofactor.ErrInvalidCredentials) {
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

// ForgotPassword handles POST /api/customers/forgot-password.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "Malformed request body.")
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respond.Error(w, http.StatusBadRequest, "user_not_found", "No account with this email.")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not send reset email.")
		return
	}
	respond.Message(w, "Password reset email sent.")
}

// ResetPassword handles POST /api/customers/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "Malformed request body.")
		return
	}
	err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword)
	switch {
	case err == nil:
		respond.Message(w, "Password updated.")
	case errors.Is(err, service.ErrInvalidResetToken):
		respond.Error(w, http.StatusBadRequest, "invalid_token", "Invalid or expired reset token.")
	case errors.Is(err, service.ErrWeakPassword):
		respond.Error(w, http.StatusBadRequest, "weak_password", err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal_error", "Could not reset password.")
	}
}

// Me handles GET /api/customers/me (customer-gated).
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	c, err := h.svc.GetByEmail(r.Context(), p.Email)
	if err != nil || c == nil {
		respond.Error(w, http.StatusUnauthorized, "unauthorized", "Account not found.")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{
		"id":        c.ID,
		"firstname": c.FirstName,
		"lastname":  c.LastName,
		"email":     c.Email,
	})
}
