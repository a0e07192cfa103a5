// Package service implements the two-step admin login.
package service

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"ticket-office/backend/internal/admin/repository"
	"ticket-office/backend/internal/audit"
	"ticket-office/backend/internal/security"
	"ticket-office/backend/internal/twofactor"
	twofactordomain "ticket-office/backend/internal/twofactor/domain"
)

// ErrInvalidCredentials covers every admin login failure mode.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginStart is the outcome of a successful password check.
type LoginStart struct {
	Email       string
	FullName    string
	ChallengeID string
}

// AuthResult is the outcome of a verified admin login.
type AuthResult struct {
	Token    string
	Email    string
	FullName string
}

// AuthService implements the two-step admin login.
type AuthService struct {
	repo      repository.Repository
	twoFactor *twofactor.Service
	hasher    *security.Hasher
	tokens    *security.TokenProvider
	audit     audit.Logger
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(repo repository.Repository, twoFactor *twofactor.Service, hasher *security.Hasher, tokens *security.TokenProvider, auditLog audit.Logger) *AuthService {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &AuthService{repo: repo, twoFactor: twoFactor, hasher: hasher, tokens: tokens, audit: auditLog}
}

// Login checks the password and starts an ADMIN two-factor challenge.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginStart, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if a == nil {
		log.WithField("email", email).Warn("admin login attempt with unknown email")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(a.PasswordHash, []byte(password)); err != nil {
		log.WithField("email", email).Warn("invalid admin password")
		return nil, ErrInvalidCredentials
	}
	challengeID, err := s.twoFactor.Start(ctx, a.Email, a.FullName, twofactordomain.PurposeAdmin)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, a.Email, audit.ActionLogin, "admin_session", "challenge issued")
	return &LoginStart{Email: a.Email, FullName: a.FullName, ChallengeID: challengeID}, nil
}

// VerifyLogin completes the second step and issues the admin session token.
func (s *AuthService) VerifyLogin(ctx context.Context, challengeID, code string) (*AuthResult, error) {
	email, err := s.twoFactor.Verify(ctx, challengeID, code, twofactordomain.PurposeAdmin)
	if err != nil {
		if errors.Is(err, twofactor.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrInvalidCredentials
	}
	token, _, err := s.tokens.Issue(a.Email, security.RoleAdmin, a.ID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, a.Email, audit.ActionLoginVerified, "admin_session", "")
	return &AuthResult{Token: token, Email: a.Email, FullName: a.FullName}, nil
}
