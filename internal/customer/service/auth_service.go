// Package service implements customer account flows: registration, the
// two-step login (password, then emailed code), and password reset.
package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ticket-office/backend/internal/audit"
	customerdomain "ticket-office/backend/internal/customer/domain"
	"ticket-office/backend/internal/customer/repository"
	"ticket-office/backend/internal/notification"
	"ticket-office/backend/internal/security"
	"ticket-office/backend/internal/twofactor"
	twofactordomain "ticket-office/backend/internal/twofactor/domain"
)

// Sentinel errors for the customer auth service; handlers map them to HTTP codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrWeakPassword           = errors.New("password must be at least 8 characters with upper, lower, and digit")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidResetToken      = errors.New("invalid reset token")
)

// LoginStart is the outcome of a successful password check: a pending
// two-factor challenge, no session token yet.
type LoginStart struct {
	Email       string
	FullName    string
	ChallengeID string
}

// AuthResult is the outcome of a verified login.
type AuthResult struct {
	Token    string
	Email    string
	FullName string
}

// resetTokenTTL bounds how long a password-reset link stays usable; the
// forgot-password email promises the same window.
const resetTokenTTL = 15 * time.Minute

// AuthService implements customer registration, two-step login, and password reset.
type AuthService struct {
	repo         repository.Repository
	twoFactor    *twofactor.Service
	hasher       *security.Hasher
	tokens       *security.TokenProvider
	notifier     notification.Notifier
	audit        audit.Logger
	frontendURL  string
	appName      string
	supportEmail string
	now          func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	repo repository.Repository,
	twoFactor *twofactor.Service,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	notifier notification.Notifier,
	auditLog audit.Logger,
	frontendURL, appName, supportEmail string,
) *AuthService {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &AuthService{
		repo:         repo,
		twoFactor:    twoFactor,
		hasher:       hasher,
		tokens:       tokens,
		notifier:     notifier,
		audit:        auditLog,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		appName:      appName,
		supportEmail: supportEmail,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a customer account with a fresh stable secret key.
func (s *AuthService) Register(ctx context.Context, firstName, lastName, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return errors.New("invalid email")
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailAlreadyRegistered
	}
	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return err
	}
	c := &customerdomain.Customer{
		ID:           uuid.New().String(),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Email:        email,
		PasswordHash: hash,
		SecretKey:    uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	log.WithField("email", email).Info("customer registered")
	return nil
}

// Login checks the password and, on success, starts a two-factor challenge.
// The session token is only issued by VerifyLogin.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginStart, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if c == nil {
		log.WithField("email", email).Warn("login attempt with unknown email")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(c.PasswordHash, []byte(password)); err != nil {
		log.WithField("email", email).Warn("invalid password")
		return nil, ErrInvalidCredentials
	}
	challengeID, err := s.twoFactor.Start(ctx, c.Email, c.FirstName, twofactordomain.PurposeCustomer)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, c.Email, audit.ActionLogin, "customer_session", "challenge issued")
	return &LoginStart{Email: c.Email, FullName: c.FullName(), ChallengeID: challengeID}, nil
}

// VerifyLogin completes the second login step and issues the session token.
func (s *AuthService) VerifyLogin(ctx context.Context, challengeID, code string) (*AuthResult, error) {
	email, err := s.twoFactor.Verify(ctx, challengeID, code, twofactordomain.PurposeCustomer)
	if err != nil {
		if errors.Is(err, twofactor.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrInvalidCredentials
	}
	token, _, err := s.tokens.Issue(c.Email, security.RoleCustomer, c.ID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, c.Email, audit.ActionLoginVerified, "customer_session", "")
	return &AuthResult{Token: token, Email: c.Email, FullName: c.FullName()}, nil
}

// ForgotPassword stores a time-limited reset token on the account and emails
// a reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if c == nil {
		log.WithField("email", email).Warn("password reset requested for unknown email")
		return ErrUserNotFound
	}
	token := uuid.New().String()
	if err := s.repo.SetResetToken(ctx, c.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return err
	}
	resetURL := s.frontendURL + "/reset-password?token=" + token
	err = s.notifier.Send(ctx, notification.Message{
		To:       c.Email,
		Subject:  "Password reset - " + s.appName,
		Template: "forgot-password",
		Vars: map[string]any{
			"name":              c.FirstName,
			"resetUrl":          resetURL,
			"expirationMinutes": int(resetTokenTTL.Minutes()),
			"supportEmail":      s.supportEmail,
			"appName":           s.appName,
		},
	})
	if err != nil {
		return err
	}
	log.WithField("email", c.Email).Info("password reset email sent")
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidResetToken
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	c, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if c == nil {
		log.Warn("password reset attempted with invalid token")
		return ErrInvalidResetToken
	}
	if c.ResetTokenExpiresAt.IsZero() || s.now().After(c.ResetTokenExpiresAt) {
		log.WithField("email", c.Email).Warn("password reset attempted with expired token")
		return ErrInvalidResetToken
	}
	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, c.ID, hash); err != nil {
		return err
	}
	log.WithField("email", c.Email).Info("password reset")
	return nil
}

// GetByEmail returns the customer for email, or nil. Used by handlers that
// already hold an authenticated principal.
func (s *AuthService) GetByEmail(ctx context.Context, email string) (*customerdomain.Customer, error) {
	return s.repo.GetByEmail(ctx, email)
}

// validatePassword enforces the password policy: at least 8 characters with
// an upper-case letter, a lower-case letter, and a digit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}
