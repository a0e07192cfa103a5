package twofactor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ticket-office/backend/internal/notification"
	"ticket-office/backend/internal/twofactor/domain"
	"ticket-office/backend/internal/twofactor/repository"
)

// ErrInvalidCredentials is the single failure mode Verify exposes. Absent,
// consumed, expired, wrong-purpose, and wrong-code challenges are
// indistinguishable to the caller: verification is an authentication boundary
// and detailed failures would aid enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service issues challenges and verifies caller-supplied codes against them.
type Service struct {
	repo     repository.Repository
	notifier notification.Notifier
	ttl      time.Duration
	appName  string
	now      func() time.Time
}

// NewService returns a Service with the given dependencies. ttl <= 0 falls
// back to the default challenge TTL.
func NewService(repo repository.Repository, notifier notification.Notifier, ttl time.Duration, appName string) *Service {
	if ttl <= 0 {
		ttl = repository.DefaultChallengeTTL
	}
	return &Service{repo: repo, notifier: notifier, ttl: ttl, appName: appName, now: func() time.Time { return time.Now().UTC() }}
}

// Start creates a fresh challenge for (email, purpose), invalidating any prior
// one for that pair, and emails the code to the identity's address. Only the
// opaque challenge id is returned; the code never leaves the server except by
// email.
func (s *Service) Start(ctx context.Context, email, displayName string, purpose domain.Purpose) (string, error) {
	if err := s.repo.DeleteByEmailAndPurpose(ctx, email, purpose); err != nil {
		return "", err
	}

	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	now := s.now()
	token := &domain.Token{
		ID:        uuid.New().String(),
		Email:     email,
		CodeHash:  HashCode(code),
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Consumed:  false,
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return "", err
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = email
	}
	err = s.notifier.Send(ctx, notification.Message{
		To:       email,
		Subject:  "Verification code - " + s.appName,
		Template: "two-factor-code",
		Vars: map[string]any{
			"name":              name,
			"code":              code,
			"expirationMinutes": int(s.ttl.Minutes()),
			"appName":           s.appName,
		},
	})
	if err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"email":      email,
		"purpose":    purpose,
		"expires_at": token.ExpiresAt,
	}).Info("two-factor challenge created")
	return token.ID, nil
}

// Verify checks the supplied code against the challenge and consumes it on
// success, returning the bound email so the caller can issue the session
// credential. Every failure mode returns ErrInvalidCredentials.
func (s *Service) Verify(ctx context.Context, challengeID, code string, purpose domain.Purpose) (string, error) {
	if strings.TrimSpace(challengeID) == "" || strings.TrimSpace(code) == "" {
		return "", ErrInvalidCredentials
	}

	token, err := s.repo.GetByID(ctx, challengeID)
	if err != nil {
		return "", err
	}
	if token == nil || token.Consumed || token.Purpose != purpose {
		return "", ErrInvalidCredentials
	}
	if token.ExpiresAt.Before(s.now()) {
		return "", ErrInvalidCredentials
	}
	if !CodeEqual(strings.TrimSpace(code), token.CodeHash) {
		return "", ErrInvalidCredentials
	}

	// Conditional consumption wins the race between concurrent verifiers;
	// deletion afterwards is defense in depth against reuse.
	consumed, err := s.repo.Consume(ctx, challengeID)
	if err != nil {
		return "", err
	}
	if !consumed {
		return "", ErrInvalidCredentials
	}
	if err := s.repo.Delete(ctx, challengeID); err != nil {
		log.WithError(err).WithField("challenge_id", challengeID).Warn("failed to delete consumed challenge")
	}

	log.WithFields(log.Fields{
		"email":   token.Email,
		"purpose": purpose,
	}).Info("two-factor challenge verified")
	return token.Email, nil
}
