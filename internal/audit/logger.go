// Package audit records business events (logins, payment transitions, ticket
// redemptions) for after-the-fact review. Recording is best-effort: an audit
// failure never fails the operation it describes.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ticket-office/backend/internal/audit/domain"
	auditrepo "ticket-office/backend/internal/audit/repository"
)

// SystemActor is the actor for events not tied to an authenticated principal,
// such as webhook-driven payment transitions.
const SystemActor = "system"

// Actions recorded by the service layer.
const (
	ActionLogin           = "login"
	ActionLoginVerified   = "login_verified"
	ActionPaymentSettled  = "payment_settled"
	ActionTicketIssued    = "ticket_issued"
	ActionTicketValidated = "ticket_validated"
)

// Logger writes audit events. Record is best-effort: failures are logged and
// do not affect the caller.
type Logger interface {
	Record(ctx context.Context, actor, action, resource, metadata string)
}

// StoreLogger implements Logger on top of the audit repository.
type StoreLogger struct {
	repo auditrepo.Repository
}

// NewLogger returns a Logger that persists to repo.
func NewLogger(repo auditrepo.Repository) *StoreLogger {
	return &StoreLogger{repo: repo}
}

// Record writes one audit entry. Errors are logged and swallowed.
func (l *StoreLogger) Record(ctx context.Context, actor, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	if actor == "" {
		actor = SystemActor
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    action,
		Resource:  resource,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"action":   action,
			"resource": resource,
		}).Warn("audit write failed")
	}
}

// Nop is a Logger that records nothing. Useful in tests and tooling.
type Nop struct{}

func (Nop) Record(ctx context.Context, actor, action, resource, metadata string) {}
