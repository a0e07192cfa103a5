package repository

import (
	"context"

	"ticket-office/backend/internal/payment/domain"
)

// Repository defines persistence for payment transactions. Rows are created at
// checkout, mutated only by the payment event processor, and never deleted.
type Repository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Transaction, error)
	// SetSessionID attaches the provider session handle after session creation.
	SetSessionID(ctx context.Context, id, sessionID string) error
	// TransitionStatus writes the given status unless the row already holds it
	// or is already PAID. Returns false without error when nothing changed, so
	// duplicate deliveries and late failure events are no-ops while a delayed
	// success can still settle a transaction previously marked FAILED.
	TransitionStatus(ctx context.Context, id string, to domain.Status) (bool, error)
}
