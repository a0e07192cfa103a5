package repository

import (
	"context"

	"ticket-office/backend/internal/ticket/domain"
)

// Repository defines persistence for tickets. Insert is the fulfillment
// atomicity point: the unique transaction_id constraint guarantees at most one
// ticket per transaction no matter how many webhook deliveries race.
type Repository interface {
	// Insert writes the ticket unless one already exists for its transaction.
	// Returns false without error when a concurrent insert won; callers then
	// re-read the winner with FindByTransactionID.
	Insert(ctx context.Context, t *domain.Ticket) (bool, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Ticket, error)
	GetBySecretKey(ctx context.Context, secretKey string) (*domain.Ticket, error)
	ExistsBySecretKey(ctx context.Context, secretKey string) (bool, error)
	// ListByCustomerSecret returns the holder's tickets with their transaction
	// snapshots, newest first.
	ListByCustomerSecret(ctx context.Context, customerSecret string) ([]*domain.View, error)
	// MarkUsed flips an ACTIVE ticket to USED. Returns false without error when
	// the ticket was absent or already used.
	MarkUsed(ctx context.Context, id string) (bool, error)
}
