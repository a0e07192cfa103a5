package repository

import (
	"context"
	"time"

	"ticket-office/backend/internal/twofactor/domain"
)

// Repository defines persistence for two-factor challenges. No other component
// mutates two_factor_tokens rows.
type Repository interface {
	Create(ctx context.Context, t *domain.Token) error
	GetByID(ctx context.Context, id string) (*domain.Token, error)
	// DeleteByEmailAndPurpose removes all challenges for (email, purpose) so a
	// fresh challenge supersedes older codes.
	DeleteByEmailAndPurpose(ctx context.Context, email string, purpose domain.Purpose) error
	// Consume flips consumed from false to true. Returns false if the row was
	// missing or already consumed, so only one verifier can win.
	Consume(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// DefaultChallengeTTL is the default challenge expiry.
const DefaultChallengeTTL = 5 * time.Minute
