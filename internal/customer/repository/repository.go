package repository

import (
	"context"
	"time"

	"ticket-office/backend/internal/customer/domain"
)

// Repository defines persistence for customers.
type Repository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	// GetBySecretKey resolves a ticket's customer_secret back to its holder.
	GetBySecretKey(ctx context.Context, secretKey string) (*domain.Customer, error)
	GetByResetToken(ctx context.Context, token string) (*domain.Customer, error)
	// SetResetToken stores the password-reset token and its expiry; an empty
	// token clears both.
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// UpdatePassword replaces the password hash and clears any reset token.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
