package repository

import (
	"context"

	"ticket-office/backend/internal/admin/domain"
)

// Repository defines persistence for admin accounts.
type Repository interface {
	Create(ctx context.Context, a *domain.Admin) error
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
}
