package repository

import (
	"context"

	"ticket-office/backend/internal/offer/domain"
)

// Repository defines persistence for offers.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Offer, error)
	List(ctx context.Context) ([]*domain.Offer, error)
	Create(ctx context.Context, o *domain.Offer) error
	Update(ctx context.Context, o *domain.Offer) error
	Delete(ctx context.Context, id string) error
}
