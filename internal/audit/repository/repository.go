package repository

import (
	"context"

	"ticket-office/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListRecent returns the newest entries, capped at limit.
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error)
}
