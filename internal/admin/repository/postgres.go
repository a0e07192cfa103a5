package repository

import (
	"context"
	"database/sql"
	"errors"

	"ticket-office/backend/internal/admin/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an admin repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the admin. The admin must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Admin) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash, full_name, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Email, a.PasswordHash, a.FullName, a.CreatedAt,
	)
	return err
}

// GetByEmail returns the admin with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, created_at FROM admins WHERE email = $1`, email)
	var a domain.Admin
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
