package repository

import (
	"context"
	"database/sql"
	"errors"

	"ticket-office/backend/internal/twofactor/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a challenge repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the challenge. The token must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Token) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO two_factor_tokens (id, email, code_hash, purpose, created_at, expires_at, consumed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Email, t.CodeHash, string(t.Purpose), t.CreatedAt, t.ExpiresAt, t.Consumed,
	)
	return err
}

// GetByID returns the challenge for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, code_hash, purpose, created_at, expires_at, consumed
		FROM two_factor_tokens WHERE id = $1`, id)
	var t domain.Token
	var purpose string
	err := row.Scan(&t.ID, &t.Email, &t.CodeHash, &purpose, &t.CreatedAt, &t.ExpiresAt, &t.Consumed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.Purpose = domain.Purpose(purpose)
	return &t, nil
}

// DeleteByEmailAndPurpose removes all challenges for (email, purpose).
func (r *PostgresRepository) DeleteByEmailAndPurpose(ctx context.Context, email string, purpose domain.Purpose) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM two_factor_tokens WHERE email = $1 AND purpose = $2`,
		email, string(purpose),
	)
	return err
}

// Consume marks the challenge consumed if it was not already. The conditional
// update is the single-use atomicity point under concurrent verification.
func (r *PostgresRepository) Consume(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE two_factor_tokens SET consumed = TRUE WHERE id = $1 AND consumed = FALSE`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes the challenge by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM two_factor_tokens WHERE id = $1`, id)
	return err
}
