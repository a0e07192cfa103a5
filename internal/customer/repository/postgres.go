package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ticket-office/backend/internal/customer/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a customer repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const customerColumns = `id, first_name, last_name, email, password_hash, secret_key, reset_token, reset_token_expires_at, created_at`

// Create persists the customer. The customer must have ID and SecretKey set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Customer) error {
	reset := sql.NullString{String: c.ResetToken, Valid: c.ResetToken != ""}
	expires := sql.NullTime{Time: c.ResetTokenExpiresAt, Valid: !c.ResetTokenExpiresAt.IsZero()}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, first_name, last_name, email, password_hash, secret_key, reset_token, reset_token_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.FirstName, c.LastName, c.Email, c.PasswordHash, c.SecretKey, reset, expires, c.CreatedAt,
	)
	return err
}

// GetByID returns the customer for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

// GetByEmail returns the customer with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = $1`, email)
}

// GetBySecretKey returns the customer holding the given secret key, or nil.
func (r *PostgresRepository) GetBySecretKey(ctx context.Context, secretKey string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE secret_key = $1`, secretKey)
}

// GetByResetToken returns the customer holding the given reset token, or nil.
func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE reset_token = $1`, token)
}

// SetResetToken stores the password-reset token and its expiry; an empty
// token clears both.
func (r *PostgresRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	val := sql.NullString{String: token, Valid: token != ""}
	expires := sql.NullTime{Time: expiresAt, Valid: token != "" && !expiresAt.IsZero()}
	_, err := r.db.ExecContext(ctx,
		`UPDATE customers SET reset_token = $2, reset_token_expires_at = $3 WHERE id = $1`, id, val, expires)
	return err
}

// UpdatePassword replaces the password hash and clears any reset token.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE customers SET password_hash = $2, reset_token = NULL, reset_token_expires_at = NULL WHERE id = $1`,
		id, passwordHash)
	return err
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	var c domain.Customer
	var reset sql.NullString
	var expires sql.NullTime
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PasswordHash, &c.SecretKey, &reset, &expires, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if reset.Valid {
		c.ResetToken = reset.String
	}
	if expires.Valid {
		c.ResetTokenExpiresAt = expires.Time
	}
	return &c, nil
}
