package repository

import (
	"context"
	"database/sql"
	"errors"

	"ticket-office/backend/internal/offer/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an offer repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const offerColumns = `id, name, description, price, persons, quantity, created_at, updated_at`

// GetByID returns the offer for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	return scanOffer(row)
}

// List returns all offers ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Offer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []*domain.Offer
	for rows.Next() {
		var o domain.Offer
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &o.Price, &o.Persons, &o.Quantity, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		offers = append(offers, &o)
	}
	return offers, rows.Err()
}

// Create persists the offer. The offer must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Offer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO offers (id, name, description, price, persons, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.Name, o.Description, o.Price, o.Persons, o.Quantity, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

// Update updates the existing offer record.
func (r *PostgresRepository) Update(ctx context.Context, o *domain.Offer) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE offers SET name = $2, description = $3, price = $4, persons = $5, quantity = $6, updated_at = $7
		WHERE id = $1`,
		o.ID, o.Name, o.Description, o.Price, o.Persons, o.Quantity, o.UpdatedAt,
	)
	return err
}

// Delete removes the offer by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1`, id)
	return err
}

func scanOffer(row *sql.Row) (*domain.Offer, error) {
	var o domain.Offer
	err := row.Scan(&o.ID, &o.Name, &o.Description, &o.Price, &o.Persons, &o.Quantity, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}
