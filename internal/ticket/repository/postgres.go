package repository

import (
	"context"
	"database/sql"
	"errors"

	"ticket-office/backend/internal/ticket/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a ticket repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (p *PostgresRepository) Insert(ctx context.Context, t *domain.Ticket) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO tickets (id, secret_key, customer_secret, transaction_id, entries_allowed, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (transaction_id) DO NOTHING`,
		t.ID, t.SecretKey, t.CustomerSecret, t.TransactionID, t.EntriesAllowed, string(t.Status), t.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (p *PostgresRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Ticket, error) {
	return p.getOne(ctx, `
		SELECT id, secret_key, customer_secret, transaction_id, entries_allowed, status, created_at
		FROM tickets WHERE transaction_id = $1`, transactionID)
}

func (p *PostgresRepository) GetBySecretKey(ctx context.Context, secretKey string) (*domain.Ticket, error) {
	return p.getOne(ctx, `
		SELECT id, secret_key, customer_secret, transaction_id, entries_allowed, status, created_at
		FROM tickets WHERE secret_key = $1`, secretKey)
}

func (p *PostgresRepository) getOne(ctx context.Context, query, arg string) (*domain.Ticket, error) {
	var t domain.Ticket
	var status string
	err := p.db.QueryRowContext(ctx, query, arg).Scan(
		&t.ID, &t.SecretKey, &t.CustomerSecret, &t.TransactionID, &t.EntriesAllowed, &status, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.Status = domain.Status(status)
	return &t, nil
}

func (p *PostgresRepository) ExistsBySecretKey(ctx context.Context, secretKey string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE secret_key = $1)`, secretKey,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (p *PostgresRepository) ListByCustomerSecret(ctx context.Context, customerSecret string) ([]*domain.View, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT t.id, t.secret_key, t.customer_secret, t.transaction_id, t.entries_allowed, t.status, t.created_at,
		       x.offer_name, x.amount
		FROM tickets t
		JOIN transactions x ON x.id = t.transaction_id
		WHERE t.customer_secret = $1
		ORDER BY t.created_at DESC`, customerSecret)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*domain.View
	for rows.Next() {
		var v domain.View
		var status string
		if err := rows.Scan(
			&v.ID, &v.SecretKey, &v.CustomerSecret, &v.TransactionID, &v.EntriesAllowed, &status, &v.CreatedAt,
			&v.OfferName, &v.Amount,
		); err != nil {
			return nil, err
		}
		v.Status = domain.Status(status)
		views = append(views, &v)
	}
	return views, rows.Err()
}

func (p *PostgresRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE tickets SET status = $2 WHERE id = $1 AND status = $3`,
		id, string(domain.StatusUsed), string(domain.StatusActive),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
