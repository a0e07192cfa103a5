package repository

import (
	"context"
	"database/sql"
	"errors"

	"ticket-office/backend/internal/payment/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a transaction repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const transactionColumns = `id, stripe_session_id, offer_id, offer_name, amount, customer_id, status, created_at`

// Create persists the transaction. The transaction must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Transaction) error {
	session := sql.NullString{String: t.StripeSessionID, Valid: t.StripeSessionID != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, stripe_session_id, offer_id, offer_name, amount, customer_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, session, t.OfferID, t.OfferName, t.Amount, t.CustomerID, string(t.Status), t.CreatedAt,
	)
	return err
}

// GetByID returns the transaction for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.getOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

// GetBySessionID returns the transaction holding the provider session handle, or nil.
func (r *PostgresRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Transaction, error) {
	return r.getOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE stripe_session_id = $1`, sessionID)
}

// SetSessionID attaches the provider session handle after session creation.
func (r *PostgresRepository) SetSessionID(ctx context.Context, id, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET stripe_session_id = $2 WHERE id = $1`, id, sessionID)
	return err
}

// TransitionStatus writes the new status unless the row already holds it or
// is already PAID. The conditional update is the atomicity point: duplicate
// deliveries and FAILED-after-PAID orderings match zero rows, while a delayed
// success still settles a transaction an earlier expiry marked FAILED.
func (r *PostgresRepository) TransitionStatus(ctx context.Context, id string, to domain.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET status = $2 WHERE id = $1 AND status <> $2 AND status <> $3`,
		id, string(to), string(domain.StatusPaid))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	var t domain.Transaction
	var session sql.NullString
	var status string
	err := row.Scan(&t.ID, &session, &t.OfferID, &t.OfferName, &t.Amount, &t.CustomerID, &status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if session.Valid {
		t.StripeSessionID = session.String
	}
	t.Status = domain.Status(status)
	return &t, nil
}
