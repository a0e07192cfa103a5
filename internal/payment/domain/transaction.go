package domain

import "time"

// Status is the payment lifecycle state of a transaction. Transitions are
// PENDING to PAID or PENDING to FAILED only; a PAID transaction never regresses.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusFailed  Status = "FAILED"
)

// Transaction records one purchase attempt. OfferName and Amount are snapshots
// taken at checkout so later catalog edits never alter history. StripeSessionID
// is empty until the provider session is created.
type Transaction struct {
	ID              string
	StripeSessionID string
	OfferID         string
	OfferName       string
	Amount          float64
	CustomerID      string
	Status          Status
	CreatedAt       time.Time
}
