package domain

import "time"

// Status is the gate lifecycle of a ticket.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusUsed   Status = "USED"
)

// Ticket is the fulfillment artifact of a paid transaction. Exactly one ticket
// exists per transaction (transaction_id is unique in the store). SecretKey is
// the scannable credential; CustomerSecret ties the ticket to its holder's
// stable secret so validation can check possession without a join at the gate.
type Ticket struct {
	ID             string
	SecretKey      string
	CustomerSecret string
	TransactionID  string
	EntriesAllowed int
	Status         Status
	CreatedAt      time.Time
}

// View is a ticket joined with its transaction snapshot, shaped for customer
// listings and gate scans.
type View struct {
	Ticket
	OfferName string
	Amount    float64
}
