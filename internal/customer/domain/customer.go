package domain

import "time"

// Customer is a store-front account holder. SecretKey is a stable opaque
// identifier copied onto tickets at fulfillment, so a ticket stays resolvable
// even if the customer row is later edited.
type Customer struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	SecretKey    string
	ResetToken   string
	// ResetTokenExpiresAt bounds the reset token's lifetime; zero when no
	// token is outstanding.
	ResetTokenExpiresAt time.Time
	CreatedAt           time.Time
}

// FullName returns "First Last" for display and email salutations.
func (c *Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}
