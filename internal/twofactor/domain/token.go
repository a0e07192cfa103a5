package domain

import "time"

// Purpose distinguishes which login flow a challenge belongs to. A code issued
// for one purpose must never validate another.
type Purpose string

const (
	PurposeAdmin    Purpose = "ADMIN"
	PurposeCustomer Purpose = "CUSTOMER"
)

// Token is a short-lived, single-use two-factor challenge (stored in
// two_factor_tokens). ID is the opaque challenge id handed to the client;
// the code itself is only ever stored hashed.
type Token struct {
	ID        string
	Email     string
	CodeHash  string
	Purpose   Purpose
	CreatedAt time.Time
	ExpiresAt time.Time
	Consumed  bool
}
