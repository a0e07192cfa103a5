package domain

import "time"

// Admin is a staff account allowed to manage offers and scan tickets at the gate.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
}
