package domain

import (
	"errors"
	"strings"
	"time"
)

// Offer is a purchasable ticket package. Persons drives entries-allowed on
// tickets minted from it; Price and Name are snapshotted onto transactions at
// checkout so later edits never alter history.
type Offer struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Persons     int
	Quantity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks offer fields before persistence.
func (o *Offer) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return errors.New("offer: name is required")
	}
	if o.Price < 0 {
		return errors.New("offer: price must not be negative")
	}
	if o.Persons < 1 {
		return errors.New("offer: persons must be at least 1")
	}
	if o.Quantity < 0 {
		return errors.New("offer: quantity must not be negative")
	}
	return nil
}
