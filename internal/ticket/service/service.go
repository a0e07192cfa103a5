// Package service implements ticket fulfillment and the gate flows (scan,
// validate) plus the customer's own-ticket listing.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ticket-office/backend/internal/audit"
	customerdomain "ticket-office/backend/internal/customer/domain"
	customerrepo "ticket-office/backend/internal/customer/repository"
	"ticket-office/backend/internal/notification"
	offerrepo "ticket-office/backend/internal/offer/repository"
	paymentrepo "ticket-office/backend/internal/payment/repository"
	"ticket-office/backend/internal/ticket/domain"
	"ticket-office/backend/internal/ticket/repository"
)

// Sentinel errors; handlers map them to HTTP codes.
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrOfferUnavailable    = errors.New("offer no longer exists for transaction")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrTicketAlreadyUsed   = errors.New("ticket already used")
	ErrWrongHolder         = errors.New("ticket does not belong to this customer")
)

// secretAttempts bounds the collision-regeneration loop. With 128 random bits
// per key a second attempt is already unheard of.
const secretAttempts = 5

// ScanResult pairs a ticket with its holder for display at the gate.
type ScanResult struct {
	Ticket *domain.Ticket
	Holder *customerdomain.Customer
}

// Service mints and redeems tickets.
type Service struct {
	tickets      repository.Repository
	transactions paymentrepo.Repository
	offers       offerrepo.Repository
	customers    customerrepo.Repository
	notifier     notification.Notifier
	audit        audit.Logger
	frontendURL  string
	appName      string
	now          func() time.Time
}

// NewService returns a ticket service with the given stores.
func NewService(
	tickets repository.Repository,
	transactions paymentrepo.Repository,
	offers offerrepo.Repository,
	customers customerrepo.Repository,
	notifier notification.Notifier,
	auditLog audit.Logger,
	frontendURL, appName string,
) *Service {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{
		tickets:      tickets,
		transactions: transactions,
		offers:       offers,
		customers:    customers,
		notifier:     notifier,
		audit:        auditLog,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		appName:      appName,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Fulfill is the find-or-create fulfillment engine: called once per fresh PAID
// transition, but safe under replays and races. At most one ticket ever exists
// per transaction; whichever caller loses the insert race returns the winner's
// ticket.
func (s *Service) Fulfill(ctx context.Context, transactionID string) (*domain.Ticket, error) {
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}

	if existing, err := s.tickets.FindByTransactionID(ctx, transactionID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	customer, err := s.customers.GetByID(ctx, txn.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("ticket: customer %s not found for transaction %s", txn.CustomerID, transactionID)
	}
	offer, err := s.offers.GetByID(ctx, txn.OfferID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferUnavailable
	}

	entries := offer.Persons
	if entries < 1 {
		entries = 1
	}

	secret, err := s.freshSecret(ctx, customer.SecretKey)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		ID:             uuid.New().String(),
		SecretKey:      secret,
		CustomerSecret: customer.SecretKey,
		TransactionID:  transactionID,
		EntriesAllowed: entries,
		Status:         domain.StatusActive,
		CreatedAt:      s.now(),
	}
	inserted, err := s.tickets.Insert(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// A concurrent fulfillment won; its ticket is the ticket.
		winner, err := s.tickets.FindByTransactionID(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, fmt.Errorf("ticket: insert lost but no row for transaction %s", transactionID)
		}
		return winner, nil
	}

	log.WithFields(log.Fields{
		"transaction_id": transactionID,
		"ticket_id":      ticket.ID,
		"entries":        entries,
	}).Info("ticket issued")
	s.audit.Record(ctx, audit.SystemActor, audit.ActionTicketIssued, "ticket",
		"ticket "+ticket.ID+" for transaction "+transactionID)

	if err := s.notifier.Send(ctx, notification.Message{
		To:       customer.Email,
		Subject:  "Your ticket - " + s.appName,
		Template: "payment-confirmation",
		Vars: map[string]any{
			"name":       customer.FirstName,
			"offerName":  txn.OfferName,
			"accountUrl": s.frontendURL + "/account/tickets",
			"appName":    s.appName,
		},
	}); err != nil {
		log.WithError(err).WithField("email", customer.Email).Warn("confirmation email failed")
	}
	return ticket, nil
}

// freshSecret generates a ticket secret that collides with neither the
// holder's own secret nor any existing ticket secret.
func (s *Service) freshSecret(ctx context.Context, customerSecret string) (string, error) {
	for i := 0; i < secretAttempts; i++ {
		secret, err := generateSecret()
		if err != nil {
			return "", err
		}
		if secret == customerSecret {
			continue
		}
		exists, err := s.tickets.ExistsBySecretKey(ctx, secret)
		if err != nil {
			return "", err
		}
		if !exists {
			return secret, nil
		}
	}
	return "", errors.New("ticket: could not generate a unique secret key")
}

// generateSecret returns "TCK-" plus 32 uppercase hex characters (128 random bits).
func generateSecret() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return "TCK-" + strings.ToUpper(hex.EncodeToString(b[:])), nil
}

// Scan resolves a gate-scanned ticket secret to the ticket and its holder.
func (s *Service) Scan(ctx context.Context, ticketSecret string) (*ScanResult, error) {
	ticketSecret = strings.TrimSpace(ticketSecret)
	if ticketSecret == "" {
		return nil, ErrTicketNotFound
	}
	t, err := s.tickets.GetBySecretKey(ctx, ticketSecret)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTicketNotFound
	}
	holder, err := s.customers.GetBySecretKey(ctx, t.CustomerSecret)
	if err != nil {
		return nil, err
	}
	if holder == nil {
		return nil, fmt.Errorf("ticket: no customer for secret on ticket %s", t.ID)
	}
	return &ScanResult{Ticket: t, Holder: holder}, nil
}

// Validate redeems a ticket at the gate: the ticket must exist, belong to the
// presented holder, and still be ACTIVE. Redemption is atomic in the store, so
// two scanners racing on the same ticket admit it once.
func (s *Service) Validate(ctx context.Context, ticketSecret, customerID string) (*domain.Ticket, error) {
	result, err := s.Scan(ctx, ticketSecret)
	if err != nil {
		return nil, err
	}
	if result.Holder.ID != customerID {
		log.WithFields(log.Fields{
			"ticket_id":   result.Ticket.ID,
			"customer_id": customerID,
		}).Warn("ticket validation with mismatched holder")
		return nil, ErrWrongHolder
	}
	if result.Ticket.Status != domain.StatusActive {
		return nil, ErrTicketAlreadyUsed
	}
	changed, err := s.tickets.MarkUsed(ctx, result.Ticket.ID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrTicketAlreadyUsed
	}
	result.Ticket.Status = domain.StatusUsed
	log.WithField("ticket_id", result.Ticket.ID).Info("ticket validated")
	s.audit.Record(ctx, result.Holder.Email, audit.ActionTicketValidated, "ticket", result.Ticket.ID)
	return result.Ticket, nil
}

// ListForCustomer returns the authenticated customer's tickets, newest first.
func (s *Service) ListForCustomer(ctx context.Context, email string) ([]*domain.View, error) {
	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("ticket: no customer account for %s", email)
	}
	return s.tickets.ListByCustomerSecret(ctx, customer.SecretKey)
}
