// Package service implements the checkout orchestrator and the payment event
// processor that turns provider webhooks into transaction transitions and
// ticket fulfillment.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ticket-office/backend/internal/audit"
	customerrepo "ticket-office/backend/internal/customer/repository"
	offerrepo "ticket-office/backend/internal/offer/repository"
	"ticket-office/backend/internal/payment/domain"
	"ticket-office/backend/internal/payment/repository"
	"ticket-office/backend/internal/payment/stripe"
	ticketdomain "ticket-office/backend/internal/ticket/domain"
)

// Sentinel errors; handlers map them to HTTP codes.
var (
	ErrOfferNotFound    = errors.New("offer not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrSessionNotFound  = errors.New("payment session not found")
)

// Fulfiller mints the ticket for a freshly paid transaction. Implemented by
// the ticket service.
type Fulfiller interface {
	Fulfill(ctx context.Context, transactionID string) (*ticketdomain.Ticket, error)
}

// CheckoutProvider creates hosted checkout sessions. Implemented by the
// Stripe client.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, p stripe.CheckoutParams) (*stripe.CheckoutSession, error)
}

// Checkout is what the handler returns to the browser: where to redirect.
type Checkout struct {
	TransactionID string
	SessionID     string
	RedirectURL   string
}

// Service orchestrates checkouts and processes payment events.
type Service struct {
	transactions  repository.Repository
	offers        offerrepo.Repository
	customers     customerrepo.Repository
	provider      CheckoutProvider
	fulfiller     Fulfiller
	audit         audit.Logger
	webhookSecret string
	frontendURL   string
	tolerance     time.Duration
	now           func() time.Time
}

// NewService returns a payment service. tolerance <= 0 falls back to the
// default webhook signature tolerance.
func NewService(
	transactions repository.Repository,
	offers offerrepo.Repository,
	customers customerrepo.Repository,
	provider CheckoutProvider,
	fulfiller Fulfiller,
	auditLog audit.Logger,
	webhookSecret, frontendURL string,
	tolerance time.Duration,
) *Service {
	if tolerance <= 0 {
		tolerance = stripe.DefaultTolerance
	}
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Service{
		transactions:  transactions,
		offers:        offers,
		customers:     customers,
		provider:      provider,
		fulfiller:     fulfiller,
		audit:         auditLog,
		webhookSecret: webhookSecret,
		frontendURL:   frontendURL,
		tolerance:     tolerance,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// StartCheckout snapshots the offer onto a PENDING transaction, creates the
// provider session with the transaction id in its metadata, and records the
// session handle. The transaction row is written before the provider call so
// a provider failure can only leave a harmless orphan PENDING row, never a
// paid session without a transaction.
func (s *Service) StartCheckout(ctx context.Context, customerID, offerID string) (*Checkout, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	txn := &domain.Transaction{
		ID:         uuid.New().String(),
		OfferID:    offer.ID,
		OfferName:  offer.Name,
		Amount:     offer.Price,
		CustomerID: customer.ID,
		Status:     domain.StatusPending,
		CreatedAt:  s.now(),
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		SuccessURL:    s.frontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.frontendURL + "/payment/cancel",
		CustomerEmail: customer.Email,
		ProductName:   offer.Name,
		Description:   offer.Description,
		AmountCents:   int64(offer.Price*100 + 0.5),
		Currency:      "eur",
		Metadata:      map[string]string{"transaction_id": txn.ID},
	})
	if err != nil {
		// The PENDING row stays; no provider session references it, so it can
		// never be paid.
		log.WithError(err).WithField("transaction_id", txn.ID).Error("checkout session creation failed")
		return nil, err
	}
	if err := s.transactions.SetSessionID(ctx, txn.ID, session.ID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"transaction_id": txn.ID,
		"session_id":     session.ID,
		"offer_id":       offer.ID,
	}).Info("checkout started")
	return &Checkout{TransactionID: txn.ID, SessionID: session.ID, RedirectURL: session.URL}, nil
}

// outcome classifies a provider event type.
type outcome int

const (
	outcomeIgnore outcome = iota
	outcomePaid
	outcomeFailed
)

func classify(eventType string) outcome {
	switch eventType {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		return outcomePaid
	case "checkout.session.async_payment_failed", "checkout.session.expired", "payment_intent.payment_failed":
		return outcomeFailed
	default:
		return outcomeIgnore
	}
}

// ProcessWebhook verifies and applies one provider delivery. Returns an error
// for signature or payload problems and for transaction store failures, so
// the handler answers non-2xx and the provider redelivers. Deliveries a retry
// cannot improve on, duplicates, unknown event types, and unmatched
// transactions, are acknowledged.
func (s *Service) ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := stripe.ConstructEvent(payload, sigHeader, s.webhookSecret, s.tolerance, s.now())
	if err != nil {
		log.WithError(err).Warn("webhook rejected")
		return err
	}

	logger := log.WithFields(log.Fields{"event_id": event.ID, "event_type": event.Type})

	var target domain.Status
	switch classify(event.Type) {
	case outcomePaid:
		target = domain.StatusPaid
	case outcomeFailed:
		target = domain.StatusFailed
	default:
		logger.Info("ignoring unhandled event type")
		return nil
	}

	transactionID := event.TransactionID(payload)
	if transactionID == "" {
		logger.Warn("event carries no transaction id")
		return nil
	}
	logger = logger.WithField("transaction_id", transactionID)

	// Store failures propagate: the transition is not durable yet, so the
	// provider's redelivery is the recovery path.
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		logger.WithError(err).Error("transaction lookup failed")
		return err
	}
	if txn == nil {
		logger.Warn("event references unknown transaction")
		return nil
	}

	changed, err := s.transactions.TransitionStatus(ctx, transactionID, target)
	if err != nil {
		logger.WithError(err).Error("status transition failed")
		return err
	}
	if !changed {
		logger.WithField("status", txn.Status).Info("transaction already settled, duplicate delivery ignored")
		return nil
	}
	logger.WithField("status", target).Info("transaction settled")
	s.audit.Record(ctx, audit.SystemActor, audit.ActionPaymentSettled, "transaction",
		transactionID+" "+string(target))

	if target != domain.StatusPaid {
		return nil
	}
	// Fulfillment errors are logged, not surfaced: the transition is already
	// durable and a provider retry would be rejected as a duplicate, so
	// recovery happens via Fulfill's own idempotence, not via webhook replay.
	if ticket, err := s.fulfiller.Fulfill(ctx, transactionID); err != nil {
		logger.WithError(err).Error("ticket fulfillment failed")
	} else {
		logger.WithField("ticket_id", ticket.ID).Info("ticket fulfilled")
	}
	return nil
}

// StatusBySession reports the transaction status for a provider session, for
// the browser's post-redirect polling.
func (s *Service) StatusBySession(ctx context.Context, sessionID string) (*domain.Transaction, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	txn, err := s.transactions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrSessionNotFound
	}
	return txn, nil
}
