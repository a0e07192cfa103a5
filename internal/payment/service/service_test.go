package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	customerdomain "ticket-office/backend/internal/customer/domain"
	offerdomain "ticket-office/backend/internal/offer/domain"
	"ticket-office/backend/internal/payment/domain"
	"ticket-office/backend/internal/payment/stripe"
	ticketdomain "ticket-office/backend/internal/ticket/domain"
)

const webhookSecret = "whsec_test"

type memTxnRepo struct {
	mu            sync.Mutex
	byID          map[string]*domain.Transaction
	getErr        error
	transitionErr error
}

func newMemTxnRepo() *memTxnRepo { return &memTxnRepo{byID: map[string]*domain.Transaction{}} }

func (r *memTxnRepo) Create(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.byID[t.ID] = &cp
	return nil
}

func (r *memTxnRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	if t, ok := r.byID[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *memTxnRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byID {
		if t.StripeSessionID == sessionID && sessionID != "" {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memTxnRepo) SetSessionID(ctx context.Context, id, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.byID[id]; ok {
		t.StripeSessionID = sessionID
	}
	return nil
}

func (r *memTxnRepo) TransitionStatus(ctx context.Context, id string, to domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transitionErr != nil {
		return false, r.transitionErr
	}
	t, ok := r.byID[id]
	if !ok || t.Status == domain.StatusPaid || t.Status == to {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (r *memTxnRepo) status(id string) domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Status
}

type memOfferRepo struct {
	byID map[string]*offerdomain.Offer
}

func (r *memOfferRepo) GetByID(ctx context.Context, id string) (*offerdomain.Offer, error) {
	return r.byID[id], nil
}
func (r *memOfferRepo) List(ctx context.Context) ([]*offerdomain.Offer, error) { return nil, nil }
func (r *memOfferRepo) Create(ctx context.Context, o *offerdomain.Offer) error { return nil }
func (r *memOfferRepo) Update(ctx context.Context, o *offerdomain.Offer) error { return nil }
func (r *memOfferRepo) Delete(ctx context.Context, id string) error { return nil }

type memCustomerRepo struct {
	byID map[string]*customerdomain.Customer
}

func (r *memCustomerRepo) Create(ctx context.Context, c *customerdomain.Customer) error { return nil }
func (r *memCustomerRepo) GetByID(ctx context.Context, id string) (*customerdomain.Customer, error) {
	return r.byID[id], nil
}
func (r *memCustomerRepo) GetByEmail(ctx context.Context, email string) (*customerdomain.Customer, error) {
	return nil, nil
}
func (r *memCustomerRepo) GetBySecretKey(ctx context.Context, secretKey string) (*customerdomain.Customer, error) {
	return nil, nil
}
func (r *memCustomerRepo) GetByResetToken(ctx context.Context, token string) (*customerdomain.Customer, error) {
	return nil, nil
}
func (r *memCustomerRepo) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return nil
}
func (r *memCustomerRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return nil
}

type fakeProvider struct {
	mu       sync.Mutex
	calls    []stripe.CheckoutParams
	fail     bool
	sessions int
}

func (p *fakeProvider) CreateCheckoutSession(ctx context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return nil, errors.New("provider unavailable")
	}
	p.calls = append(p.calls, params)
	p.sessions++
	id := fmt.Sprintf("cs_%d", p.sessions)
	return &stripe.CheckoutSession{ID: id, URL: "https://checkout.example/" + id}, nil
}

type fakeFulfiller struct {
	mu     sync.Mutex
	called []string
	fail   bool
}

func (f *fakeFulfiller) Fulfill(ctx context.Context, transactionID string) (*ticketdomain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("fulfillment broken")
	}
	f.called = append(f.called, transactionID)
	return &ticketdomain.Ticket{ID: "tick-" + transactionID, TransactionID: transactionID}, nil
}

type fixture struct {
	svc       *Service
	txns      *memTxnRepo
	provider  *fakeProvider
	fulfiller *fakeFulfiller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		txns:      newMemTxnRepo(),
		provider:  &fakeProvider{},
		fulfiller: &fakeFulfiller{},
	}
	offers := &memOfferRepo{byID: map[string]*offerdomain.Offer{
		"offer-1": {ID: "offer-1", Name: "Duo Pass", Description: "Two entries", Price: 49.99, Persons: 2},
	}}
	customers := &memCustomerRepo{byID: map[string]*customerdomain.Customer{
		"cust-1": {ID: "cust-1", FirstName: "Alice", Email: "alice@example.com", SecretKey: "cust-secret-1"},
	}}
	f.svc = NewService(f.txns, offers, customers, f.provider, f.fulfiller, nil, webhookSecret, "https://shop.example", 0)
	return f
}

func paidEvent(txnID, sessionID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"%s","metadata":{"transaction_id":"%s"}}}}`,
		sessionID, txnID))
}

func deliver(t *testing.T, f *fixture, payload []byte) error {
	t.Helper()
	header := stripe.SignPayload(payload, webhookSecret, time.Now())
	return f.svc.ProcessWebhook(context.Background(), payload, header)
}

func TestStartCheckout(t *testing.T) {
	f := newFixture(t)

	checkout, err := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1")
	if err != nil {
		t.Fatalf("StartCheckout: %v", err)
	}
	if checkout.SessionID == "" || checkout.RedirectURL == "" || checkout.TransactionID == "" {
		t.Fatalf("checkout = %+v", checkout)
	}

	txn, _ := f.txns.GetByID(context.Background(), checkout.TransactionID)
	if txn == nil {
		t.Fatal("transaction not persisted")
	}
	if txn.Status != domain.StatusPending {
		t.Fatalf("status = %q, want PENDING", txn.Status)
	}
	if txn.OfferName != "Duo Pass" || txn.Amount != 49.99 {
		t.Fatalf("snapshot = %q/%v", txn.OfferName, txn.Amount)
	}
	if txn.StripeSessionID != checkout.SessionID {
		t.Fatalf("session id not stored: %q", txn.StripeSessionID)
	}

	params := f.provider.calls[0]
	if params.Metadata["transaction_id"] != checkout.TransactionID {
		t.Fatalf("metadata = %+v", params.Metadata)
	}
	if params.AmountCents != 4999 {
		t.Fatalf("amount cents = %d", params.AmountCents)
	}
	if params.CustomerEmail != "alice@example.com" {
		t.Fatalf("customer email = %q", params.CustomerEmail)
	}
}

func TestStartCheckoutUnknownOffer(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.StartCheckout(context.Background(), "cust-1", "missing"); err != ErrOfferNotFound {
		t.Fatalf("err = %v, want ErrOfferNotFound", err)
	}
	if len(f.txns.byID) != 0 {
		t.Fatal("transaction persisted for unknown offer")
	}
}

func TestStartCheckoutProviderFailureLeavesOrphan(t *testing.T) {
	f := newFixture(t)
	f.provider.fail = true

	if _, err := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1"); err == nil {
		t.Fatal("expected provider error")
	}
	// Orphan PENDING row stays behind with no session attached.
	if len(f.txns.byID) != 1 {
		t.Fatalf("transactions = %d, want 1", len(f.txns.byID))
	}
	for _, txn := range f.txns.byID {
		if txn.Status != domain.StatusPending || txn.StripeSessionID != "" {
			t.Fatalf("orphan = %+v", txn)
		}
	}
}

func TestWebhookPaidTransitionFulfills(t *testing.T) {
	f := newFixture(t)
	checkout, _ := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1")

	if err := deliver(t, f, paidEvent(checkout.TransactionID, checkout.SessionID)); err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
	if got := f.txns.status(checkout.TransactionID); got != domain.StatusPaid {
		t.Fatalf("status = %q, want PAID", got)
	}
	if len(f.fulfiller.called) != 1 || f.fulfiller.called[0] != checkout.TransactionID {
		t.Fatalf("fulfiller calls = %v", f.fulfiller.called)
	}
}

func TestWebhookDuplicateDeliveryFulfillsOnce(t *testing.T) {
	f := newFixture(t)
	checkout, _ := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1")
	payload := paidEvent(checkout.TransactionID, checkout.SessionID)

	for i := 0; i < 3; i++ {
		if err := deliver(t, f, payload); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if len(f.fulfiller.called) != 1 {
		t.Fatalf("fulfiller called %d times, want 1", len(f.fulfiller.called))
	}
}

func TestWebhookFailureAfterPaidDoesNotRegress(t *testing.T) {
	f := newFixture(t)
	checkout, _ := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1")

	if err := deliver(t, f, paidEvent(checkout.TransactionID, checkout.SessionID)); err != nil {
		t.Fatalf("paid delivery: %v", err)
	}
	failed := []byte(fmt.Sprintf(
		`{"id":"evt_2","type":"checkout.session.async_payment_failed","data":{"object":{"id":"%s","metadata":{"transaction_id":"%s"}}}}`,
		checkout.SessionID, checkout.TransactionID))
	if err := deliver(t, f, failed); err != nil {
		t.Fatalf("failed delivery: %v", err)
	}
	if got := f.txns.status(checkout.TransactionID); got != domain.StatusPaid {
		t.Fatalf("status = %q, PAID regressed", got)
	}
}

func TestWebhookPaidAfterExpiredRecovers(t *testing.T) {
	f := newFixture(t)
	checkout, _ := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1")

	expired := []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"checkout.session.expired","data":{"object":{"id":"%s","metadata":{"transaction_id":"%s"}}}}`,
		checkout.SessionID, checkout.TransactionID))
	if err := deliver(t, f, expired); err != nil {
		t.Fatalf("expired delivery: %v", err)
	}
	if got := f.txns.status(checkout.TransactionID); got != domain.StatusFailed {
		t.Fatalf("status = %q, want FAILED", got)
	}

	// A delayed success still settles the transaction and mints the ticket.
	if err := deliver(t, f, paidEvent(checkout.TransactionID, checkout.SessionID)); err != nil {
		t.Fatalf("paid delivery: %v", err)
	}
	if got := f.txns.status(checkout.TransactionID); got != domain.StatusPaid {
		t.Fatalf("status = %q, want PAID", got)
	}
	if len(f.fulfiller.called) != 1 {
		t.Fatalf("fulfiller calls = %v", f.fulfiller.called)
	}
}

func TestWebhookStoreFailureNotAcked(t *testing.T) {
	f := newFixture(t)
	checkout, _ := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1")
	payload := paidEvent(checkout.TransactionID, checkout.SessionID)

	f.txns.getErr = errors.New("connection reset")
	if err := deliver(t, f, payload); err == nil {
		t.Fatal("lookup failure was acknowledged")
	}
	f.txns.getErr = nil

	f.txns.transitionErr = errors.New("connection reset")
	if err := deliver(t, f, payload); err == nil {
		t.Fatal("transition failure was acknowledged")
	}
	f.txns.transitionErr = nil

	// Once the store recovers, the provider's redelivery settles the payment.
	if err := deliver(t, f, payload); err != nil {
		t.Fatalf("redelivery after recovery: %v", err)
	}
	if got := f.txns.status(checkout.TransactionID); got != domain.StatusPaid {
		t.Fatalf("status = %q, want PAID", got)
	}
	if len(f.fulfiller.called) != 1 {
		t.Fatalf("fulfiller calls = %v", f.fulfiller.called)
	}
}

func TestWebhookFailedTransition(t *testing.T) {
	f := newFixture(t)
	checkout, _ := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1")

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"payment_intent.payment_failed","data":{"object":{"id":"%s","metadata":{"transaction_id":"%s"}}}}`,
		checkout.SessionID, checkout.TransactionID))
	if err := deliver(t, f, payload); err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
	if got := f.txns.status(checkout.TransactionID); got != domain.StatusFailed {
		t.Fatalf("status = %q, want FAILED", got)
	}
	if len(f.fulfiller.called) != 0 {
		t.Fatal("fulfillment ran for a failed payment")
	}
}

func TestWebhookUnknownEventTypeAcked(t *testing.T) {
	f := newFixture(t)
	checkout, _ := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1")

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"customer.created","data":{"object":{"metadata":{"transaction_id":"%s"}}}}`,
		checkout.TransactionID))
	if err := deliver(t, f, payload); err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
	if got := f.txns.status(checkout.TransactionID); got != domain.StatusPending {
		t.Fatalf("status = %q, unknown event mutated state", got)
	}
}

func TestWebhookUnknownTransactionAcked(t *testing.T) {
	f := newFixture(t)
	if err := deliver(t, f, paidEvent("ghost-txn", "cs_ghost")); err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
	if len(f.fulfiller.called) != 0 {
		t.Fatal("fulfillment ran for unknown transaction")
	}
}

func TestWebhookMissingTransactionIDAcked(t *testing.T) {
	f := newFixture(t)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)
	if err := deliver(t, f, payload); err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
}

func TestWebhookBadSignatureRejected(t *testing.T) {
	f := newFixture(t)
	payload := paidEvent("txn", "cs")
	header := stripe.SignPayload(payload, "wrong-secret", time.Now())
	if err := f.svc.ProcessWebhook(context.Background(), payload, header); !errors.Is(err, stripe.ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
}

func TestWebhookMalformedBodyRejected(t *testing.T) {
	f := newFixture(t)
	payload := []byte("not json at all")
	header := stripe.SignPayload(payload, webhookSecret, time.Now())
	if err := f.svc.ProcessWebhook(context.Background(), payload, header); !errors.Is(err, stripe.ErrBadPayload) {
		t.Fatalf("err = %v, want ErrBadPayload", err)
	}
}

func TestWebhookFulfillmentFailureStillAcked(t *testing.T) {
	f := newFixture(t)
	f.fulfiller.fail = true
	checkout, _ := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1")

	if err := deliver(t, f, paidEvent(checkout.TransactionID, checkout.SessionID)); err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
	if got := f.txns.status(checkout.TransactionID); got != domain.StatusPaid {
		t.Fatalf("status = %q, transition rolled back", got)
	}
}

func TestStatusBySession(t *testing.T) {
	f := newFixture(t)
	checkout, _ := f.svc.StartCheckout(context.Background(), "cust-1", "offer-1")

	txn, err := f.svc.StatusBySession(context.Background(), checkout.SessionID)
	if err != nil {
		t.Fatalf("StatusBySession: %v", err)
	}
	if txn.Status != domain.StatusPending {
		t.Fatalf("status = %q", txn.Status)
	}

	if _, err := f.svc.StatusBySession(context.Background(), "cs_missing"); err != ErrSessionNotFound {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.svc.StatusBySession(context.Background(), ""); err != ErrSessionNotFound {
		t.Fatalf("empty session err = %v, want ErrSessionNotFound", err)
	}
}
