package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ticket-office/backend/internal/auth"
	customerdomain "ticket-office/backend/internal/customer/domain"
	offerdomain "ticket-office/backend/internal/offer/domain"
	paymentdomain "ticket-office/backend/internal/payment/domain"
	"ticket-office/backend/internal/ticket/domain"
	"ticket-office/backend/internal/ticket/service"
)

type memTicketRepo struct {
	mu       sync.Mutex
	bySecret map[string]*domain.Ticket
}

func (r *memTicketRepo) Insert(ctx context.Context, t *domain.Ticket) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.bySecret[t.SecretKey] = &cp
	return true, nil
}

func (r *memTicketRepo) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Ticket, error) {
	return nil, nil
}

func (r *memTicketRepo) GetBySecretKey(ctx context.Context, secretKey string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.bySecret[secretKey]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *memTicketRepo) ExistsBySecretKey(ctx context.Context, secretKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bySecret[secretKey]
	return ok, nil
}

func (r *memTicketRepo) ListByCustomerSecret(ctx context.Context, customerSecret string) ([]*domain.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var views []*domain.View
	for _, t := range r.bySecret {
		if t.CustomerSecret == customerSecret {
			views = append(views, &domain.View{Ticket: *t, OfferName: "Duo Pass", Amount: 49.99})
		}
	}
	return views, nil
}

func (r *memTicketRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.bySecret {
		if t.ID == id && t.Status == domain.StatusActive {
			t.Status = domain.StatusUsed
			return true, nil
		}
	}
	return false, nil
}

type stubTxnRepo struct{}

func (stubTxnRepo) Create(ctx context.Context, t *paymentdomain.Transaction) error { return nil }
func (stubTxnRepo) GetByID(ctx context.Context, id string) (*paymentdomain.Transaction, error) {
	return nil, nil
}
func (stubTxnRepo) GetBySessionID(ctx context.Context, sessionID string) (*paymentdomain.Transaction, error) {
	return nil, nil
}
func (stubTxnRepo) SetSessionID(ctx context.Context, id, sessionID string) error { return nil }
func (stubTxnRepo) TransitionStatus(ctx context.Context, id string, to paymentdomain.Status) (bool, error) {
	return false, nil
}

type stubOfferRepo struct{}

func (stubOfferRepo) GetByID(ctx context.Context, id string) (*offerdomain.Offer, error) {
	return nil, nil
}
func (stubOfferRepo) List(ctx context.Context) ([]*offerdomain.Offer, error) { return nil, nil }
func (stubOfferRepo) Create(ctx context.Context, o *offerdomain.Offer) error { return nil }
func (stubOfferRepo) Update(ctx context.Context, o *offerdomain.Offer) error { return nil }
func (stubOfferRepo) Delete(ctx context.Context, id string) error { return nil }

type stubCustomerRepo struct{ holder *customerdomain.Customer }

func (r *stubCustomerRepo) Create(ctx context.Context, c *customerdomain.Customer) error { return nil }
func (r *stubCustomerRepo) GetByID(ctx context.Context, id string) (*customerdomain.Customer, error) {
	return nil, nil
}
func (r *stubCustomerRepo) GetByEmail(ctx context.Context, email string) (*customerdomain.Customer, error) {
	if r.holder != nil && r.holder.Email == email {
		return r.holder, nil
	}
	return nil, nil
}
func (r *stubCustomerRepo) GetBySecretKey(ctx context.Context, secretKey string) (*customerdomain.Customer, error) {
	if r.holder != nil && r.holder.SecretKey == secretKey {
		return r.holder, nil
	}
	return nil, nil
}
func (r *stubCustomerRepo) GetByResetToken(ctx context.Context, token string) (*customerdomain.Customer, error) {
	return nil, nil
}
func (r *stubCustomerRepo) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return nil
}
func (r *stubCustomerRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return nil
}

func newHandler(t *testing.T) (*Handler, *memTicketRepo) {
	t.Helper()
	tickets := &memTicketRepo{bySecret: map[string]*domain.Ticket{}}
	holder := &customerdomain.Customer{
		ID: "cust-1", FirstName: "Alice", LastName: "Smith",
		Email: "alice@example.com", SecretKey: "cust-secret-1",
	}
	svc := service.NewService(tickets, stubTxnRepo{}, stubOfferRepo{}, &stubCustomerRepo{holder: holder},
		nil, nil, "https://shop.example", "Ticket Office")
	return New(svc), tickets
}

func seedTicket(tickets *memTicketRepo) *domain.Ticket {
	t := &domain.Ticket{
		ID: "tick-1", SecretKey: "TCK-ABC123", CustomerSecret: "cust-secret-1",
		TransactionID: "txn-1", EntriesAllowed: 2, Status: domain.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	tickets.Insert(context.Background(), t)
	return t
}

func TestScanEndpoint(t *testing.T) {
	h, tickets := newHandler(t)
	seedTicket(tickets)

	req := httptest.NewRequest(http.MethodPost, "/api/tickets/scan", bytes.NewBufferString(`{"ticket_secret":"TCK-ABC123"}`))
	rec := httptest.NewRecorder()
	h.Scan(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/tickets/scan", bytes.NewBufferString(`{"ticket_secret":"TCK-NOPE"}`))
	rec = httptest.NewRecorder()
	h.Scan(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown secret status = %d, want 404", rec.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	h, tickets := newHandler(t)
	seedTicket(tickets)

	body := `{"ticket_secret":"TCK-ABC123","customer_id":"cust-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tickets/validate", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Validate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Second redemption conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/tickets/validate", bytes.NewBufferString(body))
	rec = httptest.NewRecorder()
	h.Validate(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("reuse status = %d, want 409", rec.Code)
	}
}

func TestValidateWrongHolderEndpoint(t *testing.T) {
	h, tickets := newHandler(t)
	seedTicket(tickets)

	body := `{"ticket_secret":"TCK-ABC123","customer_id":"someone-else"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tickets/validate", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Validate(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestMyTicketsEndpoint(t *testing.T) {
	h, tickets := newHandler(t)
	seedTicket(tickets)

	req := httptest.NewRequest(http.MethodGet, "/api/customers/me/tickets", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(),
		auth.Principal{Email: "alice@example.com", Role: "CUSTOMER", UID: "cust-1"}))
	rec := httptest.NewRecorder()
	h.MyTickets(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
