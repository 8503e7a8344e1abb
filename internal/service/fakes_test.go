package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

// fakeLedgerStore is an in-memory LedgerStore with real rollback semantics:
// WithTx runs the callback against a deep copy and only adopts it on
// success, so a failing commit leaves the base state untouched.
type fakeLedgerStore struct {
	mu sync.Mutex

	clients       map[string]*domain.Client
	billings      map[string]*domain.Billing
	amortizations map[string]*domain.Amortization
	applications  []domain.AllocationApplication
	credits       []domain.ClientCredit

	// Error injection for failure-path tests.
	failInsertApplications error
	failInsertCredit       error

	inTx bool
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		clients:       make(map[string]*domain.Client),
		billings:      make(map[string]*domain.Billing),
		amortizations: make(map[string]*domain.Amortization),
	}
}

func (f *fakeLedgerStore) addClient(id string, userID int64) {
	f.clients[id] = &domain.Client{ID: id, UserID: userID, Name: "Cliente " + id}
}

func (f *fakeLedgerStore) addBilling(b domain.Billing) {
	if b.Status == "" {
		b.Status = domain.BillingPending
	}
	f.billings[b.ID] = &b
}

func (f *fakeLedgerStore) FindClient(ctx context.Context, clientID string) (*domain.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[clientID]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeLedgerStore) ListOpenBillings(ctx context.Context, clientID string) ([]domain.Billing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Billing
	for _, b := range f.billings {
		if b.ClientID != clientID {
			continue
		}
		if b.Status != domain.BillingPending && b.Status != domain.BillingOverdue {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeLedgerStore) FindAmortizationByCode(ctx context.Context, paymentCode string) (*domain.Amortization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.amortizations {
		if a.PaymentCode == paymentCode {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeLedgerStore) PaymentCodeExists(ctx context.Context, paymentCode string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.amortizations {
		if a.PaymentCode == paymentCode {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedgerStore) InsertAmortization(ctx context.Context, a *domain.Amortization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.amortizations[a.ID] = &cp
	return nil
}

func (f *fakeLedgerStore) MarkProcessing(ctx context.Context, amortizationID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.amortizations[amortizationID]
	if !ok || a.Status != domain.AmortizationPending {
		return false, nil
	}
	a.Status = domain.AmortizationProcessing
	return true, nil
}

func (f *fakeLedgerStore) MarkCompleted(ctx context.Context, amortizationID string, processedBy int64, processedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.amortizations[amortizationID]
	if !ok {
		return domain.ErrNotFound
	}
	a.Status = domain.AmortizationCompleted
	a.ProcessedBy = &processedBy
	a.ProcessedAt = &processedAt
	return nil
}

func (f *fakeLedgerStore) CancelPending(ctx context.Context, amortizationID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.amortizations[amortizationID]
	if !ok || a.Status != domain.AmortizationPending {
		return false, nil
	}
	a.Status = domain.AmortizationCancelled
	return true, nil
}

func (f *fakeLedgerStore) ApplyToBilling(ctx context.Context, billingID string, amortized decimal.Decimal, paid bool, paymentDate *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.billings[billingID]
	if !ok {
		return domain.ErrNotFound
	}
	b.AmortizedAmount = amortized
	if paid {
		b.Status = domain.BillingPaid
		b.PaymentDate = paymentDate
	}
	return nil
}

func (f *fakeLedgerStore) InsertApplications(ctx context.Context, apps []domain.AllocationApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertApplications != nil {
		return f.failInsertApplications
	}
	f.applications = append(f.applications, apps...)
	return nil
}

func (f *fakeLedgerStore) ListApplications(ctx context.Context, amortizationID string) ([]domain.AllocationApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AllocationApplication
	for _, app := range f.applications {
		if app.AmortizationID == amortizationID {
			if b, ok := f.billings[app.BillingID]; ok {
				app.BillingDescription = b.Description
			}
			out = append(out, app)
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) InsertClientCredit(ctx context.Context, c *domain.ClientCredit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertCredit != nil {
		return f.failInsertCredit
	}
	f.credits = append(f.credits, *c)
	return nil
}

func (f *fakeLedgerStore) WithTx(ctx context.Context, fn func(domain.LedgerStore) error) error {
	if f.inTx {
		return fn(f)
	}

	tx := f.snapshot()
	tx.inTx = true
	if err := fn(tx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.billings = tx.billings
	f.amortizations = tx.amortizations
	f.applications = tx.applications
	f.credits = tx.credits
	return nil
}

func (f *fakeLedgerStore) snapshot() *fakeLedgerStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := newFakeLedgerStore()
	cp.failInsertApplications = f.failInsertApplications
	cp.failInsertCredit = f.failInsertCredit
	for id, c := range f.clients {
		cc := *c
		cp.clients[id] = &cc
	}
	for id, b := range f.billings {
		bb := *b
		cp.billings[id] = &bb
	}
	for id, a := range f.amortizations {
		aa := *a
		cp.amortizations[id] = &aa
	}
	cp.applications = append([]domain.AllocationApplication(nil), f.applications...)
	cp.credits = append([]domain.ClientCredit(nil), f.credits...)
	return cp
}

type fakeAuditLog struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (f *fakeAuditLog) Append(ctx context.Context, e domain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAuditLog) byAction(action domain.AuditAction) []domain.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range f.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// fakeCodeReserver rejects codes listed in taken, mimicking a concurrent
// registration holding the Redis reservation.
type fakeCodeReserver struct {
	mu       sync.Mutex
	taken    map[string]bool
	reserved []string
}

func (f *fakeCodeReserver) ReservePaymentCode(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taken[code] {
		return false, nil
	}
	f.reserved = append(f.reserved, code)
	return true, nil
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}
