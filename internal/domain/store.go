package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerStore is the persistent record of billings, amortization requests,
// application lines and client credits. The production implementation lives
// in internal/repository on top of Postgres; tests use an in-memory fake.
type LedgerStore interface {
	FindClient(ctx context.Context, clientID string) (*Client, error)

	// ListOpenBillings returns pending/overdue billings for the client,
	// ordered by due_date ascending with id ascending as tie-break. The
	// ordering is load-bearing: it decides which billings get paid first
	// and is relied on for audit reconciliation.
	ListOpenBillings(ctx context.Context, clientID string) ([]Billing, error)

	FindAmortizationByCode(ctx context.Context, paymentCode string) (*Amortization, error)
	PaymentCodeExists(ctx context.Context, paymentCode string) (bool, error)
	InsertAmortization(ctx context.Context, a *Amortization) error

	// MarkProcessing is the compare-and-set gate for commits: it flips
	// status from pending to processing and reports whether this caller
	// won the transition.
	MarkProcessing(ctx context.Context, amortizationID string) (bool, error)
	MarkCompleted(ctx context.Context, amortizationID string, processedBy int64, processedAt time.Time) error

	// CancelPending flips pending to cancelled, reporting whether the
	// request was still pending.
	CancelPending(ctx context.Context, amortizationID string) (bool, error)

	ApplyToBilling(ctx context.Context, billingID string, amortized decimal.Decimal, paid bool, paymentDate *time.Time) error
	InsertApplications(ctx context.Context, apps []AllocationApplication) error
	ListApplications(ctx context.Context, amortizationID string) ([]AllocationApplication, error)
	InsertClientCredit(ctx context.Context, c *ClientCredit) error

	// WithTx runs fn against a transaction-scoped store. fn returning an
	// error rolls back every write made through the scoped store.
	WithTx(ctx context.Context, fn func(LedgerStore) error) error
}

// AuditLog is the append-only amortization_logs record. Appending must
// never block or fail the primary operation; see service.AuditLogger.
type AuditLog interface {
	Append(ctx context.Context, e AuditEntry) error
}
