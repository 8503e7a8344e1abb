package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AmortizationStatus string

const (
	AmortizationPending    AmortizationStatus = "pending"
	AmortizationProcessing AmortizationStatus = "processing"
	AmortizationCompleted  AmortizationStatus = "completed"
	AmortizationCancelled  AmortizationStatus = "cancelled"
)

// Amortization is a calculated intent to apply a payment against a client's
// open billings. TotalCredit is fixed at creation and never recomputed.
//
// Status transitions are monotonic:
//
//	pending -> processing -> completed
//	pending -> cancelled
type Amortization struct {
	ID              string
	ClientID        string
	UserID          int64
	PaymentAmount   decimal.Decimal
	DiscountApplied decimal.Decimal
	TotalCredit     decimal.Decimal
	Status          AmortizationStatus
	PaymentCode     string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
	ProcessedBy     *int64
}

// AllocationApplication is one committed allocation line: how much of one
// amortization's credit went to one billing. Rows are append-only.
type AllocationApplication struct {
	ID             string
	AmortizationID string
	BillingID      string
	// Joined from billings on read; ignored on insert.
	BillingDescription string
	AmountApplied      decimal.Decimal
	BillingRemaining   decimal.Decimal
	CreatedAt          time.Time
}

type CreditStatus string

const (
	CreditActive  CreditStatus = "active"
	CreditUsed    CreditStatus = "used"
	CreditExpired CreditStatus = "expired"
)

const CreditSourceAmortization = "amortization"

// ClientCredit is banked leftover value from an amortization whose credit
// exceeded the client's total open debt.
type ClientCredit struct {
	ID         string
	ClientID   string
	UserID     int64
	Amount     decimal.Decimal
	UsedAmount decimal.Decimal
	Source     string
	Status     CreditStatus
	CreatedAt  time.Time
	ExpiresAt  *time.Time
}
