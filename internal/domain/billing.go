package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BillingStatus string

const (
	BillingPending   BillingStatus = "pending"
	BillingOverdue   BillingStatus = "overdue"
	BillingPaid      BillingStatus = "paid"
	BillingCancelled BillingStatus = "cancelled"
)

// Billing is a single money obligation owed by a client. AmortizedAmount
// accumulates credit already applied against it; the billing is paid once
// Amount-AmortizedAmount falls within Epsilon and PaymentDate is set.
type Billing struct {
	ID              string
	ClientID        string
	Description     string
	DueDate         time.Time
	Amount          decimal.Decimal
	AmortizedAmount decimal.Decimal
	Status          BillingStatus
	PaymentDate     *time.Time
}

// OutstandingDebt is the balance still owed, rounded to cents.
func (b Billing) OutstandingDebt() decimal.Decimal {
	return RoundCents(b.Amount.Sub(b.AmortizedAmount))
}

func (b Billing) Validate() error {
	if !b.Amount.IsPositive() {
		return fmt.Errorf("billing %s: amount must be positive, got %s", b.ID, b.Amount)
	}
	if b.AmortizedAmount.IsNegative() {
		return fmt.Errorf("billing %s: amortized_amount is negative: %s", b.ID, b.AmortizedAmount)
	}
	if b.AmortizedAmount.GreaterThan(b.Amount) {
		return fmt.Errorf("billing %s: amortized_amount %s exceeds amount %s", b.ID, b.AmortizedAmount, b.Amount)
	}
	return nil
}
