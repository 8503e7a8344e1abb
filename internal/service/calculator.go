package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

// AmortizationConfig holds the business constants of the engine. Defaults
// match the production portal: R$ 25,00 minimum, 10% bonus from R$ 1.000,00.
type AmortizationConfig struct {
	MinimumAmount     decimal.Decimal
	DiscountThreshold decimal.Decimal
	DiscountRate      decimal.Decimal
}

func DefaultAmortizationConfig() AmortizationConfig {
	return AmortizationConfig{
		MinimumAmount:     decimal.NewFromInt(25),
		DiscountThreshold: decimal.NewFromInt(1000),
		DiscountRate:      decimal.New(1, -1),
	}
}

// CodeReserver reserves freshly generated payment codes so two concurrent
// registrations cannot pick the same one between the existence check and
// the insert. Backed by Redis SETNX in production; optional.
type CodeReserver interface {
	ReservePaymentCode(ctx context.Context, code string, ttl time.Duration) (bool, error)
}

// Notifier pushes live updates to the owning operator's portal session.
type Notifier interface {
	NotifyAmortizationCreated(ctx context.Context, userID int64, amortizationID, paymentCode string) error
	NotifyAmortizationCommitted(ctx context.Context, userID int64, paymentCode string, billingsAffected, billingsPaid int, remainingCredit string) error
}

type AmortizationService struct {
	store domain.LedgerStore
	audit *AuditLogger
	codes CodeReserver
	ws    Notifier
	cfg   AmortizationConfig
}

func NewAmortizationService(store domain.LedgerStore, audit *AuditLogger, codes CodeReserver, ws Notifier, cfg AmortizationConfig) *AmortizationService {
	return &AmortizationService{
		store: store,
		audit: audit,
		codes: codes,
		ws:    ws,
		cfg:   cfg,
	}
}

// PreviewLine is one billing's share of a proposed allocation.
type PreviewLine struct {
	BillingID          string          `json:"billing_id"`
	BillingDescription string          `json:"billing_description"`
	BillingDueDate     string          `json:"billing_due_date"`
	BillingAmount      decimal.Decimal `json:"billing_amount"`
	AlreadyAmortized   decimal.Decimal `json:"already_amortized"`
	CurrentDebt        decimal.Decimal `json:"current_debt"`
	WillApply          decimal.Decimal `json:"will_apply"`
	RemainingAfter     decimal.Decimal `json:"remaining_after"`
	WillBePaid         bool            `json:"will_be_paid"`
}

// AllocationPreview is the calculator's full output. Nothing is persisted;
// the preview is safe to recompute at will.
type AllocationPreview struct {
	PaymentAmount    decimal.Decimal `json:"payment_amount"`
	DiscountApplied  decimal.Decimal `json:"discount_applied"`
	TotalCredit      decimal.Decimal `json:"total_credit"`
	HasDiscount      bool            `json:"has_discount"`
	AffectedBillings []PreviewLine   `json:"affected_billings"`
	RemainingCredit  decimal.Decimal `json:"remaining_credit"`
}

// Calculate previews how a payment would be allocated across the client's
// open billings, oldest due date first. Read-only.
func (s *AmortizationService) Calculate(ctx context.Context, clientID string, paymentAmount decimal.Decimal) (*AllocationPreview, error) {
	paymentAmount = domain.RoundCents(paymentAmount)
	if paymentAmount.LessThan(s.cfg.MinimumAmount) {
		return nil, domain.ErrAmountBelowMinimum
	}

	if _, err := s.store.FindClient(ctx, clientID); err != nil {
		return nil, err
	}

	billings, err := s.store.ListOpenBillings(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load open billings: %w", err)
	}

	hasDiscount := paymentAmount.GreaterThanOrEqual(s.cfg.DiscountThreshold)
	discount := decimal.Zero
	if hasDiscount {
		discount = domain.RoundCents(paymentAmount.Mul(s.cfg.DiscountRate))
	}
	totalCredit := paymentAmount.Add(discount)

	var (
		lines    []PreviewLine
		eligible bool
	)
	remaining := totalCredit

	for _, b := range billings {
		debt := b.OutstandingDebt()
		if domain.Settled(debt) {
			continue
		}
		eligible = true

		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		willApply := domain.MinDecimal(remaining, debt)
		remainingAfter := domain.RoundCents(debt.Sub(willApply))

		lines = append(lines, PreviewLine{
			BillingID:          b.ID,
			BillingDescription: b.Description,
			BillingDueDate:     b.DueDate.Format("2006-01-02"),
			BillingAmount:      b.Amount,
			AlreadyAmortized:   b.AmortizedAmount,
			CurrentDebt:        debt,
			WillApply:          willApply,
			RemainingAfter:     remainingAfter,
			WillBePaid:         domain.Settled(remainingAfter),
		})

		remaining = domain.RoundCents(remaining.Sub(willApply))
	}

	if !eligible {
		return nil, domain.ErrNoOpenBillings
	}

	return &AllocationPreview{
		PaymentAmount:    paymentAmount,
		DiscountApplied:  discount,
		TotalCredit:      totalCredit,
		HasDiscount:      hasDiscount,
		AffectedBillings: lines,
		RemainingCredit:  remaining,
	}, nil
}
